package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taskcanvas/pkg/layout"
)

// layoutCommand prints the anchor positions the layout engine assigns.
func (c *CLI) layoutCommand() *cobra.Command {
	var padding float64

	cmd := &cobra.Command{
		Use:   "layout <count>...",
		Short: "Print anchor positions for the given anchor counts",
		Long: `Print anchor positions for the given anchor counts.

A single anchor sits at the center of its side. Two or more anchors are spread
evenly between the padding at each end, so the first and last anchors sit at
padding and 100-padding percent.`,
		Example: `  taskcanvas layout 1 2 3
  taskcanvas layout 5 --padding 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("padding") {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				padding = cfg.Layout.Padding
			}

			counts := make([]int, len(args))
			for i, a := range args {
				n, err := strconv.Atoi(a)
				if err != nil || n < 0 {
					return fmt.Errorf("invalid anchor count %q", a)
				}
				counts[i] = n
			}
			fmt.Println(renderLayoutTable(counts, padding))
			return nil
		},
	}

	cmd.Flags().Float64Var(&padding, "padding", layout.DefaultPadding, "percent kept free at each end of a side")
	return cmd
}

func renderLayoutTable(counts []int, padding float64) string {
	rows := make([][]string, 0, len(counts))
	for _, n := range counts {
		row := []string{strconv.Itoa(n), ""}
		for i, p := range layout.PositionsWithPadding(n, padding) {
			if i > 0 {
				row[1] += "  "
			}
			row[1] += p.String()
		}
		rows = append(rows, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Anchors", "Positions").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return StyleNumber
			default:
				return StyleValue
			}
		}).
		Render()
}
