package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/canvas"
	"github.com/matzehuels/taskcanvas/pkg/flow"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
	"github.com/matzehuels/taskcanvas/pkg/layout"
	"github.com/matzehuels/taskcanvas/pkg/observability"
)

// Canvas units covered by one terminal cell.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// Palette slots: data sources fill the first column, tasks the next two.
const (
	slotX       = 90.0
	slotY       = 48.0
	slotColumn  = 300.0
	slotRow     = 96.0
	statusLines = 4
)

const (
	glyphConnected   = '●'
	glyphDangling    = '○'
	glyphProvisional = '◌'
	glyphPointer     = '✚'
)

// playCommand opens the interactive terminal canvas.
func (c *CLI) playCommand() *cobra.Command {
	var (
		save    string
		empty   bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Draw connections with the mouse in a terminal canvas",
		Long: `Draw connections with the mouse in a terminal canvas.

Press on a node (or one of its output anchors) and drag onto another node to
connect them. The target shows a provisional anchor while hovered; releasing
over empty canvas cancels the connection.

Keys:
  1-4   add a PSI, PIR, MPC or FL task
  5-8   add a database, file, api or stream source
  x     remove the last node
  w     write the canvas snapshot
  r     clear the canvas
  esc   cancel the current drag
  q     quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			// The alt screen owns the terminal; canvas events go to a file or nowhere.
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				c.Logger.SetOutput(f)
			} else {
				observability.Reset()
			}

			m := newPlayModel(canvas.Options{
				Padding:   cfg.Layout.Padding,
				Tolerance: cfg.HitTest.Tolerance,
				Logger:    log.New(io.Discard),
			}, save)
			if !empty {
				m.seed()
			}

			p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&save, "save", "s", "canvas.json", "snapshot file written by w")
	cmd.Flags().BoolVar(&empty, "empty", false, "start without demo nodes")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append debug output to this file")
	return cmd
}

// =============================================================================
// Model
// =============================================================================

type playModel struct {
	ctrl     *canvas.Controller
	nodes    []flow.Node
	width    int
	height   int
	pointerX int
	pointerY int
	dragging bool
	synced   []string
	frames   int
	message  string
	savePath string
}

func newPlayModel(opts canvas.Options, savePath string) *playModel {
	m := &playModel{
		width:    100,
		height:   32,
		savePath: savePath,
	}
	opts.Sampler = hittest.SamplerFunc(m.sampleBounds)
	m.ctrl = canvas.New(opts)
	_ = m.ctrl.RegisterSync(func(ids []string) {
		m.synced = ids
		m.frames++
	})
	return m
}

// seed places a small demo flow.
func (m *playModel) seed() {
	m.place(flow.DataSourceItem(flow.Database))
	m.place(flow.DataSourceItem(flow.File))
	m.place(flow.ComputeTaskItem(flow.PSI))
	m.place(flow.ComputeTaskItem(flow.FL))
	m.ctrl.Flush()
}

func (m *playModel) Init() tea.Cmd {
	return nil
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.dragging {
				m.dragging = false
				m.ctrl.EndConnecting()
				m.message = "connection cancelled"
			}
		case "1", "2", "3", "4":
			t := flow.TaskTypes[key[0]-'1']
			n := m.place(flow.ComputeTaskItem(t.Type))
			m.message = "added " + n.Data.Label
		case "5", "6", "7", "8":
			s := flow.SourceTypes[key[0]-'5']
			n := m.place(flow.DataSourceItem(s.Type))
			m.message = "added " + n.Data.Label
		case "x":
			m.removeLast()
		case "r":
			m.dragging = false
			m.ctrl.Reset()
			m.nodes = nil
			m.message = "canvas cleared"
		case "w":
			if err := m.save(); err != nil {
				m.message = "save failed: " + err.Error()
			} else {
				m.message = "saved " + m.savePath
			}
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	m.ctrl.Flush()
	return m, nil
}

func (m *playModel) handleMouse(msg tea.MouseMsg) {
	m.pointerX, m.pointerY = msg.X, msg.Y
	x, y := cellToPoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		nodeID, handleID, ok := m.grab(msg.X, msg.Y)
		if !ok {
			return
		}
		m.ctrl.StartConnecting(nodeID, handleID)
		m.dragging = true
		m.message = "connecting from " + m.label(nodeID)
	case tea.MouseActionMotion:
		if m.dragging {
			m.ctrl.HandleMove(x, y)
		}
	case tea.MouseActionRelease:
		if !m.dragging {
			return
		}
		m.dragging = false
		m.ctrl.HandleMove(x, y)
		if conn, ok := m.ctrl.Drop("", "edge-"+uuid.NewString()[:8]); ok {
			m.message = fmt.Sprintf("connected %s → %s", m.label(conn.Source.NodeID), m.label(conn.Target.NodeID))
		} else {
			m.message = "connection cancelled"
		}
		m.ctrl.EndConnecting()
	}
}

// grab resolves a press at cell (cx, cy) to a node and, when the press is on
// one of its output anchors, that anchor.
func (m *playModel) grab(cx, cy int) (nodeID, handleID string, ok bool) {
	for i := len(m.nodes) - 1; i >= 0; i-- {
		n := m.nodes[i]
		b := boxOf(n.Bounds)
		if cx < b.c0 || cx > b.c1 || cy < b.r0 || cy > b.r1 {
			continue
		}
		if cx == b.c1 {
			for _, a := range m.ctrl.Store().Outputs(n.ID) {
				if b.anchorRow(a.Position) == cy {
					return n.ID, a.ID, true
				}
			}
		}
		return n.ID, "", true
	}
	return "", "", false
}

// place adds item in the next free slot of its column.
func (m *playModel) place(item flow.DragItem) flow.Node {
	col := 0
	if item.Type == flow.ComputeTask {
		tasks := 0
		for _, n := range m.nodes {
			if n.Kind == flow.ComputeTask {
				tasks++
			}
		}
		col = 1 + tasks%2
	}
	x := slotX + float64(col)*slotColumn
	y := slotY
	for m.occupied(x, y) {
		y += slotRow
	}

	n := flow.Place(flow.NewNodeID(item.Type), item, x, y)
	m.ctrl.RegisterBounds(n.ID, n.Bounds)
	m.nodes = append(m.nodes, n)
	return n
}

func (m *playModel) occupied(x, y float64) bool {
	for _, n := range m.nodes {
		if cx, cy := n.Bounds.Center(); cx == x && cy == y {
			return true
		}
	}
	return false
}

func (m *playModel) removeLast() {
	if len(m.nodes) == 0 {
		return
	}
	n := m.nodes[len(m.nodes)-1]
	m.nodes = m.nodes[:len(m.nodes)-1]
	if m.dragging && m.ctrl.Session().Source().NodeID == n.ID {
		m.dragging = false
	}
	removed := m.ctrl.RemoveNode(n.ID)
	m.message = fmt.Sprintf("removed %s (%d edges)", n.Data.Label, len(removed))
}

// save writes the snapshot in the format 'export' reads.
func (m *playModel) save() error {
	placed := make(map[string]flow.Node, len(m.nodes))
	for _, n := range m.nodes {
		placed[n.ID] = n
	}
	data, err := json.MarshalIndent(struct {
		canvas.Snapshot
		Placed map[string]flow.Node `json:"placed"`
	}{m.ctrl.Snapshot(), placed}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.savePath, data, 0o644)
}

// sampleBounds reports where nodeID is drawn now, so hit tests follow the
// node list rather than the bounds registered at placement.
func (m *playModel) sampleBounds(nodeID string) (hittest.Rect, bool) {
	for _, n := range m.nodes {
		if n.ID == nodeID {
			return n.Bounds, true
		}
	}
	return hittest.Rect{}, false
}

func (m *playModel) label(id string) string {
	for _, n := range m.nodes {
		if n.ID == id {
			return n.Data.Label
		}
	}
	return id
}

// =============================================================================
// Geometry
// =============================================================================

// cellToPoint returns the canvas point at the center of a terminal cell.
func cellToPoint(cx, cy int) (float64, float64) {
	return (float64(cx) + 0.5) * cellWidth, (float64(cy) + 0.5) * cellHeight
}

// box is a node rectangle in terminal cells, borders inclusive.
type box struct {
	c0, r0, c1, r1 int
}

func boxOf(r hittest.Rect) box {
	b := box{
		c0: int(math.Floor(r.X / cellWidth)),
		r0: int(math.Floor(r.Y / cellHeight)),
		c1: int(math.Floor((r.X + r.Width) / cellWidth)),
		r1: int(math.Floor((r.Y + r.Height) / cellHeight)),
	}
	b.c1 = max(b.c1, b.c0+2)
	b.r1 = max(b.r1, b.r0+2)
	return b
}

// anchorRow maps a position along the side to a border row.
func (b box) anchorRow(p layout.Percentage) int {
	return b.r0 + int(math.Round(p.Fraction()*float64(b.r1-b.r0)))
}

// =============================================================================
// View
// =============================================================================

var playStyles = []lipgloss.Style{
	lipgloss.NewStyle(),
	lipgloss.NewStyle().Foreground(colorDim),
	lipgloss.NewStyle().Foreground(colorGray),
	lipgloss.NewStyle().Foreground(colorWhite).Bold(true),
	lipgloss.NewStyle().Foreground(colorGreen),
	lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	lipgloss.NewStyle().Foreground(colorYellow),
}

// Indexes into playStyles; compute task colors are appended per node.
const (
	stylePlain = iota
	styleMuted
	styleBorder
	styleLabel
	styleSource
	styleHover
	styleAnchor
)

type grid struct {
	runes  [][]rune
	styles [][]int
	extra  []lipgloss.Style
}

func newGrid(w, h int) *grid {
	g := &grid{runes: make([][]rune, h), styles: make([][]int, h)}
	for y := range g.runes {
		g.runes[y] = []rune(strings.Repeat(" ", w))
		g.styles[y] = make([]int, w)
	}
	return g
}

func (g *grid) set(x, y int, r rune, style int) {
	if y < 0 || y >= len(g.runes) || x < 0 || x >= len(g.runes[y]) {
		return
	}
	g.runes[y][x] = r
	g.styles[y][x] = style
}

func (g *grid) text(x, y int, s string, style int) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r, style)
	}
}

// color registers a style and returns its index.
func (g *grid) color(s lipgloss.Style) int {
	g.extra = append(g.extra, s)
	return len(playStyles) + len(g.extra) - 1
}

func (g *grid) style(i int) lipgloss.Style {
	if i < len(playStyles) {
		return playStyles[i]
	}
	return g.extra[i-len(playStyles)]
}

func (g *grid) render() string {
	var b strings.Builder
	for y, row := range g.runes {
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.styles[y][x] == g.styles[y][start] {
				continue
			}
			run := string(row[start:x])
			if s := g.styles[y][start]; s == stylePlain {
				b.WriteString(run)
			} else {
				b.WriteString(g.style(s).Render(run))
			}
			start = x
		}
		if y < len(g.runes)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *playModel) View() string {
	g := newGrid(m.width, max(m.height-statusLines, 1))

	sess := m.ctrl.Session()
	for _, n := range m.nodes {
		m.drawNode(g, n, sess.Active() && sess.Source().NodeID == n.ID, sess.Hovered() == n.ID)
	}
	if m.dragging {
		g.set(m.pointerX, m.pointerY, glyphPointer, styleHover)
	}

	return g.render() + "\n" + m.status()
}

func (m *playModel) drawNode(g *grid, n flow.Node, source, hovered bool) {
	b := boxOf(n.Bounds)

	border := styleBorder
	switch {
	case hovered:
		border = styleHover
	case source:
		border = styleSource
	case n.Kind == flow.ComputeTask:
		if t, ok := flow.Task(n.Data.TaskType); ok {
			border = g.color(lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)))
		}
	}

	g.set(b.c0, b.r0, '╭', border)
	g.set(b.c1, b.r0, '╮', border)
	g.set(b.c0, b.r1, '╰', border)
	g.set(b.c1, b.r1, '╯', border)
	for x := b.c0 + 1; x < b.c1; x++ {
		g.set(x, b.r0, '─', border)
		g.set(x, b.r1, '─', border)
	}
	for y := b.r0 + 1; y < b.r1; y++ {
		g.set(b.c0, y, '│', border)
		g.set(b.c1, y, '│', border)
	}

	inner := b.c1 - b.c0 - 1
	title, detail := string(n.Data.TaskType), n.Data.Label
	if n.Kind == flow.DataSource {
		title, detail = n.Data.Label, string(n.Data.SourceType)
	}
	g.text(b.c0+1, b.r0+1, truncate(title, inner), styleLabel)
	if b.r0+2 < b.r1 {
		g.text(b.c0+1, b.r0+2, truncate(detail, inner), styleMuted)
	}

	set := m.ctrl.View(n.ID)
	for _, a := range set.Inputs {
		g.set(b.c0, b.anchorRow(a.Position), anchorGlyph(a), styleAnchor)
	}
	for _, a := range set.Outputs {
		g.set(b.c1, b.anchorRow(a.Position), anchorGlyph(a), styleAnchor)
	}
}

func anchorGlyph(a anchor.Anchor) rune {
	switch {
	case a.EdgeID != "":
		return glyphConnected
	case strings.HasPrefix(a.ID, "temp-"):
		return glyphProvisional
	default:
		return glyphDangling
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func (m *playModel) status() string {
	sess := m.ctrl.Session()

	state := StyleDim.Render("idle")
	if sess.Active() {
		state = StyleHighlight.Render("connecting") + " from " + StyleValue.Render(m.label(sess.Source().NodeID))
		if h := sess.Hovered(); h != "" {
			state += " → " + StyleValue.Render(m.label(h))
		}
	}

	synced := StyleDim.Render("nothing synced yet")
	if m.frames > 0 {
		names := make([]string, len(m.synced))
		for i, id := range m.synced {
			names[i] = m.label(id)
		}
		synced = fmt.Sprintf("synced %s %s", StyleNumber.Render(fmt.Sprint(m.frames)), StyleDim.Render(strings.Join(names, ", ")))
	}

	edges := len(m.ctrl.Snapshot().Edges)
	lines := []string{
		StyleTitle.Render(appName) + "  " + state,
		synced,
		fmt.Sprintf("%s nodes  %s edges  %s", StyleNumber.Render(fmt.Sprint(len(m.nodes))), StyleNumber.Render(fmt.Sprint(edges)), m.message),
		StyleDim.Render("drag to connect · 1-4 task · 5-8 source · x remove · w save · r clear · q quit"),
	}
	return strings.Join(lines, "\n")
}
