package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taskcanvas/pkg/cache"
	"github.com/matzehuels/taskcanvas/pkg/canvas"
	"github.com/matzehuels/taskcanvas/pkg/render"
	"github.com/matzehuels/taskcanvas/pkg/render/nodelink"
)

// exportCommand renders a saved snapshot as a node-link diagram.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		scale    float64
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "export <snapshot.json>",
		Short: "Render a canvas snapshot as DOT, SVG, PNG or PDF",
		Long: `Render a canvas snapshot as Graphviz DOT, SVG, PNG or PDF.

The snapshot is the JSON written by 'play' (key w) or returned by
GET /canvases/{id} on a running server. Use - to read from stdin.
PNG and PDF output requires rsvg-convert from librsvg.`,
		Example: `  taskcanvas export canvas.json -f svg -o canvas.svg
  curl -s localhost:8080/canvases/$ID | taskcanvas export - --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := exportOptions{output: output, format: format, detailed: detailed, scale: scale, cache: cache.NullCache{}}
			if !noCache {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				if fc, err := cache.NewFileCache(cfg.CacheDir()); err == nil {
					opts.cache, opts.ttl = fc, cfg.Cache.TTL.Duration
				}
			}
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg, png, pdf")
	cmd.Flags().Float64Var(&scale, "scale", 2, "PNG scale factor")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "print anchor positions in ports")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always re-render instead of reusing cached SVG")
	return cmd
}

type exportOptions struct {
	output   string
	format   string
	detailed bool
	scale    float64
	cache    cache.Cache
	ttl      time.Duration
}

func (c *CLI) runExport(ctx context.Context, input string, opts exportOptions) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	snap, labels, err := readSnapshot(input)
	if err != nil {
		return err
	}
	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: opts.detailed, Labels: labels})

	var data []byte
	switch format := strings.ToLower(opts.format); format {
	case "dot":
		data = []byte(dot)
	case "svg", "png", "pdf":
		data, err = cachedSVG(ctx, opts.cache, opts.ttl, dot)
		if err == nil && format == "png" {
			data, err = render.ToPNG(ctx, data, opts.scale)
		}
		if err == nil && format == "pdf" {
			data, err = render.ToPDF(ctx, data)
		}
	default:
		return fmt.Errorf("unsupported format %q (want dot, svg, png or pdf)", opts.format)
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	prog.done("Exported " + opts.output)
	return nil
}

// cachedSVG renders dot, reusing an earlier render of the same source.
func cachedSVG(ctx context.Context, c cache.Cache, ttl time.Duration, dot string) ([]byte, error) {
	logger := loggerFromContext(ctx)
	key := cache.Key("svg", []byte(dot))
	if svg, hit, err := c.Get(ctx, key); err == nil && hit {
		logger.Debug("svg cache hit", "key", key)
		return svg, nil
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, svg, ttl); err != nil {
		logger.Debug("svg cache write failed", "error", err)
	}
	return svg, nil
}

// savedSnapshot accepts a bare snapshot, a server frame ({"data": ...}), and
// the palette nodes a server or play session adds under "placed".
type savedSnapshot struct {
	canvas.Snapshot
	Placed map[string]struct {
		Data struct {
			Label string `json:"label"`
		} `json:"data"`
	} `json:"placed"`
}

func readSnapshot(path string) (canvas.Snapshot, map[string]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return canvas.Snapshot{}, nil, err
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return canvas.Snapshot{}, nil, err
	}

	var framed struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(raw, &framed) == nil && len(framed.Data) > 0 {
		raw = framed.Data
	}
	var saved savedSnapshot
	if err := json.Unmarshal(raw, &saved); err != nil {
		return canvas.Snapshot{}, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	labels := make(map[string]string, len(saved.Placed))
	for id, n := range saved.Placed {
		labels[id] = n.Data.Label
	}
	return saved.Snapshot, labels, nil
}
