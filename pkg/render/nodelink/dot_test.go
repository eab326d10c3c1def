package nodelink

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskcanvas/pkg/canvas"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
)

func connectedCanvas(t *testing.T) *canvas.Controller {
	t.Helper()
	c := canvas.New(canvas.Options{Logger: log.New(io.Discard)})
	c.RegisterBounds("src", hittest.Rect{X: 0, Y: 0, Width: 120, Height: 56})
	c.RegisterBounds("psi", hittest.Rect{X: 300, Y: 0, Width: 120, Height: 64})
	c.StartConnecting("src", "")
	c.HandleMove(350, 30)
	if _, ok := c.Drop("", "edge-1"); !ok {
		t.Fatal("Drop failed")
	}
	c.EndConnecting()
	return c
}

func TestToDOT(t *testing.T) {
	c := connectedCanvas(t)
	c.Store().CreateOutput("psi", "")

	dot := ToDOT(c.Snapshot(), Options{Detailed: true, Labels: map[string]string{"psi": "PSI {a|b}"}})

	for _, want := range []string{
		"digraph canvas {",
		`"src" [label="{ |src|{<o0> 50%}}"];`,
		`"psi" [label="{{<i0> 50%}|PSI \\{a\\|b\\}|{<o0> 50% ·}}"];`,
		`"src":o0:e -> "psi":i0:w [id="edge-1"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
}

func TestToDOTPlainPorts(t *testing.T) {
	dot := ToDOT(connectedCanvas(t).Snapshot(), Options{})
	if strings.Contains(dot, "50%") {
		t.Errorf("positions shown without Detailed:\n%s", dot)
	}
	if !strings.Contains(dot, `"src" [label="{ |src|{<o0>  }}"];`) {
		t.Errorf("unexpected src record:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	dot := ToDOT(connectedCanvas(t).Snapshot(), Options{})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("root element not normalized: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="44pt" viewBox="0.00 0.00 62.00 44.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 44.00" width="62" height="44"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	if string(normalizeViewBox([]byte("<svg/>"))) != "<svg/>" {
		t.Error("input without viewBox should pass through")
	}
}
