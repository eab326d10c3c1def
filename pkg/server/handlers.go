package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/cache"
	"github.com/matzehuels/taskcanvas/pkg/canvas"
	cerrors "github.com/matzehuels/taskcanvas/pkg/errors"
	"github.com/matzehuels/taskcanvas/pkg/flow"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
	"github.com/matzehuels/taskcanvas/pkg/render/nodelink"
)

// =============================================================================
// Canvases
// =============================================================================

func (s *Server) createCanvas(w http.ResponseWriter, r *http.Request) {
	id, err := s.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) listCanvases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"canvases": s.IDs()})
}

func (s *Server) deleteCanvas(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "canvas")
	if !s.Delete(id) {
		writeError(w, cerrors.New(cerrors.ErrCodeCanvasNotFound, "canvas %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// snapshotResponse adds palette data to the controller snapshot.
type snapshotResponse struct {
	canvas.Snapshot
	Placed map[string]flow.Node `json:"placed"`
}

func (s *Server) snapshot(r *http.Request, e *entry) (any, error) {
	return snapshotResponse{Snapshot: e.ctrl.Snapshot(), Placed: e.nodes}, nil
}

func (s *Server) reset(r *http.Request, e *entry) (any, error) {
	e.ctrl.Reset()
	clear(e.nodes)
	return nil, nil
}

// =============================================================================
// Nodes
// =============================================================================

type placeRequest struct {
	ID   string        `json:"id,omitempty"`
	X    float64       `json:"x"`
	Y    float64       `json:"y"`
	Item flow.DragItem `json:"item"`
}

func (s *Server) placeNode(r *http.Request, e *entry) (any, error) {
	var req placeRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if !req.Item.Type.Valid() {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "unknown node type %q", req.Item.Type)
	}
	if err := cerrors.ValidatePoint(req.X, req.Y); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = flow.NewNodeID(req.Item.Type)
	} else if err := cerrors.ValidateNodeID(req.ID); err != nil {
		return nil, err
	}

	node := flow.Place(req.ID, req.Item, req.X, req.Y)
	e.ctrl.RegisterBounds(node.ID, node.Bounds)
	e.nodes[node.ID] = node
	return createdResult{node}, nil
}

func (s *Server) destroyNode(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	removed := e.ctrl.RemoveNode(id)
	delete(e.nodes, id)
	return map[string]any{"removedEdges": removed}, nil
}

func (s *Server) registerBounds(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	var rect hittest.Rect
	if err := decode(r, &rect); err != nil {
		return nil, err
	}
	if err := cerrors.ValidateRect(rect.X, rect.Y, rect.Width, rect.Height); err != nil {
		return nil, err
	}
	e.ctrl.RegisterBounds(id, rect)
	if n, ok := e.nodes[id]; ok {
		n.Bounds = rect
		e.nodes[id] = n
	}
	return rect, nil
}

func (s *Server) anchors(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	if !e.ctrl.Store().Known(id) {
		return nil, cerrors.New(cerrors.ErrCodeNotFound, "node %q not found", id)
	}
	return e.ctrl.View(id), nil
}

type anchorRequest struct {
	Role   anchor.Role `json:"role"`
	EdgeID string      `json:"edgeId,omitempty"`
}

func (s *Server) createAnchor(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	var req anchorRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.EdgeID != "" {
		if err := cerrors.ValidateEdgeID(req.EdgeID); err != nil {
			return nil, err
		}
	}
	handle, _ := e.ctrl.CreateAnchor(id, req.Role, req.EdgeID)
	a, _ := e.ctrl.Store().Anchor(id, handle)
	return createdResult{a}, nil
}

func (s *Server) removeAnchor(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	handle := chi.URLParam(r, "handle")
	if e.ctrl.RemoveAnchor(id, handle).Empty() {
		return nil, cerrors.New(cerrors.ErrCodeNotFound, "anchor %q not found on %q", handle, id)
	}
	return nil, nil
}

func (s *Server) removeEdge(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	edge := chi.URLParam(r, "edge")
	if err := cerrors.ValidateEdgeID(edge); err != nil {
		return nil, err
	}
	e.ctrl.RemoveEdge(id, edge)
	return nil, nil
}

func (s *Server) prune(r *http.Request, e *entry) (any, error) {
	id, err := nodeParam(r)
	if err != nil {
		return nil, err
	}
	e.ctrl.PruneDangling(id)
	return nil, nil
}

func nodeParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "node")
	return id, cerrors.ValidateNodeID(id)
}

// =============================================================================
// Connecting
// =============================================================================

type startRequest struct {
	NodeID   string `json:"nodeId"`
	HandleID string `json:"handleId,omitempty"`
}

func (s *Server) connectStart(r *http.Request, e *entry) (any, error) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if err := cerrors.ValidateNodeID(req.NodeID); err != nil {
		return nil, err
	}
	e.ctrl.StartConnecting(req.NodeID, req.HandleID)
	return e.ctrl.Session().Snapshot(), nil
}

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) connectMove(r *http.Request, e *entry) (any, error) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if err := cerrors.ValidatePoint(req.X, req.Y); err != nil {
		return nil, err
	}
	e.ctrl.HandleMove(req.X, req.Y)
	return e.ctrl.Session().Snapshot(), nil
}

type dropRequest struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

// connectDrop commits the connection and ends the gesture in the same frame.
// An omitted edge id is generated.
func (s *Server) connectDrop(r *http.Request, e *entry) (any, error) {
	var req dropRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.EdgeID == "" {
		req.EdgeID = "edge-" + uuid.NewString()
	} else if err := cerrors.ValidateEdgeID(req.EdgeID); err != nil {
		return nil, err
	}

	conn, ok := e.ctrl.Drop(req.NodeID, req.EdgeID)
	e.ctrl.EndConnecting()
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "no connection: missing or unknown target, or edge %q already attached", req.EdgeID)
	}
	return createdResult{conn}, nil
}

func (s *Server) connectEnd(r *http.Request, e *entry) (any, error) {
	e.ctrl.EndConnecting()
	return e.ctrl.Session().Snapshot(), nil
}

// =============================================================================
// Export
// =============================================================================

func (s *Server) dot(r *http.Request) (string, error) {
	e, err := s.lookup(chi.URLParam(r, "canvas"))
	if err != nil {
		return "", err
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))

	e.mu.Lock()
	defer e.mu.Unlock()
	labels := make(map[string]string, len(e.nodes))
	for id, n := range e.nodes {
		labels[id] = n.Data.Label
	}
	return nodelink.ToDOT(e.ctrl.Snapshot(), nodelink.Options{Detailed: detailed, Labels: labels}), nil
}

func (s *Server) exportDOT(w http.ResponseWriter, r *http.Request) {
	dot, err := s.dot(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) exportSVG(w http.ResponseWriter, r *http.Request) {
	dot, err := s.dot(r)
	if err != nil {
		writeError(w, err)
		return
	}
	svg, err := s.renderSVG(r.Context(), dot)
	if err != nil {
		writeError(w, cerrors.Wrap(cerrors.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// renderSVG renders dot through the export cache. Cache failures only cost
// a render.
func (s *Server) renderSVG(ctx context.Context, dot string) ([]byte, error) {
	key := cache.Key("svg", []byte(dot))
	if svg, hit, err := s.opts.Cache.Get(ctx, key); err != nil {
		s.logger.Warn("svg cache read failed", "error", err)
	} else if hit {
		return svg, nil
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	if err := s.opts.Cache.Set(ctx, key, svg, s.opts.CacheTTL); err != nil {
		s.logger.Warn("svg cache write failed", "error", err)
	}
	return svg, nil
}
