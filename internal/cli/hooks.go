package cli

import "time"

func (h *logHooks) OnAnchorCreated(nodeID, handleID, role, edgeID string) {
	h.logger.Debug("anchor created", "node", nodeID, "handle", handleID, "role", role, "edge", edgeID)
}

func (h *logHooks) OnAnchorRemoved(nodeID, handleID string) {
	h.logger.Debug("anchor removed", "node", nodeID, "handle", handleID)
}

func (h *logHooks) OnPruned(nodeID string, count int) {
	h.logger.Debug("dangling anchors pruned", "node", nodeID, "count", count)
}

func (h *logHooks) OnNodeDestroyed(nodeID string) {
	h.logger.Debug("node destroyed", "node", nodeID)
}

func (h *logHooks) OnConnectStart(nodeID, handleID string) {
	h.logger.Debug("connect start", "node", nodeID, "handle", handleID)
}

func (h *logHooks) OnHoverChange(prev, next string) {
	h.logger.Debug("hover", "from", prev, "to", next)
}

func (h *logHooks) OnConfirm(nodeID, handleID, edgeID string, ok bool) {
	if !ok {
		h.logger.Debug("confirm rejected", "node", nodeID, "edge", edgeID)
		return
	}
	h.logger.Debug("confirm", "node", nodeID, "handle", handleID, "edge", edgeID)
}

func (h *logHooks) OnConnectEnd() {
	h.logger.Debug("connect end")
}

func (h *logHooks) OnFlush(nodeIDs []string, d time.Duration) {
	h.logger.Debug("render sync", "nodes", nodeIDs, "took", d)
}

func (h *logHooks) OnSyncError(err error) {
	h.logger.Warn("render sync failed", "error", err)
}
