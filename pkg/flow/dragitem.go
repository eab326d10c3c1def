package flow

import (
	"encoding/json"
	"fmt"
)

// MIMEType is the media type of an encoded DragItem.
const MIMEType = "application/json"

// DragItem is the payload carried while dragging an entry off the palette.
type DragItem struct {
	Type Kind     `json:"type"`
	Data NodeData `json:"data"`
}

// DataSourceItem returns the palette payload for a data source of type t.
func DataSourceItem(t SourceType) DragItem {
	return DragItem{Type: DataSource, Data: NodeData{SourceType: t}}
}

// ComputeTaskItem returns the palette payload for a compute task of type t.
func ComputeTaskItem(t TaskType) DragItem {
	return DragItem{Type: ComputeTask, Data: NodeData{TaskType: t}}
}

// Marshal encodes the item for transfer.
func (d DragItem) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// ParseDragItem decodes a palette payload. It returns nil and an error for
// malformed JSON or an unknown node kind.
func ParseDragItem(data []byte) (*DragItem, error) {
	var item DragItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parse drag item: %w", err)
	}
	if !item.Type.Valid() {
		return nil, fmt.Errorf("parse drag item: unknown node type %q", item.Type)
	}
	return &item, nil
}
