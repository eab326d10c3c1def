package flow

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/taskcanvas/pkg/hittest"
)

// Kind is the node type shown on the canvas.
type Kind string

const (
	DataSource  Kind = "dataSource"
	ComputeTask Kind = "computeTask"
)

// Kinds lists every node kind in palette order.
var Kinds = []Kind{DataSource, ComputeTask}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return slices.Contains(Kinds, k) }

// TaskType is the algorithm run by a compute task.
type TaskType string

const (
	PSI TaskType = "PSI"
	PIR TaskType = "PIR"
	MPC TaskType = "MPC"
	FL  TaskType = "FL"
)

// SourceType is the origin of a data source.
type SourceType string

const (
	Database SourceType = "database"
	File     SourceType = "file"
	API      SourceType = "api"
	Stream   SourceType = "stream"
)

// =============================================================================
// Palette Configuration
// =============================================================================

// TaskConfig describes a compute task type in the palette.
type TaskConfig struct {
	Type        TaskType `json:"type"`
	Label       string   `json:"label"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
}

// SourceConfig describes a data source type in the palette.
type SourceConfig struct {
	Type        SourceType `json:"type"`
	Label       string     `json:"label"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
}

// TaskTypes lists the compute task types in palette order.
var TaskTypes = []TaskConfig{
	{PSI, "Private Set Intersection", "#5b8def", "🔗", "Securely compute the intersection of two sets"},
	{PIR, "Private Information Retrieval", "#2bb39a", "🔍", "Retrieve records without revealing the query"},
	{MPC, "Secure Multi-Party Computation", "#c278e6", "🔐", "Compute jointly without exposing each party's data"},
	{FL, "Federated Learning", "#f0a35e", "🤖", "Distributed training where data never leaves its owner"},
}

// SourceTypes lists the data source types in palette order.
var SourceTypes = []SourceConfig{
	{Database, "Database", "🗄️", "Relational or NoSQL database"},
	{File, "File", "📁", "CSV, Excel and other file data"},
	{API, "API", "🌐", "REST or other remote interface"},
	{Stream, "Stream", "📡", "Real-time data stream"},
}

// Task returns the configuration of t.
func Task(t TaskType) (TaskConfig, bool) {
	i := slices.IndexFunc(TaskTypes, func(c TaskConfig) bool { return c.Type == t })
	if i < 0 {
		return TaskConfig{}, false
	}
	return TaskTypes[i], true
}

// Source returns the configuration of t.
func Source(t SourceType) (SourceConfig, bool) {
	i := slices.IndexFunc(SourceTypes, func(c SourceConfig) bool { return c.Type == t })
	if i < 0 {
		return SourceConfig{}, false
	}
	return SourceTypes[i], true
}

// Dimensions returns the rendered size of a node of kind k.
func Dimensions(k Kind) (width, height float64) {
	switch k {
	case ComputeTask:
		return 120, 64
	default:
		return 120, 56
	}
}

// =============================================================================
// Nodes
// =============================================================================

// NodeData is the payload displayed by a node. SourceType is set for data
// sources and TaskType for compute tasks.
type NodeData struct {
	Label       string     `json:"label,omitempty"`
	SourceType  SourceType `json:"sourceType,omitempty"`
	TaskType    TaskType   `json:"taskType,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Node is a placed palette item.
type Node struct {
	ID     string       `json:"id"`
	Kind   Kind         `json:"type"`
	Data   NodeData     `json:"data"`
	Bounds hittest.Rect `json:"bounds"`
}

// NewNodeID returns a fresh id for a node of kind k.
func NewNodeID(k Kind) string {
	return fmt.Sprintf("%s-%s", k, uuid.NewString())
}

// Place builds a node from item centered on (x, y). Missing label, icon and
// description are filled from the palette configuration.
func Place(id string, item DragItem, x, y float64) Node {
	w, h := Dimensions(item.Type)
	return Node{
		ID:     id,
		Kind:   item.Type,
		Data:   item.Data.withDefaults(item.Type),
		Bounds: hittest.Rect{X: x - w/2, Y: y - h/2, Width: w, Height: h},
	}
}

func (d NodeData) withDefaults(k Kind) NodeData {
	var label, icon, desc string
	switch k {
	case DataSource:
		if c, ok := Source(d.SourceType); ok {
			label, icon, desc = c.Label, c.Icon, c.Description
		}
	case ComputeTask:
		if c, ok := Task(d.TaskType); ok {
			label, icon, desc = c.Label, c.Icon, c.Description
		}
	}
	if d.Label == "" {
		d.Label = label
	}
	if d.Icon == "" {
		d.Icon = icon
	}
	if d.Description == "" {
		d.Description = desc
	}
	return d
}
