// Package layout computes anchor placement along a node's connecting edge.
//
// Anchors are placed as percentages of the edge length. A single anchor sits
// in the middle; two or more anchors are spread evenly between a padding
// margin at either end:
//
//	Positions(0) // []
//	Positions(1) // [50%]
//	Positions(2) // [20% 80%]
//	Positions(3) // [20% 50% 80%]
//
// The functions here are pure. Callers own the anchor sequence and assign the
// returned positions in sequence order; the layout never reorders anchors.
package layout
