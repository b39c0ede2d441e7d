package entities

import (
	"labeltree/domain/core/valueobjects"
)

// NodeRecord is one stored row of the label tree.
// Records are created once and never mutated, so all fields are private.
type NodeRecord struct {
	id       valueobjects.NodeID
	label    string
	parentID *valueobjects.NodeID
}

// NewNodeRecord creates a record with a fresh id.
// The label is expected to be normalized already.
func NewNodeRecord(label string, parentID *valueobjects.NodeID) *NodeRecord {
	return &NodeRecord{
		id:       valueobjects.NewNodeID(),
		label:    label,
		parentID: copyID(parentID),
	}
}

// ReconstructNodeRecord rebuilds a record from storage. A nil parentID marks a root.
func ReconstructNodeRecord(id, label string, parentID *string) *NodeRecord {
	rec := &NodeRecord{
		id:    valueobjects.NodeIDFrom(id),
		label: label,
	}
	if parentID != nil {
		pid := valueobjects.NodeIDFrom(*parentID)
		rec.parentID = &pid
	}
	return rec
}

// Getters

func (n *NodeRecord) ID() valueobjects.NodeID { return n.id }
func (n *NodeRecord) Label() string           { return n.label }

// ParentID returns nil for root records.
func (n *NodeRecord) ParentID() *valueobjects.NodeID { return copyID(n.parentID) }

// ParentIDString returns the parent id as a nullable string, the form stores persist.
func (n *NodeRecord) ParentIDString() *string {
	if n.parentID == nil {
		return nil
	}
	s := n.parentID.String()
	return &s
}

// IsRoot reports whether the record has no parent.
func (n *NodeRecord) IsRoot() bool { return n.parentID == nil }

func copyID(id *valueobjects.NodeID) *valueobjects.NodeID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
