package valueobjects

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// NodeID is a value object representing a unique node identifier.
// Stored ids are opaque: any string read back from the store is accepted as-is.
type NodeID struct {
	value string
}

// NewNodeID creates a new random (v4) NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NodeIDFrom wraps an id that already exists in the store or came from a client.
func NodeIDFrom(id string) NodeID {
	return NodeID{value: id}
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("NodeID must be a string")
	}
	id.value = s
	return nil
}
