package visws

import (
	"github.com/psidex/bmmap/internal/display"
)

// Message types understood by the browser page.
const (
	TypeInit  = "init"
	TypeAdd   = "add"
	TypeClear = "clear"
)

// Message is written to every client for each display change.
type Message struct {
	Type  string         `json:"type"`
	Nodes []display.Node `json:"nodes,omitempty"`
	Edges []display.Edge `json:"edges,omitempty"`
}
