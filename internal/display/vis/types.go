package vis

import (
	"github.com/psidex/bmmap/internal/display"
)

// data is the shape vis.Network takes as its data argument.
type data struct {
	Nodes []display.Node `json:"nodes"`
	Edges []display.Edge `json:"edges"`
}

type options struct {
	Physics physics `json:"physics"`
	Layout  layout  `json:"layout"`
}

type physics struct {
	Enabled bool   `json:"enabled"`
	Solver  string `json:"solver"`
}

type layout struct {
	ImprovedLayout bool `json:"improvedLayout"`
}

// defaultOptions keeps physics on and improvedLayout off so large neighbourhoods
// still stabilise.
var defaultOptions = options{
	Physics: physics{Enabled: true, Solver: "barnesHut"},
	Layout:  layout{ImprovedLayout: false},
}
