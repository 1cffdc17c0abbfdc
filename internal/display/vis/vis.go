// Package vis keeps the node and edge data sets of a vis-network graph.
package vis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/psidex/bmmap/internal/display"
)

// DataSet mirrors the pair of vis.DataSet objects a vis.Network renders. Like
// vis.DataSet it refuses to add a node whose id is already present.
type DataSet struct {
	mu    *sync.Mutex
	title string
	index map[int]struct{}
	nodes []display.Node
	edges []display.Edge
}

var (
	_ display.Display     = (*DataSet)(nil)
	_ display.Snapshotter = (*DataSet)(nil)
)

func NewDataSet(title string) *DataSet {
	return &DataSet{
		mu:    &sync.Mutex{},
		title: title,
		index: make(map[int]struct{}),
		nodes: []display.Node{},
		edges: []display.Edge{},
	}
}

func (d *DataSet) Init(nodes []display.Node, edges []display.Edge) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	index := make(map[int]struct{}, len(nodes))
	for _, n := range nodes {
		if _, ok := index[n.ID]; ok {
			return duplicate("init", n.ID)
		}
		index[n.ID] = struct{}{}
	}

	d.index = index
	d.nodes = append([]display.Node{}, nodes...)
	d.edges = append([]display.Edge{}, edges...)
	return nil
}

func (d *DataSet) Add(nodes []display.Node, edges []display.Edge) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := make(map[int]struct{}, len(nodes))
	for _, n := range nodes {
		if _, ok := d.index[n.ID]; ok {
			return duplicate("add", n.ID)
		}
		if _, ok := batch[n.ID]; ok {
			return duplicate("add", n.ID)
		}
		batch[n.ID] = struct{}{}
	}

	for _, n := range nodes {
		d.index[n.ID] = struct{}{}
	}
	d.nodes = append(d.nodes, nodes...)
	d.edges = append(d.edges, edges...)
	return nil
}

func (d *DataSet) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.index = make(map[int]struct{})
	d.nodes = []display.Node{}
	d.edges = []display.Edge{}
	return nil
}

func duplicate(op string, id int) error {
	return &display.RenderError{Op: op, Err: fmt.Errorf("cannot add item %d: item already exists", id)}
}

// Snapshot copies the current data sets.
func (d *DataSet) Snapshot() ([]display.Node, []display.Edge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]display.Node{}, d.nodes...), append([]display.Edge{}, d.edges...)
}

// MarshalJSON encodes the data as {"nodes": [...], "edges": [...]}.
func (d *DataSet) MarshalJSON() ([]byte, error) {
	nodes, edges := d.Snapshot()
	return json.Marshal(data{Nodes: nodes, Edges: edges})
}

// WriteHTML writes a page that draws the data set with vis-network.
func (d *DataSet) WriteHTML(w io.Writer) error {
	dataJSON, err := json.Marshal(d)
	if err != nil {
		return err
	}
	optionsJSON, err := json.Marshal(defaultOptions)
	if err != nil {
		return err
	}
	titleJSON, err := json.Marshal(d.title)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, pageHTML, titleJSON, dataJSON, optionsJSON)
	return err
}

// RenderToFile writes filename + ".html".
func (d *DataSet) RenderToFile(filename string) error {
	file, err := os.Create(filename + ".html")
	if err != nil {
		return err
	}
	defer file.Close()

	return d.WriteHTML(file)
}
