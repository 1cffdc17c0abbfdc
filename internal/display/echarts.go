package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ECharts is a Display that keeps a go-echarts force graph and renders it to a
// standalone HTML page. ECharts links nodes by name, user names are unique so
// they serve as the node names.
type ECharts struct {
	mu    *sync.Mutex
	title string
	names map[int]string
	nodes []opts.GraphNode
	links []opts.GraphLink
}

var _ Display = (*ECharts)(nil)

func NewECharts(title string) *ECharts {
	return &ECharts{
		mu:    &sync.Mutex{},
		title: title,
		names: make(map[int]string),
		nodes: []opts.GraphNode{},
		links: []opts.GraphLink{},
	}
}

func (e *ECharts) Init(nodes []Node, edges []Edge) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
	return e.add(nodes, edges)
}

func (e *ECharts) Add(nodes []Node, edges []Edge) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.add(nodes, edges)
}

func (e *ECharts) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
	return nil
}

func (e *ECharts) reset() {
	e.names = make(map[int]string)
	e.nodes = []opts.GraphNode{}
	e.links = []opts.GraphLink{}
}

func (e *ECharts) add(nodes []Node, edges []Edge) error {
	for _, n := range nodes {
		if _, ok := e.names[n.ID]; ok {
			return &RenderError{Op: "add", Err: fmt.Errorf("node %d already exists", n.ID)}
		}
	}
	for _, n := range nodes {
		e.names[n.ID] = n.Label
		e.nodes = append(e.nodes, opts.GraphNode{
			Name:  n.Label,
			Value: float32(n.ID),
		})
	}
	for _, l := range edges {
		e.links = append(e.links, opts.GraphLink{
			Source: e.name(l.From),
			Target: e.name(l.To),
		})
	}
	return nil
}

// name falls back to the id for edges whose ends are not rendered yet.
func (e *ECharts) name(id int) string {
	if name, ok := e.names[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

// Len returns the number of nodes and links held.
func (e *ECharts) Len() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes), len(e.links)
}

// Render writes the page to w.
func (e *ECharts) Render(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return graphBase(e.title, e.nodes, e.links).Render(w)
}

// RenderToFile writes filename + ".html".
func (e *ECharts) RenderToFile(filename string) error {
	f, err := os.Create(filename + ".html")
	if err != nil {
		return err
	}
	defer f.Close()

	return e.Render(f)
}

func graphBase(title string, nodes []opts.GraphNode, links []opts.GraphLink) *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Height:    "100vh",
			Width:     "100vw",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	graph.AddSeries(
		"contacts",
		nodes,
		links,
		charts.WithGraphChartOpts(
			opts.GraphChart{
				Layout:    "force",
				Draggable: opts.Bool(true),
				Roam:      opts.Bool(true),
				Force:     &opts.GraphForce{Repulsion: 400},
			},
		),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Color:    "black",
			Position: "top",
		}),
	)
	return graph
}
