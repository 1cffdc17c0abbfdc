// Package dataset reads and writes the users-and-edges documents the explorer
// loads, and builds them from crawl dumps.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/psidex/bmmap/internal/graph"
)

// File is the on-disk dataset: {"users": [...], "edges": [...]}.
type File struct {
	Users []graph.User `json:"users"`
	Edges []graph.Edge `json:"edges"`
}

// Decode reads a dataset document. Only decoding errors are reported, ids are
// checked when the graph is built.
func Decode(r io.Reader) (*File, error) {
	f := &File{}
	if err := json.NewDecoder(r).Decode(f); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return f, nil
}

// Load decodes the dataset stored at path.
func Load(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Decode(file)
}

// Graph builds the contact graph of f.
func (f *File) Graph() (*graph.Graph, error) {
	return graph.Build(f.Users, f.Edges)
}

// WriteJSON encodes f compactly.
func WriteJSON(w io.Writer, f *File) error {
	return json.NewEncoder(w).Encode(f)
}
