package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/psidex/bmmap/internal/config"
	"github.com/psidex/bmmap/internal/dataset"
	"github.com/psidex/bmmap/internal/graph"
)

// addSourceFlags registers the flags that pick the dataset, each overrides the
// matching config value.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("dataset", "", "dataset JSON file")
	cmd.Flags().String("url", "", "dataset JSON URL")
	cmd.Flags().String("neo4j", "", "neo4j URI to read (:User)-[:CONTACT]->(:User) from")
}

func applySourceFlags(cmd *cobra.Command) {
	// A source given on the command line replaces every configured one.
	for _, name := range []string{"dataset", "url", "neo4j"} {
		if cmd.Flags().Changed(name) {
			cfg.Dataset.ClearSource()
			break
		}
	}
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		cfg.Dataset.Path = v
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		cfg.Dataset.URL = v
	}
	if v, _ := cmd.Flags().GetString("neo4j"); v != "" {
		cfg.Dataset.Neo4jURI = v
	}
	if !cfg.Dataset.HasSource() {
		cfg.Dataset.Path = config.DefaultDatasetPath
	}
}

// loadGraph reads the configured dataset, preferring a file, then a URL, then
// neo4j.
func loadGraph(ctx context.Context) (*graph.Graph, error) {
	var (
		f   *dataset.File
		err error
	)

	switch d := cfg.Dataset; {
	case d.Path != "":
		logger.Info("loading dataset", "path", d.Path)
		f, err = dataset.Load(d.Path)
	case d.URL != "":
		logger.Info("fetching dataset", "url", d.URL)
		client := &http.Client{Timeout: d.FetchTimeout.Duration}
		f, err = dataset.Fetch(ctx, client, d.URL)
	default:
		logger.Info("reading dataset from neo4j", "uri", d.Neo4jURI)
		f, err = dataset.LoadNeo4j(ctx, dataset.Neo4jOptions{
			URI:      d.Neo4jURI,
			Database: d.Neo4jDatabase,
			Username: d.Neo4jUsername,
			Password: d.Neo4jPassword,
		})
	}
	if err != nil {
		return nil, err
	}

	g, err := f.Graph()
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "users", len(f.Users), "edges", len(f.Edges))
	return g, nil
}
