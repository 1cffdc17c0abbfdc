package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/psidex/bmmap/internal/dataset"
)

var (
	ingestOut    string
	ingestFormat string

	ingestCmd = &cobra.Command{
		Use:   "ingest <dump dir>",
		Short: "Build a dataset from a directory of <userId>.contacts.json files",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestOut, "out", "o", "-", "output file, - for stdout")
	ingestCmd.Flags().StringVarP(&ingestFormat, "format", "f", "json", "json or graphviz")
}

func runIngest(cmd *cobra.Command, args []string) error {
	var write func(io.Writer, *dataset.File) error
	switch ingestFormat {
	case "json":
		write = dataset.WriteJSON
	case "graphviz":
		write = dataset.WriteGraphviz
	default:
		return fmt.Errorf("unknown format %q", ingestFormat)
	}

	f, stats, err := dataset.Ingest(logger, args[0])
	if err != nil {
		return err
	}
	logger.Info("ingested dump",
		"profiles", stats.Profiles,
		"users", len(f.Users),
		"edges", len(f.Edges),
		"userHit", stats.UserHit,
		"userMiss", stats.UserMiss,
		"edgeHit", stats.EdgeHit,
		"edgeMiss", stats.EdgeMiss,
		"selfEdges", stats.SelfEdges,
		"prunedEdges", stats.PrunedEdges,
	)
	for n, count := range stats.ContactsPerProfile {
		logger.Debug("contacts per profile", "contacts", n, "profiles", count)
	}

	var w io.Writer = os.Stdout
	if ingestOut != "-" {
		file, err := os.Create(ingestOut)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return write(w, f)
}
