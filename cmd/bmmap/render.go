package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psidex/bmmap/internal/bmmap"
	"github.com/psidex/bmmap/internal/display"
	"github.com/psidex/bmmap/internal/display/vis"
	"github.com/psidex/bmmap/internal/snapshot"
)

var (
	renderUser   string
	renderDepth  int
	renderExpand []int
	renderFormat string
	renderOut    string
	renderPNG    bool

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render the neighbourhood of a user to a file",
		Long: `Render loads the dataset, renders the neighbourhood of --user and then
expands every --expand id in order, as double clicking the nodes would. The
result is written to <out>.html, or <out>.json with --format json.`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}
)

func init() {
	addSourceFlags(renderCmd)
	renderCmd.Flags().StringVarP(&renderUser, "user", "u", "", "user name to start from")
	renderCmd.Flags().IntVarP(&renderDepth, "depth", "d", 1, "traversal depth")
	renderCmd.Flags().IntSliceVar(&renderExpand, "expand", nil, "user ids to expand after the render")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "vis", "vis, echarts or json")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "bmmap", "output file name without extension")
	renderCmd.Flags().BoolVar(&renderPNG, "png", false, "also capture <out>.png with headless Chrome")
	_ = renderCmd.MarkFlagRequired("user")
}

// fileDisplay is a display that can be written out once rendering is done.
type fileDisplay interface {
	display.Display
	RenderToFile(filename string) error
}

func runRender(cmd *cobra.Command, args []string) error {
	applySourceFlags(cmd)

	var (
		d        fileDisplay
		filename = renderOut + ".html"
	)
	switch renderFormat {
	case "vis", "json":
		d = vis.NewDataSet(cfg.HTTP.Title)
	case "echarts":
		d = display.NewECharts(cfg.HTTP.Title)
	default:
		return fmt.Errorf("unknown format %q", renderFormat)
	}
	if renderFormat == "json" {
		filename = renderOut + ".json"
	}

	g, err := loadGraph(cmd.Context())
	if err != nil {
		return err
	}

	exp := bmmap.NewExplorer(logger, g, d, nil)
	res, err := exp.Render(renderUser, renderDepth)
	if err != nil {
		return err
	}
	logger.Info("rendered", "user", renderUser, "depth", renderDepth, "displayed", res.Displayed)

	for _, id := range renderExpand {
		res, err := exp.Expand(id)
		if err != nil {
			return err
		}
		logger.Info("expanded", "user", id, "added", res.NodesAdded, "displayed", res.Displayed)
	}

	if renderFormat == "json" {
		raw, err := d.(*vis.DataSet).MarshalJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(filename, raw, 0o644); err != nil {
			return err
		}
	} else if err := d.RenderToFile(renderOut); err != nil {
		return err
	}
	logger.Info("wrote output", "file", filename)

	if renderPNG {
		if renderFormat == "json" {
			return fmt.Errorf("--png needs an html format")
		}
		png := renderOut + ".png"
		if err := snapshot.CaptureFile(cmd.Context(), filename, png, snapshot.DefaultOptions()); err != nil {
			return err
		}
		logger.Info("wrote snapshot", "file", png)
	}
	return nil
}
