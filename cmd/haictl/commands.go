package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/drilldown"
	"hai-map-go/internal/export"
	"hai-map-go/internal/filter"
	"hai-map-go/internal/render"
)

func filterEvents() []filter.Event {
	return []filter.Event{
		{Type: filter.SetYear, Value: year},
		{Type: filter.SetInfectionType, Value: infectionType},
	}
}

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Print the per-state infection totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadController()
		if err != nil {
			return err
		}
		v := c.View()
		names := make([]string, 0, len(v.States))
		for name := range v.States {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STATE\tINFECTIONS")
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t%s\n", name, render.FormatCount(v.States[name]))
		}
		fmt.Fprintf(tw, "TOTAL\t%s\n", render.FormatCount(aggregator.Total(v.States)))
		return tw.Flush()
	},
}

var hospitalsCmd = &cobra.Command{
	Use:   "hospitals <state>",
	Short: "Print the hospital aggregates of one state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadController()
		if err != nil {
			return err
		}
		if _, err := c.Dispatch(filter.Event{Type: filter.SelectState, Value: args[0]}); err != nil {
			return err
		}
		v := c.View()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HOSPITAL\tINFECTIONS\tLATEST BENCHMARK\tMOST FREQUENT BENCHMARK")
		for _, h := range v.Hospitals {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.HospitalID, render.FormatCount(h.TotalScore), h.Benchmark, h.MostFrequentBenchmark)
		}
		return tw.Flush()
	},
}

var (
	renderSelect string
	renderOut    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the map as SVG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadController()
		if err != nil {
			return err
		}
		if renderSelect != "" {
			if _, err := c.Dispatch(filter.Event{Type: filter.SelectState, Value: renderSelect}); err != nil {
				return err
			}
		}
		w, err := output(renderOut)
		if err != nil {
			return err
		}
		defer w.Close()
		return c.RenderMap(w)
	},
}

var (
	exportState    string
	exportHospital string
	exportFormat   string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered infection table as CSV or XLSX",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(exportFormat)
		if format != "csv" && format != "xlsx" {
			return fmt.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
		}
		c, err := loadController()
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = export.CSVFilename
			if format == "xlsx" {
				path = export.XLSXFilename
			}
		}
		w, err := output(path)
		if err != nil {
			return err
		}
		defer w.Close()

		crit := export.Criteria{State: exportState, HospitalID: exportHospital, InfectionType: infectionType}
		var n int
		if format == "xlsx" {
			n, err = export.WriteXLSX(w, c.Records(), crit)
		} else {
			n, err = export.WriteCSV(w, c.Records(), crit)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", n, path)
		return nil
	},
}

var (
	graphOut    string
	graphWidth  int
	graphHeight int
)

var linegraphCmd = &cobra.Command{
	Use:   "linegraph <hospital>",
	Short: "Write a hospital's infection history as a PNG line graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadController()
		if err != nil {
			return err
		}
		lines, err := drilldown.Lines(c.Records(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		w, err := output(graphOut)
		if err != nil {
			return err
		}
		defer w.Close()
		return drilldown.Render(w, args[0], lines, graphWidth, graphHeight)
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderSelect, "select", "", "State to select before rendering")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "map.svg", "Output file, - for stdout")

	exportCmd.Flags().StringVar(&exportState, "state", "all", "State filter")
	exportCmd.Flags().StringVar(&exportHospital, "hospital", "all", "Hospital id filter")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default HA-Infections.<format>)")

	linegraphCmd.Flags().StringVarP(&graphOut, "out", "o", "linegraph.png", "Output file, - for stdout")
	linegraphCmd.Flags().IntVar(&graphWidth, "width", drilldown.DefaultWidth, "Image width")
	linegraphCmd.Flags().IntVar(&graphHeight, "height", drilldown.DefaultHeight, "Image height")
}
