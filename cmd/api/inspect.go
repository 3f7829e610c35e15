// cmd/api/inspect.go

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propmap/internal/adapter/source"
	"propmap/internal/domain/temporal"
	"propmap/internal/service/attribute"
	"propmap/internal/service/scale"
	"propmap/internal/service/stats"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the attributes, mismatches and stats of a GeoJSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := inspectFile(args[0], cfg.Symbol.SeriesProperty, cfg.Symbol.ScaleFactor, zap.L())
		if err != nil {
			return err
		}
		if inspectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return report.write(cmd.OutOrStdout())
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(inspectCmd)
}

type attributeRow struct {
	Key        temporal.AttributeKey `json:"key"`
	Stats      temporal.Stats        `json:"stats"`
	MeanRadius float64               `json:"mean_radius"`
}

type inspectReport struct {
	File       string              `json:"file"`
	Features   int                 `json:"features"`
	Attributes []attributeRow      `json:"attributes"`
	Mismatches []temporal.Mismatch `json:"mismatches"`
}

func inspectFile(path, series string, factor float64, log *zap.Logger) (*inspectReport, error) {
	c, _, err := source.ReadFile(path)
	if err != nil {
		return nil, err
	}

	extractor := attribute.NewExtractor(series, log)
	keys := extractor.Extract(c)
	table := stats.NewAggregator(series, log).Compute(c, keys)
	radius := scale.NewRadius(factor, log)

	report := &inspectReport{
		File:       path,
		Features:   c.Len(),
		Attributes: make([]attributeRow, 0, len(keys)),
		Mismatches: extractor.Validate(c, keys),
	}
	for _, k := range keys {
		s := table.Get(k)
		report.Attributes = append(report.Attributes, attributeRow{
			Key:        k,
			Stats:      s,
			MeanRadius: radius.Radius(s.Mean),
		})
	}
	return report, nil
}

func (r *inspectReport) write(out io.Writer) error {
	fmt.Fprintf(out, "%s: %d features, %d attributes\n\n", r.File, r.Features, len(r.Attributes))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tMIN\tMEAN\tMAX\tMEAN RADIUS")
	for _, a := range r.Attributes {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%.2f\n",
			a.Key, temporal.FormatValue(a.Stats.Min), a.Stats.Mean, temporal.FormatValue(a.Stats.Max), a.MeanRadius)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Mismatches) > 0 {
		fmt.Fprintf(out, "\n%d features differ from the first feature's attributes:\n", len(r.Mismatches))
		for _, m := range r.Mismatches {
			fmt.Fprintf(out, "  #%d %s missing=%v extra=%v\n", m.FeatureIndex, m.FeatureID, m.Missing, m.Extra)
		}
	}
	return nil
}
