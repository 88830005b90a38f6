package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adalundhe/branchobs/core/observation"
)

var featuresCmd = &cobra.Command{
	Use:   "features [extractor]",
	Short: "List extractors and their feature columns",
	Long: `Print the feature schema of an extractor, or of every registered extractor
when none is named. Extractors producing one value per variable have no
columns.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	names := observation.Extractors()
	if len(args) == 1 {
		if _, ok := observation.SchemasOf(args[0]); !ok {
			return fmt.Errorf("unknown extractor %q", args[0])
		}
		names = args
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range names {
		schemas, _ := observation.SchemasOf(name)
		if len(schemas) == 0 {
			kind := "no features"
			if observation.IsVector(name) {
				kind = "per-variable vector"
			}
			fmt.Fprintf(w, "%s\t-\t%s\n", name, kind)
			continue
		}
		for _, s := range schemas {
			for i, f := range s.Features() {
				fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name(), i, f)
			}
		}
	}
	return w.Flush()
}
