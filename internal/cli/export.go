package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/export"
	"github.com/EvalVis/chesscorner/internal/puzzle"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every matching puzzle to a Parquet file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Output file (required)")
	cmd.Flags().StringP("band", "b", "", "Difficulty band: easy, medium, hard")
	cmd.Flags().StringP("theme", "t", "", "Theme tag, exact match")
	_ = cmd.MarkFlagRequired("out")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	bandStr, _ := cmd.Flags().GetString("band")
	theme, _ := cmd.Flags().GetString("theme")

	band, err := puzzle.ParseBand(bandStr)
	if err != nil {
		return err
	}
	svc, err := current.puzzles(cmd.Context(), nil)
	if err != nil {
		return err
	}
	start := time.Now()
	n, err := export.Export(cmd.Context(), svc.Engine(), puzzle.Filter{Band: band, Theme: theme}, outPath)
	if err != nil {
		return err
	}
	current.log.Info("exported", "rows", n, "out", outPath, "elapsed", since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "%d puzzles written to %s\n", n, outPath)
	return nil
}
