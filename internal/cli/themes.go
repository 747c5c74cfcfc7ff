package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/puzzle"
)

func init() {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List theme tags, optionally for one band",
		Args:  cobra.NoArgs,
		RunE:  runThemes,
	}

	cmd.Flags().StringP("band", "b", "", "Difficulty band: easy, medium, hard")

	RootCmd.AddCommand(cmd)
}

func runThemes(cmd *cobra.Command, _ []string) error {
	bandStr, _ := cmd.Flags().GetString("band")
	band, err := puzzle.ParseBand(bandStr)
	if err != nil {
		return err
	}
	svc, err := current.puzzles(cmd.Context(), nil)
	if err != nil {
		return err
	}

	var themes []string
	if band == puzzle.AnyBand {
		themes = svc.AllThemes(cmd.Context())
	} else {
		themes = svc.ThemesForBand(cmd.Context(), band)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, themes)
	}
	for _, t := range themes {
		fmt.Fprintln(out, t)
	}
	return nil
}
