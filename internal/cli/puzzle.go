package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/fen"
	"github.com/EvalVis/chesscorner/internal/puzzle"
)

func init() {
	cmd := &cobra.Command{
		Use:   "puzzle",
		Short: "Print a random puzzle",
		Long: "Print a random puzzle, optionally limited to a difficulty band and/or a theme tag. " +
			"When the dataset cannot answer, the built-in default puzzle is printed instead.",
		Args: cobra.NoArgs,
		RunE: runPuzzle,
	}

	cmd.Flags().StringP("band", "b", "", "Difficulty band: easy, medium, hard")
	cmd.Flags().StringP("theme", "t", "", "Theme tag, exact match")
	cmd.Flags().Uint64("seed", 0, "Random seed (0: nondeterministic)")
	cmd.Flags().Bool("board", false, "Draw the position")
	cmd.Flags().Bool("flip", false, "Draw the board from Black's side")
	cmd.Flags().Bool("ascii", false, "Draw pieces as FEN letters")

	RootCmd.AddCommand(cmd)
}

func runPuzzle(cmd *cobra.Command, _ []string) error {
	bandStr, _ := cmd.Flags().GetString("band")
	theme, _ := cmd.Flags().GetString("theme")
	seed, _ := cmd.Flags().GetUint64("seed")
	showBoard, _ := cmd.Flags().GetBool("board")
	flip, _ := cmd.Flags().GetBool("flip")
	ascii, _ := cmd.Flags().GetBool("ascii")

	band, err := puzzle.ParseBand(bandStr)
	if err != nil {
		return err
	}
	svc, err := current.puzzles(cmd.Context(), newRand(seed))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var rec puzzle.Record
	switch {
	case theme != "":
		rec = svc.RandomPuzzleByTheme(ctx, theme, band)
	case band != puzzle.AnyBand:
		rec = svc.RandomPuzzleByBand(ctx, band)
	default:
		rec = svc.RandomPuzzle(ctx)
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, rec)
	}
	writeRecord(out, rec)
	if showBoard {
		fmt.Fprintln(out)
		fmt.Fprint(out, fen.Render(fen.Decode(rec.FEN), fen.RenderOptions{Flipped: flip, ASCII: ascii, Coords: true}))
	}
	return nil
}

func writeRecord(w io.Writer, rec puzzle.Record) {
	fmt.Fprintf(w, "%s\t%d\t%s\n", rec.ID, rec.Rating, strings.Join(rec.Themes, " "))
	fmt.Fprintln(w, rec.FEN)
}
