package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/fen"
)

func init() {
	cmd := &cobra.Command{
		Use:   "board <fen>",
		Short: "Draw a position given in FEN",
		Long:  "Draw a position given in FEN. Only the board field is used; the remaining fields may be passed as extra arguments.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBoard,
	}

	cmd.Flags().Bool("flip", false, "Draw the board from Black's side")
	cmd.Flags().Bool("ascii", false, "Draw pieces as FEN letters")
	cmd.Flags().Bool("no-coords", false, "Omit file and rank labels")

	RootCmd.AddCommand(cmd)
}

type squareJSON struct {
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

func runBoard(cmd *cobra.Command, args []string) error {
	flip, _ := cmd.Flags().GetBool("flip")
	ascii, _ := cmd.Flags().GetBool("ascii")
	noCoords, _ := cmd.Flags().GetBool("no-coords")

	board := fen.Decode(strings.Join(args, " "))
	if !board.Valid() {
		current.log.Warn("board is not 8x8", "ranks", len(board))
	}

	out := cmd.OutOrStdout()
	if jsonOutput() {
		if flip {
			board = board.Flipped()
		}
		grid := make([][]*squareJSON, len(board))
		for i, row := range board {
			grid[i] = make([]*squareJSON, len(row))
			for j, sq := range row {
				if sq != nil {
					grid[i][j] = &squareJSON{Kind: sq.Kind.String(), Color: sq.Color.String()}
				}
			}
		}
		return writeJSON(out, grid)
	}
	fmt.Fprint(out, fen.Render(board, fen.RenderOptions{Flipped: flip, ASCII: ascii, Coords: !noCoords}))
	return nil
}
