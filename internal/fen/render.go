package fen

import (
	"strconv"
	"strings"
)

var unicodeGlyphs = map[Color]map[Kind]rune{
	White: {King: '♔', Queen: '♕', Rook: '♖', Bishop: '♗', Knight: '♘', Pawn: '♙'},
	Black: {King: '♚', Queen: '♛', Rook: '♜', Bishop: '♝', Knight: '♞', Pawn: '♟'},
}

// RenderOptions controls Render output.
type RenderOptions struct {
	Flipped bool
	ASCII   bool // FEN letters instead of Unicode chess glyphs
	Coords  bool
}

// Render draws b as text, one rank per line.
func Render(b Board, opts RenderOptions) string {
	files := "a b c d e f g h"
	rankLabel := func(i int) int { return 8 - i }
	if opts.Flipped {
		b = b.Flipped()
		files = "h g f e d c b a"
		rankLabel = func(i int) int { return i + 1 }
	}
	empty := '·'
	if opts.ASCII {
		empty = '.'
	}

	var sb strings.Builder
	if opts.Coords {
		sb.WriteString("   " + files + "\n")
	}
	for i, row := range b {
		if opts.Coords {
			sb.WriteString(strconv.Itoa(rankLabel(i)) + "  ")
		}
		for j, sq := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteRune(glyph(sq, empty, opts.ASCII))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func glyph(sq Square, empty rune, ascii bool) rune {
	if sq == nil {
		return empty
	}
	if !ascii {
		if g, ok := unicodeGlyphs[sq.Color][sq.Kind]; ok {
			return g
		}
	}
	if sq.Symbol != 0 {
		return sq.Symbol
	}
	return '?'
}
