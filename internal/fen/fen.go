// Package fen decodes the board field of a Forsyth–Edwards Notation string
// into a grid of squares.
//
// Decode never fails. Malformed input produces a best-effort grid: ranks are
// taken exactly as they appear between '/' separators, so a board field with
// fewer or more than eight ranks yields fewer or more rows, and a rank may hold
// more or fewer than eight squares. Callers that need a well-formed 8×8 board
// check Board.Valid.
package fen

import "strings"

// Kind is a piece type.
type Kind uint8

const (
	Unknown Kind = iota // placeholder for unrecognised letters
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var kindNames = [...]string{"unknown", "pawn", "rook", "knight", "bishop", "queen", "king"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Piece describes an occupied square.
type Piece struct {
	Kind   Kind
	Color  Color
	Symbol rune // the FEN character it was decoded from
}

// Square is either empty (nil) or holds a piece.
type Square = *Piece

// Board holds ranks in FEN order: rank 8 first, file a first.
type Board [][]Square

var letterToKind = map[rune]Kind{
	'p': Pawn,
	'r': Rook,
	'n': Knight,
	'b': Bishop,
	'q': Queen,
	'k': King,
}

// Decode parses the board field (everything before the first space) of s.
// Every call returns a freshly allocated grid.
func Decode(s string) Board {
	field, _, _ := strings.Cut(s, " ")
	ranks := strings.Split(field, "/")
	board := make(Board, 0, len(ranks))
	for _, rank := range ranks {
		row := make([]Square, 0, 8)
		for _, ch := range rank {
			if ch >= '1' && ch <= '8' {
				for i := 0; i < int(ch-'0'); i++ {
					row = append(row, nil)
				}
				continue
			}
			row = append(row, decodePiece(ch))
		}
		board = append(board, row)
	}
	return board
}

func decodePiece(ch rune) *Piece {
	color := Black
	lower := ch
	if ch >= 'A' && ch <= 'Z' {
		color = White
		lower = ch + ('a' - 'A')
	}
	return &Piece{Kind: letterToKind[lower], Color: color, Symbol: ch}
}

// Valid reports whether b is exactly 8 ranks of 8 squares.
func (b Board) Valid() bool {
	if len(b) != 8 {
		return false
	}
	for _, row := range b {
		if len(row) != 8 {
			return false
		}
	}
	return true
}

// Pieces counts occupied squares.
func (b Board) Pieces() int {
	n := 0
	for _, row := range b {
		for _, sq := range row {
			if sq != nil {
				n++
			}
		}
	}
	return n
}

// Flipped returns a copy with rank order and file order both reversed, the
// orientation used to show the board from Black's side.
func (b Board) Flipped() Board {
	out := make(Board, len(b))
	for i, row := range b {
		rev := make([]Square, len(row))
		for j, sq := range row {
			rev[len(row)-1-j] = sq
		}
		out[len(b)-1-i] = rev
	}
	return out
}
