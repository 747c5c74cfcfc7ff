package fen

import (
	"strings"
	"testing"
)

func TestDecodeEmptyBoard(t *testing.T) {
	b := Decode("8/8/8/8/8/8/8/8 w - - 0 1")
	if !b.Valid() {
		t.Fatalf("expected 8x8 board, got %d ranks", len(b))
	}
	if b.Pieces() != 0 {
		t.Fatalf("expected 64 empty squares, got %d pieces", b.Pieces())
	}
}

func TestDecodeFallbackPosition(t *testing.T) {
	b := Decode("r6k/pp2r2p/4Rp1Q/3p4/8/1N1P2R1/PqP2bPP/7K b - - 0 24")
	if !b.Valid() {
		t.Fatalf("expected valid board")
	}
	top := b[0]
	if top[0] == nil || top[0].Kind != Rook || top[0].Color != Black {
		t.Fatalf("expected black rook on a8, got %+v", top[0])
	}
	if top[7] == nil || top[7].Kind != King || top[7].Color != Black {
		t.Fatalf("expected black king on h8, got %+v", top[7])
	}
	for f := 1; f < 7; f++ {
		if top[f] != nil {
			t.Fatalf("expected empty square at file %d", f)
		}
	}
	if got := b.Pieces(); got != 20 {
		t.Fatalf("expected 20 pieces, got %d", got)
	}
	if b[7][7] == nil || b[7][7].Kind != King || b[7][7].Color != White {
		t.Fatalf("expected white king on h1")
	}
}

func TestDecodeRankWidths(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
		"8/8/8/4k3/8/8/8/4K3 w - - 0 1",
	}
	for _, s := range fens {
		b := Decode(s)
		if !b.Valid() {
			t.Fatalf("%s: expected 8x8", s)
		}
	}
}

func TestDecodeUnknownAndMalformed(t *testing.T) {
	b := Decode("x7/8")
	if len(b) != 2 {
		t.Fatalf("expected 2 ranks, got %d", len(b))
	}
	if b[0][0] == nil || b[0][0].Kind != Unknown || b[0][0].Color != Black {
		t.Fatalf("expected unknown black placeholder, got %+v", b[0][0])
	}
	if b.Valid() {
		t.Fatalf("short board must not be valid")
	}
	if got := Decode(""); len(got) != 1 || len(got[0]) != 0 {
		t.Fatalf("empty input should give one empty rank, got %v", got)
	}
	if got := Decode("9/8"); len(got[0]) != 1 || got[0][0].Kind != Unknown {
		t.Fatalf("digit 9 is not an empty-run digit")
	}
}

func TestDecodeReturnsFreshGrid(t *testing.T) {
	a := Decode("8/8/8/8/8/8/8/K7 w - - 0 1")
	b := Decode("8/8/8/8/8/8/8/K7 w - - 0 1")
	a[7][0].Kind = Queen
	if b[7][0].Kind != King {
		t.Fatalf("decode results must not share pieces")
	}
}

func TestFlipped(t *testing.T) {
	b := Decode("r6k/8/8/8/8/8/8/7K w - - 0 1")
	f := b.Flipped()
	if f[0][0] == nil || f[0][0].Kind != King || f[0][0].Color != White {
		t.Fatalf("expected white king in flipped top-left")
	}
	if f[7][7] == nil || f[7][7].Kind != Rook {
		t.Fatalf("expected black rook in flipped bottom-right")
	}
	if b[0][0].Kind != Rook {
		t.Fatalf("flip must not mutate the original")
	}
}

func TestRender(t *testing.T) {
	b := Decode("r6k/8/8/8/8/8/8/7K w - - 0 1")
	out := Render(b, RenderOptions{ASCII: true, Coords: true})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected header + 8 ranks, got %d lines", len(lines))
	}
	if lines[0] != "   a b c d e f g h" || lines[1] != "8  r . . . . . . k" || lines[8] != "1  . . . . . . . K" {
		t.Fatalf("unexpected render:\n%s", out)
	}
	flipped := Render(b, RenderOptions{Flipped: true, ASCII: true, Coords: true})
	if !strings.HasPrefix(flipped, "   h g f e d c b a\n1  K . . . . . . .\n") {
		t.Fatalf("unexpected flipped render:\n%s", flipped)
	}
	if u := Render(b, RenderOptions{}); !strings.HasPrefix(u, "♜ · · · · · · ♚\n") {
		t.Fatalf("unexpected unicode render:\n%s", u)
	}
}

func TestKindAndColorStrings(t *testing.T) {
	if Knight.String() != "knight" || Kind(42).String() != "unknown" || Black.String() != "black" || White.String() != "white" {
		t.Fatalf("unexpected names")
	}
}
