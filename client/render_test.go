package client

import (
	"log/slog"
	"strings"
	"testing"

	"blockfall/tetris"
)

func testRender(t *testing.T) (*render, *strings.Builder) {
	t.Helper()
	r, err := newRender(slog.Default(), tetris.TestConfig())
	if err != nil {
		t.Fatalf("newRender() error: %v", err)
	}
	var out strings.Builder
	r.writer = &out
	return r, &out
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		do   func(*render)
		want []string
	}{
		{
			name: "local with no data renders the frame",
			do:   func(r *render) { r.local(nil) },
			want: []string{resetPos, "blockfall", "+" + strings.Repeat("-", 20) + "+", " Lines 0"},
		},
		{
			name: "local with data renders the game",
			do: func(r *render) {
				tts := tetris.NewTestTetris(tetris.T)
				tts.LinesClear = 12
				r.local(tts.Read())
			},
			want: []string{" Next", " Lines 12", "\x1b[38;2;255;0;0m[]"},
		},
		{
			name: "session id is shown in the side panel",
			do: func(r *render) {
				r.session("abc")
				r.local(nil)
			},
			want: []string{" Session", " abc"},
		},
		{
			name: "default lobby message",
			do:   func(r *render) { r.lobby(defaultLobby()) },
			want: []string{"(p)lay   (q)uit"},
		},
		{
			name: "game over lobby message",
			do:   func(r *render) { r.lobby(gameOver(7)) },
			want: []string{"Game Over :)", "7 lines"},
		},
		{
			name: "reset clears the screen",
			do:   func(r *render) { r.reset() },
			want: []string{clearAll},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := testRender(t)
			tt.do(r)
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("wanted output to contain %q, got %q", w, out.String())
				}
			}
		})
	}
}

func TestRenderRowsEndWithCarriageReturn(t *testing.T) {
	r, out := testRender(t)
	r.local(nil)
	lines := strings.Split(out.String(), "\n")
	// the field, two borders and the title.
	if len(lines) != 20+3+1 {
		t.Fatalf("wanted 24 lines, got %d", len(lines))
	}
	for i, l := range lines[:len(lines)-1] {
		if !strings.HasSuffix(l, "\r") {
			t.Errorf("line %d doesn't end with a carriage return: %q", i, l)
		}
	}
}

func TestStack(t *testing.T) {
	palette := tetris.DefaultCatalog().Palette
	red := cell(palette, 1)
	green := cell(palette, 2)

	t.Run("nil snapshot renders an empty field", func(t *testing.T) {
		got := stack(&templateData{Width: 10, Height: 20, Palette: palette})
		if len(got) != 20 {
			t.Fatalf("wanted 20 rows, got %d", len(got))
		}
		for y, row := range got {
			for x, c := range row {
				if c != emptyCell {
					t.Fatalf("wanted empty cell at %d,%d, got %q", x, y, c)
				}
			}
		}
	})

	t.Run("falling piece is drawn over the stack", func(t *testing.T) {
		tts := tetris.NewTestTetris(tetris.T)
		tts.Field.Set(0, 19, 2)
		got := stack(&templateData{Local: tts.Read(), Width: 10, Height: 20, Palette: palette})

		for _, p := range [][2]int{{4, 0}, {5, 0}, {6, 0}, {5, 1}} {
			if got[p[1]][p[0]] != red {
				t.Errorf("wanted piece cell at %v", p)
			}
		}
		if got[19][0] != green {
			t.Errorf("wanted stack cell at 0,19")
		}
		if got[1][4] != emptyCell {
			t.Errorf("wanted empty cell at 4,1")
		}
	})

	t.Run("cells above the top are not drawn", func(t *testing.T) {
		tts := tetris.NewTestTetris(tetris.T)
		tts.Piece.Y = -1
		got := stack(&templateData{Local: tts.Read(), Width: 10, Height: 20, Palette: palette})
		if got[0][5] != red {
			t.Errorf("wanted the visible part of the piece at 5,0")
		}
		if got[0][4] != emptyCell {
			t.Errorf("wanted empty cell at 4,0")
		}
	})
}

func TestSide(t *testing.T) {
	palette := tetris.DefaultCatalog().Palette
	tts := tetris.NewTestTetris(tetris.I)
	tts.LinesClear = 3
	got := side(&templateData{Local: tts.Read(), Width: 10, Height: 20, Palette: palette, Session: "id"})

	if !strings.HasPrefix(got[0], " Next") {
		t.Errorf("wanted Next header, got %q", got[0])
	}
	if strings.Count(got[1], "[]") != 4 {
		t.Errorf("wanted the I piece in the next row, got %q", got[1])
	}
	if !strings.HasPrefix(got[3], " Lines 3") {
		t.Errorf("wanted lines count, got %q", got[3])
	}
	if !strings.HasPrefix(got[5], " Session") || !strings.HasPrefix(got[6], " id") {
		t.Errorf("wanted session, got %q %q", got[5], got[6])
	}
	for i, l := range got {
		if visibleLen(l) != sideWidth {
			t.Errorf("line %d: wanted visible width %d, got %d", i, sideWidth, visibleLen(l))
		}
	}
}

func TestCell(t *testing.T) {
	palette := []tetris.RGB{{R: 1, G: 2, B: 3}}
	tests := []struct {
		name  string
		color tetris.Color
		want  string
	}{
		{"empty", tetris.Empty, emptyCell},
		{"in palette", 1, "\x1b[7m\x1b[38;2;1;2;3m[]\x1b[0m"},
		{"out of palette", 2, emptyCell},
		{"negative", -1, emptyCell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cell(palette, tt.color); got != tt.want {
				t.Errorf("wanted %q, got %q", tt.want, got)
			}
		})
	}
}

func TestVisibleLen(t *testing.T) {
	if got := visibleLen(" " + cell([]tetris.RGB{{}}, 1) + "ab"); got != 5 {
		t.Errorf("wanted 5, got %d", got)
	}
}
