package client

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"blockfall/tetris"
)

const (
	emptyCell = "  "
	resetPos  = "\033[H"  // Reset cursor position to 0,0
	clearAll  = "\033[2J" // Clear the whole screen
	sideWidth = 14        // Width of the panel right of the field
	boxMargin = 2         // Rows between the field's top border and the lobby box
)

//go:embed "layout.tmpl"
var layout string

type templateData struct {
	Local   *tetris.Snapshot
	Width   int
	Height  int
	Palette []tetris.RGB
	Session string
}

type render struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template
	*templateData
}

func newRender(l *slog.Logger, cfg tetris.Config) (*render, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load palette: %w", err)
	}
	return &render{
		writer:   os.Stdout,
		logger:   l,
		template: loadTemplate(),
		templateData: &templateData{
			Width:   cfg.Width,
			Height:  cfg.Height,
			Palette: cat.Palette,
		},
	}, nil
}

// message is drawn line by line in a box over the field.
type message []string

func defaultLobby() message { return message{"(p)lay   (q)uit"} }

func gameOver(lines int) message {
	return message{"Game Over :)", fmt.Sprintf("%d lines", lines), "(p)lay   (q)uit"}
}

func errorMessage() message {
	return message{"something went", "wrong :(", "(p)lay   (q)uit"}
}

func (r *render) lobby(m message) {
	inner := 2 * r.Width
	row := boxMargin + 2
	line := func(s string) {
		fmt.Fprintf(r.writer, "\033[%d;1H+%s+", row, strings.Repeat("-", inner))
		if s != "" {
			fmt.Fprintf(r.writer, "\033[%d;1H|%s|", row, center(s, inner))
		}
		row++
	}
	line("")
	for _, s := range m {
		line(s)
	}
	line("")
}

func (r *render) local(s *tetris.Snapshot) {
	r.templateData.Local = s
	fmt.Fprint(r.writer, resetPos)
	if err := r.template.Execute(r.writer, r.templateData); err != nil {
		r.logger.Error("unable to execute template in local()", slog.String("error", err.Error()))
	}
}

func (r *render) reset() {
	fmt.Fprint(r.writer, clearAll)
}

func (r *render) session(id string) {
	r.templateData.Session = id
}

func center(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

func loadTemplate() *template.Template {
	funcMap := template.FuncMap{
		"stack":  stack,
		"side":   side,
		"border": border,
	}

	// we use the console raw so new lines don't automatically transform into carriage return
	// to fix that we add a carriage return to every new line in the layout.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	return template.Must(template.New("layout").Funcs(funcMap).Parse(l))
}

func cell(palette []tetris.RGB, c tetris.Color) string {
	if c <= tetris.Empty || int(c) > len(palette) {
		return emptyCell
	}
	p := palette[c-1]
	return fmt.Sprintf("\x1b[7m\x1b[38;2;%d;%d;%dm[]\x1b[0m", p.R, p.G, p.B)
}

func border(t *templateData) string {
	return strings.Repeat("-", 2*t.Width)
}

// stack renders the locked cells with the falling piece on top.
func stack(t *templateData) [][]string {
	rendered := make([][]string, t.Height)
	for y := range rendered {
		rendered[y] = make([]string, t.Width)
		for x := range rendered[y] {
			rendered[y][x] = emptyCell
		}
	}
	if t.Local == nil {
		return rendered
	}

	for y, row := range t.Local.Stack {
		for x, c := range row {
			if y < t.Height && x < t.Width {
				rendered[y][x] = cell(t.Palette, c)
			}
		}
	}

	// renders the current piece if exist. cells above the top aren't drawn.
	if p := t.Local.Piece; p != nil {
		for r, c := range p.Shape.Cells() {
			x, y := p.X+c, p.Y+r
			if y >= 0 && y < t.Height && x >= 0 && x < t.Width {
				rendered[y][x] = cell(t.Palette, p.Color)
			}
		}
	}
	return rendered
}

// side returns the panel printed right of each field row: the next piece and the lines count.
func side(t *templateData) []string {
	lines := make([]string, t.Height)
	add := func(i int, s string) {
		if i < len(lines) {
			lines[i] = s
		}
	}
	add(0, " Next")
	row := 1
	if t.Local != nil && t.Local.Next != nil {
		n := t.Local.Next
		for r := range n.Shape.Rows() {
			var b strings.Builder
			b.WriteString(" ")
			for c := range n.Shape.Cols() {
				if n.Shape.At(r, c) {
					b.WriteString(cell(t.Palette, n.Color))
				} else {
					b.WriteString(emptyCell)
				}
			}
			add(row, b.String())
			row++
		}
	}
	row++
	cleared := 0
	if t.Local != nil {
		cleared = t.Local.LinesClear
	}
	add(row, fmt.Sprintf(" Lines %d", cleared))
	if t.Session != "" {
		add(row+2, " Session")
		add(row+3, " "+t.Session)
	}
	for i := range lines {
		if pad := sideWidth - visibleLen(lines[i]); pad > 0 {
			lines[i] += strings.Repeat(" ", pad)
		}
	}
	return lines
}

// visibleLen ignores ANSI escape sequences.
func visibleLen(s string) int {
	n, esc := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc:
			if r == 'm' {
				esc = false
			}
		default:
			n++
		}
	}
	return n
}
