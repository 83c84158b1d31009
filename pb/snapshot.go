package pb

import (
	"errors"
	"fmt"

	"blockfall/tetris"

	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// EncodeSnapshot flattens a snapshot into a Struct. The stack is sent row
// after row as colour indices, 0 being an empty cell.
func EncodeSnapshot(s *tetris.Snapshot) (*structpb.Struct, error) {
	stack := make([]any, 0, s.Width*s.Height)
	for _, row := range s.Stack {
		for _, c := range row {
			stack = append(stack, int(c))
		}
	}
	st, err := structpb.NewStruct(map[string]any{
		"width":     s.Width,
		"height":    s.Height,
		"stack":     stack,
		"piece":     encodePiece(s.Piece),
		"next":      encodePiece(s.Next),
		"lines":     s.LinesClear,
		"game_over": s.GameOver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return st, nil
}

func encodePiece(p *tetris.Piece) any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"x":         p.X,
		"y":         p.Y,
		"color":     int(p.Color),
		"shape":     rowsOf(p.Shape),
		"canonical": rowsOf(p.Canonical),
	}
}

func rowsOf(m tetris.Matrix) []any {
	rows := m.Strings()
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(st *structpb.Struct) (*tetris.Snapshot, error) {
	f := st.GetFields()
	s := &tetris.Snapshot{
		Width:      int(f["width"].GetNumberValue()),
		Height:     int(f["height"].GetNumberValue()),
		LinesClear: int(f["lines"].GetNumberValue()),
		GameOver:   f["game_over"].GetBoolValue(),
	}
	cells := f["stack"].GetListValue().GetValues()
	if s.Width <= 0 || s.Height <= 0 || len(cells) != s.Width*s.Height {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d field", ErrMalformedSnapshot, len(cells), s.Width, s.Height)
	}
	s.Stack = make([][]tetris.Color, s.Height)
	for y := range s.Stack {
		s.Stack[y] = make([]tetris.Color, s.Width)
		for x := range s.Stack[y] {
			c, err := decodeColor(cells[y*s.Width+x])
			if err != nil {
				return nil, err
			}
			s.Stack[y][x] = c
		}
	}
	var err error
	if s.Piece, err = decodePiece(f["piece"].GetStructValue()); err != nil {
		return nil, err
	}
	if s.Next, err = decodePiece(f["next"].GetStructValue()); err != nil {
		return nil, err
	}
	return s, nil
}

func decodePiece(st *structpb.Struct) (*tetris.Piece, error) {
	if st == nil {
		return nil, nil
	}
	f := st.GetFields()
	shape, err := decodeMatrix(f["shape"])
	if err != nil {
		return nil, err
	}
	canonical, err := decodeMatrix(f["canonical"])
	if err != nil {
		return nil, err
	}
	color, err := decodeColor(f["color"])
	if err != nil {
		return nil, err
	}
	return &tetris.Piece{
		Shape:     shape,
		Canonical: canonical,
		Color:     color,
		X:         int(f["x"].GetNumberValue()),
		Y:         int(f["y"].GetNumberValue()),
	}, nil
}

func decodeMatrix(v *structpb.Value) (tetris.Matrix, error) {
	var rows []string
	for _, r := range v.GetListValue().GetValues() {
		rows = append(rows, r.GetStringValue())
	}
	m, err := tetris.ParseMatrix(rows...)
	if err != nil {
		return tetris.Matrix{}, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return m, nil
}

// decodeColor rejects indices a palette can't hold. The upper bound depends on
// the watcher's palette and is left to the renderer.
func decodeColor(v *structpb.Value) (tetris.Color, error) {
	n := v.GetNumberValue()
	if n < 0 || n != float64(int(n)) {
		return tetris.Empty, fmt.Errorf("%w: invalid colour %v", ErrMalformedSnapshot, n)
	}
	return tetris.Color(n), nil
}
