// Package board holds grid rules shared by the game variants: move
// addressing, placement validation and line detection.
package board

import "github.com/mcoot/duoplay/internal/model"

// directions scanned for lines: right, down, down-right, down-left
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// IndexToPosition converts a flat row-major index to a position.
// Out-of-range indices produce an invalid position rather than wrapping.
func IndexToPosition(index, cols int) model.Position {
	if index < 0 || cols <= 0 {
		return model.Position{Row: -1, Col: -1}
	}
	return model.Position{Row: index / cols, Col: index % cols}
}

// ResolvePosition reads a cell address from move params. A flat index takes
// precedence over row/col; both paths go through the same bounds check.
func ResolvePosition(b *model.Board, params model.MoveParams) (model.Position, error) {
	var pos model.Position
	switch {
	case params.Index != nil:
		idx := *params.Index
		if idx < 0 || idx >= b.Rows*b.Cols {
			return pos, model.ErrInvalidPosition
		}
		pos = IndexToPosition(idx, b.Cols)
	case params.Row != nil && params.Col != nil:
		pos = model.Position{Row: *params.Row, Col: *params.Col}
	default:
		return pos, model.ErrMissingMove
	}
	if !b.IsValidPosition(pos) {
		return pos, model.ErrInvalidPosition
	}
	return pos, nil
}

// ValidatePlacement checks if a position is valid and empty
func ValidatePlacement(b *model.Board, pos model.Position) error {
	if !b.IsValidPosition(pos) {
		return model.ErrInvalidPosition
	}
	if !b.IsEmpty(pos) {
		return model.ErrCellOccupied
	}
	return nil
}

// DropRow returns the lowest empty row in col, for games where pieces fall
func DropRow(b *model.Board, col int) (int, error) {
	if col < 0 || col >= b.Cols {
		return -1, model.ErrInvalidPosition
	}
	for row := b.Rows - 1; row >= 0; row-- {
		if b.Cells[row][col] == model.MarkerNone {
			return row, nil
		}
	}
	return -1, model.ErrColumnFull
}

// FindLine returns the marker and cells of the first run of n identical
// markers anywhere on the board, or MarkerNone if there is none.
func FindLine(b *model.Board, n int) (model.Marker, []model.Position) {
	for row := 0; row < b.Rows; row++ {
		for col := 0; col < b.Cols; col++ {
			m := b.Cells[row][col]
			if m == model.MarkerNone {
				continue
			}
			for _, d := range directions {
				if cells := run(b, model.Position{Row: row, Col: col}, d, n); cells != nil {
					return m, cells
				}
			}
		}
	}
	return model.MarkerNone, nil
}

// LineThrough looks for a run of at least n identical markers passing through pos
func LineThrough(b *model.Board, pos model.Position, n int) (model.Marker, []model.Position) {
	m := b.Get(pos)
	if m == model.MarkerNone {
		return model.MarkerNone, nil
	}
	for _, d := range directions {
		// walk back to the start of the run, then collect forwards
		start := pos
		for {
			prev := model.Position{Row: start.Row - d[0], Col: start.Col - d[1]}
			if b.Get(prev) != m {
				break
			}
			start = prev
		}
		var cells []model.Position
		for p := start; b.Get(p) == m; p = (model.Position{Row: p.Row + d[0], Col: p.Col + d[1]}) {
			cells = append(cells, p)
		}
		if len(cells) >= n {
			return m, cells
		}
	}
	return model.MarkerNone, nil
}

// run returns the n cells starting at start in direction d if they all share its marker
func run(b *model.Board, start model.Position, d [2]int, n int) []model.Position {
	m := b.Get(start)
	cells := make([]model.Position, 0, n)
	for i := 0; i < n; i++ {
		p := model.Position{Row: start.Row + d[0]*i, Col: start.Col + d[1]*i}
		if !b.IsValidPosition(p) || b.Get(p) != m {
			return nil
		}
		cells = append(cells, p)
	}
	return cells
}
