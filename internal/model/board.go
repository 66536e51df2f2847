package model

// Marker is the symbol a player places on the board. The zero value is an empty cell.
type Marker string

const (
	MarkerNone   Marker = ""
	MarkerX      Marker = "X"
	MarkerO      Marker = "O"
	MarkerRed    Marker = "R"
	MarkerYellow Marker = "Y"
)

// WinnerDraw is stored in the winner field when the board filled without a winner
const WinnerDraw = "draw"

// Position identifies a cell on the board
type Position struct {
	Row int `json:"row"` // 0-indexed from top
	Col int `json:"col"` // 0-indexed from left
}

// Board is a rectangular grid of markers
type Board struct {
	Rows  int
	Cols  int
	Cells [][]Marker // Row-major: Cells[row][col]
}

// NewBoard creates an empty board of the given dimensions
func NewBoard(rows, cols int) *Board {
	cells := make([][]Marker, rows)
	for i := range cells {
		cells[i] = make([]Marker, cols)
	}
	return &Board{
		Rows:  rows,
		Cols:  cols,
		Cells: cells,
	}
}

// Get returns the marker at the given position, or MarkerNone if empty or out of bounds
func (b *Board) Get(pos Position) Marker {
	if !b.IsValidPosition(pos) {
		return MarkerNone
	}
	return b.Cells[pos.Row][pos.Col]
}

// Set places a marker at the given position
func (b *Board) Set(pos Position, m Marker) {
	if b.IsValidPosition(pos) {
		b.Cells[pos.Row][pos.Col] = m
	}
}

// IsEmpty returns true if the cell at the given position is empty
func (b *Board) IsEmpty(pos Position) bool {
	return b.Get(pos) == MarkerNone
}

// IsValidPosition returns true if the position is within bounds
func (b *Board) IsValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.Rows && pos.Col >= 0 && pos.Col < b.Cols
}

// IsFull returns true if all cells are filled
func (b *Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// EmptyCount returns the number of empty cells
func (b *Board) EmptyCount() int {
	count := 0
	for row := 0; row < b.Rows; row++ {
		for col := 0; col < b.Cols; col++ {
			if b.Cells[row][col] == MarkerNone {
				count++
			}
		}
	}
	return count
}

// Flat returns the cells in row-major order as strings, empty cells as ""
func (b *Board) Flat() []string {
	out := make([]string, 0, b.Rows*b.Cols)
	for row := 0; row < b.Rows; row++ {
		for col := 0; col < b.Cols; col++ {
			out = append(out, string(b.Cells[row][col]))
		}
	}
	return out
}

// Clear empties every cell
func (b *Board) Clear() {
	for row := range b.Cells {
		for col := range b.Cells[row] {
			b.Cells[row][col] = MarkerNone
		}
	}
}
