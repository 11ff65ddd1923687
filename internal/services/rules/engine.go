// Package rules implements the pure game logic for tic-tac-toe: move
// validation, win and draw detection. It holds no state and performs no IO.
package rules

import "github.com/mcoot/tictacmatch-go/internal/model"

// winLines are the 8 winning lines: 3 rows, 3 columns, 2 diagonals
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// IsWinningBoard returns true if any line holds three identical non-empty
// markers
func IsWinningBoard(board model.Board) bool {
	for _, line := range winLines {
		first := board[line[0]]
		if first == model.MarkerNone {
			continue
		}
		if board[line[1]] == first && board[line[2]] == first {
			return true
		}
	}
	return false
}

// IsDraw returns true if the board is full with no winning line
func IsDraw(board model.Board) bool {
	return board.IsFull() && !IsWinningBoard(board)
}

// ValidatePlacement checks that a position is in bounds and the cell is empty
func ValidatePlacement(board model.Board, pos int) error {
	if !board.IsValidPosition(pos) {
		return model.ErrInvalidPosition
	}
	if !board.IsEmpty(pos) {
		return model.ErrCellOccupied
	}
	return nil
}
