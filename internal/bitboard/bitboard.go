// Package bitboard packs one player's marks on the 3x3 grid into the low
// 9 bits of an integer, position 0 top-left through 8 bottom-right,
// row-major. Everything here is a pure predicate; callers own the state.
package bitboard

// FullBoard has all 9 cells set.
const FullBoard uint64 = 511

// WinMasks are the 8 complete lines: three rows, three columns, two
// diagonals.
var WinMasks = [8]uint64{7, 56, 448, 73, 146, 292, 273, 84}

// Occupy returns state with the bit at pos set. The caller guarantees
// 0 <= pos <= 8.
func Occupy(state uint64, pos int) uint64 {
	return state | 1<<pos
}

// IsOccupied reports whether either board has the cell at pos marked.
func IsOccupied(stateA, stateB uint64, pos int) bool {
	return (stateA|stateB)&(1<<pos) != 0
}

// HasWon reports whether state covers at least one complete line.
func HasWon(state uint64) bool {
	for _, mask := range WinMasks {
		if state&mask == mask {
			return true
		}
	}

	return false
}

// IsFull reports whether the two boards together cover every cell.
func IsFull(stateA, stateB uint64) bool {
	return stateA|stateB == FullBoard
}
