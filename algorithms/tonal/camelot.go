package tonal

import "strconv"

// camelotNumbers maps a tonic pitch class to its wheel position.
// Relative major/minor pairs share a number.
var camelotNumbers = map[KeyMode][12]int{
	//             C  C#  D  D#  E  F  F#  G  G#  A  A#  B
	KeyModeMajor: {8, 3, 10, 5, 12, 7, 2, 9, 4, 11, 6, 1},
	KeyModeMinor: {5, 12, 7, 2, 9, 4, 11, 6, 1, 8, 3, 10},
}

// CamelotCode returns the harmonic-mixing code for a key, e.g. "8B" for
// C major and "8A" for A minor
func CamelotCode(tonic int, mode KeyMode) string {
	n := camelotNumbers[mode][((tonic%12)+12)%12]
	letter := "B"
	if mode == KeyModeMinor {
		letter = "A"
	}
	return strconv.Itoa(n) + letter
}

// CamelotCompatible reports whether two codes mix harmonically: same code,
// relative major/minor, or one step around the wheel in the same mode
func CamelotCompatible(a, b string) bool {
	na, la, okA := parseCamelot(a)
	nb, lb, okB := parseCamelot(b)
	if !okA || !okB {
		return false
	}
	if na == nb {
		return true
	}
	if la != lb {
		return false
	}
	d := (na - nb + 12) % 12
	return d == 1 || d == 11
}

func parseCamelot(code string) (int, byte, bool) {
	if len(code) < 2 || len(code) > 3 {
		return 0, 0, false
	}
	letter := code[len(code)-1]
	if letter != 'A' && letter != 'B' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(code[:len(code)-1])
	if err != nil || n < 1 || n > 12 {
		return 0, 0, false
	}
	return n, letter, true
}
