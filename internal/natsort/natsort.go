// Package natsort orders case identifiers the way an examiner reads them:
// "1A" before "2" before "10", not the lexicographic "1A", "10", "2".
package natsort

import (
	"math/big"
	"sort"
	"strings"
)

// Compare reports the natural order of two case identifiers.
//
// The embedded numeric runs are compared as integers left to right, with a
// missing run treated as 0. Only when every numeric run is equal does the
// concatenation of the alphabetic runs break the tie lexicographically. The
// result is a strict weak ordering, so it is safe under any sorting algorithm.
func Compare(a, b string) int {
	na, la := split(a)
	nb, lb := split(b)

	runs := len(na)
	if len(nb) > runs {
		runs = len(nb)
	}
	for i := 0; i < runs; i++ {
		var x, y *big.Int
		if i < len(na) {
			x = na[i]
		} else {
			x = big.NewInt(0)
		}
		if i < len(nb) {
			y = nb[i]
		} else {
			y = big.NewInt(0)
		}
		if c := x.Cmp(y); c != 0 {
			return c
		}
	}
	return strings.Compare(la, lb)
}

// Less is a convenience wrapper for sort.SliceStable-style callers.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort orders ids in place, stably, in natural order.
func Sort(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return Compare(ids[i], ids[j]) < 0
	})
}

// split extracts the numeric runs (as integers, so leading zeros and runs
// longer than an int64 are handled) and the concatenated alphabetic runs.
func split(s string) ([]*big.Int, string) {
	var nums []*big.Int
	var letters strings.Builder

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			n := new(big.Int)
			n.SetString(s[i:j], 10)
			nums = append(nums, n)
			i = j
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			j := i
			for j < len(s) {
				d := s[j]
				if (d >= 'a' && d <= 'z') || (d >= 'A' && d <= 'Z') {
					j++
					continue
				}
				break
			}
			letters.WriteString(s[i:j])
			i = j
		default:
			// Separators (dashes, slashes, spaces) carry no ordering weight.
			i++
		}
	}
	return nums, letters.String()
}
