package domain

import "sort"

// Denominations are the chip values, largest first. The set is not
// canonical: greedy decomposition can use more chips than necessary (30).
var Denominations = []int{500, 100, 50, 25, 10, 1}

// IsDenomination reports whether v is a known chip value.
func IsDenomination(v int) bool {
	for _, d := range Denominations {
		if d == v {
			return true
		}
	}
	return false
}

// Decompose splits amount into chips, largest first. Non-positive amounts
// yield no chips.
func Decompose(amount int) []int {
	var chips []int
	remaining := amount
	for _, v := range Denominations {
		if remaining <= 0 {
			break
		}
		count := remaining / v
		for i := 0; i < count; i++ {
			chips = append(chips, v)
		}
		remaining -= count * v
	}
	return chips
}

// TrayChips returns the chips offered for manual betting: the decomposition
// of the bankroll plus one chip of every affordable denomination it lacks,
// sorted ascending.
func TrayChips(bankroll int) []int {
	chips := Decompose(bankroll)
	have := make(map[int]bool, len(Denominations))
	for _, c := range chips {
		have[c] = true
	}
	for _, v := range Denominations {
		if v <= bankroll && !have[v] {
			chips = append(chips, v)
		}
	}
	sort.Ints(chips)
	return chips
}

// CountChips folds a chip sequence into denomination -> count.
func CountChips(chips []int) map[int]int {
	out := make(map[int]int, len(chips))
	for _, c := range chips {
		out[c]++
	}
	return out
}

// SumChips totals a denomination -> count mapping.
func SumChips(counts map[int]int) int {
	sum := 0
	for v, n := range counts {
		sum += v * n
	}
	return sum
}
