package engine

import (
	"fmt"
	"sort"
)

// Pot is one pot segment with the seats eligible to win it. Pots are always
// recomputed from per-seat cumulative contributions, never mutated in place,
// so the partition can not drift from the chips actually wagered.
type Pot struct {
	ID       int    `json:"pot_id"`
	Amount   int    `json:"amount"`
	Eligible []int  `json:"eligible_seats"`
	Label    string `json:"label"`
}

// computePots partitions collected contributions into a main pot and side
// pots. Distinct contribution levels of non-folded seats form the segment
// boundaries; a segment is shared by every non-folded seat whose total
// contribution reaches it. Folded seats' chips stay in their segments as
// dead money but never join an eligible set.
func computePots(seats []*Seat) []Pot {
	levels := make([]int, 0, len(seats))
	for _, s := range seats {
		if s.InHand() && s.Collected > 0 {
			levels = append(levels, s.Collected)
		}
	}
	sort.Ints(levels)
	levels = dedupInts(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		pot := Pot{ID: len(pots)}
		for _, s := range seats {
			contribution := min(s.Collected, level) - prev
			if contribution > 0 {
				pot.Amount += contribution
			}
			if s.InHand() && s.Collected >= level {
				pot.Eligible = append(pot.Eligible, s.ID)
			}
		}
		if pot.Amount > 0 {
			if pot.ID == 0 {
				pot.Label = "POT"
			} else {
				pot.Label = fmt.Sprintf("SIDE POT %d", pot.ID)
			}
			pots = append(pots, pot)
		}
		prev = level
	}

	// Dead money above the highest live level (a folded seat that out-
	// contributed every surviving seat) still belongs to the final pot.
	collected := 0
	for _, s := range seats {
		collected += s.Collected
	}
	if residue := collected - potTotal(pots); residue > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += residue
	}
	return pots
}

func potTotal(pots []Pot) int {
	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	return total
}

func dedupInts(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
