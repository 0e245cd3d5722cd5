package ledger

import "sort"

// Stats counts what happened to the records fed to a Store.
type Stats struct {
	Seen     int
	Applied  int
	Rejected map[Rejection]int
}

func newStats() Stats {
	return Stats{Rejected: make(map[Rejection]int)}
}

// TotalRejected returns the number of dropped records.
func (s Stats) TotalRejected() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// Reasons returns the rejection reasons seen, sorted for stable output.
func (s Stats) Reasons() []Rejection {
	reasons := make([]Rejection, 0, len(s.Rejected))
	for reason := range s.Rejected {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

func (s Stats) clone() Stats {
	c := Stats{Seen: s.Seen, Applied: s.Applied, Rejected: make(map[Rejection]int, len(s.Rejected))}
	for reason, n := range s.Rejected {
		c.Rejected[reason] = n
	}
	return c
}
