package matching

// Ledger counts how often each image path was selected during one run.
// It is owned by a single FindBestMatches call and never shared.
type Ledger struct {
	counts map[string]int
	total  int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{counts: make(map[string]int)}
}

// Count returns how many times path has been selected.
func (l *Ledger) Count(path string) int {
	return l.counts[path]
}

// Record increments the use count of path and returns the new value.
func (l *Ledger) Record(path string) int {
	l.counts[path]++
	l.total++
	return l.counts[path]
}

// Unique returns the number of distinct images selected.
func (l *Ledger) Unique() int {
	return len(l.counts)
}

// Total returns the number of selections recorded.
func (l *Ledger) Total() int {
	return l.total
}

// Snapshot copies the current counts.
func (l *Ledger) Snapshot() map[string]int {
	out := make(map[string]int, len(l.counts))
	for path, count := range l.counts {
		out[path] = count
	}
	return out
}
