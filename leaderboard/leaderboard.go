// Package leaderboard keeps the K highest-scoring (id, score) pairs of an
// unbounded stream.
package leaderboard

import (
	"cmp"
	"math"
	"slices"
)

// Entry is a scored id.
type Entry struct {
	ID    int32
	Score float32
}

// Leaderboard is a bounded min-heap holding the best K entries tallied so
// far. The root is the worst retained entry, so a candidate only needs to
// beat the root to get in. Not safe for concurrent use.
type Leaderboard struct {
	k     int
	items []Entry
}

// initialCap bounds the up-front allocation; larger boards grow on demand.
const initialCap = 64

// New creates a leaderboard retaining at most k entries. k < 1 retains nothing.
func New(k int) *Leaderboard {
	k = max(k, 0)
	return &Leaderboard{
		k:     k,
		items: make([]Entry, 0, min(k, initialCap)),
	}
}

// K returns the retention bound.
func (lb *Leaderboard) K() int { return lb.k }

// Len returns the number of retained entries.
func (lb *Leaderboard) Len() int { return len(lb.items) }

// Tally offers a candidate. NaN scores are ignored.
func (lb *Leaderboard) Tally(id int32, score float32) {
	if lb.k == 0 || math.IsNaN(float64(score)) {
		return
	}
	e := Entry{ID: id, Score: score}
	if len(lb.items) < lb.k {
		lb.items = append(lb.items, e)
		lb.siftUp(len(lb.items) - 1)
		return
	}
	if !worse(lb.items[0], e) {
		return
	}
	lb.items[0] = e
	lb.siftDown(0)
}

// Min returns the worst retained entry.
func (lb *Leaderboard) Min() (Entry, bool) {
	if len(lb.items) == 0 {
		return Entry{}, false
	}
	return lb.items[0], true
}

// Top returns the retained entries sorted by descending score, ties broken
// by ascending id. The leaderboard is left unchanged.
func (lb *Leaderboard) Top() []Entry {
	out := slices.Clone(lb.items)
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Reset clears the leaderboard for reuse.
func (lb *Leaderboard) Reset() {
	lb.items = lb.items[:0]
}

// worse reports whether a ranks below b: a lower score, or an equal score
// with a larger id.
func worse(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID > b.ID
}

func (lb *Leaderboard) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(lb.items[i], lb.items[p]) {
			return
		}
		lb.items[i], lb.items[p] = lb.items[p], lb.items[i]
		i = p
	}
}

func (lb *Leaderboard) siftDown(i int) {
	n := len(lb.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && worse(lb.items[r], lb.items[l]) {
			best = r
		}
		if !worse(lb.items[best], lb.items[i]) {
			return
		}
		lb.items[i], lb.items[best] = lb.items[best], lb.items[i]
		i = best
	}
}
