package scoring

import (
	"sort"
	"sync"
	"time"

	"AegisGuard/internal/models"
)

// History keeps a bounded window of analysis results for trend statistics.
// Oldest entries are dropped once the cap is reached.
type History struct {
	mu      sync.RWMutex
	cap     int
	results []*Result
}

// NewHistory creates a history bounded to size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 100
	}
	return &History{cap: size}
}

// Append adds a result, evicting the oldest entry at capacity.
func (h *History) Append(r *Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.results) >= h.cap {
		copy(h.results, h.results[1:])
		h.results = h.results[:len(h.results)-1]
	}
	h.results = append(h.results, r)
}

// Len returns the number of retained results.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.results)
}

// Trend summarizes the retained window.
type Trend struct {
	Samples       int                        `json:"samples"`
	AverageScore  float64                    `json:"averageScore"`
	LevelCounts   map[models.ThreatLevel]int `json:"levelCounts"`
	LastHighAt    *time.Time                 `json:"lastHighAt,omitempty"`
	TopCategories []Category                 `json:"topCategories"`
}

// Trend computes statistics over the current window.
func (h *History) Trend() Trend {
	h.mu.RLock()
	defer h.mu.RUnlock()

	trend := Trend{LevelCounts: make(map[models.ThreatLevel]int)}
	if len(h.results) == 0 {
		return trend
	}

	var sum float64
	categoryHits := make(map[Category]int)
	for _, r := range h.results {
		sum += r.Score
		trend.LevelCounts[r.Level]++
		if r.Level.AtLeast(models.ThreatHigh) {
			t := r.Timestamp
			trend.LastHighAt = &t
		}
		// A factor "counts" for frequency when it actually contributed.
		for _, f := range r.Factors {
			if f.Available && f.Contribution > 0 {
				categoryHits[f.Category]++
			}
		}
	}
	trend.Samples = len(h.results)
	trend.AverageScore = sum / float64(len(h.results))
	trend.TopCategories = topCategories(categoryHits, 3)
	return trend
}

func topCategories(hits map[Category]int, n int) []Category {
	type entry struct {
		cat   Category
		count int
	}
	entries := make([]entry, 0, len(hits))
	for cat, count := range hits {
		entries = append(entries, entry{cat, count})
	}
	// Deterministic order: count desc, then category name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].cat < entries[j].cat
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]Category, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.cat)
	}
	return out
}
