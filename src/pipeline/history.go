package pipeline

import (
	"sync"

	"market-loader/src/models"
)

// History keeps the last Size run reports in memory.
type History struct {
	Size    int
	reports []models.MRunReport // oldest first
	mu      sync.RWMutex
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{Size: size}
}

func (h *History) Add(report models.MRunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reports = append(h.reports, report)
	if over := len(h.reports) - h.Size; over > 0 {
		h.reports = append(h.reports[:0:0], h.reports[over:]...)
	}
}

// List returns the reports newest first.
func (h *History) List() []models.MRunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.MRunReport, len(h.reports))
	for i, r := range h.reports {
		out[len(h.reports)-1-i] = r
	}
	return out
}

func (h *History) Get(runID string) (models.MRunReport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.reports {
		if r.RunID == runID {
			return r, true
		}
	}
	return models.MRunReport{}, false
}
