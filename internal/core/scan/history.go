package scan

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/textlens/textlens/internal/storage"
)

const (
	// historyLimit caps the retained history; the oldest entry is evicted
	// once a 16th scan arrives.
	historyLimit = 15

	storeName    = "scan-storage"
	storeVersion = 1
)

// History is the bounded, statistics-bearing scan history. One instance per
// process; every mutation is applied atomically under the lock and persisted
// through the injected KV store.
type History struct {
	mu sync.Mutex
	kv storage.KV

	items             []*Result
	totalScans        int
	averageConfidence float64
	lastScanResult    *Result
	isScanning        bool
}

// persistedHistory is the durable shape, matching the interchange format of
// exported files minus the export timestamp.
type persistedHistory struct {
	ScanHistory       []*Result `json:"scanHistory"`
	TotalScans        int       `json:"totalScans"`
	AverageConfidence float64   `json:"averageConfidence"`
}

type persistEnvelope struct {
	State   persistedHistory `json:"state"`
	Version int              `json:"version"`
}

type exportPayload struct {
	ScanHistory       []*Result `json:"scanHistory"`
	TotalScans        int       `json:"totalScans"`
	AverageConfidence float64   `json:"averageConfidence"`
	ExportDate        string    `json:"exportDate"`
}

// NewHistory creates an empty history persisting through kv.
func NewHistory(kv storage.KV) *History {
	return &History{kv: kv}
}

// Hydrate loads the persisted history, if any. Call once at startup before
// handing the store to callers.
func (h *History) Hydrate(ctx context.Context) error {
	raw, ok, err := h.kv.GetItem(ctx, storeName)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var env persistEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Warn().Err(err).Str("store", storeName).Msg("discarding unreadable persisted history")
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = env.State.ScanHistory
	h.totalScans = env.State.TotalScans
	h.averageConfidence = env.State.AverageConfidence
	if len(h.items) > 0 {
		h.lastScanResult = h.items[0]
	}
	return nil
}

// AddScanResult prepends result, evicts beyond the capacity bound and
// recomputes the aggregates.
func (h *History) AddScanResult(ctx context.Context, result *Result) {
	h.mu.Lock()
	h.items = append([]*Result{result}, h.items...)
	if len(h.items) > historyLimit {
		h.items = h.items[:historyLimit]
	}
	h.recomputeLocked()
	h.lastScanResult = result
	h.persistLocked(ctx)
	h.mu.Unlock()
}

// DeleteScanItem removes the entry with the given id. An absent id is a
// no-op, not an error.
func (h *History) DeleteScanItem(ctx context.Context, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.items[:0]
	removed := false
	for _, item := range h.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return
	}
	h.items = kept
	h.recomputeLocked()
	h.persistLocked(ctx)
}

// ClearHistory resets the store to its empty state.
func (h *History) ClearHistory(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
	h.totalScans = 0
	h.averageConfidence = 0
	h.lastScanResult = nil
	h.persistLocked(ctx)
}

// GetStatistics computes aggregates fresh from the current history. The
// language distribution is never maintained incrementally, so it cannot
// drift from the retained entries.
func (h *History) GetStatistics() Statistics {
	h.mu.Lock()
	defer h.mu.Unlock()

	dist := make(map[string]int, len(h.items))
	for _, item := range h.items {
		dist[item.Language]++
	}
	return Statistics{
		TotalScans:           h.totalScans,
		AverageConfidence:    h.averageConfidence,
		LanguageDistribution: dist,
	}
}

// ExportScanHistory serializes the history plus an export timestamp to JSON.
func (h *History) ExportScanHistory() (string, error) {
	h.mu.Lock()
	payload := exportPayload{
		ScanHistory:       append([]*Result{}, h.items...),
		TotalScans:        h.totalScans,
		AverageConfidence: h.averageConfidence,
		ExportDate:        time.Now().UTC().Format(time.RFC3339),
	}
	h.mu.Unlock()

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportScanHistory replaces the history from a serialized export. It fails
// closed: a false return means the payload did not parse or carried no
// scanHistory array, and the existing state is untouched. The embedded
// totalScans and averageConfidence are trusted as-is (falling back to the
// array length and 0) rather than recomputed, so files exported elsewhere
// round-trip verbatim.
func (h *History) ImportScanHistory(ctx context.Context, serialized string) bool {
	var payload struct {
		ScanHistory       json.RawMessage `json:"scanHistory"`
		TotalScans        *int            `json:"totalScans"`
		AverageConfidence *float64        `json:"averageConfidence"`
	}
	if err := json.Unmarshal([]byte(serialized), &payload); err != nil {
		log.Warn().Err(err).Msg("import rejected: invalid payload")
		return false
	}
	if payload.ScanHistory == nil {
		log.Warn().Msg("import rejected: missing scanHistory")
		return false
	}

	var items []*Result
	if err := json.Unmarshal(payload.ScanHistory, &items); err != nil {
		log.Warn().Err(err).Msg("import rejected: scanHistory is not an array")
		return false
	}
	// a JSON null decodes into a nil slice without error; only a real array
	// (possibly empty) is acceptable
	if items == nil {
		log.Warn().Msg("import rejected: scanHistory is not an array")
		return false
	}
	for _, item := range items {
		if item == nil {
			log.Warn().Msg("import rejected: scanHistory contains null entries")
			return false
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = items
	if payload.TotalScans != nil {
		h.totalScans = *payload.TotalScans
	} else {
		h.totalScans = len(items)
	}
	if payload.AverageConfidence != nil {
		h.averageConfidence = *payload.AverageConfidence
	} else {
		h.averageConfidence = 0
	}
	if len(items) > 0 {
		h.lastScanResult = items[0]
	} else {
		h.lastScanResult = nil
	}
	h.persistLocked(ctx)
	return true
}

// Items returns a copy of the history, most recent first.
func (h *History) Items() []*Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Result(nil), h.items...)
}

func (h *History) TotalScans() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalScans
}

func (h *History) AverageConfidence() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.averageConfidence
}

// LastScanResult returns the most recently ingested result, or nil.
func (h *History) LastScanResult() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastScanResult
}

// SetLastScanResult overrides the last-result pointer without touching the
// history. The edit screen uses this to reflect in-place text corrections.
func (h *History) SetLastScanResult(result *Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastScanResult = result
}

// SetScanning flags an in-flight capture for UI consumers.
func (h *History) SetScanning(scanning bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isScanning = scanning
}

func (h *History) IsScanning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isScanning
}

// recomputeLocked refreshes totalScans and averageConfidence from the
// retained entries. Caller holds the lock.
func (h *History) recomputeLocked() {
	h.totalScans = len(h.items)
	if len(h.items) == 0 {
		h.averageConfidence = 0
		return
	}
	var sum float64
	for _, item := range h.items {
		sum += item.Confidence
	}
	h.averageConfidence = sum / float64(len(h.items))
}

// persistLocked writes the durable snapshot. Persistence failures belong to
// the storage collaborator's error channel; here they are logged only.
func (h *History) persistLocked(ctx context.Context) {
	env := persistEnvelope{
		State: persistedHistory{
			ScanHistory:       h.items,
			TotalScans:        h.totalScans,
			AverageConfidence: h.averageConfidence,
		},
		Version: storeVersion,
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("store", storeName).Msg("failed to serialize history")
		return
	}
	if err := h.kv.SetItem(ctx, storeName, string(data)); err != nil {
		log.Error().Err(err).Str("store", storeName).Msg("failed to persist history")
	}
}
