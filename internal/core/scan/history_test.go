package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/textlens/textlens/internal/core/classify"
	"github.com/textlens/textlens/internal/storage"
)

func newResult(id string, confidence float64) *Result {
	return &Result{
		ID:               id,
		Text:             "Hello World",
		Confidence:       confidence,
		Language:         "eng",
		ProcessingTimeMs: 100,
		Timestamp:        1700000000000,
		Type:             classify.TypeText,
	}
}

func TestAddScanResult(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())

	h.AddScanResult(ctx, newResult("scan1", 90))
	h.AddScanResult(ctx, newResult("scan2", 80))

	items := h.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "scan2" || items[1].ID != "scan1" {
		t.Fatalf("history not most-recent-first: %s, %s", items[0].ID, items[1].ID)
	}
	if got := h.TotalScans(); got != 2 {
		t.Errorf("TotalScans = %d, want 2", got)
	}
	if got := h.AverageConfidence(); got != 85 {
		t.Errorf("AverageConfidence = %v, want 85", got)
	}
	if last := h.LastScanResult(); last == nil || last.ID != "scan2" {
		t.Errorf("LastScanResult = %+v, want scan2", last)
	}
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())

	for i := 0; i < 16; i++ {
		h.AddScanResult(ctx, newResult(fmt.Sprintf("scan%d", i), 90))
	}

	items := h.Items()
	if len(items) != 15 {
		t.Fatalf("got %d items, want 15", len(items))
	}
	if h.TotalScans() != 15 {
		t.Fatalf("TotalScans = %d, want 15", h.TotalScans())
	}
	// scan0 was the oldest and must be the one evicted
	for _, item := range items {
		if item.ID == "scan0" {
			t.Fatal("oldest entry was not evicted")
		}
	}
	if items[0].ID != "scan15" {
		t.Fatalf("newest entry is %s, want scan15", items[0].ID)
	}
}

func TestDeleteScanItem(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())
	h.AddScanResult(ctx, newResult("scan1", 90))
	h.AddScanResult(ctx, newResult("scan2", 80))

	h.DeleteScanItem(ctx, "scan1")

	items := h.Items()
	if len(items) != 1 || items[0].ID != "scan2" {
		t.Fatalf("unexpected items after delete: %+v", items)
	}
	if h.TotalScans() != 1 || h.AverageConfidence() != 80 {
		t.Fatalf("aggregates not recomputed: total=%d avg=%v", h.TotalScans(), h.AverageConfidence())
	}
}

func TestDeleteAbsentIDIsNoop(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())
	h.AddScanResult(ctx, newResult("scan1", 77))

	h.DeleteScanItem(ctx, "nope")

	if h.TotalScans() != 1 || h.AverageConfidence() != 77 || len(h.Items()) != 1 {
		t.Fatal("delete of absent id mutated state")
	}
}

func TestDeleteLastItemZeroesAverage(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())
	h.AddScanResult(ctx, newResult("only", 77))

	h.DeleteScanItem(ctx, "only")

	if h.TotalScans() != 0 || h.AverageConfidence() != 0 {
		t.Fatalf("total=%d avg=%v, want zeros", h.TotalScans(), h.AverageConfidence())
	}
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())
	h.AddScanResult(ctx, newResult("scan1", 90))
	h.AddScanResult(ctx, newResult("scan2", 80))

	h.ClearHistory(ctx)

	if len(h.Items()) != 0 || h.TotalScans() != 0 || h.AverageConfidence() != 0 {
		t.Fatal("clear did not reset aggregates")
	}
	if h.LastScanResult() != nil {
		t.Fatal("lastScanResult not nil after clear")
	}
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())

	eng := newResult("a", 90)
	fra := newResult("b", 70)
	fra.Language = "fra"
	h.AddScanResult(ctx, eng)
	h.AddScanResult(ctx, fra)

	stats := h.GetStatistics()
	if stats.TotalScans != 2 || stats.AverageConfidence != 80 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.LanguageDistribution["eng"] != 1 || stats.LanguageDistribution["fra"] != 1 {
		t.Fatalf("language distribution = %v", stats.LanguageDistribution)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())
	h.AddScanResult(ctx, newResult("scan1", 90))
	h.AddScanResult(ctx, newResult("scan2", 80))

	exported, err := h.ExportScanHistory()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(exported), &payload); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if _, ok := payload["exportDate"]; !ok {
		t.Fatal("export missing exportDate")
	}

	other := NewHistory(storage.NewMemoryStore())
	if !other.ImportScanHistory(ctx, exported) {
		t.Fatal("import of exported payload failed")
	}

	items := other.Items()
	if len(items) != 2 || items[0].ID != "scan2" || items[1].ID != "scan1" {
		t.Fatalf("round-trip lost order: %+v", items)
	}
	if other.TotalScans() != 2 || other.AverageConfidence() != 85 {
		t.Fatalf("round-trip aggregates: total=%d avg=%v", other.TotalScans(), other.AverageConfidence())
	}
}

func TestImportTrustsEmbeddedAggregates(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())

	payload := `{"scanHistory":[{"id":"x","text":"t","confidence":50,"language":"eng","processing_time_ms":1,"timestamp":1,"type":"text"}],"totalScans":42,"averageConfidence":99.5}`
	if !h.ImportScanHistory(ctx, payload) {
		t.Fatal("import failed")
	}
	// embedded values win over recomputation
	if h.TotalScans() != 42 || h.AverageConfidence() != 99.5 {
		t.Fatalf("total=%d avg=%v, want embedded 42/99.5", h.TotalScans(), h.AverageConfidence())
	}
}

func TestImportDefaultsMissingAggregates(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())

	payload := `{"scanHistory":[{"id":"x","confidence":50},{"id":"y","confidence":70}]}`
	if !h.ImportScanHistory(ctx, payload) {
		t.Fatal("import failed")
	}
	if h.TotalScans() != 2 {
		t.Fatalf("TotalScans = %d, want array length", h.TotalScans())
	}
	if h.AverageConfidence() != 0 {
		t.Fatalf("AverageConfidence = %v, want default 0", h.AverageConfidence())
	}
}

func TestImportRejectsMalformedPayloads(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		payload string
	}{
		{"invalid json", `not json at all`},
		{"missing scanHistory", `{"totalScans":3}`},
		{"scanHistory is null", `{"scanHistory":null}`},
		{"scanHistory not an array", `{"scanHistory":"nope"}`},
		{"scanHistory is an object", `{"scanHistory":{"id":"x"}}`},
		{"scanHistory contains null entries", `{"scanHistory":[null]}`},
		{"null entry among valid ones", `{"scanHistory":[{"id":"x","confidence":50},null]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHistory(storage.NewMemoryStore())
			h.AddScanResult(ctx, newResult("keep", 88))

			if h.ImportScanHistory(ctx, tc.payload) {
				t.Fatal("import unexpectedly succeeded")
			}
			if h.TotalScans() != 1 || h.Items()[0].ID != "keep" {
				t.Fatal("failed import mutated state")
			}
			// the surviving history must still be fully usable
			stats := h.GetStatistics()
			if stats.TotalScans != 1 || stats.LanguageDistribution["eng"] != 1 {
				t.Fatalf("stats after rejected import: %+v", stats)
			}
		})
	}
}

func TestImportAcceptsEmptyArray(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(storage.NewMemoryStore())
	h.AddScanResult(ctx, newResult("old", 88))

	if !h.ImportScanHistory(ctx, `{"scanHistory":[]}`) {
		t.Fatal("import of empty array failed")
	}
	if h.TotalScans() != 0 || len(h.Items()) != 0 {
		t.Fatalf("total=%d items=%d, want empty", h.TotalScans(), len(h.Items()))
	}
	if h.LastScanResult() != nil {
		t.Fatal("lastScanResult not nil after empty import")
	}
}

func TestHydrateRestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	h := NewHistory(kv)
	h.AddScanResult(ctx, newResult("scan1", 90))
	h.AddScanResult(ctx, newResult("scan2", 70))

	// a fresh store over the same KV sees the persisted snapshot
	restored := NewHistory(kv)
	if err := restored.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if restored.TotalScans() != 2 || restored.AverageConfidence() != 80 {
		t.Fatalf("restored aggregates: total=%d avg=%v", restored.TotalScans(), restored.AverageConfidence())
	}
	if last := restored.LastScanResult(); last == nil || last.ID != "scan2" {
		t.Fatalf("restored last = %+v", last)
	}
}

func TestScanningFlag(t *testing.T) {
	h := NewHistory(storage.NewMemoryStore())
	if h.IsScanning() {
		t.Fatal("new history reports scanning")
	}
	h.SetScanning(true)
	if !h.IsScanning() {
		t.Fatal("SetScanning(true) not observed")
	}
	h.SetScanning(false)
	if h.IsScanning() {
		t.Fatal("SetScanning(false) not observed")
	}
}
