package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textlens/textlens/internal/core/classify"
)

// Factory builds Result values from engine output. Pure composition: id and
// timestamp generation plus optional type detection, no I/O.
type Factory struct {
	now   func() time.Time
	newID func() string
}

// NewFactory creates a factory backed by the wall clock and random ids.
func NewFactory() *Factory {
	return &Factory{
		now:   time.Now,
		newID: newScanID,
	}
}

// Build assembles the final scan record. The timestamp is the ingestion-time
// wall clock, not the engine's internal processing time. Type detection runs
// only when autoDetect is set; otherwise every record is plain text.
func (f *Factory) Build(out Output, sourceURI string, autoDetect bool) *Result {
	resultType := classify.TypeText
	if autoDetect {
		resultType = classify.Detect(out.Text)
	}

	return &Result{
		ID:               f.newID(),
		Text:             out.Text,
		Confidence:       out.Confidence,
		Language:         out.Language,
		ProcessingTimeMs: out.ProcessingTimeMs,
		Timestamp:        f.now().UnixMilli(),
		ImageURI:         sourceURI,
		Type:             resultType,
	}
}

// newScanID combines a millisecond clock component with a random suffix so
// ids stay unique within a session and sort roughly by creation time.
func newScanID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("ocr_%d_%s", time.Now().UnixMilli(), suffix)
}
