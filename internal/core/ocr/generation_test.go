package ocr

import (
	"context"
	"sync"
	"testing"
	"time"
)

// blockingEngine lets a test hold an Initialize call open until released.
type blockingEngine struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newBlockingEngine() *blockingEngine {
	return &blockingEngine{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (b *blockingEngine) gate(language string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.gates[language]
	if !ok {
		g = make(chan struct{})
		b.gates[language] = g
	}
	return g
}

func (b *blockingEngine) Name() string { return "blocking" }

func (b *blockingEngine) Initialize(_ context.Context, language string) (*EngineResponse, error) {
	b.started <- language
	<-b.gate(language)
	return &EngineResponse{Success: true}, nil
}

func (b *blockingEngine) ExtractTextFromImage(context.Context, []byte) (*EngineResponse, error) {
	return &EngineResponse{Success: true, Result: validPayload}, nil
}

func TestStaleReinitializationIsDiscarded(t *testing.T) {
	engine := newBlockingEngine()
	a := newTestAdapter(engine, nil)

	// initial foreground init on eng
	close(engine.gate("eng"))
	if err := a.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	<-engine.started // drain eng

	// first language change: reinit on fra starts and hangs
	fra, kor := LangFrench, LangKorean
	a.UpdateSettings(SettingsPatch{Language: &fra})
	if got := <-engine.started; got != "fra" {
		t.Fatalf("first reinit language = %q", got)
	}

	// second change supersedes it before it completes
	a.UpdateSettings(SettingsPatch{Language: &kor})
	close(engine.gate("kor"))
	if got := <-engine.started; got != "kor" {
		t.Fatalf("second reinit language = %q", got)
	}

	waitFor(t, func() bool {
		return a.IsReady() && a.CurrentLanguage() == LangKorean
	}, "adapter never became ready on kor")

	// now let the stale fra initialization finish; it must not win
	close(engine.gate("fra"))
	time.Sleep(50 * time.Millisecond)
	if a.CurrentLanguage() != LangKorean || !a.IsReady() {
		t.Fatalf("stale reinit overwrote state: language=%q ready=%v", a.CurrentLanguage(), a.IsReady())
	}
}
