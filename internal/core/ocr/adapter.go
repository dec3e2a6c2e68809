package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/textlens/textlens/internal/core/scan"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

// Adapter presents one asynchronous contract over whichever engine the
// process selected at startup. It owns the initialization gate, the current
// language and the extraction settings. Construct exactly one per process
// and thread it through; there is no package-level instance.
type Adapter struct {
	engine  Engine
	source  ByteSource
	factory *scan.Factory

	mu              sync.Mutex
	initialized     bool
	currentLanguage Language
	settings        Settings
	generation      uint64
}

// NewAdapter wires an adapter to its engine, byte resolver and result
// factory.
func NewAdapter(engine Engine, source ByteSource, factory *scan.Factory) *Adapter {
	return &Adapter{
		engine:          engine,
		source:          source,
		factory:         factory,
		currentLanguage: LangEnglish,
		settings:        DefaultSettings(),
	}
}

// Initialize prepares the engine. A no-op when already initialized; the
// backend initializer is invoked at most once until the language changes or
// Reset is called.
func (a *Adapter) Initialize(ctx context.Context, cfg *Config) error {
	a.mu.Lock()
	if a.initialized {
		a.mu.Unlock()
		return nil
	}
	language := a.settings.Language
	if cfg != nil && cfg.Language != "" {
		language = cfg.Language
	}
	gen := a.generation
	a.mu.Unlock()

	return a.initializeLanguage(ctx, language, gen)
}

// initializeLanguage runs the backend initializer and commits the result
// only if gen is still the current generation, so a reinitialization that
// was superseded by a newer settings update cannot overwrite newer state.
func (a *Adapter) initializeLanguage(ctx context.Context, language Language, gen uint64) error {
	resp, err := a.engine.Initialize(ctx, string(language))
	if err != nil {
		return &InitializationError{Language: language, Err: err}
	}
	if resp == nil || !resp.Success {
		msg := "engine reported initialization failure"
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return &InitializationError{Language: language, Err: errors.New(msg)}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		log.Debug().Str("language", string(language)).Msg("discarding stale engine initialization")
		return nil
	}
	a.initialized = true
	a.currentLanguage = language
	log.Info().Str("engine", a.engine.Name()).Str("language", string(language)).Msg("ocr engine initialized")
	return nil
}

// ExtractText normalizes the image to bytes, runs recognition and returns
// the finished scan record. Fails with ErrNotInitialized before a
// successful Initialize.
func (a *Adapter) ExtractText(ctx context.Context, img Image) (*scan.Result, error) {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return nil, ErrNotInitialized
	}
	settings := a.settings
	a.mu.Unlock()

	data, err := a.resolveBytes(ctx, img)
	if err != nil {
		return nil, err
	}

	resp, err := a.engine.ExtractTextFromImage(ctx, data)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	if resp == nil || !resp.Success {
		msg := "engine reported extraction failure"
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return nil, &ExtractionError{Err: errors.New(msg)}
	}
	if resp.Result == "" {
		// a success response without a payload is garbage, not a success
		return nil, &ExtractionError{Err: errors.New("engine returned no result payload")}
	}

	var out scan.Output
	if err := json.Unmarshal([]byte(resp.Result), &out); err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("malformed engine payload: %w", err)}
	}

	if out.Confidence < settings.MinimumConfidence {
		log.Warn().
			Float64("confidence", out.Confidence).
			Float64("minimum", settings.MinimumConfidence).
			Msg("low confidence extraction")
	}

	return a.factory.Build(out, img.URI, settings.AutoDetectTextType), nil
}

// ExtractTextFromURI is a convenience wrapper over ExtractText.
func (a *Adapter) ExtractTextFromURI(ctx context.Context, uri string) (*scan.Result, error) {
	return a.ExtractText(ctx, Image{URI: uri})
}

// ExtractTextFromBase64 is a convenience wrapper over ExtractText.
func (a *Adapter) ExtractTextFromBase64(ctx context.Context, b64 string) (*scan.Result, error) {
	return a.ExtractText(ctx, Image{Base64: b64})
}

func (a *Adapter) resolveBytes(ctx context.Context, img Image) ([]byte, error) {
	switch {
	case len(img.Bytes) > 0:
		return img.Bytes, nil
	case img.Base64 != "":
		clean := dataURLPrefix.ReplaceAllString(img.Base64, "")
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("invalid base64 image: %w", err)}
		}
		return data, nil
	case img.URI != "":
		data, err := a.source.Resolve(ctx, img.URI)
		if err != nil {
			return nil, &ImageLoadError{URI: img.URI, Err: err}
		}
		return data, nil
	default:
		return nil, &ExtractionError{Err: errors.New("invalid image data provided")}
	}
}

// UpdateSettings shallow-merges patch into the current settings. A language
// change flips the adapter back to uninitialized and reinitializes in the
// background; a failure there is logged, not returned, since no caller
// waits on it. Until that reinitialization resolves, ExtractText fails with
// ErrNotInitialized.
func (a *Adapter) UpdateSettings(patch SettingsPatch) {
	a.mu.Lock()
	if patch.AutoDetectTextType != nil {
		a.settings.AutoDetectTextType = *patch.AutoDetectTextType
	}
	if patch.MinimumConfidence != nil {
		a.settings.MinimumConfidence = *patch.MinimumConfidence
	}
	if patch.PreprocessImage != nil {
		a.settings.PreprocessImage = *patch.PreprocessImage
	}

	var relaunch bool
	var language Language
	var gen uint64
	if patch.Language != nil {
		if !patch.Language.Supported() {
			log.Warn().Str("language", string(*patch.Language)).Msg("ignoring unsupported ocr language")
		} else {
			a.settings.Language = *patch.Language
			if *patch.Language != a.currentLanguage {
				a.initialized = false
				a.generation++
				relaunch = true
				language = *patch.Language
				gen = a.generation
			}
		}
	}
	a.mu.Unlock()

	if relaunch {
		go func() {
			if err := a.initializeLanguage(context.Background(), language, gen); err != nil {
				log.Error().Err(err).Str("language", string(language)).Msg("background ocr reinitialization failed")
			}
		}()
	}
}

// IsReady reports whether extraction can be attempted.
func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized
}

// CurrentLanguage returns the last successfully initialized language.
func (a *Adapter) CurrentLanguage() Language {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentLanguage
}

// Settings returns a copy of the current settings.
func (a *Adapter) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// PlatformInfo reports the host platform and active engine.
func (a *Adapter) PlatformInfo() PlatformInfo {
	return PlatformInfo{
		Platform: runtime.GOOS,
		Engine:   a.engine.Name(),
	}
}

// Reset clears the initialization gate and restores default language and
// settings. Any in-flight background reinitialization is invalidated.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = false
	a.currentLanguage = LangEnglish
	a.settings = DefaultSettings()
	a.generation++
}
