package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/textlens/textlens/internal/storage"
)

const (
	storeName    = "app-storage"
	storeVersion = 1
)

// LanguagePreference is the UI language choice, "system" meaning "follow
// the host locale".
type LanguagePreference string

const (
	LangSystem  LanguagePreference = "system"
	LangEnglish LanguagePreference = "en"
	LangFrench  LanguagePreference = "fr"
)

// LanguageChanger is the external i18n side effect invoked when the UI
// language changes.
type LanguageChanger interface {
	ChangeLanguage(ctx context.Context, lang LanguagePreference) error
}

// LanguageChangeError reports a failed i18n switch. The store did not
// commit the new preference.
type LanguageChangeError struct {
	Language LanguagePreference
	Err      error
}

func (e *LanguageChangeError) Error() string {
	return fmt.Sprintf("language change to %q failed: %v", e.Language, e.Err)
}

func (e *LanguageChangeError) Unwrap() error { return e.Err }

// Store holds the theme and language preferences behind an explicit
// hydration gate: not hydrated → hydrated → initialized. Construct one per
// process.
type Store struct {
	kv      storage.KV
	changer LanguageChanger

	mu              sync.Mutex
	themeMode       ThemeMode
	theme           Theme
	isDark          bool
	currentLanguage LanguagePreference
	hasHydrated     bool
	initialized     bool

	isThemeLoading    bool
	isLanguageLoading bool
}

type persistedState struct {
	ThemeMode       ThemeMode          `json:"themeMode"`
	CurrentLanguage LanguagePreference `json:"currentLanguage"`
}

type persistEnvelope struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

// NewStore creates a settings store in its pre-hydration default state.
func NewStore(kv storage.KV, changer LanguageChanger) *Store {
	return &Store{
		kv:              kv,
		changer:         changer,
		themeMode:       ThemeLight,
		theme:           lightTheme,
		currentLanguage: LangSystem,
	}
}

// Hydrate loads persisted preferences and marks the store hydrated. The
// flag flips exactly once; repeated calls do not reload.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hasHydrated {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	raw, ok, err := s.kv.GetItem(ctx, storeName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		var env persistEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			log.Warn().Err(err).Str("store", storeName).Msg("discarding unreadable persisted settings")
		} else {
			if env.State.ThemeMode != "" {
				s.themeMode = env.State.ThemeMode
			}
			if env.State.CurrentLanguage != "" {
				s.currentLanguage = env.State.CurrentLanguage
			}
		}
	}
	// derived fields are never persisted; recompute them on load
	s.theme = themeFor(s.themeMode)
	s.isDark = s.themeMode == ThemeDark
	s.hasHydrated = true
	return nil
}

// InitializeFromSystem seeds the theme from the host color scheme. It
// applies only before hydration and only while the theme is still at its
// default, so it can never clobber an explicit earlier choice.
func (s *Store) InitializeFromSystem(systemScheme ThemeMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasHydrated || s.themeMode != ThemeLight {
		return
	}
	mode := ThemeLight
	if systemScheme == ThemeDark {
		mode = ThemeDark
	}
	s.applyThemeLocked(mode)
}

// InitializeApp re-derives the theme and synchronizes the UI language.
// Idempotent: repeated calls refresh the theme but run the language sync
// only once per hydration.
func (s *Store) InitializeApp(ctx context.Context) error {
	s.mu.Lock()
	s.theme = themeFor(s.themeMode)
	s.isDark = s.themeMode == ThemeDark
	alreadyInitialized := s.initialized
	lang := s.currentLanguage
	s.mu.Unlock()

	if alreadyInitialized {
		return nil
	}
	if err := s.changer.ChangeLanguage(ctx, lang); err != nil {
		return &LanguageChangeError{Language: lang, Err: err}
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// SetThemeMode applies and persists an explicit theme choice.
func (s *Store) SetThemeMode(ctx context.Context, mode ThemeMode) {
	s.mu.Lock()
	s.applyThemeLocked(mode)
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// SetLanguage switches the UI language in two phases: the i18n side effect
// runs first and the preference commits only on success, so a failure
// leaves the previous state intact. The error propagates to the caller.
func (s *Store) SetLanguage(ctx context.Context, lang LanguagePreference) error {
	if err := s.changer.ChangeLanguage(ctx, lang); err != nil {
		return &LanguageChangeError{Language: lang, Err: err}
	}

	s.mu.Lock()
	s.currentLanguage = lang
	s.persistLocked(ctx)
	s.mu.Unlock()
	return nil
}

func (s *Store) ThemeMode() ThemeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.themeMode
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Store) IsDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isDark
}

func (s *Store) CurrentLanguage() LanguagePreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLanguage
}

func (s *Store) HasHydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasHydrated
}

func (s *Store) SetThemeLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isThemeLoading = loading
}

func (s *Store) SetLanguageLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLanguageLoading = loading
}

func (s *Store) IsThemeLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isThemeLoading
}

func (s *Store) IsLanguageLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLanguageLoading
}

func (s *Store) applyThemeLocked(mode ThemeMode) {
	s.themeMode = mode
	s.theme = themeFor(mode)
	s.isDark = mode == ThemeDark
}

// persistLocked writes {themeMode, currentLanguage} only; derived fields
// are recomputed on load.
func (s *Store) persistLocked(ctx context.Context) {
	env := persistEnvelope{
		State: persistedState{
			ThemeMode:       s.themeMode,
			CurrentLanguage: s.currentLanguage,
		},
		Version: storeVersion,
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("store", storeName).Msg("failed to serialize settings")
		return
	}
	if err := s.kv.SetItem(ctx, storeName, string(data)); err != nil {
		log.Error().Err(err).Str("store", storeName).Msg("failed to persist settings")
	}
}
