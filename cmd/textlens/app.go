package main

import (
	"context"

	"github.com/textlens/textlens/internal/config"
	appstore "github.com/textlens/textlens/internal/core/app"
	"github.com/textlens/textlens/internal/core/ocr"
	"github.com/textlens/textlens/internal/core/scan"
	"github.com/textlens/textlens/internal/shared/utils"
	"github.com/textlens/textlens/internal/storage"
)

// application is the composition root: exactly one adapter and one of each
// store per process, threaded into the commands.
type application struct {
	cfg      *config.Config
	kv       *storage.SQLiteStore
	adapter  *ocr.Adapter
	history  *scan.History
	settings *appstore.Store
}

// logChanger is the CLI stand-in for the external i18n system.
type logChanger struct{}

func (logChanger) ChangeLanguage(_ context.Context, lang appstore.LanguagePreference) error {
	utils.LogInfo("ui language applied", map[string]interface{}{"language": string(lang)})
	return nil
}

func (a *application) setup(ctx context.Context) error {
	utils.InitLogger()
	a.cfg = config.LoadConfig()

	kv, err := storage.NewSQLiteStore(a.cfg.StoragePath)
	if err != nil {
		return err
	}
	a.kv = kv

	engine, err := ocr.DetectEngine(a.cfg.Engine, a.cfg.TesseractPath)
	if err != nil {
		return err
	}

	a.adapter = ocr.NewAdapter(engine, ocr.NewByteSource(), scan.NewFactory())
	a.adapter.UpdateSettings(ocr.SettingsPatch{
		AutoDetectTextType: &a.cfg.AutoDetectType,
		MinimumConfidence:  &a.cfg.MinimumConfidence,
		PreprocessImage:    &a.cfg.PreprocessImage,
	})

	a.history = scan.NewHistory(kv)
	if err := a.history.Hydrate(ctx); err != nil {
		return err
	}

	a.settings = appstore.NewStore(kv, logChanger{})
	if err := a.settings.Hydrate(ctx); err != nil {
		return err
	}
	if err := a.settings.InitializeApp(ctx); err != nil {
		return err
	}

	return nil
}

func (a *application) teardown() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			utils.LogError("failed to close storage", err, nil)
		}
	}
}
