package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appstore "github.com/textlens/textlens/internal/core/app"
	"github.com/textlens/textlens/internal/core/ocr"
	"github.com/textlens/textlens/internal/shared/utils"
)

func newRootCmd() *cobra.Command {
	app := &application{}

	root := &cobra.Command{
		Use:   "textlens",
		Short: "On-device document scanning: OCR, classification and scan history",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			return app.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.teardown()
		},
		SilenceUsage: true,
	}

	root.AddCommand(newScanCmd(app))
	root.AddCommand(newHistoryCmd(app))
	root.AddCommand(newSettingsCmd(app))
	root.AddCommand(newInfoCmd(app))
	return root
}

func newScanCmd(app *application) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract text from an image file, URI or base64 payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			lang := ocr.Language(app.cfg.OcrLanguage)
			if language != "" {
				lang = ocr.Language(language)
			}
			if !lang.Supported() {
				return fmt.Errorf("unsupported ocr language %q", lang)
			}

			if err := app.adapter.Initialize(ctx, &ocr.Config{Language: lang}); err != nil {
				return err
			}

			app.history.SetScanning(true)
			defer app.history.SetScanning(false)

			img := ocr.Image{URI: args[0]}
			if strings.HasPrefix(args[0], "data:image/") {
				img = ocr.Image{Base64: args[0]}
			}

			result, err := app.adapter.ExtractText(ctx, img)
			if err != nil {
				return err
			}

			if strings.TrimSpace(result.Text) == "" {
				utils.LogWarn("no text found in image", map[string]interface{}{"id": result.ID})
			}
			app.history.AddScanResult(ctx, result)

			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "OCR language code (default from config)")
	return cmd
}

func newHistoryCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage the scan history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List retained scans, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, app.history.Items())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show totals, average confidence and language distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, app.history.GetStatistics())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one scan by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.history.DeleteScanItem(cmd.Context(), args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the entire scan history",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.history.ClearHistory(cmd.Context())
			utils.LogInfo("🧹 scan history cleared", nil)
			return nil
		},
	})

	var exportPath string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the scan history as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := app.history.ExportScanHistory()
			if err != nil {
				return err
			}
			if exportPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), payload)
				return nil
			}
			return os.WriteFile(exportPath, []byte(payload), 0o644)
		},
	}
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "write the export to a file instead of stdout")
	cmd.AddCommand(exportCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the scan history from an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !app.history.ImportScanHistory(cmd.Context(), string(data)) {
				return fmt.Errorf("import failed: %s is not a valid history export", args[0])
			}
			utils.LogInfo("📥 history imported", map[string]interface{}{"scans": app.history.TotalScans()})
			return nil
		},
	})

	return cmd
}

func newSettingsCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change OCR and app settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, map[string]interface{}{
				"ocr":       app.adapter.Settings(),
				"themeMode": app.settings.ThemeMode(),
				"language":  app.settings.CurrentLanguage(),
			})
		},
	})

	var (
		ocrLanguage   string
		minConfidence float64
		autoDetect    bool
		theme         string
		uiLanguage    string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings",
		Long: `Change settings.

Theme and UI language are persisted. OCR settings apply to the current
invocation only; set TEXTLENS_OCR_LANGUAGE, TEXTLENS_MIN_CONFIDENCE or the
config file to change the defaults across runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			patch := ocr.SettingsPatch{}
			if cmd.Flags().Changed("ocr-language") {
				lang := ocr.Language(ocrLanguage)
				if !lang.Supported() {
					return fmt.Errorf("unsupported ocr language %q", ocrLanguage)
				}
				patch.Language = &lang
			}
			if cmd.Flags().Changed("min-confidence") {
				patch.MinimumConfidence = &minConfidence
			}
			if cmd.Flags().Changed("auto-detect") {
				patch.AutoDetectTextType = &autoDetect
			}
			app.adapter.UpdateSettings(patch)

			if cmd.Flags().Changed("theme") {
				app.settings.SetThemeMode(ctx, appstore.ThemeMode(theme))
			}
			if cmd.Flags().Changed("ui-language") {
				if err := app.settings.SetLanguage(ctx, appstore.LanguagePreference(uiLanguage)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	setCmd.Flags().StringVar(&ocrLanguage, "ocr-language", "", "OCR language code")
	setCmd.Flags().Float64Var(&minConfidence, "min-confidence", 60, "low-confidence warning threshold (0-100)")
	setCmd.Flags().BoolVar(&autoDetect, "auto-detect", true, "detect text type (url/email/phone)")
	setCmd.Flags().StringVar(&theme, "theme", "light", "theme mode: light or dark")
	setCmd.Flags().StringVar(&uiLanguage, "ui-language", "system", "ui language: system, en or fr")
	cmd.AddCommand(setCmd)

	return cmd
}

func newInfoCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show platform and engine information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := app.adapter.PlatformInfo()
			return printJSON(cmd, map[string]interface{}{
				"platform":           info.Platform,
				"engine":             info.Engine,
				"ready":              app.adapter.IsReady(),
				"currentLanguage":    app.adapter.CurrentLanguage(),
				"supportedLanguages": ocr.SupportedLanguages(),
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
