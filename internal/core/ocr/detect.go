package ocr

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// DetectEngine selects the production engine once at startup. kind pins the
// choice ("gosseract" or "cli"); "auto" or empty selects the in-process
// engine. The selection is final for the process lifetime.
func DetectEngine(kind, tesseractPath string) (Engine, error) {
	switch kind {
	case "gosseract":
		return NewGosseractEngine(), nil
	case "cli":
		if tesseractPath == "" {
			tesseractPath = "tesseract"
		}
		if _, err := exec.LookPath(tesseractPath); err != nil {
			return nil, fmt.Errorf("engine pinned to cli but %q is not available: %w", tesseractPath, err)
		}
		return NewTesseractCLIEngine(tesseractPath), nil
	case "", "auto":
		engine := Engine(NewGosseractEngine())
		log.Info().Str("engine", engine.Name()).Msg("selected ocr engine")
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q (want auto, gosseract or cli)", kind)
	}
}
