package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries process-level settings for the scanner core.
type Config struct {
	Env               string  `yaml:"env"`
	StoragePath       string  `yaml:"storage_path"`
	Engine            string  `yaml:"engine"` // auto | gosseract | cli
	TesseractPath     string  `yaml:"tesseract_path"`
	OcrLanguage       string  `yaml:"ocr_language"`
	MinimumConfidence float64 `yaml:"minimum_confidence"`
	AutoDetectType    bool    `yaml:"auto_detect_type"`
	PreprocessImage   bool    `yaml:"preprocess_image"`
}

// LoadConfig reads an optional YAML config file, then overlays environment
// variables. TEXTLENS_CONFIG points at the file; ./textlens.yaml is the
// fallback location.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		Env:               "development",
		StoragePath:       "textlens.db",
		Engine:            "auto",
		TesseractPath:     "tesseract",
		OcrLanguage:       "eng",
		MinimumConfidence: 60,
		AutoDetectType:    true,
		PreprocessImage:   true,
	}

	path := os.Getenv("TEXTLENS_CONFIG")
	if path == "" {
		path = "textlens.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Printf("⚠️ invalid config file %s: %v", path, err)
		}
	}

	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("TEXTLENS_STORAGE_PATH"); v != "" {
		cfg.StoragePath = v
	}
	if v := os.Getenv("TEXTLENS_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("TEXTLENS_TESSERACT_PATH"); v != "" {
		cfg.TesseractPath = v
	}
	if v := os.Getenv("TEXTLENS_OCR_LANGUAGE"); v != "" {
		cfg.OcrLanguage = v
	}
	if v := os.Getenv("TEXTLENS_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MinimumConfidence = f
		}
	}

	return cfg
}
