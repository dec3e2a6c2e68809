package ocr

import "context"

// Language is an OCR language code. The set is closed; the engines only
// load trained data for codes listed in supportedLanguages.
type Language string

const (
	LangEnglish            Language = "eng"
	LangFrench             Language = "fra"
	LangGerman             Language = "deu"
	LangSpanish            Language = "spa"
	LangItalian            Language = "ita"
	LangPortuguese         Language = "por"
	LangRussian            Language = "rus"
	LangChineseSimplified  Language = "chi_sim"
	LangChineseTraditional Language = "chi_tra"
	LangJapanese           Language = "jpn"
	LangKorean             Language = "kor"
)

var supportedLanguages = map[Language]bool{
	LangEnglish: true, LangFrench: true, LangGerman: true, LangSpanish: true,
	LangItalian: true, LangPortuguese: true, LangRussian: true,
	LangChineseSimplified: true, LangChineseTraditional: true,
	LangJapanese: true, LangKorean: true,
}

// Supported reports whether l is one of the recognized language codes.
func (l Language) Supported() bool { return supportedLanguages[l] }

// SupportedLanguages lists every recognized language code.
func SupportedLanguages() []Language {
	return []Language{
		LangEnglish, LangFrench, LangGerman, LangSpanish, LangItalian,
		LangPortuguese, LangRussian, LangChineseSimplified,
		LangChineseTraditional, LangJapanese, LangKorean,
	}
}

// Settings control extraction behavior. Confidence values are percentages
// in [0,100]; MinimumConfidence only gates a warning signal, never the
// result itself. PreprocessImage is advisory for the capture layer and is
// not enforced here.
type Settings struct {
	Language           Language `json:"language"`
	AutoDetectTextType bool     `json:"autoDetectTextType"`
	MinimumConfidence  float64  `json:"minimumConfidence"`
	PreprocessImage    bool     `json:"preprocessImage"`
}

// DefaultSettings returns the adapter's factory defaults.
func DefaultSettings() Settings {
	return Settings{
		Language:           LangEnglish,
		AutoDetectTextType: true,
		MinimumConfidence:  60,
		PreprocessImage:    true,
	}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Language           *Language
	AutoDetectTextType *bool
	MinimumConfidence  *float64
	PreprocessImage    *bool
}

// Config carries optional initialization parameters.
type Config struct {
	Language Language
}

// Image is one capture in any of the three accepted forms. Exactly one
// field should be set; Bytes wins over Base64 wins over URI.
type Image struct {
	URI    string
	Base64 string
	Bytes  []byte
}

// EngineResponse is the uniform envelope every native engine returns.
// Result, when present, is a JSON document decoding to scan.Output.
type EngineResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Engine is the contract both text-recognition backends implement. Exactly
// one engine is selected at startup; see DetectEngine.
type Engine interface {
	// Name identifies the engine in logs and platform info.
	Name() string

	// Initialize prepares the engine for the given language. A response
	// with Success=false means the engine refused the language; a non-nil
	// error means the call itself failed.
	Initialize(ctx context.Context, language string) (*EngineResponse, error)

	// ExtractTextFromImage runs recognition over encoded image bytes.
	ExtractTextFromImage(ctx context.Context, image []byte) (*EngineResponse, error)
}

// ByteSource resolves an image URI to raw bytes.
type ByteSource interface {
	Resolve(ctx context.Context, uri string) ([]byte, error)
}

// PlatformInfo describes the running host and active engine.
type PlatformInfo struct {
	Platform string `json:"platform"`
	Engine   string `json:"engine"`
}
