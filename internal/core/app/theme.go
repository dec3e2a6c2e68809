package app

// ThemeMode is the user-facing theme preference.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Theme is the derived color palette. It is recomputed from ThemeMode on
// every load and never persisted.
type Theme struct {
	Mode          ThemeMode `json:"mode"`
	Background    string    `json:"background"`
	Surface       string    `json:"surface"`
	Text          string    `json:"text"`
	TextSecondary string    `json:"textSecondary"`
	Primary       string    `json:"primary"`
	Border        string    `json:"border"`
}

var lightTheme = Theme{
	Mode:          ThemeLight,
	Background:    "#FFFFFF",
	Surface:       "#F2F2F7",
	Text:          "#000000",
	TextSecondary: "#666666",
	Primary:       "#007AFF",
	Border:        "#C6C6C8",
}

var darkTheme = Theme{
	Mode:          ThemeDark,
	Background:    "#000000",
	Surface:       "#1C1C1E",
	Text:          "#FFFFFF",
	TextSecondary: "#98989E",
	Primary:       "#0A84FF",
	Border:        "#38383A",
}

func themeFor(mode ThemeMode) Theme {
	if mode == ThemeDark {
		return darkTheme
	}
	return lightTheme
}
