package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the chrome around the arena. Balls keep their own colors.
type Theme struct {
	Name      string
	Title     lipgloss.Color
	Accent    lipgloss.Color
	Wall      lipgloss.Color
	Highlight lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Graph     lipgloss.Color
}

var (
	ThemeNeon = Theme{
		Name:      "neon",
		Title:     lipgloss.Color("#39ff14"),
		Accent:    lipgloss.Color("#ff1493"),
		Wall:      lipgloss.Color("#444466"),
		Highlight: lipgloss.Color("#7df9ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Graph:     lipgloss.Color("#00ffff"),
	}

	ThemeRetro = Theme{
		Name:      "retro",
		Title:     lipgloss.Color("#00ff00"),
		Accent:    lipgloss.Color("#88ff88"),
		Wall:      lipgloss.Color("#005500"),
		Highlight: lipgloss.Color("#ccffcc"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#007700"),
		Graph:     lipgloss.Color("#00cc00"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Title:     lipgloss.Color("#ffffff"),
		Accent:    lipgloss.Color("#0088ff"),
		Wall:      lipgloss.Color("#888888"),
		Highlight: lipgloss.Color("#ffffff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Graph:     lipgloss.Color("#cccccc"),
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		Title:     lipgloss.Color("#ff6b6b"),
		Accent:    lipgloss.Color("#feca57"),
		Wall:      lipgloss.Color("#8b6b8c"),
		Highlight: lipgloss.Color("#ff9ff3"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Graph:     lipgloss.Color("#ffc048"),
	}

	Themes = []Theme{
		ThemeNeon,
		ThemeRetro,
		ThemeMinimal,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to neon.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNeon
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}
