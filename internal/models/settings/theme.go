package settings

import (
	"fmt"
	"strings"
)

type Theme string

const ThemeLight Theme = "light"
const ThemeDark Theme = "dark"

const DefaultTheme = ThemeLight

func ParseTheme(raw string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("неизвестная тема %q", raw)
	}
}
