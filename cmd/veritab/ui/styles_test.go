package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("VERITAB_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when VERITAB_DARK_MODE=1")
	}

	t.Setenv("VERITAB_DARK_MODE", "0")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when VERITAB_DARK_MODE=0")
	}
}

func TestDetectThemeColorFgBg(t *testing.T) {
	t.Setenv("VERITAB_DARK_MODE", "")
	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for COLORFGBG=15;0")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme for COLORFGBG=0;15")
	}
}

func TestThemeFromName(t *testing.T) {
	if ThemeFromName("dark").IsDark != true {
		t.Errorf("dark should resolve to the dark theme")
	}
	if ThemeFromName("light").IsDark != false {
		t.Errorf("light should resolve to the light theme")
	}

	t.Setenv("VERITAB_DARK_MODE", "1")
	if !ThemeFromName("auto").IsDark {
		t.Errorf("auto should fall back to detection")
	}
}
