package domain

import (
	"testing"
	"time"
)

func TestResolveSizePreset(t *testing.T) {
	tests := []struct {
		name       string
		wantPreset SizePreset
		wantWidth  int
		wantErr    bool
	}{
		{"thumbnail", PresetThumbnail, 150, false},
		{"small", PresetSmall, 320, false},
		{"medium", PresetMedium, 800, false},
		{"large", PresetLarge, 1280, false},
		{"xlarge", PresetXLarge, 1920, false},
		{"placeholder", PresetPlaceholder, 40, false},
		{"blur", PresetBlur, 20, false},
		{"", PresetMedium, 800, false},
		{"THUMBNAIL", PresetThumbnail, 150, false},
		{"gigantic", "", 0, true},
		{"custom", "", 0, true}, // custom requires explicit w/h
	}

	for _, tt := range tests {
		size, err := ResolveSizePreset(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveSizePreset(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ResolveSizePreset(%q): unexpected error %v", tt.name, err)
			continue
		}
		if size.Preset != tt.wantPreset || size.Width != tt.wantWidth {
			t.Errorf("ResolveSizePreset(%q) = %v/%d, want %v/%d",
				tt.name, size.Preset, size.Width, tt.wantPreset, tt.wantWidth)
		}
	}
}

func TestCustomSize(t *testing.T) {
	size, err := CustomSize(200, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size.Preset != PresetCustom || size.Width != 200 || size.Height != 100 {
		t.Errorf("unexpected custom size: %+v", size)
	}

	if _, err := CustomSize(0, 100); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := CustomSize(200, -1); err == nil {
		t.Error("expected error for negative height")
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"webp", FormatWebP, false},
		{"jpeg", FormatJPEG, false},
		{"jpg", FormatJPEG, false},
		{"png", FormatPNG, false},
		{"auto", FormatAuto, false},
		{"", FormatAuto, false},
		{"WEBP", FormatWebP, false},
		{"tiff", "", true},
	}

	for _, tt := range tests {
		got, err := ResolveFormat(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolveFormat(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ResolveFormat(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
}

func TestFormatEffective(t *testing.T) {
	// auto always resolves to the highest-compression format supported
	if FormatAuto.Effective() != FormatWebP {
		t.Errorf("auto should resolve to webp, got %v", FormatAuto.Effective())
	}
	if FormatJPEG.Effective() != FormatJPEG {
		t.Errorf("jpeg should stay jpeg")
	}
}

func TestFormatContentType(t *testing.T) {
	if ct := FormatAuto.ContentType(); ct != "image/webp" {
		t.Errorf("auto content type = %s", ct)
	}
	if ct := FormatJPEG.ContentType(); ct != "image/jpeg" {
		t.Errorf("jpeg content type = %s", ct)
	}
	if ct := FormatPNG.ContentType(); ct != "image/png" {
		t.Errorf("png content type = %s", ct)
	}
}

func TestCacheStatsHitRate(t *testing.T) {
	if rate := (CacheStats{}).HitRate(); rate != 0 {
		t.Errorf("empty stats hit rate = %f, want 0", rate)
	}
	stats := CacheStats{Hits: 3, Misses: 1, LastCleanupAt: time.Now()}
	if rate := stats.HitRate(); rate != 0.75 {
		t.Errorf("hit rate = %f, want 0.75", rate)
	}
}

func TestValidateImageURL(t *testing.T) {
	if _, err := ValidateImageURL("https://images.unsplash.com/photo-123.jpg"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if _, err := ValidateImageURL(""); err == nil {
		t.Error("empty URL accepted")
	}
	if _, err := ValidateImageURL("ftp://example.com/a.jpg"); err == nil {
		t.Error("ftp scheme accepted")
	}
	if _, err := ValidateImageURL("https:///no-host.jpg"); err == nil {
		t.Error("empty host accepted")
	}
	if _, err := ValidateImageURL("https://example.com/../../etc/passwd"); err == nil {
		t.Error("path traversal accepted")
	}
	if _, err := ValidateImageURL("://not-a-url"); err == nil {
		t.Error("malformed URL accepted")
	}
}

func TestIsValidImageContentType(t *testing.T) {
	if !IsValidImageContentType("image/jpeg") {
		t.Error("image/jpeg rejected")
	}
	if !IsValidImageContentType(" IMAGE/PNG ") {
		t.Error("case/whitespace variant rejected")
	}
	if IsValidImageContentType("text/html") {
		t.Error("text/html accepted")
	}
	if IsValidImageContentType("") {
		t.Error("empty content type accepted")
	}
}
