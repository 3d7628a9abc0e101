package domain

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// VariantKey derives the memory-tier cache key from the full transformation
// request. Two requests for the same URL with different size or format are
// distinct entries. Quality is omitted when zero so default-quality lookups
// stay stable.
func VariantKey(rawURL string, size TargetSize, format Format, quality int) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(rawURL))

	preset := string(size.Preset)
	if size.Preset == PresetCustom {
		preset = fmt.Sprintf("custom-%dx%d", size.Width, size.Height)
	}

	key := encoded + ":" + preset + ":" + string(format)
	if quality > 0 {
		key += fmt.Sprintf(":q%d", quality)
	}
	return key
}

// URLHash returns the SHA-1 hex digest of a URL, used as the disk-tier key.
// Keyed by URL only so one origin fetch serves all variant requests.
func URLHash(rawURL string) string {
	h := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(h[:])
}

// knownImageExtensions are the extensions preserved when naming disk files.
var knownImageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "bmp": {}, "ico": {},
}

// FileExtension infers a file extension from the URL's trailing path
// segment, defaulting to jpg when absent or unrecognized.
func FileExtension(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), "."))
	if _, ok := knownImageExtensions[ext]; !ok {
		return "jpg"
	}
	return ext
}
