package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ImageFetchOptions represents options for fetching an image
type ImageFetchOptions struct {
	MaxSize int           // Maximum size in bytes (default: 10MB)
	Timeout time.Duration // Request timeout (default: 8s)
}

// NewImageFetchOptions creates default ImageFetchOptions
func NewImageFetchOptions() *ImageFetchOptions {
	return &ImageFetchOptions{
		MaxSize: 10 * 1024 * 1024,
		Timeout: 8 * time.Second,
	}
}

// ValidateImageURL validates if the URL is suitable for image fetching.
// Malformed URLs are rejected before any network I/O (fail closed).
func ValidateImageURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "https" && parsedURL.Scheme != "http" {
		return nil, fmt.Errorf("only HTTP and HTTPS URLs are allowed")
	}

	if parsedURL.Host == "" {
		return nil, fmt.Errorf("empty host not allowed")
	}

	if strings.Contains(parsedURL.Path, "..") {
		return nil, fmt.Errorf("path traversal patterns not allowed")
	}

	return parsedURL, nil
}

// IsValidImageContentType validates if the content type is an allowed image type
func IsValidImageContentType(contentType string) bool {
	if contentType == "" {
		return false
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(contentType, "image/")
}
