package image_fetch_gateway

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"media-proxy/domain"
	"media-proxy/utils/errors"
)

// ImageFetchGateway implements the ImageFetchPort interface.
// It acts as an Anti-Corruption Layer between the domain and upstream
// image hosts.
type ImageFetchGateway struct {
	httpClient *http.Client
	userAgent  string
}

// NewImageFetchGateway creates a new ImageFetchGateway. The client timeout
// bounds the whole fetch; redirects are followed up to the default limit.
func NewImageFetchGateway(httpClient *http.Client, userAgent string) *ImageFetchGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	if userAgent == "" {
		userAgent = "media-proxy/1.0 (image cache)"
	}
	return &ImageFetchGateway{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// FetchImage performs a single GET against the origin. No retries happen
// here; retry policy belongs to the orchestrator. Timeout, upstream-status
// and transport failures are distinguishable through the error code.
func (g *ImageFetchGateway) FetchImage(ctx context.Context, imageURL *url.URL, options *domain.ImageFetchOptions) (*domain.OriginImage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if options == nil {
		options = domain.NewImageFetchOptions()
	}

	reqCtx := ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, imageURL.String(), nil)
	if err != nil {
		return nil, errors.NewTransportContextError(
			"failed to create HTTP request",
			"gateway", "ImageFetchGateway", "create_request",
			err,
			map[string]interface{}{"url": imageURL.String()},
		)
	}

	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "image/webp, image/jpeg, image/png, image/gif")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(reqCtx, err) {
			return nil, errors.NewTimeoutContextError(
				"request timeout",
				"gateway", "ImageFetchGateway", "http_request",
				err,
				map[string]interface{}{
					"url":     imageURL.String(),
					"timeout": options.Timeout.String(),
				},
			)
		}
		return nil, errors.NewTransportContextError(
			"HTTP request failed",
			"gateway", "ImageFetchGateway", "http_request",
			err,
			map[string]interface{}{"url": imageURL.String()},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewExternalAPIContextError(
			"upstream returned non-success status",
			"gateway", "ImageFetchGateway", "http_response",
			nil,
			map[string]interface{}{
				"url":         imageURL.String(),
				"status_code": resp.StatusCode,
				"status":      resp.Status,
			},
		)
	}

	contentType := resp.Header.Get("Content-Type")
	if !domain.IsValidImageContentType(contentType) {
		return nil, errors.NewValidationContextError(
			"response is not an image",
			"gateway", "ImageFetchGateway", "validate_content_type",
			map[string]interface{}{
				"url":          imageURL.String(),
				"content_type": contentType,
			},
		)
	}

	if contentLengthHeader := resp.Header.Get("Content-Length"); contentLengthHeader != "" {
		if contentLength, err := strconv.ParseInt(contentLengthHeader, 10, 64); err == nil {
			if contentLength > math.MaxInt32 || contentLength > int64(options.MaxSize) {
				return nil, errors.NewValidationContextError(
					"image too large",
					"gateway", "ImageFetchGateway", "validate_size",
					map[string]interface{}{
						"url":            imageURL.String(),
						"content_length": contentLength,
						"max_size":       options.MaxSize,
					},
				)
			}
		}
	}

	// +1 to detect bodies that exceed the cap without Content-Length.
	limitedReader := io.LimitReader(resp.Body, int64(options.MaxSize)+1)
	imageData, err := io.ReadAll(limitedReader)
	if err != nil {
		if isTimeout(reqCtx, err) {
			return nil, errors.NewTimeoutContextError(
				"request timeout while reading body",
				"gateway", "ImageFetchGateway", "read_response",
				err,
				map[string]interface{}{"url": imageURL.String()},
			)
		}
		return nil, errors.NewTransportContextError(
			"failed to read response body",
			"gateway", "ImageFetchGateway", "read_response",
			err,
			map[string]interface{}{"url": imageURL.String()},
		)
	}

	if len(imageData) > options.MaxSize {
		return nil, errors.NewValidationContextError(
			"image too large",
			"gateway", "ImageFetchGateway", "validate_actual_size",
			map[string]interface{}{
				"url":         imageURL.String(),
				"actual_size": len(imageData),
				"max_size":    options.MaxSize,
			},
		)
	}

	return &domain.OriginImage{
		URL:         imageURL.String(),
		ContentType: contentType,
		Data:        imageData,
		Size:        len(imageData),
		FetchedAt:   time.Now(),
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() == context.DeadlineExceeded {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "context deadline exceeded")
}
