package image_proxy_usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"media-proxy/domain"
	"media-proxy/port/image_fetch_port"
	"media-proxy/port/image_proxy_port"
	"media-proxy/utils/errors"
	"media-proxy/utils/logger"
	"media-proxy/utils/metrics"
	"media-proxy/utils/rate_limiter"
)

// ProxyRequest is a fully parsed proxy request.
type ProxyRequest struct {
	URL     string
	Size    domain.TargetSize
	Format  domain.Format
	Quality int
}

// ProxyResult is what the handler streams back to the client.
type ProxyResult struct {
	Data             []byte
	ContentType      string
	SizeBytes        int
	CompressionRatio float64
	CacheHit         bool
	Fallback         bool
}

// Options tunes orchestrator behavior.
type Options struct {
	FetchTimeout time.Duration
	FetchMaxSize int
	MaxRetries   int
	RetryBackoff time.Duration
}

// ImageProxyUsecase orchestrates the proxy pipeline:
// validate -> memory tier -> disk tier / origin fetch -> transcode ->
// populate both tiers -> respond. Concurrent identical requests coalesce
// into a single fetch+transcode via singleflight.
type ImageProxyUsecase struct {
	fetcher      image_fetch_port.ImageFetchPort
	processing   image_proxy_port.ImageProcessingPort
	variantCache image_proxy_port.VariantCachePort
	originCache  image_proxy_port.OriginCachePort
	domainPolicy image_proxy_port.DomainPolicyPort
	rateLimiter  *rate_limiter.HostRateLimiter
	metrics      *metrics.ProxyMetrics
	opts         Options

	flight singleflight.Group
}

// NewImageProxyUsecase creates a new ImageProxyUsecase. rateLimiter and
// metrics may be nil.
func NewImageProxyUsecase(
	fetcher image_fetch_port.ImageFetchPort,
	processing image_proxy_port.ImageProcessingPort,
	variantCache image_proxy_port.VariantCachePort,
	originCache image_proxy_port.OriginCachePort,
	domainPolicy image_proxy_port.DomainPolicyPort,
	rateLimiter *rate_limiter.HostRateLimiter,
	m *metrics.ProxyMetrics,
	opts Options,
) *ImageProxyUsecase {
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 8 * time.Second
	}
	if opts.FetchMaxSize == 0 {
		opts.FetchMaxSize = 10 * 1024 * 1024
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 250 * time.Millisecond
	}
	return &ImageProxyUsecase{
		fetcher:      fetcher,
		processing:   processing,
		variantCache: variantCache,
		originCache:  originCache,
		domainPolicy: domainPolicy,
		rateLimiter:  rateLimiter,
		metrics:      m,
		opts:         opts,
	}
}

// ProxyImage runs the full request lifecycle for one proxied image.
func (u *ImageProxyUsecase) ProxyImage(ctx context.Context, req ProxyRequest) (*ProxyResult, error) {
	start := time.Now()
	defer func() {
		if u.metrics != nil {
			u.metrics.RequestDuration.Observe(time.Since(start).Seconds())
		}
	}()

	// 1. Validate: malformed URLs and disallowed hosts fail closed before
	// any cache or network interaction.
	parsedURL, err := domain.ValidateImageURL(req.URL)
	if err != nil {
		return nil, errors.NewValidationContextError(
			fmt.Sprintf("invalid image URL: %v", err),
			"usecase", "ImageProxyUsecase", "validate_url",
			map[string]interface{}{"url": req.URL},
		)
	}
	if !u.domainPolicy.IsAllowedImageDomain(ctx, parsedURL.Hostname()) {
		return nil, errors.NewDomainForbiddenContextError(
			fmt.Sprintf("domain not allowed: %s", parsedURL.Hostname()),
			"usecase", "ImageProxyUsecase", "check_domain",
			map[string]interface{}{"host": parsedURL.Hostname()},
		)
	}

	// 2. Memory tier lookup by composite key.
	key := domain.VariantKey(req.URL, req.Size, req.Format, req.Quality)
	if variant, ok := u.variantCache.Get(key); ok {
		return &ProxyResult{
			Data:             variant.Data,
			ContentType:      variant.ContentType,
			SizeBytes:        variant.SizeBytes,
			CompressionRatio: variant.CompressionRatio,
			CacheHit:         true,
		}, nil
	}

	// 3-5. Coalesce identical concurrent misses into one execution. The
	// shared work runs on a detached context so one client disconnect
	// cannot poison the result for the others, and the produced variant
	// still populates the cache.
	workCtx := context.WithoutCancel(ctx)
	result, err, _ := u.flight.Do(key, func() (interface{}, error) {
		return u.produceVariant(workCtx, req, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*ProxyResult), nil
}

// produceVariant resolves origin bytes, transcodes them and populates the
// memory tier. Transcode failures degrade to serving the raw origin bytes.
func (u *ImageProxyUsecase) produceVariant(ctx context.Context, req ProxyRequest, key string) (*ProxyResult, error) {
	origin, err := u.resolveOrigin(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	variant, err := u.processing.Transcode(ctx, origin.Data, req.Size, req.Format, req.Quality)
	if err != nil {
		// Pass-through fallback: serve the untransformed bytes rather than
		// failing the request. The memory tier is not populated so a later
		// request gets another chance at transcoding.
		logger.SafeWarnContext(ctx, "transcode failed, serving origin bytes",
			"url", req.URL, "error", err)
		if u.metrics != nil {
			u.metrics.TranscodeFailures.Inc()
		}
		return &ProxyResult{
			Data:             origin.Data,
			ContentType:      origin.ContentType,
			SizeBytes:        origin.Size,
			CompressionRatio: 1,
			Fallback:         true,
		}, nil
	}

	u.variantCache.Set(key, variant)

	return &ProxyResult{
		Data:             variant.Data,
		ContentType:      variant.ContentType,
		SizeBytes:        variant.SizeBytes,
		CompressionRatio: variant.CompressionRatio,
	}, nil
}

// resolveOrigin returns raw origin bytes, preferring the disk tier. A disk
// miss triggers an origin fetch; the result is persisted best effort.
func (u *ImageProxyUsecase) resolveOrigin(ctx context.Context, rawURL string) (*domain.OriginImage, error) {
	cached, found, err := u.originCache.Get(ctx, rawURL)
	if err != nil {
		logger.SafeErrorContext(ctx, "disk cache lookup failed", "url", rawURL, "error", err)
		// Fall through to origin fetch on cache error.
	}
	if found {
		return cached, nil
	}

	if u.rateLimiter != nil {
		if err := u.rateLimiter.WaitForHost(ctx, rawURL); err != nil {
			return nil, errors.NewRateLimitContextError(
				"rate limit wait failed",
				"usecase", "ImageProxyUsecase", "rate_limit",
				err,
				map[string]interface{}{"url": rawURL},
			)
		}
	}

	origin, err := u.fetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// Disk write failure loses durability for this entry only; the request
	// is still served from memory.
	if err := u.originCache.Save(ctx, rawURL, origin); err != nil {
		logger.SafeErrorContext(ctx, "failed to persist origin bytes", "url", rawURL, "error", err)
	}

	return origin, nil
}

// fetchWithRetry performs up to 1+MaxRetries attempts with doubling
// backoff. Only retryable failures (timeout, transport, upstream 5xx) are
// retried; upstream 4xx is permanent.
func (u *ImageProxyUsecase) fetchWithRetry(ctx context.Context, rawURL string) (*domain.OriginImage, error) {
	parsedURL, err := domain.ValidateImageURL(rawURL)
	if err != nil {
		return nil, errors.NewValidationContextError(
			fmt.Sprintf("invalid image URL: %v", err),
			"usecase", "ImageProxyUsecase", "fetch",
			map[string]interface{}{"url": rawURL},
		)
	}

	options := &domain.ImageFetchOptions{
		MaxSize: u.opts.FetchMaxSize,
		Timeout: u.opts.FetchTimeout,
	}

	backoff := u.opts.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= u.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			logger.SafeInfoContext(ctx, "retrying origin fetch",
				"url", rawURL, "attempt", attempt)
		}

		if u.metrics != nil {
			u.metrics.OriginFetches.Inc()
		}
		origin, err := u.fetcher.FetchImage(ctx, parsedURL, options)
		if err == nil {
			return origin, nil
		}
		lastErr = err

		if u.metrics != nil {
			u.metrics.OriginFailures.WithLabelValues(errors.CodeOf(err)).Inc()
		}
		appErr, ok := errors.AsAppContextError(err)
		if !ok || !appErr.IsRetryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

// WarmCache prefetches and caches a medium/auto variant for imageURL
// (fire-and-forget). Errors are logged, never surfaced.
func (u *ImageProxyUsecase) WarmCache(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}

	size, _ := domain.ResolveSizePreset("")
	req := ProxyRequest{URL: imageURL, Size: size, Format: domain.FormatAuto}
	if _, err := u.ProxyImage(ctx, req); err != nil {
		logger.SafeWarnContext(ctx, "cache warm failed", "url", imageURL, "error", err)
	}
}
