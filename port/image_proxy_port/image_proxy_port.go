package image_proxy_port

import (
	"context"
	"media-proxy/domain"
	"time"
)

// VariantCachePort is the memory tier: transcoded variants keyed by the
// composite variant key.
type VariantCachePort interface {
	Get(key string) (*domain.ImageVariant, bool)
	Set(key string, variant *domain.ImageVariant)
	DeleteExpired() int
	Clear()
	Len() int
	Stats() domain.CacheStats
}

// OriginCachePort is the disk tier: raw origin bytes keyed by URL only, so
// one fetch serves every future size/format request for that URL.
type OriginCachePort interface {
	Get(ctx context.Context, rawURL string) (*domain.OriginImage, bool, error)
	Save(ctx context.Context, rawURL string, img *domain.OriginImage) error
	CleanupOld(ctx context.Context, maxAge time.Duration) (int, error)
}

// ImageProcessingPort defines the interface for image transcoding
// (resize + re-encode).
type ImageProcessingPort interface {
	Transcode(ctx context.Context, data []byte, size domain.TargetSize, format domain.Format, quality int) (*domain.ImageVariant, error)
}

// DomainPolicyPort decides whether an image host may be fetched from.
type DomainPolicyPort interface {
	IsAllowedImageDomain(ctx context.Context, hostname string) bool
}
