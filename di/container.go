package di

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"media-proxy/config"
	"media-proxy/driver/diskcache"
	"media-proxy/driver/memcache"
	"media-proxy/gateway/image_fetch_gateway"
	"media-proxy/gateway/image_proxy_gateway"
	"media-proxy/usecase/image_proxy_usecase"
	"media-proxy/utils/metrics"
	"media-proxy/utils/rate_limiter"
)

type ApplicationComponents struct {
	ImageProxyUsecase *image_proxy_usecase.ImageProxyUsecase
	VariantCache      *memcache.VariantCache
	OriginStore       *diskcache.Store
	Metrics           *metrics.ProxyMetrics
}

func NewApplicationComponents(cfg *config.Config, registry *prometheus.Registry) (*ApplicationComponents, error) {
	proxyMetrics := metrics.NewProxyMetrics(registry)

	variantCache := memcache.NewVariantCache(cfg.Cache.MemoryMaxEntries, cfg.Cache.MemoryTTL, proxyMetrics)

	originStore, err := diskcache.NewStore(cfg.Cache.DiskDir, cfg.Cache.DiskMaxBytes, proxyMetrics)
	if err != nil {
		return nil, err
	}

	fetchGateway := image_fetch_gateway.NewImageFetchGateway(
		&http.Client{Timeout: cfg.Fetch.Timeout},
		cfg.Fetch.UserAgent,
	)
	processingGateway := image_proxy_gateway.NewProcessingGateway(cfg.Image.JPEGQuality)
	domainPolicy := image_proxy_gateway.NewDomainPolicyGateway(cfg.Fetch.AllowedDomains)

	hostLimiter := rate_limiter.NewHostRateLimiter(cfg.RateLimit.HostInterval, cfg.RateLimit.HostBurst)

	imageProxyUsecase := image_proxy_usecase.NewImageProxyUsecase(
		fetchGateway,
		processingGateway,
		variantCache,
		originStore,
		domainPolicy,
		hostLimiter,
		proxyMetrics,
		image_proxy_usecase.Options{
			FetchTimeout: cfg.Fetch.Timeout,
			FetchMaxSize: cfg.Fetch.MaxSize,
			MaxRetries:   cfg.Fetch.MaxRetries,
			RetryBackoff: cfg.Fetch.RetryBackoff,
		},
	)

	return &ApplicationComponents{
		ImageProxyUsecase: imageProxyUsecase,
		VariantCache:      variantCache,
		OriginStore:       originStore,
		Metrics:           proxyMetrics,
	}, nil
}
