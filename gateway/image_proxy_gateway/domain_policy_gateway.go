package image_proxy_gateway

import (
	"context"
	"strings"
)

// majorCDNDomains is the static list of well-known image hosting domains
// always allowed regardless of configuration.
var majorCDNDomains = []string{
	"images.unsplash.com",
	"api.pexels.com",
	"images.pexels.com",
	"cdn.pixabay.com",
	"i.imgur.com",
	"img.youtube.com",
	"i.ytimg.com",
	"pbs.twimg.com",
}

// blockedSuffixes are internal domain suffixes that must never be fetched,
// even when someone puts them in the configured allow-list by mistake.
var blockedSuffixes = []string{
	".local", ".internal", ".corp", ".lan", ".intranet", ".localhost",
}

// metadataEndpoints are cloud metadata hosts; blocked before any list check.
var metadataEndpoints = []string{
	"169.254.169.254",
	"metadata.google.internal",
	"100.100.100.200",
}

// DomainPolicyGateway implements DomainPolicyPort against a fixed
// allow-list: the static CDN set plus operator-configured domains. A
// hostname matches when equal to an entry or a subdomain of it.
type DomainPolicyGateway struct {
	allowed map[string]struct{}
}

// NewDomainPolicyGateway creates the policy from configured extra domains.
func NewDomainPolicyGateway(extraDomains []string) *DomainPolicyGateway {
	allowed := make(map[string]struct{}, len(majorCDNDomains)+len(extraDomains))
	for _, d := range majorCDNDomains {
		allowed[strings.ToLower(d)] = struct{}{}
	}
	for _, d := range extraDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed[d] = struct{}{}
		}
	}
	return &DomainPolicyGateway{allowed: allowed}
}

// IsAllowedImageDomain reports whether hostname may be fetched from.
// Empty hostnames and anything internal-looking fail closed.
func (g *DomainPolicyGateway) IsAllowedImageDomain(ctx context.Context, hostname string) bool {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return false
	}

	for _, endpoint := range metadataEndpoints {
		if hostname == endpoint {
			return false
		}
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(hostname, suffix) {
			return false
		}
	}
	if hostname == "localhost" || strings.HasPrefix(hostname, "127.") {
		return false
	}

	if _, ok := g.allowed[hostname]; ok {
		return true
	}
	for allowedDomain := range g.allowed {
		if strings.HasSuffix(hostname, "."+allowedDomain) {
			return true
		}
	}
	return false
}
