package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIPMiddleware resolves the client IP behind a reverse proxy so the
// per-guest rate limiter keys on attendees, not on the proxy. Forwarded
// headers are honoured only when the direct peer is a configured trusted
// proxy; otherwise they are attacker-controlled and ignored.
type RealIPMiddleware struct {
	trustedNets []*net.IPNet
	trustedIPs  []net.IP
}

// NewRealIPMiddleware builds the middleware from the configured proxy list.
// Entries may be single IPs ("192.168.1.1") or CIDRs ("10.0.0.0/8");
// unparseable entries are silently dropped.
func NewRealIPMiddleware(trustedProxies []string) *RealIPMiddleware {
	m := &RealIPMiddleware{}

	for _, proxy := range trustedProxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}

		if strings.Contains(proxy, "/") {
			_, network, err := net.ParseCIDR(proxy)
			if err == nil {
				m.trustedNets = append(m.trustedNets, network)
				continue
			}
		}

		if ip := net.ParseIP(proxy); ip != nil {
			m.trustedIPs = append(m.trustedIPs, ip)
		}
	}

	return m
}

// Handler stamps the resolved client IP into X-Real-IP for downstream
// middleware (the rate limiter reads it from there).
func (m *RealIPMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		realIP := m.extractRealIP(r)
		if realIP != "" {
			r.Header.Set("X-Real-IP", realIP)
		}
		next.ServeHTTP(w, r)
	})
}

// extractRealIP returns the direct peer address unless the peer is a trusted
// proxy, in which case the forwarded headers name the client.
func (m *RealIPMiddleware) extractRealIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)

	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	// Cloudflare sets CF-Connecting-IP on every proxied request; when the
	// event runs behind it, that header is the single source of truth.
	if cfIP := r.Header.Get("CF-Connecting-IP"); cfIP != "" {
		return strings.TrimSpace(cfIP)
	}

	// X-Forwarded-For: the first entry in the chain is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	return remoteIP
}

func (m *RealIPMiddleware) isTrustedProxy(ipStr string) bool {
	if len(m.trustedNets) == 0 && len(m.trustedIPs) == 0 {
		return false
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	for _, network := range m.trustedNets {
		if network.Contains(ip) {
			return true
		}
	}
	for _, trustedIP := range m.trustedIPs {
		if trustedIP.Equal(ip) {
			return true
		}
	}

	return false
}

// parseRemoteAddr strips the port from RemoteAddr. A bare IP (IPv6 with no
// port) passes through unchanged.
func parseRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err == nil {
		return host
	}

	if ip := net.ParseIP(remoteAddr); ip != nil {
		return remoteAddr
	}

	return remoteAddr
}
