// Package security blocks obviously hostile requests and sets response
// headers for the JSON API.
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	applog "secondbrain/internal/log"
)

// Reason names the rule a blocked request tripped.
type Reason string

const (
	ReasonPattern    Reason = "pattern"
	ReasonScanner    Reason = "scanner_agent"
	ReasonMethod     Reason = "method"
	ReasonLongURL    Reason = "long_url"
	ReasonProxyChain Reason = "proxy_chain"
)

const (
	maxURLLength = 2048
	maxProxyHops = 5
)

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
}

type DetectionMetrics struct {
	BlockedRequests int64            `json:"blockedRequests"`
	ByReason        map[Reason]int64 `json:"byReason,omitempty"`
}

// Detector rejects requests matching known attack patterns. Forwarded
// client addresses are only trusted from private networks and the proxies
// added with AddTrustedProxy.
type Detector struct {
	mu             sync.Mutex
	trustedProxies []*net.IPNet
	blocked        map[Reason]int64
}

func NewDetector() *Detector {
	d := &Detector{blocked: make(map[Reason]int64)}
	for _, cidr := range []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		if err := d.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return d
}

func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.mu.Lock()
	d.trustedProxies = append(d.trustedProxies, network)
	d.mu.Unlock()
	return nil
}

// Inspect returns the first rule r violates, or "" when it looks benign.
func Inspect(r *http.Request) Reason {
	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	query = strings.ToLower(query)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return ReasonPattern
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return ReasonScanner
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return ReasonMethod
	}
	if len(r.URL.String()) > maxURLLength {
		return ReasonLongURL
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > maxProxyHops {
		return ReasonProxyChain
	}
	return ""
}

// Middleware answers suspicious requests with onBlocked, or a plain 400
// when onBlocked is nil, before they reach a handler.
func (d *Detector) Middleware(onBlocked http.HandlerFunc) func(http.Handler) http.Handler {
	if onBlocked == nil {
		onBlocked = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := Inspect(r)
			if reason == "" {
				next.ServeHTTP(w, r)
				return
			}

			d.mu.Lock()
			d.blocked[reason]++
			d.mu.Unlock()

			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request blocked",
				"reason", string(reason),
				applog.FieldClientIP, d.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			onBlocked(w, r)
		})
	}
}

// ExtractClientIP returns the caller's address, honoring X-Forwarded-For
// and X-Real-IP only when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	ip := net.ParseIP(direct)
	if ip == nil || !d.trusted(ip) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return direct
}

func (d *Detector) trusted(ip net.IP) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := DetectionMetrics{ByReason: make(map[Reason]int64, len(d.blocked))}
	for reason, n := range d.blocked {
		m.ByReason[reason] = n
		m.BlockedRequests += n
	}
	return m
}
