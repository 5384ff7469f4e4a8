// Package security sets response hardening headers and flags requests that
// look like probes.
package security

import (
	"net/http"
	"strconv"
	"strings"
)

const policyBase = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data:; connect-src 'self'; object-src 'none'; base-uri 'self'; form-action 'self'"

// HeadersConfig lists the hardening headers. Paths under FramablePrefix get
// FramableCSP and SAMEORIGIN so the dashboard can print them from an iframe.
type HeadersConfig struct {
	CSP            string
	FramableCSP    string
	FramablePrefix string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	Static map[string]string
}

// DefaultHeadersConfig allows inline styles and data: images because the
// print pages embed both.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:            policyBase + "; frame-ancestors 'none'",
		FramableCSP:    policyBase + "; frame-ancestors 'self'",
		FramablePrefix: "/print/",

		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubdomains: true,

		Static: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"Referrer-Policy":              "same-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
	hsts   string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{config: config}
	if config.HSTSMaxAge > 0 {
		h.hsts = "max-age=" + strconv.Itoa(config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.apply(w.Header(), r)
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) apply(headers http.Header, r *http.Request) {
	for k, v := range h.config.Static {
		headers.Set(k, v)
	}

	csp, frame := h.config.CSP, "DENY"
	if h.config.FramablePrefix != "" && strings.HasPrefix(r.URL.Path, h.config.FramablePrefix) {
		csp, frame = h.config.FramableCSP, "SAMEORIGIN"
	}
	headers.Set("X-Frame-Options", frame)
	if csp != "" {
		headers.Set("Content-Security-Policy", csp)
	}

	if r.TLS != nil && h.hsts != "" {
		headers.Set("Strict-Transport-Security", h.hsts)
	}
}

// NoStore marks responses as uncacheable. Used for API and session routes.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
