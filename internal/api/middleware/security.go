package middleware

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
type SecurityHeadersConfig struct {
	// IsDevelopment drops HSTS and lets browser clients on other local origins read responses.
	IsDevelopment bool
	// CustomCSPDirectives overrides or adds CSP directives.
	CustomCSPDirectives map[string]string
}

func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{}
}

// SecurityHeaders sets response headers for a JSON API. Responses are never meant to be
// rendered or framed, so the CSP denies everything by default.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	csp := buildCSP(cfg)
	permissions := buildPermissionsPolicy()
	corp := "same-site"
	if cfg.IsDevelopment {
		corp = "cross-origin"
	}
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)
		if !cfg.IsDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", permissions)
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Resource-Policy", corp)
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func buildCSP(cfg SecurityHeadersConfig) string {
	directives := map[string]string{
		"default-src":     "'none'",
		"frame-ancestors": "'none'",
		"base-uri":        "'none'",
		"form-action":     "'none'",
	}
	for key, value := range cfg.CustomCSPDirectives {
		directives[key] = value
	}

	keys := make([]string, 0, len(directives))
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+directives[k])
	}
	return strings.Join(parts, "; ")
}

func buildPermissionsPolicy() string {
	return strings.Join([]string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"gyroscope=()",
		"magnetometer=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}, ", ")
}
