package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns a locked-down default: the origin whitelist is
// empty, so every cross-origin request is rejected until origins are set
// through config.toml or environment variables.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "X-Driver-ID", "Accept", "Origin", "Cache-Control"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORS returns a middleware that handles CORS with default configuration
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// corsHeaders holds header values computed once at middleware construction
// so per-request work is limited to origin matching.
type corsHeaders struct {
	methods   string
	headers   string
	expose    string
	maxAge    string
	wildcard  bool
	origins   []string
	withCreds bool
}

func buildCORSHeaders(cfg CORSConfig) corsHeaders {
	h := corsHeaders{
		methods:   strings.Join(cfg.AllowMethods, ", "),
		headers:   strings.Join(cfg.AllowHeaders, ", "),
		expose:    strings.Join(cfg.ExposeHeaders, ", "),
		origins:   cfg.AllowOrigins,
		withCreds: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		h.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			h.wildcard = true
			break
		}
	}
	return h
}

// resolve returns the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not allowed.
func (h corsHeaders) resolve(origin string) string {
	if len(h.origins) == 0 {
		return ""
	}
	if h.wildcard {
		return "*"
	}
	for _, o := range h.origins {
		if o == origin {
			return origin
		}
	}
	return ""
}

// apply writes the CORS response headers for an allowed origin. The
// credentials header is suppressed in wildcard mode since browsers reject
// that combination anyway.
func (h corsHeaders) apply(c *gin.Context, allowedOrigin string) {
	header := c.Writer.Header()
	header.Set("Access-Control-Allow-Origin", allowedOrigin)
	if h.withCreds && allowedOrigin != "*" {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	header.Set("Access-Control-Allow-Methods", h.methods)
	header.Set("Access-Control-Allow-Headers", h.headers)
	if h.expose != "" {
		header.Set("Access-Control-Expose-Headers", h.expose)
	}
	if h.maxAge != "" {
		header.Set("Access-Control-Max-Age", h.maxAge)
	}
}

// CORSWithConfig returns a CORS middleware with custom configuration
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	headers := buildCORSHeaders(cfg)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		allowed := headers.resolve(origin)

		// Preflight requests always get 204 so the router never 404s them,
		// but CORS headers are only attached when the origin is allowed.
		if c.Request.Method == http.MethodOptions {
			if allowed != "" {
				headers.apply(c, allowed)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if allowed != "" {
			headers.apply(c, allowed)
		}
		c.Next()
	}
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// generateRequestID returns 16 random bytes hex encoded. Falls back to a
// timestamp-derived ID of the same width if crypto/rand is unavailable.
func generateRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%032x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// SecurityConfig holds configuration for security headers
type SecurityConfig struct {
	HSTSEnabled           bool
	HSTSMaxAge            int // seconds
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	CSPEnabled   bool
	CSPDirective string

	PermissionsPolicyEnabled   bool
	PermissionsPolicyDirective string
}

// DefaultSecurityConfig returns secure default settings. HSTS stays off
// until the deployment serves HTTPS; everything else is on.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSEnabled:           false,
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		HSTSPreload:           false,

		CSPEnabled:   true,
		CSPDirective: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",

		PermissionsPolicyEnabled:   true,
		PermissionsPolicyDirective: "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
	}
}

// Secure adds security headers to responses using default configuration
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers to responses. The full header set
// is computed once; the handler only copies it onto each response.
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	if cfg.CSPEnabled && cfg.CSPDirective != "" {
		headers["Content-Security-Policy"] = cfg.CSPDirective
	}
	// HSTS is only effective over HTTPS but is harmless over HTTP
	if cfg.HSTSEnabled {
		headers["Strict-Transport-Security"] = hstsValue(cfg)
	}
	if cfg.PermissionsPolicyEnabled && cfg.PermissionsPolicyDirective != "" {
		headers["Permissions-Policy"] = cfg.PermissionsPolicyDirective
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for name, value := range headers {
			h.Set(name, value)
		}
		c.Next()
	}
}

func hstsValue(cfg SecurityConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "max-age=%d", cfg.HSTSMaxAge)
	if cfg.HSTSIncludeSubdomains {
		b.WriteString("; includeSubDomains")
	}
	if cfg.HSTSPreload {
		b.WriteString("; preload")
	}
	return b.String()
}
