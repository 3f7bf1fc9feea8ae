package webhook

import (
	"crypto/hmac"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// SecurityValidator validates inbound webhook deliveries before any of
// the per-user admission logic runs. It guards the single public
// endpoint against forged deliveries and raw request floods.
type SecurityValidator struct {
	config      SecurityConfig
	rateLimiter *edgeLimiter
}

func NewSecurityValidator(config SecurityConfig) *SecurityValidator {
	return &SecurityValidator{
		config:      config,
		rateLimiter: newEdgeLimiter(config.RateLimitPerMin),
	}
}

// ValidateSecretToken verifies the X-Telegram-Bot-Api-Secret-Token
// header set when the webhook was registered.
func (v *SecurityValidator) ValidateSecretToken(token string) error {
	if v.config.SecretToken == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	// Constant-time comparison
	if !hmac.Equal([]byte(token), []byte(v.config.SecretToken)) {
		return fmt.Errorf("secret token verification failed")
	}
	return nil
}

// ValidateIPAddress checks if the request IP is allowlisted.
func (v *SecurityValidator) ValidateIPAddress(r *http.Request) error {
	if len(v.config.AllowedIPs) == 0 {
		return nil // No IP restriction
	}

	ip := extractIP(r)

	for _, allowedIP := range v.config.AllowedIPs {
		if ip == allowedIP {
			return nil
		}

		// Check CIDR range
		if strings.Contains(allowedIP, "/") {
			_, ipNet, err := net.ParseCIDR(allowedIP)
			if err != nil {
				continue
			}
			if ipNet.Contains(net.ParseIP(ip)) {
				return nil
			}
		}
	}

	return fmt.Errorf("IP %s not allowlisted", ip)
}

// CheckRateLimit enforces the per-source delivery rate.
func (v *SecurityValidator) CheckRateLimit(source string) error {
	return v.rateLimiter.Allow(source)
}

// extractIP extracts the client IP from the request.
func extractIP(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fallback to RemoteAddr
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}

// edgeLimiter is a per-source token-bucket limiter with auto-cleanup.
// It is deliberately coarser than the per-user sliding windows applied
// later in the pipeline: its job is shedding floods cheaply at the door.
type edgeLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newEdgeLimiter(requestsPerMin int) *edgeLimiter {
	if requestsPerMin <= 0 {
		requestsPerMin = 600
	}
	burst := requestsPerMin / 10
	if burst < 1 {
		burst = 1
	}
	return &edgeLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](
			1000,          // Max 1000 unique sources
			nil,           // No eviction callback
			time.Minute*5, // TTL: 5 minutes
		),
		rate:  rate.Limit(float64(requestsPerMin) / 60.0), // Per second
		burst: burst,
	}
}

func (rl *edgeLimiter) Allow(key string) error {
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}

	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s", key)
	}
	return nil
}
