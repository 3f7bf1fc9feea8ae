package webhook

// SecurityConfig holds webhook edge security settings.
type SecurityConfig struct {
	SecretToken     string   // Shared secret echoed by Telegram in each delivery
	AllowedIPs      []string // IP allowlist, entries may be CIDR ranges (optional)
	RateLimitPerMin int      // Max deliveries per minute per source IP
}
