package model

// Scope carries the identity of the user a request is executed for.
type Scope struct {
	UserID   string // Stable per-transport user key (e.g. "telegram_12345")
	Username string
}

// Environment is the deployment environment name.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentProduction  Environment = "production"
)
