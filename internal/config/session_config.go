package config

import (
	"strconv"
	"time"
)

type SessionConfig interface {
	GetSessionSecret() string
	GetSessionMaxAge() time.Duration
	GetRefreshLeeway() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET_KEY", "")
}

func (Session) GetSessionMaxAge() time.Duration {
	return durationEnvSeconds("SESSION_MAX_AGE", time.Hour)
}

// GetRefreshLeeway is the look-ahead window for pre-emptive token refresh:
// a session token expiring within the leeway is refreshed when a refresh
// token is available.
func (Session) GetRefreshLeeway() time.Duration {
	return durationEnvSeconds("TOKEN_REFRESH_LEEWAY", 300*time.Second)
}

func durationEnvSeconds(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
