package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "SITECREW_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the SITECREW_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the process should run without external
// services: in-memory tables and feed, no Redis.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	detectTestMode()
}

// Backends names the external services the process should connect to.
type Backends struct {
	Postgres bool
	Redis    bool
}

// SelectBackends decides which services to open. Test mode and empty
// addresses fall back to the in-memory tables and feed.
func SelectBackends(cfg *Config) Backends {
	if cfg == nil || InTestMode() {
		return Backends{}
	}
	return Backends{Postgres: cfg.PGDSN != "", Redis: cfg.RedisAddr != ""}
}
