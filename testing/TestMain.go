package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode points the process at in-memory backends and a dummy auth
// endpoint so packages that load Config never reach real services.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("SITECREW_TEST_MODE", "1")
		setDefault("AUTH_URL", "http://127.0.0.1:0")
		setDefault("AUTH_ANON_KEY", "test-anon-key")
		setDefault("REDIS_ADDR", "")
	})
}

func setDefault(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		_ = os.Setenv(key, value)
	}
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
