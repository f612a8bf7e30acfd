package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CLEARSIGHT_TEST_MODE", "1")
		if os.Getenv("LLM_ENDPOINT") == "" {
			_ = os.Setenv("LLM_ENDPOINT", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
