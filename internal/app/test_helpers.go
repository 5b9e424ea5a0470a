package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/vyperpp/internal/hcl"
	"github.com/specialistvlad/vyperpp/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance rooted at root for system testing,
// using the HCL loader and debug logging.
func SetupAppTest(t *testing.T, root string, modules ...registry.Module) (*App, *SafeBuffer) {
	t.Helper()

	appConfig, err := NewConfig(Config{Root: root, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	logBuffer := &SafeBuffer{}
	testApp := NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("VYPERPP_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
