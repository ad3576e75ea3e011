// File: cmd/easel/main_test.go
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/easel-cli/internal/observability"
)

// withArgs swaps os.Args for the duration of one run() call and clears the
// global state the command tree mutates.
func withArgs(t *testing.T, args ...string) {
	t.Helper()

	viper.Reset()
	observability.ResetForTest()
	t.Setenv("EASEL_LOGGER_LOG_FILE", filepath.Join(t.TempDir(), "easel.log"))

	orig := os.Args
	os.Args = append([]string{"easel"}, args...)
	t.Cleanup(func() {
		os.Args = orig
		viper.Reset()
		observability.ResetForTest()
	})
}

func TestRun_Version(t *testing.T) {
	withArgs(t, "version")
	assert.Equal(t, 0, run())
}

func TestRun_UsageError(t *testing.T) {
	// `generate` without its two required arguments fails before any browser
	// work, exercising the non-zero exit path.
	withArgs(t, "generate")
	assert.Equal(t, 1, run())
}
