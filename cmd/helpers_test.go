// File: cmd/helpers_test.go
package cmd

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/easel-cli/internal/observability"
)

// resetGlobals clears the process-wide viper and logger state that the root
// command mutates, and points the file log sink at a temp directory so tests
// never write into the working tree.
func resetGlobals(t *testing.T) {
	t.Helper()

	viper.Reset()
	observability.ResetForTest()
	t.Setenv("EASEL_LOGGER_LOG_FILE", filepath.Join(t.TempDir(), "easel.log"))

	t.Cleanup(func() {
		viper.Reset()
		observability.ResetForTest()
	})
}
