package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(OperationsTotal.WithLabelValues("TestRegistry", "Op", "success"))
	failedBefore := testutil.ToFloat64(OperationsTotal.WithLabelValues("TestRegistry", "Op", "not_found"))

	ObserveOperation("TestRegistry", "Op", "", 3*time.Millisecond)
	ObserveOperation("TestRegistry", "Op", "not_found", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("TestRegistry", "Op", "success")))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("TestRegistry", "Op", "not_found")))
}

func TestWriteTextfile(t *testing.T) {
	t.Run("empty path is a no-op", func(t *testing.T) {
		assert.NoError(t, WriteTextfile(""))
	})

	t.Run("writes collectors", func(t *testing.T) {
		ObserveOperation("TextfileRegistry", "List", "", time.Millisecond)
		path := filepath.Join(t.TempDir(), "center.prom")

		require.NoError(t, WriteTextfile(path))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(raw), "center_operations_total"))
		assert.True(t, strings.Contains(string(raw), `registry="TextfileRegistry"`))
	})
}
