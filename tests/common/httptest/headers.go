//go:build unit || e2e

package httptest

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertHeaders checks that each named header carries exactly the expected
// value. An empty expected value means the header must not be sent.
func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for name, want := range expected {
		got := w.Header().Values(name)
		if want == "" {
			assert.Empty(t, got, "header %s should be absent", name)
			continue
		}
		assert.Equal(t, []string{want}, got, "header %s", name)
	}
}
