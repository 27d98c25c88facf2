package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/provenance/business/sys/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledger struct{}

func (ledger) Height() uint64    { return 7 }
func (ledger) PendingCount() int { return 3 }

func TestHandler(t *testing.T) {
	m := metrics.New("node")
	m.RegisterLedger("node", ledger{})

	m.Request(http.MethodGet, "200", 0.01)
	m.Error()
	m.Sealed(nil)
	m.Sealed(errors.New("rejected"))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "node_ledger_height 7")
	assert.Contains(t, string(body), "node_ledger_pending 3")
	assert.Contains(t, string(body), `node_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, string(body), "node_blocks_sealed_total 1")
	assert.Contains(t, string(body), "node_seal_errors_total 1")

	// A second set of metrics must not collide with the first.
	metrics.New("node")
}
