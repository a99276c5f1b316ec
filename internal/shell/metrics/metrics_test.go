package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_DefaultNamespace(t *testing.T) {
	c := NewCollector("")
	require.NotNil(t, c.Registry())

	c.RecordRun("composed")
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "baasflow_runs_total")
}

func TestCollector_RecordRun(t *testing.T) {
	c := NewCollector("test")
	c.RecordRun("composed")
	c.RecordRun("composed")
	c.RecordRun("no_path")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("composed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("no_path")))
}

func TestCollector_RecordDeploy(t *testing.T) {
	c := NewCollector("test")
	c.RecordDeploy("aws", 2*time.Second, nil)
	c.RecordDeploy("aws", time.Second, errors.New("denied"))
	c.RecordReset("local", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.deployTotal.WithLabelValues("aws", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deployTotal.WithLabelValues("aws", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resetTotal.WithLabelValues("local", "success")))
}

func TestCollector_RecordPlan(t *testing.T) {
	c := NewCollector("test")

	// Should not panic
	c.RecordPlan(time.Millisecond, 12, true, 3)
	c.RecordPlan(time.Millisecond, 40, false, 0)
	c.SetCatalogSize(5)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.functionsDeclared))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.RecordRun("deployed")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `test_runs_total{status="deployed"} 1`)
}
