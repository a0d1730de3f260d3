package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	PagesSaved.Inc()
	Summaries.WithLabelValues("ok").Inc()
	Summaries.WithLabelValues("failed").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"crawler_pages_fetched_total",
		"crawler_bytes_fetched_total",
		"crawler_pages_failed_total",
		"pipeline_pages_saved_total",
		`pipeline_summaries_total{outcome="ok"}`,
		`pipeline_summaries_total{outcome="failed"}`,
	} {
		assert.Contains(t, string(body), name)
	}
}
