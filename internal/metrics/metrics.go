package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_fetched_total",
		Help: "Total number of pages successfully fetched",
	})
	BytesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_bytes_fetched_total",
		Help: "Total bytes downloaded",
	})
	PagesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_failed_total",
		Help: "Total number of crawl results reported as failed",
	})
	PagesSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_pages_saved_total",
		Help: "Total number of Markdown files written",
	})
	Summaries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_summaries_total",
		Help: "Summaries appended, by outcome (ok or failed)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(PagesFetched, BytesFetched, PagesFailed, PagesSaved, Summaries)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr. It blocks until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
