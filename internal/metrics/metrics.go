// Package metrics exposes the storefront's Prometheus collectors.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CategoryResolve counts path resolutions by outcome: ok, not_found, invalid.
	CategoryResolve = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_category_resolve_total",
		Help: "Category path resolutions by outcome.",
	}, []string{"outcome"})

	BrowseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pitchside_browse_duration_seconds",
		Help:    "Time to resolve a category path and load one page of products.",
		Buckets: prometheus.DefBuckets,
	})

	// ImageUpload counts uploads by outcome: ok, error.
	ImageUpload = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_image_upload_total",
		Help: "Product image uploads by outcome.",
	}, []string{"outcome"})

	// TreeCache counts cache lookups by result: hit, miss, error.
	TreeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pitchside_tree_cache_total",
		Help: "Category tree cache lookups by result.",
	}, []string{"result"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
