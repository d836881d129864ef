package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetadataFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklib_metadata_fetches_total",
		Help: "Metadata extractions by outcome (ok, fallback, invalid).",
	}, []string{"outcome"})

	ItemsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklib_items_saved_total",
		Help: "Items created, by entry point (form, extension, import).",
	}, []string{"source"})

	ItemsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linklib_items_imported_total",
		Help: "Items stored by bulk imports.",
	})

	ExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linklib_exports_total",
		Help: "Spreadsheet exports generated.",
	})
)
