package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stockWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_stock_writes_total",
		Help: "Committed stock changes by operation.",
	}, []string{"op"})

	variantsOutOfStock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_variants_out_of_stock_total",
		Help: "Variant writes that moved a variant into out_of_stock.",
	})

	summaryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_summary_cache_lookups_total",
		Help: "Product summary cache lookups by result (hit, miss, error, stale_fill).",
	}, []string{"result"})

	primaryAddressChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_primary_address_changes_total",
		Help: "Committed changes of a user's primary address.",
	})
)
