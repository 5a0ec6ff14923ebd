package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CampaignCacheRequests counts campaign list lookups by cache layer and result.
	CampaignCacheRequests *prometheus.CounterVec
	// DiscountCalculations counts per-product discount resolutions by outcome.
	DiscountCalculations *prometheus.CounterVec
	// CartDiscountApplications counts cart lines discounted by application mode.
	CartDiscountApplications *prometheus.CounterVec
	// UsageLogWrites counts usage log upserts by resulting action.
	UsageLogWrites *prometheus.CounterVec
	// CatalogBreakerState tracks the catalog circuit breaker (0 closed, 1 half-open, 2 open).
	CatalogBreakerState prometheus.Gauge
)

func init() {
	// Collectors stay usable in tests that never call MustRegisterDomainMetrics.
	newDomainCollectors("campaignbay")
}

func newDomainCollectors(namespace string) {
	CampaignCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "campaign_cache_requests_total",
		Help:      "Campaign list lookups by cache layer and result.",
	}, []string{"layer", "result"})
	DiscountCalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discount_calculations_total",
		Help:      "Per-product discount calculations by outcome.",
	}, []string{"result"})
	CartDiscountApplications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_discount_applications_total",
		Help:      "Cart lines discounted, by application mode.",
	}, []string{"mode"})
	UsageLogWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_log_writes_total",
		Help:      "Usage log upserts by resulting action.",
	}, []string{"action"})
	CatalogBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_breaker_state",
		Help:      "Catalog circuit breaker state: 0=closed,1=half-open,2=open.",
	})
}

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		newDomainCollectors(namespace)
		CampaignCacheRequests = register(reg, CampaignCacheRequests)
		DiscountCalculations = register(reg, DiscountCalculations)
		CartDiscountApplications = register(reg, CartDiscountApplications)
		UsageLogWrites = register(reg, UsageLogWrites)
		CatalogBreakerState = register(reg, CatalogBreakerState)
	})
}
