package metrics

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type MarketplaceMetrics struct {
	operations       *prometheus.CounterVec
	dividendDeposits *prometheus.GaugeVec
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *MarketplaceMetrics
)

func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = &MarketplaceMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "deedshare_operations_total",
				Help: "Count of ledger operations by name and outcome.",
			}, []string{"operation", "result"}),
			dividendDeposits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "deedshare_dividend_deposited",
				Help: "Most recent dividend deposit amount per property.",
			}, []string{"property"}),
		}
		prometheus.MustRegister(
			marketplaceRegistry.operations,
			marketplaceRegistry.dividendDeposits,
		)
	})
	return marketplaceRegistry
}

func (m *MarketplaceMetrics) ObserveOperation(operation, result string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *MarketplaceMetrics) ObserveDividendDeposit(propertyID uint64, amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	label := fmt.Sprintf("%d", propertyID)
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.dividendDeposits.WithLabelValues(label).Set(value)
}

func (m *MarketplaceMetrics) InitOperation(operation string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	m.operations.WithLabelValues(operation, "ok").Add(0)
	m.operations.WithLabelValues(operation, "error").Add(0)
}
