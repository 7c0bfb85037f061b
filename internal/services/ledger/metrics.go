package ledger

import (
	"context"
	"errors"
	"time"

	"vwallet/internal/models"
	"vwallet/internal/money"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperation(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordTransaction(string, money.Money) {}
func (n *NoopMetricsCollector) RecordError(string, string)            {}

var errCacheDisabled = errors.New("cache disabled")

// NoopClientCache is a cache that never hits, for tests and cache-less
// deployments.
type NoopClientCache struct{}

func (n *NoopClientCache) GetClient(context.Context, string, string) (*models.Client, error) {
	return nil, errCacheDisabled
}

func (n *NoopClientCache) SetClient(context.Context, *models.Client) error { return nil }

func (n *NoopClientCache) InvalidateClient(context.Context, string, string) error { return nil }
