package health

import (
	"context"

	"github.com/jonwraymond/telemetryclient/cache"
)

const reportCacheKey = "aggregated-report"

// CachedReports wraps src so that reports are reused for the policy's TTL
// and concurrent requests share one aggregation.
//
// The shared aggregation is detached from the cancellation of the request
// that started it; the branch timeouts of src still bound it.
func CachedReports(src ReportSource, policy cache.Policy) ReportSource {
	loader, err := cache.NewLoader[AggregatedReport](cache.NewMemory[AggregatedReport](nil), policy, reportCacheKey,
		func(ctx context.Context) (AggregatedReport, error) {
			return src.GetHealthWithDetails(context.WithoutCancel(ctx)), nil
		})
	if err != nil {
		// reportCacheKey is a valid key.
		panic(err)
	}
	return &cachedReports{loader: loader}
}

type cachedReports struct {
	loader *cache.Loader[AggregatedReport]
}

func (c *cachedReports) GetHealthWithDetails(ctx context.Context) AggregatedReport {
	// The fetch never fails.
	report, _ := c.loader.Load(ctx)
	return report
}
