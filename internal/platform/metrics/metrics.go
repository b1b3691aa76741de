package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64
	batchesOK       atomic.Uint64
	batchesFailed   atomic.Uint64
	documents       atomic.Uint64
	batchDurationMs atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) RecordBatch(ok bool, documents int, duration time.Duration) {
	if ok {
		c.batchesOK.Add(1)
	} else {
		c.batchesFailed.Add(1)
	}
	c.documents.Add(uint64(documents))
	c.batchDurationMs.Add(uint64(duration.Milliseconds()))
}

func average(total, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	ok := c.batchesOK.Load()
	failed := c.batchesFailed.Load()
	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        c.errorRequests.Load(),
		"rateLimitedTotal":   c.rateLimited.Load(),
		"avgDurationMs":      average(totalMs, total),
		"totalDurationMs":    totalMs,
		"batchesTotal":       ok,
		"batchesFailedTotal": failed,
		"documentsTotal":     c.documents.Load(),
		"avgBatchDurationMs": average(c.batchDurationMs.Load(), ok+failed),
	}
}
