package metrics

import (
	"sync/atomic"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// WebhookMetrics counts payment notification outcomes for the ops endpoint.
type WebhookMetrics struct {
	Received   Counter
	Duplicates Counter
	Fulfilled  Counter
	Failed     Counter
	Rejected   Counter
}

func (m *WebhookMetrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"received":   m.Received.Load(),
		"duplicates": m.Duplicates.Load(),
		"fulfilled":  m.Fulfilled.Load(),
		"failed":     m.Failed.Load(),
		"rejected":   m.Rejected.Load(),
	}
}
