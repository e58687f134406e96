package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sizer reports a current element count.
type Sizer interface {
	Len() int
}

// SagaStore reports the number of live sagas.
type SagaStore interface {
	Count() int
}

// DedupWindow reports the state of a deduplication window.
type DedupWindow interface {
	Len() int
	Capacity() int
	Evictions() uint64
}

// Sources are the components sampled by a ContainerCollector.
// Nil fields are skipped.
type Sources struct {
	Sagas         SagaStore
	Formatters    Sizer
	Dedup         DedupWindow
	Subscriptions Sizer
}

// ContainerCollector samples container sizes at scrape time.
type ContainerCollector struct {
	src Sources

	sagaEntries      *prometheus.Desc
	formatterEntries *prometheus.Desc
	dedupEntries     *prometheus.Desc
	dedupCapacity    *prometheus.Desc
	dedupEvictions   *prometheus.Desc
	messageTypes     *prometheus.Desc
}

// NewContainerCollector creates a collector over src.
func NewContainerCollector(src Sources) *ContainerCollector {
	return &ContainerCollector{
		src: src,
		sagaEntries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "saga", "entries"),
			"Sagas currently held by the persister.", nil, nil),
		formatterEntries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "formatter", "cache_entries"),
			"Formatters cached by type.", nil, nil),
		dedupEntries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "dedup", "entries"),
			"Message fingerprints in the dedup window.", nil, nil),
		dedupCapacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "dedup", "capacity"),
			"Configured size of the dedup window.", nil, nil),
		dedupEvictions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "dedup", "evictions_total"),
			"Fingerprints evicted from the dedup window.", nil, nil),
		messageTypes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "subscription", "message_types"),
			"Message types with at least one subscriber.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *ContainerCollector) Describe(ch chan<- *prometheus.Desc) {
	if c.src.Sagas != nil {
		ch <- c.sagaEntries
	}
	if c.src.Formatters != nil {
		ch <- c.formatterEntries
	}
	if c.src.Dedup != nil {
		ch <- c.dedupEntries
		ch <- c.dedupCapacity
		ch <- c.dedupEvictions
	}
	if c.src.Subscriptions != nil {
		ch <- c.messageTypes
	}
}

// Collect implements prometheus.Collector.
func (c *ContainerCollector) Collect(ch chan<- prometheus.Metric) {
	if c.src.Sagas != nil {
		ch <- gauge(c.sagaEntries, c.src.Sagas.Count())
	}
	if c.src.Formatters != nil {
		ch <- gauge(c.formatterEntries, c.src.Formatters.Len())
	}
	if c.src.Dedup != nil {
		ch <- gauge(c.dedupEntries, c.src.Dedup.Len())
		ch <- gauge(c.dedupCapacity, c.src.Dedup.Capacity())
		ch <- prometheus.MustNewConstMetric(c.dedupEvictions, prometheus.CounterValue,
			float64(c.src.Dedup.Evictions()))
	}
	if c.src.Subscriptions != nil {
		ch <- gauge(c.messageTypes, c.src.Subscriptions.Len())
	}
}

func gauge(desc *prometheus.Desc, v int) prometheus.Metric {
	return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v))
}
