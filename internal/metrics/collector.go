package metrics

import (
	"time"

	"preview-generator/internal/logging"
)

// StatsProvider supplies cache and index statistics.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	CacheBytes     int64
	CacheCount     int
	ArtifactByKind map[string]int
}

// Collector periodically copies StatsProvider output into gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	PreviewCacheSize.Set(float64(stats.CacheBytes))
	PreviewCacheCount.Set(float64(stats.CacheCount))
	for _, kind := range Kinds {
		PreviewIndexedArtifacts.WithLabelValues(kind).Set(float64(stats.ArtifactByKind[kind]))
	}

	logging.Debug("Metrics collected: cache=%d bytes, %d artifacts", stats.CacheBytes, stats.CacheCount)
}
