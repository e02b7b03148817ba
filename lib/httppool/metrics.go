// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httppool

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/codec"
)

// latencySamples bounds the per-endpoint sample window used for
// percentiles. Count, mean, min, and max cover every call.
const latencySamples = 1024

// CallMetric describes one request, successful or not.
type CallMetric struct {
	Method        string
	Endpoint      string
	Time          time.Time
	Duration      time.Duration
	StatusCode    int // 0 when no response was received
	RequestBytes  int64
	ResponseBytes int64
	Error         string
}

// Key is the aggregation key: "METHOD endpoint".
func (m CallMetric) Key() string { return m.Method + " " + m.Endpoint }

// Failed reports whether the call errored or returned a status >= 400.
func (m CallMetric) Failed() bool { return m.Error != "" || m.StatusCode >= 400 }

// EndpointSummary aggregates the calls made to one endpoint.
type EndpointSummary struct {
	Count         int            `json:"count"`
	Errors        int            `json:"errors"`
	MinMs         float64        `json:"min_ms"`
	MaxMs         float64        `json:"max_ms"`
	MeanMs        float64        `json:"mean_ms"`
	P50Ms         float64        `json:"p50_ms"`
	P95Ms         float64        `json:"p95_ms"`
	RequestBytes  int64          `json:"request_bytes"`
	ResponseBytes int64          `json:"response_bytes"`
	Statuses      map[string]int `json:"statuses,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
}

type endpointStats struct {
	count         int
	errors        int
	total         time.Duration
	min           time.Duration
	max           time.Duration
	samples       []time.Duration
	next          int
	requestBytes  int64
	responseBytes int64
	statuses      map[int]int
	lastError     string
}

// Metrics aggregates CallMetrics by endpoint. Safe for concurrent use.
type Metrics struct {
	mu        sync.Mutex
	endpoints map[string]*endpointStats
}

// NewMetrics returns an empty aggregate.
func NewMetrics() *Metrics {
	return &Metrics{endpoints: make(map[string]*endpointStats)}
}

// Record adds one call to the aggregate.
func (m *Metrics) Record(metric CallMetric) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := metric.Key()
	stats := m.endpoints[key]
	if stats == nil {
		stats = &endpointStats{min: metric.Duration, statuses: make(map[int]int)}
		m.endpoints[key] = stats
	}
	stats.count++
	stats.total += metric.Duration
	stats.min = min(stats.min, metric.Duration)
	stats.max = max(stats.max, metric.Duration)
	if len(stats.samples) < latencySamples {
		stats.samples = append(stats.samples, metric.Duration)
	} else {
		stats.samples[stats.next] = metric.Duration
		stats.next = (stats.next + 1) % latencySamples
	}
	stats.requestBytes += metric.RequestBytes
	stats.responseBytes += metric.ResponseBytes
	if metric.StatusCode != 0 {
		stats.statuses[metric.StatusCode]++
	}
	if metric.Failed() {
		stats.errors++
		if metric.Error != "" {
			stats.lastError = metric.Error
		}
	}
}

// Summary returns a snapshot keyed by "METHOD endpoint".
func (m *Metrics) Summary() map[string]EndpointSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := make(map[string]EndpointSummary, len(m.endpoints))
	for key, stats := range m.endpoints {
		sorted := slices.Clone(stats.samples)
		slices.Sort(sorted)
		statuses := make(map[string]int, len(stats.statuses))
		for code, count := range stats.statuses {
			statuses[strconv.Itoa(code)] = count
		}
		summary[key] = EndpointSummary{
			Count:         stats.count,
			Errors:        stats.errors,
			MinMs:         milliseconds(stats.min),
			MaxMs:         milliseconds(stats.max),
			MeanMs:        milliseconds(stats.total / time.Duration(stats.count)),
			P50Ms:         milliseconds(percentile(sorted, 0.50)),
			P95Ms:         milliseconds(percentile(sorted, 0.95)),
			RequestBytes:  stats.requestBytes,
			ResponseBytes: stats.responseBytes,
			Statuses:      statuses,
			LastError:     stats.lastError,
		}
	}
	return summary
}

// Reset discards all recorded calls.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = make(map[string]*endpointStats)
}

// percentile returns the nearest-rank percentile of sorted samples.
func percentile(sorted []time.Duration, fraction float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(fraction*float64(len(sorted)))) - 1
	return sorted[max(rank, 0)]
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Format selects the summary encoding for WriteSummary.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// WriteSummary encodes summary to w. JSON output is indented for
// terminals; CBOR uses the deterministic encoding from lib/codec.
func WriteSummary(w io.Writer, summary map[string]EndpointSummary, format Format) error {
	switch format {
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	case FormatCBOR:
		return codec.NewEncoder(w).Encode(summary)
	default:
		return fmt.Errorf("httppool: unknown summary format %q (want json or cbor)", format)
	}
}
