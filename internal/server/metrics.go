package server

import (
	"sync/atomic"
	"time"

	"github.com/thenoetrevino/storyboard/internal/events"
)

// Metrics tracks server statistics using atomic operations for thread-safety
type Metrics struct {
	RequestsTotal    atomic.Int64
	ErrorsTotal      atomic.Int64
	EventsSent       atomic.Int64
	CacheEvictions   atomic.Int64
	ConnectedClients atomic.Int32
	StartTime        time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// IncRequests increments the handled requests counter
func (m *Metrics) IncRequests() {
	m.RequestsTotal.Add(1)
}

// IncErrors increments the 5xx responses counter
func (m *Metrics) IncErrors() {
	m.ErrorsTotal.Add(1)
}

// IncEventsSent increments the counter of events written to streams
func (m *Metrics) IncEventsSent() {
	m.EventsSent.Add(1)
}

// IncCacheEvictions increments the story cache evictions counter
func (m *Metrics) IncCacheEvictions() {
	m.CacheEvictions.Add(1)
}

// AddConnectedClients adjusts the open stream count by delta
func (m *Metrics) AddConnectedClients(delta int32) {
	m.ConnectedClients.Add(delta)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	RequestsTotal    int64         `json:"requests_total"`
	ErrorsTotal      int64         `json:"errors_total"`
	EventsSent       int64         `json:"events_sent"`
	CacheEvictions   int64         `json:"cache_evictions"`
	ConnectedClients int32         `json:"connected_clients"`
	Bus              *events.Stats `json:"bus,omitempty"`
	StartTime        time.Time     `json:"start_time"`
	Uptime           string        `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:    m.RequestsTotal.Load(),
		ErrorsTotal:      m.ErrorsTotal.Load(),
		EventsSent:       m.EventsSent.Load(),
		CacheEvictions:   m.CacheEvictions.Load(),
		ConnectedClients: m.ConnectedClients.Load(),
		StartTime:        m.StartTime,
		Uptime:           time.Since(m.StartTime).String(),
	}
}
