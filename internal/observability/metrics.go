package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latencyTotal map[string]time.Duration
	reservations ReservationCounts
}

// ReservationCounts accumulates stock reservation outcomes per line.
type ReservationCounts struct {
	Attempts  int64 `json:"attempts"`
	Fulfilled int64 `json:"fulfilled_lines"`
	Rejected  int64 `json:"rejected_lines"`
	LostRaces int64 `json:"lost_races"`
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests       map[string]int64   `json:"requests"`
	Errors         map[string]int64   `json:"errors"`
	AvgLatencyMS   map[string]float64 `json:"avg_latency_ms"`
	Reservations   ReservationCounts  `json:"reservations"`
	GeneratedAtUTC time.Time          `json:"generated_at"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordReservation adds the outcome of one reservation attempt.
func (m *Metrics) RecordReservation(fulfilled, rejected, lostRaces int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations.Attempts++
	m.reservations.Fulfilled += int64(fulfilled)
	m.reservations.Rejected += int64(rejected)
	m.reservations.LostRaces += int64(lostRaces)
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:       map[string]int64{},
		Errors:         map[string]int64{},
		AvgLatencyMS:   map[string]float64{},
		GeneratedAtUTC: time.Now().UTC(),
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
		if v > 0 {
			snap.AvgLatencyMS[k] = float64(m.latencyTotal[k].Microseconds()) / float64(v) / 1000
		}
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	snap.Reservations = m.reservations
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
