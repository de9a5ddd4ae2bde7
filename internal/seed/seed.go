// Package seed produces synthetic weather readings for test devices.
package seed

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
)

// Interval is the spacing between generated readings
const Interval = time.Minute

// MaxReadings caps a single seed request
const MaxReadings = 60 * 24 * 31

// span is the [min, min+width) range of a generated metric
type span struct {
	min   float64
	width float64
}

var (
	temperatureSpan = span{10, 15}
	humiditySpan    = span{40, 30}
	defaultSpan     = span{11, 34}
)

// Generator builds readings from a random source. It is safe for concurrent use.
type Generator struct {
	registry *metric.Registry

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator. A nil rnd uses a randomly seeded source.
func NewGenerator(registry *metric.Registry, rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{registry: registry, rnd: rnd}
}

// Generate returns one reading per Interval in [from, to) for deviceID,
// with every metric of the registry filled in
func (g *Generator) Generate(deviceID string, from, to time.Time) []domain.Reading {
	if !from.Before(to) {
		return []domain.Reading{}
	}

	keys := g.registry.MetricKeys()

	g.mu.Lock()
	defer g.mu.Unlock()

	readings := make([]domain.Reading, 0, Count(from, to))
	for ts := from; ts.Before(to); ts = ts.Add(Interval) {
		values := make(map[string]float64, len(keys))
		for _, key := range keys {
			s := spanOf(key)
			values[key] = s.min + g.rnd.Float64()*s.width
		}
		readings = append(readings, domain.Reading{
			DeviceID:  deviceID,
			Timestamp: ts.UTC(),
			Values:    values,
		})
	}
	return readings
}

// Count returns how many readings Generate would produce for [from, to)
func Count(from, to time.Time) int {
	if !from.Before(to) {
		return 0
	}
	d := to.Sub(from)
	n := int(d / Interval)
	if d%Interval != 0 {
		n++
	}
	return n
}

func spanOf(key string) span {
	switch key {
	case metric.Temperature:
		return temperatureSpan
	case "humidity":
		return humiditySpan
	default:
		return defaultSpan
	}
}
