package seed

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(metric.Default(), rand.New(rand.NewPCG(1, 2)))
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(10 * time.Minute)

	readings := g.Generate("D1", from, to)
	require.Len(t, readings, 10)

	assert.Equal(t, from, readings[0].Timestamp)
	assert.Equal(t, to.Add(-time.Minute), readings[9].Timestamp, "upper bound is exclusive")

	for _, r := range readings {
		assert.Equal(t, "D1", r.DeviceID)
		assert.Len(t, r.Values, 18)

		temp := r.Values["temperature"]
		assert.GreaterOrEqual(t, temp, 10.0)
		assert.Less(t, temp, 25.0)

		hum := r.Values["humidity"]
		assert.GreaterOrEqual(t, hum, 40.0)
		assert.Less(t, hum, 70.0)

		co2 := r.Values["co2"]
		assert.GreaterOrEqual(t, co2, 11.0)
		assert.Less(t, co2, 45.0)
	}
}

func TestGenerator_EmptyRange(t *testing.T) {
	g := NewGenerator(metric.Default(), nil)
	now := time.Now()

	assert.Empty(t, g.Generate("D1", now, now))
	assert.Empty(t, g.Generate("D1", now, now.Add(-time.Hour)))
}

func TestCount(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, Count(from, from))
	assert.Equal(t, 1, Count(from, from.Add(30*time.Second)))
	assert.Equal(t, 60, Count(from, from.Add(time.Hour)))
	assert.Equal(t, 61, Count(from, from.Add(time.Hour+time.Second)))
}

func TestGenerator_ConcurrentGenerate(t *testing.T) {
	g := NewGenerator(metric.Default(), nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(30 * time.Minute)

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = len(g.Generate("D1", from, to))
		}()
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, 30, n)
	}
}
