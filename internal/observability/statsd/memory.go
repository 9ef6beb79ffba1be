package statsd

import (
	"sync"
	"time"
)

// Point is a single metric recorded by MemorySink.
type Point struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

// MemorySink records metrics in memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	points []Point
}

var _ Sink = (*MemorySink)(nil)

// Count records a counter increment.
func (m *MemorySink) Count(name string, value int64, tags map[string]string) {
	m.add(Point{Kind: "c", Name: name, Value: float64(value), Tags: cleanTags(tags)})
}

// Timing records a duration in milliseconds.
func (m *MemorySink) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	m.add(Point{Kind: "ms", Name: name, Value: ms, Tags: cleanTags(tags)})
}

// Points returns a snapshot of everything recorded so far.
func (m *MemorySink) Points() []Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Point, len(m.points))
	copy(out, m.points)
	return out
}

// Named returns recorded points with the given metric name.
func (m *MemorySink) Named(name string) []Point {
	var out []Point
	for _, p := range m.Points() {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

func (m *MemorySink) add(p Point) {
	m.mu.Lock()
	m.points = append(m.points, p)
	m.mu.Unlock()
}
