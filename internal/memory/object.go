// Package memory holds nearest-neighbour memories for reduced objects and
// for scenes assembled from them.
//
// Both memories are linear scans over everything stored so far. They are
// safe for concurrent use.
package memory

import (
	"math"
	"sort"
	"sync"

	"github.com/ironsheep/boundary-mcp/internal/features"
)

// Default distance weights and matching threshold.
const (
	DefaultShapeWeight         = 1.0
	DefaultColorWeight         = 0.1
	DefaultSimilarityThreshold = 0.5
)

// Match is one query result.
type Match struct {
	ID       int     `json:"id"`
	Distance float64 `json:"distance"`
}

type prototype struct {
	id     int
	vector features.VObject
}

// ObjectMemory stores v_object prototypes and answers nearest-neighbour
// queries with a weighted Euclidean distance.
//
// # Distance
//
//	d = sqrt((‖shape₁−shape₂‖·shapeWeight)² + (‖color₁−color₂‖·colorWeight)²)
//
// where shape is the first ten elements of the vector and color the last
// three. With the default weights, colour differences in 0-255 range are
// scaled down to be comparable with histogram differences.
type ObjectMemory struct {
	mu          sync.RWMutex
	shapeWeight float64
	colorWeight float64
	protos      []prototype
	nextID      int
}

// NewObjectMemory creates an empty memory with the given weights.
func NewObjectMemory(shapeWeight, colorWeight float64) *ObjectMemory {
	return &ObjectMemory{
		shapeWeight: shapeWeight,
		colorWeight: colorWeight,
	}
}

// Weights returns the shape and colour weights.
func (m *ObjectMemory) Weights() (shape, color float64) {
	return m.shapeWeight, m.colorWeight
}

// Distance computes the weighted distance between two vectors.
func (m *ObjectMemory) Distance(a, b features.VObject) float64 {
	shape := norm(a.Shape(), b.Shape()) * m.shapeWeight
	color := norm(a.ColorPart(), b.ColorPart()) * m.colorWeight
	return math.Sqrt(shape*shape + color*color)
}

// Add stores v under a newly assigned id and returns the id.
func (m *ObjectMemory) Add(v features.VObject) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(v)
}

// AddAs stores v as another example of an existing id. Later Add calls never
// reuse an id at or below one passed here.
func (m *ObjectMemory) AddAs(v features.VObject, id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protos = append(m.protos, prototype{id: id, vector: v})
	if id >= m.nextID {
		m.nextID = id + 1
	}
}

func (m *ObjectMemory) addLocked(v features.VObject) int {
	id := m.nextID
	m.nextID++
	m.protos = append(m.protos, prototype{id: id, vector: v})
	return id
}

// Query returns the k stored vectors nearest to v, closest first. Equal
// distances keep insertion order. A k of zero or less returns every match.
func (m *ObjectMemory) Query(v features.VObject, k int) []Match {
	return m.QueryWithin(v, k, math.Inf(1))
}

// QueryWithin is Query restricted to matches with distance ≤ maxDistance.
func (m *ObjectMemory) QueryWithin(v features.VObject, k int, maxDistance float64) []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryLocked(v, k, maxDistance)
}

func (m *ObjectMemory) queryLocked(v features.VObject, k int, maxDistance float64) []Match {
	matches := make([]Match, 0, len(m.protos))
	for _, p := range m.protos {
		d := m.Distance(v, p.vector)
		if d <= maxDistance {
			matches = append(matches, Match{ID: p.id, Distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// GetOrAdd returns the id of the nearest stored vector within threshold, or
// stores v under a new id. isNew reports which happened. The lookup and the
// insertion are atomic with respect to other callers.
func (m *ObjectMemory) GetOrAdd(v features.VObject, threshold float64) (id int, isNew bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if best := m.queryLocked(v, 1, threshold); len(best) > 0 {
		return best[0].ID, false
	}
	return m.addLocked(v), true
}

// Prototype returns the first vector stored under id.
func (m *ObjectMemory) Prototype(id int) (features.VObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.protos {
		if p.id == id {
			return p.vector, true
		}
	}
	return features.VObject{}, false
}

// Len returns the number of stored vectors.
func (m *ObjectMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.protos)
}

// Clear removes every stored vector and restarts id assignment at zero.
func (m *ObjectMemory) Clear() {
	m.mu.Lock()
	m.protos = nil
	m.nextID = 0
	m.mu.Unlock()
}

func norm(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
