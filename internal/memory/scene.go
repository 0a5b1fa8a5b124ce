package memory

import (
	"math"
	"sort"
	"sync"

	"github.com/ironsheep/boundary-mcp/internal/features"
)

// CountMismatchPenalty is the distance added per object that has no
// counterpart with the same prototype in the other scene.
const CountMismatchPenalty = 10.0

// SceneObject is one object of a scene, identified by its prototype.
type SceneObject struct {
	ProtoID int     `json:"proto_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Scale   float64 `json:"scale"`
}

// Scene is an ordered list of objects found in one image.
type Scene struct {
	ID      int           `json:"id"`
	Objects []SceneObject `json:"objects"`
}

// BuildScene assigns a prototype to every object through mem.GetOrAdd and
// returns the resulting scene. Object order is preserved. The returned scene
// has ID -1 until it is added to a SceneMemory.
func BuildScene(objects []features.Object, mem *ObjectMemory, threshold float64) Scene {
	scene := Scene{ID: -1, Objects: make([]SceneObject, 0, len(objects))}
	for _, obj := range objects {
		id, _ := mem.GetOrAdd(obj.Vector, threshold)
		scene.Objects = append(scene.Objects, SceneObject{
			ProtoID: id,
			X:       obj.Centroid.X,
			Y:       obj.Centroid.Y,
			Scale:   obj.Scale,
		})
	}
	return scene
}

// SceneDistance compares two scenes.
//
// # Algorithm
//
// Objects are grouped by prototype id, keeping their order within each
// scene. For every prototype present in either scene:
//
//   - 10 is added per object of count mismatch between the two groups.
//   - The first min(n₁, n₂) objects are paired by index and contribute their
//     Euclidean centroid distance plus |s₁−s₂| / max(s₁, s₂, 1).
//
// Two empty scenes are at distance 0.
func SceneDistance(a, b Scene) float64 {
	groupsA := groupByProto(a.Objects)
	groupsB := groupByProto(b.Objects)

	protos := make([]int, 0, len(groupsA)+len(groupsB))
	for id := range groupsA {
		protos = append(protos, id)
	}
	for id := range groupsB {
		if _, ok := groupsA[id]; !ok {
			protos = append(protos, id)
		}
	}
	// Summation order fixed for reproducible floating point results.
	sort.Ints(protos)

	var total float64
	for _, id := range protos {
		ga, gb := groupsA[id], groupsB[id]
		total += CountMismatchPenalty * math.Abs(float64(len(ga)-len(gb)))

		n := min(len(ga), len(gb))
		for i := 0; i < n; i++ {
			oa, ob := ga[i], gb[i]
			total += math.Hypot(oa.X-ob.X, oa.Y-ob.Y)
			total += math.Abs(oa.Scale-ob.Scale) / math.Max(math.Max(oa.Scale, ob.Scale), 1)
		}
	}
	return total
}

func groupByProto(objects []SceneObject) map[int][]SceneObject {
	groups := make(map[int][]SceneObject)
	for _, o := range objects {
		groups[o.ProtoID] = append(groups[o.ProtoID], o)
	}
	return groups
}

// SceneMemory stores scenes and answers nearest-scene queries.
type SceneMemory struct {
	mu     sync.RWMutex
	scenes []Scene
	nextID int
}

// NewSceneMemory creates an empty scene memory.
func NewSceneMemory() *SceneMemory {
	return &SceneMemory{}
}

// Add stores a copy of s under a new id and returns the id.
func (m *SceneMemory) Add(s Scene) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.nextID
	s.Objects = append([]SceneObject(nil), s.Objects...)
	m.nextID++
	m.scenes = append(m.scenes, s)
	return s.ID
}

// Query returns up to k stored scenes nearest to s, closest first, keeping
// only those with distance ≤ maxDistance. Pass math.Inf(1) for no limit and
// k ≤ 0 for every scene.
func (m *SceneMemory) Query(s Scene, k int, maxDistance float64) []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.scenes))
	for _, stored := range m.scenes {
		if d := SceneDistance(s, stored); d <= maxDistance {
			matches = append(matches, Match{ID: stored.ID, Distance: d})
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

// Scene returns the stored scene with the given id.
func (m *SceneMemory) Scene(id int) (Scene, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}

// Len returns the number of stored scenes.
func (m *SceneMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scenes)
}

// Clear removes every scene and restarts id assignment at zero.
func (m *SceneMemory) Clear() {
	m.mu.Lock()
	m.scenes = nil
	m.nextID = 0
	m.mu.Unlock()
}
