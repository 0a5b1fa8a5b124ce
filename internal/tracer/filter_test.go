package tracer

import (
	"testing"

	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
)

// chainOfLength builds an open chain with n tiles along row 1.
func chainOfLength(id, n int) *Chain {
	c := &Chain{ID: id, Parent: -1}
	for i := 0; i < n; i++ {
		c.Tiles = append(c.Tiles, tilegrid.Pos{Row: 1, Col: 1 + i})
		if i > 0 {
			c.Steps = append(c.Steps, Step{Distance: 1})
		}
	}
	return c
}

func TestClassify(t *testing.T) {
	const minLength = 5
	loop := chainOfLength(0, 2)
	loop.Loop = true
	spliced := chainOfLength(1, 2)
	spliced.Spliced = true
	border := chainOfLength(2, 1)
	border.TouchesBorder = true

	tests := []struct {
		name  string
		chain *Chain
		want  KeepReason
	}{
		{"short loop", loop, KeepLoop},
		{"short splice", spliced, KeepSpliced},
		{"single border tile", border, KeepBorder},
		{"exactly min length", chainOfLength(3, 5), KeepLength},
		{"one below min length", chainOfLength(4, 4), KeepNone},
		{"isolated inner tile", chainOfLength(5, 1), KeepNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.chain, minLength); got != tt.want {
				t.Errorf("Classify: got %q, want %q", got, tt.want)
			}
			if got := Keep(tt.chain, minLength); got != (tt.want != KeepNone) {
				t.Errorf("Keep: got %v", got)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	chains := []*Chain{
		chainOfLength(0, 6),
		chainOfLength(1, 2),
		chainOfLength(2, 7),
		chainOfLength(3, 3),
		chainOfLength(4, 5),
	}

	kept := Filter(chains, 5)

	var ids []int
	for _, c := range kept {
		ids = append(ids, c.ID)
	}
	want := []int{0, 2, 4}
	if len(ids) != len(want) {
		t.Fatalf("kept: got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("kept: got %v, want %v", ids, want)
			break
		}
	}
	if len(chains) != 5 {
		t.Error("input slice was modified")
	}
}

func TestFilter_TracedShapes(t *testing.T) {
	// The ring is kept as a loop even though it is short in tiles; the lone
	// inner tile is dropped.
	g := mustGrid(t,
		".......",
		".###...",
		".#.#...",
		".###...",
		".....#.",
		".......",
	)
	chains := mustTrace(t, g)
	kept := Filter(chains, 20)

	if len(chains) != 2 {
		t.Fatalf("chains: got %d, want 2", len(chains))
	}
	if len(kept) != 1 || !kept[0].Loop {
		t.Errorf("kept %d chains, want only the loop", len(kept))
	}
}
