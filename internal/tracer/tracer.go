package tracer

import (
	"errors"

	"github.com/ironsheep/boundary-mcp/internal/chaincode"
	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
)

// ErrLimitExceeded is returned when a trace hits MaxChains or MaxChainTiles.
// The chains committed before the limit was hit are returned with it.
var ErrLimitExceeded = errors.New("tracing limit exceeded")

// Limits caps the work done by a single trace. Zero means unlimited.
type Limits struct {
	// MaxChains caps the number of chains (seed chains and branches).
	MaxChains int `json:"max_chains" yaml:"max_chains"`

	// MaxChainTiles caps the number of tiles a single chain may claim.
	MaxChainTiles int `json:"max_chain_tiles" yaml:"max_chain_tiles"`
}

// branch is a pending work item: a chain starting at from whose first step
// goes to to. chain is set when the branch was claimed at the branch point;
// a deferred branch is nil until it is taken from the work-list.
type branch struct {
	parent  int
	from    tilegrid.Pos
	to      tilegrid.Pos
	heading chaincode.Direction
	chain   *Chain
}

type tracer struct {
	grid    *tilegrid.Grid
	limits  Limits
	chains  []*Chain
	pending []branch

	// reserved holds the seed's other neighbours while its chain is traced.
	reserved []tilegrid.Pos
}

// Trace extracts boundary chains from an activation grid.
//
// Parameters:
//   - g: Activation grid, normally the output of tilegrid.FillGaps. Its
//     visited/owner state is consumed by the trace; call ResetVisits to trace
//     the same grid twice.
//   - limits: Optional caps on chain count and chain size.
//
// Returns:
//   - []*Chain: Chains in creation order; Chain.ID equals the slice index.
//   - error: ErrLimitExceeded if a limit was hit. The chains returned with
//     the error are every chain committed so far. The chain that was cut
//     short and every claimed branch still waiting on the work-list are
//     marked Truncated.
//
// # Algorithm
//
// Tiles are scanned in row-major order. Every active tile that no chain has
// claimed yet seeds a new chain, whose first step goes to the first active
// unvisited neighbour in compass order (N, NE, E, SE, S, SW, W, NW). From
// then on the active 8-neighbours other than the tile just arrived from are
// split into unvisited and visited:
//
//  1. One unvisited neighbour: step into it and claim it.
//  2. Several unvisited neighbours: step into the one with the smallest turn
//     magnitude (ties broken by compass order). Every other one starts a
//     branch chain whose first step goes from the current tile to that
//     neighbour. The branch claims the neighbour before the current chain
//     moves on, with two exceptions that are deferred instead: a corner
//     neighbour orthogonally adjacent to the tile stepped into, and a
//     neighbour of the seed while the seed chain is traced. A deferred branch is claimed when it is
//     taken from the work-list, or dropped if a chain reached its tile first.
//  3. No unvisited but some visited neighbours: close as a loop if one of
//     them is the chain's own first tile (owned by the chain at index 0),
//     otherwise splice into the visited neighbour with the smallest turn.
//  4. No active neighbours: close as an open end.
//
// When a seed chain closes, the seed's neighbours that are still unvisited
// start branches from the seed. Branches are then extended last-in
// first-out until the work-list is empty, siblings in compass order. No tile
// is ever claimed twice, so the trace terminates after visiting each active
// tile once.
func Trace(g *tilegrid.Grid, limits Limits) ([]*Chain, error) {
	t := &tracer{grid: g, limits: limits}

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			p := tilegrid.Pos{Row: r, Col: c}
			if !g.Active(p) || g.Visited(p) {
				continue
			}
			if err := t.traceSeed(p); err != nil {
				t.abandon()
				return t.chains, err
			}
			if err := t.drain(); err != nil {
				t.abandon()
				return t.chains, err
			}
		}
	}

	return t.chains, nil
}

// newChain registers an empty chain so that its ID matches its index.
func (t *tracer) newChain(parent int) (*Chain, error) {
	if t.limits.MaxChains > 0 && len(t.chains) >= t.limits.MaxChains {
		return nil, ErrLimitExceeded
	}
	c := &Chain{ID: len(t.chains), Parent: parent}
	t.chains = append(t.chains, c)
	return c, nil
}

// traceSeed traces the chain starting at seed. The seed is not a branch
// point: its first step follows the initial heading, and the neighbours the
// chain has not reached by the time it closes become branches afterwards.
func (t *tracer) traceSeed(seed tilegrid.Pos) error {
	c, err := t.newChain(-1)
	if err != nil {
		return err
	}
	c.Tiles = append(c.Tiles, seed)
	t.grid.Claim(seed, tilegrid.Owner{Chain: c.ID, Index: 0})

	heading, ok := t.initialHeading(seed)
	if !ok {
		return t.run(c, heading, nil)
	}
	next := seed.Step(heading)
	var buf [chaincode.NumDirections]tilegrid.Pos
	for _, q := range t.unvisitedAround(seed, buf[:0]) {
		if q != next {
			t.reserved = append(t.reserved, q)
		}
	}
	defer func() { t.reserved = t.reserved[:0] }()

	if err := t.step(c, seed, heading, next); err != nil {
		return err
	}
	if err := t.run(c, heading, &seed); err != nil {
		return err
	}
	t.reserved = t.reserved[:0]
	return t.branchAt(c, seed, heading, nil, t.unvisitedAround(seed, buf[:0]))
}

// initialHeading points at the first active unvisited neighbour of the seed.
// When there is none it reports false and returns the direction of the first
// active neighbour, or N for an isolated seed; no step is taken in it.
func (t *tracer) initialHeading(seed tilegrid.Pos) (chaincode.Direction, bool) {
	fallback, found := chaincode.N, false
	for _, d := range chaincode.Compass {
		q := seed.Step(d)
		if !t.grid.Active(q) {
			continue
		}
		if !t.grid.Visited(q) {
			return d, true
		}
		if !found {
			fallback, found = d, true
		}
	}
	return fallback, false
}

// unvisitedAround appends the active unvisited neighbours of p to buf in
// compass order.
func (t *tracer) unvisitedAround(p tilegrid.Pos, buf []tilegrid.Pos) []tilegrid.Pos {
	for _, d := range chaincode.Compass {
		if q := p.Step(d); t.grid.Active(q) && !t.grid.Visited(q) {
			buf = append(buf, q)
		}
	}
	return buf
}

func (t *tracer) isReserved(p tilegrid.Pos) bool {
	for _, q := range t.reserved {
		if q == p {
			return true
		}
	}
	return false
}

// branchAt starts one branch per target from the tile at. A target is
// claimed at once unless the parent stepped into next and the target is
// orthogonally adjacent to it, or the target is reserved for the seed
// chain; those branches are deferred. Branches are queued so that they are
// taken in target order.
func (t *tracer) branchAt(parent *Chain, at tilegrid.Pos, heading chaincode.Direction, next *tilegrid.Pos, targets []tilegrid.Pos) error {
	first := len(t.pending)
	for _, q := range targets {
		b := branch{parent: parent.ID, from: at, to: q, heading: heading}
		if !t.isReserved(q) && (next == nil || !orthogonal(q, *next)) {
			c, err := t.start(b)
			if err != nil {
				return err
			}
			b.chain = c
		}
		t.pending = append(t.pending, b)
	}
	for i, j := first, len(t.pending)-1; i < j; i, j = i+1, j-1 {
		t.pending[i], t.pending[j] = t.pending[j], t.pending[i]
	}
	return nil
}

// start creates the chain of b and takes its first step.
func (t *tracer) start(b branch) (*Chain, error) {
	c, err := t.newChain(b.parent)
	if err != nil {
		return nil, err
	}
	c.Tiles = append(c.Tiles, b.from)
	if err := t.step(c, b.from, b.heading, b.to); err != nil {
		return nil, err
	}
	return c, nil
}

func (t *tracer) drain() error {
	for len(t.pending) > 0 {
		b := t.pending[len(t.pending)-1]
		t.pending = t.pending[:len(t.pending)-1]

		c := b.chain
		if c == nil {
			if t.grid.Visited(b.to) {
				continue
			}
			var err error
			if c, err = t.start(b); err != nil {
				return err
			}
		}
		from := b.from
		if err := t.run(c, c.Steps[0].Direction, &from); err != nil {
			return err
		}
	}
	return nil
}

// abandon closes every claimed branch left on the work-list after a limit
// was hit.
func (t *tracer) abandon() {
	for _, b := range t.pending {
		if b.chain != nil {
			b.chain.Truncated = true
			t.finish(b.chain)
		}
	}
	t.pending = nil
}

// run extends c from its last tile until it terminates. prev is the tile the
// chain arrived from, or nil for a seed without unvisited neighbours.
func (t *tracer) run(c *Chain, heading chaincode.Direction, prev *tilegrid.Pos) error {
	var unvisitedBuf, visitedBuf, branchBuf [chaincode.NumDirections]tilegrid.Pos
	cur := c.End()

	for {
		unvisited, visited := unvisitedBuf[:0], visitedBuf[:0]
		for _, d := range chaincode.Compass {
			q := cur.Step(d)
			if !t.grid.Active(q) || (prev != nil && q == *prev) {
				continue
			}
			if t.grid.Visited(q) {
				visited = append(visited, q)
			} else {
				unvisited = append(unvisited, q)
			}
		}

		if len(unvisited) == 0 {
			if len(visited) > 0 {
				t.closeOnVisited(c, cur, heading, visited)
			}
			t.finish(c)
			return nil
		}

		next := unvisited[0]
		if len(unvisited) > 1 {
			next = minimalTurn(cur, heading, unvisited)
			others := branchBuf[:0]
			for _, q := range unvisited {
				if q != next {
					others = append(others, q)
				}
			}
			if err := t.branchAt(c, cur, heading, &next, others); err != nil {
				c.Truncated = true
				t.finish(c)
				return err
			}
		}

		if err := t.step(c, cur, heading, next); err != nil {
			return err
		}
		from := cur
		prev = &from
		heading = c.Steps[len(c.Steps)-1].Direction
		cur = next
	}
}

// step appends next to c and claims it. It fails with ErrLimitExceeded,
// closing c as truncated, if c already holds MaxChainTiles tiles.
func (t *tracer) step(c *Chain, cur tilegrid.Pos, heading chaincode.Direction, next tilegrid.Pos) error {
	if t.limits.MaxChainTiles > 0 && c.NumTiles() >= t.limits.MaxChainTiles {
		c.Truncated = true
		t.finish(c)
		return ErrLimitExceeded
	}
	appendStep(c, cur, heading, next)
	t.grid.Claim(next, tilegrid.Owner{Chain: c.ID, Index: c.NumTiles() - 1})
	return nil
}

// closeOnVisited terminates c against an already visited neighbour. Only a
// return to a first tile that c owns itself is a loop; a branch coming back
// to its branch tile splices into the parent that owns it.
func (t *tracer) closeOnVisited(c *Chain, cur tilegrid.Pos, heading chaincode.Direction, visited []tilegrid.Pos) {
	seed := c.Seed()
	if o, ok := t.grid.Tile(seed).Owner(); ok && o.Chain == c.ID && o.Index == 0 {
		for _, q := range visited {
			if q == seed {
				appendStep(c, cur, heading, seed)
				c.Loop = true
				return
			}
		}
	}

	target := minimalTurn(cur, heading, visited)
	appendStep(c, cur, heading, target)
	c.Spliced = true
	if o, ok := t.grid.Tile(target).Owner(); ok {
		c.SplicedInto = &o
	}
}

func (t *tracer) finish(c *Chain) {
	for _, p := range c.Tiles {
		if t.grid.OnBorder(p) {
			c.TouchesBorder = true
			return
		}
	}
}

// appendStep records the move from cur to its neighbour next.
func appendStep(c *Chain, cur tilegrid.Pos, heading chaincode.Direction, next tilegrid.Pos) {
	d, _ := cur.DirectionTo(next)
	c.Steps = append(c.Steps, Step{
		Turn:      chaincode.Turn(heading, d),
		Direction: d,
		Distance:  d.Distance(),
	})
	c.Tiles = append(c.Tiles, next)
}

// minimalTurn picks the candidate reached with the smallest turn magnitude
// from heading. Candidates are in compass order, so the first one wins ties.
func minimalTurn(cur tilegrid.Pos, heading chaincode.Direction, candidates []tilegrid.Pos) tilegrid.Pos {
	best := candidates[0]
	bestTurn := 181
	for _, q := range candidates {
		d, _ := cur.DirectionTo(q)
		if m := chaincode.Turn(heading, d).Magnitude(); m < bestTurn {
			best, bestTurn = q, m
		}
	}
	return best
}

// orthogonal reports whether a and b share an edge.
func orthogonal(a, b tilegrid.Pos) bool {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	return dr*dr+dc*dc == 1
}
