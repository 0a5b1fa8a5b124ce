package tracer

// DefaultMinLength is the default minimum tile count for an open chain that
// is neither spliced nor touching the grid border.
const DefaultMinLength = 3

// KeepReason explains why a chain survived filtering.
type KeepReason string

// Keep reasons, in the order they are checked.
const (
	KeepNone    KeepReason = ""
	KeepLoop    KeepReason = "loop"
	KeepSpliced KeepReason = "spliced"
	KeepBorder  KeepReason = "border"
	KeepLength  KeepReason = "length"
)

// Classify returns the first rule that keeps c, or KeepNone if c is noise.
func Classify(c *Chain, minLength int) KeepReason {
	switch {
	case c.Loop:
		return KeepLoop
	case c.Spliced:
		return KeepSpliced
	case c.TouchesBorder:
		return KeepBorder
	case c.NumTiles() >= minLength:
		return KeepLength
	default:
		return KeepNone
	}
}

// Keep reports whether c survives filtering.
func Keep(c *Chain, minLength int) bool {
	return Classify(c, minLength) != KeepNone
}

// Filter returns the chains that are loops, spliced, touch the grid border or
// have at least minLength tiles. Order is preserved and the input slice is
// not modified.
func Filter(chains []*Chain, minLength int) []*Chain {
	kept := make([]*Chain, 0, len(chains))
	for _, c := range chains {
		if Keep(c, minLength) {
			kept = append(kept, c)
		}
	}
	return kept
}
