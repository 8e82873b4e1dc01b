package diag

// Ranger wraps the Range method.
type Ranger interface {
	// Range returns the range associated with the value.
	Range() Ranging
}

// Ranging represents a range [From, To) of byte offsets within a line. Structs
// can embed Ranging to satisfy the [Ranger] interface.
type Ranging struct {
	From int
	To   int
}

// Range returns the Ranging itself.
func (r Ranging) Range() Ranging { return r }

// Len returns the number of bytes covered by the range.
func (r Ranging) Len() int { return r.To - r.From }

// Shift returns the range moved by n bytes.
func (r Ranging) Shift(n int) Ranging { return Ranging{r.From + n, r.To + n} }

// Contains reports whether p lies within the range. The end position is
// included, since a cursor right after a word is still on that word.
func (r Ranging) Contains(p int) bool { return r.From <= p && p <= r.To }

// PointRanging returns a zero-width Ranging at the given point.
func PointRanging(p int) Ranging {
	return Ranging{p, p}
}

// MixedRanging returns a Ranging from the start position of a to the end
// position of b.
func MixedRanging(a, b Ranger) Ranging {
	return Ranging{a.Range().From, b.Range().To}
}
