package rope

import "slices"

// Compare orders ropes lexicographically by unit; a proper prefix sorts
// first. Both operands are materialized.
func (r *Rope[U]) Compare(other *Rope[U]) int {
	if r == other {
		return 0
	}
	return slices.Compare(r.Units(), other.Units())
}

// Equal reports whether r and other hold the same units.
func (r *Rope[U]) Equal(other *Rope[U]) bool {
	if r == other {
		return true
	}
	if r.Len() != other.Len() {
		return false
	}
	return slices.Equal(r.Units(), other.Units())
}

func (r *Rope[U]) Less(other *Rope[U]) bool         { return r.Compare(other) < 0 }
func (r *Rope[U]) LessEqual(other *Rope[U]) bool    { return r.Compare(other) <= 0 }
func (r *Rope[U]) Greater(other *Rope[U]) bool      { return r.Compare(other) > 0 }
func (r *Rope[U]) GreaterEqual(other *Rope[U]) bool { return r.Compare(other) >= 0 }
