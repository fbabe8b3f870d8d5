package dirty

import "math/bits"

// PassSet is a set of state indices.
type PassSet []uint64

// Add adds index i.
func (s *PassSet) Add(i int) {
	w := i / 64
	for len(*s) <= w {
		*s = append(*s, 0)
	}
	(*s)[w] |= 1 << (uint(i) % 64)
}

// Has reports whether i is in the set.
func (s PassSet) Has(i int) bool {
	w := i / 64
	return w < len(s) && s[w]&(1<<(uint(i)%64)) != 0
}

// Union adds every index of o.
func (s *PassSet) Union(o PassSet) {
	for len(*s) < len(o) {
		*s = append(*s, 0)
	}
	for i, w := range o {
		(*s)[i] |= w
	}
}

// Len returns the number of indices in the set.
func (s PassSet) Len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// Each calls fn for every index in ascending order.
func (s PassSet) Each(fn func(int)) {
	for wi, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(wi*64 + b)
			w &^= 1 << uint(b)
		}
	}
}
