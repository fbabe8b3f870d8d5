// Package component is a sparse, typed per-node store.
//
// Every Go type stored gets its own table keyed by tree.NodeID. Access to a
// table goes through a borrow: any number of shared Views, or exactly one
// exclusive ViewMut. Borrows never block; a conflicting borrow fails with
// ErrBorrowConflict, which callers treat as a contract violation.
package component

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"

	"github.com/vango-dev/realdom/pkg/tree"
)

// ErrBorrowConflict is returned when a shared borrow meets an exclusive one,
// or an exclusive borrow meets any other.
var ErrBorrowConflict = errors.New("component: borrow conflict")

// token is a reader count, or -1 while exclusively borrowed.
type token struct {
	state atomic.Int32
}

func (t *token) acquireShared() bool {
	for {
		s := t.state.Load()
		if s < 0 {
			return false
		}
		if t.state.CompareAndSwap(s, s+1) {
			return true
		}
	}
}

func (t *token) releaseShared() {
	if t.state.Add(-1) < 0 {
		panic(errors.AssertionFailedf("component: shared release without borrow"))
	}
}

func (t *token) acquireExclusive() bool {
	return t.state.CompareAndSwap(0, -1)
}

func (t *token) releaseExclusive() {
	if !t.state.CompareAndSwap(-1, 0) {
		panic(errors.AssertionFailedf("component: exclusive release without borrow"))
	}
}

// table is the type-erased face of a Table.
type table interface {
	name() string
	token() *token
	has(id tree.NodeID) bool
	remove(id tree.NodeID)
	size() int
}

// Table holds the components of one type.
type Table[T any] struct {
	tok  token
	rows swiss.Map[tree.NodeID, T]
	typ  string
}

func newTable[T any]() *Table[T] {
	t := &Table[T]{typ: reflect.TypeFor[T]().String()}
	t.rows.Init(16)
	return t
}

func (t *Table[T]) name() string { return t.typ }
func (t *Table[T]) token() *token { return &t.tok }
func (t *Table[T]) has(id tree.NodeID) bool { _, ok := t.rows.Get(id); return ok }
func (t *Table[T]) remove(id tree.NodeID) { t.rows.Delete(id) }
func (t *Table[T]) size() int { return t.rows.Len() }

// Store owns one Table per component type.
type Store struct {
	mu     sync.RWMutex
	tables map[reflect.Type]table
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[reflect.Type]table)}
}

// tableFor returns the table for T, creating it on first use.
func tableFor[T any](s *Store) *Table[T] {
	rt := reflect.TypeFor[T]()
	s.mu.RLock()
	t, ok := s.tables[rt]
	s.mu.RUnlock()
	if ok {
		return t.(*Table[T])
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[rt]; ok {
		return t.(*Table[T])
	}
	nt := newTable[T]()
	s.tables[rt] = nt
	return nt
}

// Ensure creates the table for T if it does not exist yet.
func Ensure[T any](s *Store) {
	tableFor[T](s)
}

// Reader is satisfied by both View and ViewMut.
type Reader[T any] interface {
	Get(id tree.NodeID) (T, bool)
	Contains(id tree.NodeID) bool
}

// View is a shared borrow of a Table.
type View[T any] struct {
	t        *Table[T]
	released atomic.Bool
}

// Get returns the component of id.
func (v *View[T]) Get(id tree.NodeID) (T, bool) { return v.t.rows.Get(id) }

// Contains reports whether id has a component.
func (v *View[T]) Contains(id tree.NodeID) bool { return v.t.has(id) }

// Len returns the number of components in the table.
func (v *View[T]) Len() int { return v.t.size() }

// Release ends the borrow. Releasing twice is a no-op.
func (v *View[T]) Release() {
	if v.released.CompareAndSwap(false, true) {
		v.t.tok.releaseShared()
	}
}

// ViewMut is an exclusive borrow of a Table.
type ViewMut[T any] struct {
	t        *Table[T]
	released bool
}

// Get returns the component of id.
func (v *ViewMut[T]) Get(id tree.NodeID) (T, bool) { return v.t.rows.Get(id) }

// Contains reports whether id has a component.
func (v *ViewMut[T]) Contains(id tree.NodeID) bool { return v.t.has(id) }

// Put stores the component of id.
func (v *ViewMut[T]) Put(id tree.NodeID, value T) { v.t.rows.Put(id, value) }

// Delete removes the component of id.
func (v *ViewMut[T]) Delete(id tree.NodeID) { v.t.rows.Delete(id) }

// Len returns the number of components in the table.
func (v *ViewMut[T]) Len() int { return v.t.size() }

// Release ends the borrow. Releasing twice is a no-op.
func (v *ViewMut[T]) Release() {
	if !v.released {
		v.released = true
		v.t.tok.releaseExclusive()
	}
}

// Borrow takes a shared borrow of the T table.
func Borrow[T any](s *Store) (*View[T], error) {
	t := tableFor[T](s)
	if !t.tok.acquireShared() {
		return nil, errors.Wrapf(ErrBorrowConflict, "shared borrow of %s", t.typ)
	}
	return &View[T]{t: t}, nil
}

// BorrowMut takes an exclusive borrow of the T table.
func BorrowMut[T any](s *Store) (*ViewMut[T], error) {
	t := tableFor[T](s)
	if !t.tok.acquireExclusive() {
		return nil, errors.Wrapf(ErrBorrowConflict, "exclusive borrow of %s", t.typ)
	}
	return &ViewMut[T]{t: t}, nil
}

func mustBorrow[T any](s *Store) *View[T] {
	v, err := Borrow[T](s)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "component: access during conflicting borrow"))
	}
	return v
}

func mustBorrowMut[T any](s *Store) *ViewMut[T] {
	v, err := BorrowMut[T](s)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "component: access during conflicting borrow"))
	}
	return v
}

// Insert stores value as the T component of id.
func Insert[T any](s *Store, id tree.NodeID, value T) {
	v := mustBorrowMut[T](s)
	defer v.Release()
	v.Put(id, value)
}

// Get returns the T component of id. A missing component is reported as
// absent, never as an error.
func Get[T any](s *Store, id tree.NodeID) (T, bool) {
	v := mustBorrow[T](s)
	defer v.Release()
	return v.Get(id)
}

// Has reports whether id has a T component.
func Has[T any](s *Store, id tree.NodeID) bool {
	_, ok := Get[T](s, id)
	return ok
}

// Modify applies fn to the T component of id in place. It reports false,
// without calling fn, if id has no T component.
func Modify[T any](s *Store, id tree.NodeID, fn func(*T)) bool {
	v := mustBorrowMut[T](s)
	defer v.Release()
	cur, ok := v.Get(id)
	if !ok {
		return false
	}
	fn(&cur)
	v.Put(id, cur)
	return true
}

// Remove deletes the T component of id.
func Remove[T any](s *Store, id tree.NodeID) {
	v := mustBorrowMut[T](s)
	defer v.Release()
	v.Delete(id)
}

// RemoveEntity deletes every component of id.
func (s *Store) RemoveEntity(id tree.NodeID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tables {
		tok := t.token()
		if !tok.acquireExclusive() {
			panic(errors.AssertionFailedf("component: removing %d while %s is borrowed", id, t.name()))
		}
		t.remove(id)
		tok.releaseExclusive()
	}
}

// TypesOf returns the names of the component types id has, sorted.
func (s *Store) TypesOf(id tree.NodeID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, t := range s.tables {
		if t.has(id) {
			names = append(names, t.name())
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of T components.
func Len[T any](s *Store) int {
	return tableFor[T](s).size()
}
