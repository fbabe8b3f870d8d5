package state

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/pkg/component"
	"github.com/vango-dev/realdom/pkg/mask"
	"github.com/vango-dev/realdom/pkg/tree"
)

var (
	// ErrUnknownDependency marks a dependency on a state that is not
	// registered.
	ErrUnknownDependency = errors.New("state: unknown dependency")
	// ErrContract marks panics raised when a state reads a dependency it did
	// not declare, or a declared dependency is missing on a node.
	ErrContract = errors.New("state: contract violation")
)

// TypeID identifies a state type.
type TypeID struct {
	t reflect.Type
}

// TypeOf returns the TypeID of T.
func TypeOf[T any]() TypeID {
	return TypeID{t: reflect.TypeFor[T]()}
}

// IsZero reports whether id is the zero TypeID.
func (id TypeID) IsZero() bool { return id.t == nil }

func (id TypeID) String() string {
	if id.t == nil {
		return "<nil>"
	}
	return id.t.String()
}

// Direction is the order in which a state visits nodes.
type Direction uint8

const (
	// DirectionNone visits nodes in any order.
	DirectionNone Direction = iota
	// ParentToChild visits parents before children.
	ParentToChild
	// ChildToParent visits children before parents.
	ChildToParent
)

func (d Direction) String() string {
	switch d {
	case ParentToChild:
		return "ParentToChild"
	case ChildToParent:
		return "ChildToParent"
	default:
		return "None"
	}
}

// Updater recomputes a state in place and reports whether it changed.
type Updater interface {
	Update(ctx *Context) bool
}

// Initializer is implemented by states that need seeding the first time
// they are computed on a node. Init runs before Update.
type Initializer interface {
	Init(ctx *Context)
}

// Config declares a state.
type Config struct {
	// Name defaults to the Go type name.
	Name string
	// Mask is the part of the node payload the state reads.
	Mask mask.NodeMask
	// ParentDeps are the states read on the parent.
	ParentDeps []TypeID
	// ChildDeps are the states read on the children.
	ChildDeps []TypeID
	// NodeDeps are other states read on the same node.
	NodeDeps []TypeID
	// Direction is derived from self-dependencies when left as
	// DirectionNone. An explicit direction adds the matching
	// self-dependency.
	Direction Direction
	// EnterShadow makes parent and child lookups follow shadow trees.
	EnterShadow bool
}

// Dependant is a state to invalidate when another state changes.
type Dependant struct {
	ID          TypeID
	Index       int
	EnterShadow bool
}

// Dependants lists what to invalidate when a state changes on a node: on
// its parent, on its children, and on the node itself.
type Dependants struct {
	Parent []Dependant
	Child  []Dependant
	Node   []Dependant
}

func (d Dependants) clone() Dependants {
	return Dependants{
		Parent: slices.Clone(d.Parent),
		Child:  slices.Clone(d.Child),
		Node:   slices.Clone(d.Node),
	}
}

// Descriptor is a registered state. It is immutable once resolved.
type Descriptor struct {
	id          TypeID
	name        string
	mask        mask.NodeMask
	parentDeps  []TypeID
	childDeps   []TypeID
	nodeDeps    []TypeID
	direction   Direction
	enterShadow bool

	index      int
	dependants Dependants
	err        error
	ops        ops
}

// ops are the type-specific halves of a Descriptor.
type ops struct {
	// borrow takes a shared borrow of the state's table.
	borrow func(*component.Store) (any, func(), error)
	// begin takes an exclusive borrow of the state's table and returns a
	// reader over it plus the per-node compute function.
	begin func(*component.Store) (any, func(*Context) bool, func(), error)
	// format renders the state of one node.
	format func(*component.Store, tree.NodeID) (string, bool)
}

// Register declares state T.
func Register[T any, PT interface {
	*T
	Updater
}](cfg Config) *Descriptor {
	self := TypeOf[T]()
	d := &Descriptor{
		id:          self,
		name:        cfg.Name,
		mask:        cfg.Mask,
		parentDeps:  slices.Clone(cfg.ParentDeps),
		childDeps:   slices.Clone(cfg.ChildDeps),
		nodeDeps:    slices.Clone(cfg.NodeDeps),
		direction:   cfg.Direction,
		enterShadow: cfg.EnterShadow,
		index:       -1,
	}
	if d.name == "" {
		d.name = self.String()
	}

	selfParent := slices.Contains(d.parentDeps, self)
	selfChild := slices.Contains(d.childDeps, self)
	switch {
	case selfParent && selfChild,
		d.direction == ParentToChild && selfChild,
		d.direction == ChildToParent && selfParent:
		d.err = rderrors.New("E004").
			WithSubjects(d.name).
			WithDetailf("%s reads its own value on both its parent and its children", d.name).
			WithSuggestion("Split the state in two, one per direction")
	case selfParent:
		d.direction = ParentToChild
	case selfChild:
		d.direction = ChildToParent
	case d.direction == ParentToChild:
		d.parentDeps = append(d.parentDeps, self)
	case d.direction == ChildToParent:
		d.childDeps = append(d.childDeps, self)
	}

	d.ops = ops{
		borrow: func(s *component.Store) (any, func(), error) {
			v, err := component.Borrow[T](s)
			if err != nil {
				return nil, nil, err
			}
			return component.Reader[T](v), v.Release, nil
		},
		begin: func(s *component.Store) (any, func(*Context) bool, func(), error) {
			v, err := component.BorrowMut[T](s)
			if err != nil {
				return nil, nil, nil, err
			}
			compute := func(ctx *Context) bool {
				cur, existed := v.Get(ctx.id)
				ctx.isNew = !existed
				p := PT(&cur)
				if !existed {
					if in, ok := any(p).(Initializer); ok {
						in.Init(ctx)
					}
				}
				changed := p.Update(ctx)
				v.Put(ctx.id, cur)
				return changed || !existed
			}
			return component.Reader[T](v), compute, v.Release, nil
		},
		format: func(s *component.Store, id tree.NodeID) (string, bool) {
			v, ok := component.Get[T](s, id)
			if !ok {
				return "", false
			}
			return fmt.Sprintf("%+v", v), true
		},
	}
	return d
}

// ID returns the state type.
func (d *Descriptor) ID() TypeID { return d.id }

// Name returns the state name.
func (d *Descriptor) Name() string { return d.name }

// Mask returns the part of the payload the state reads.
func (d *Descriptor) Mask() mask.NodeMask { return d.mask }

// Direction returns the traversal direction.
func (d *Descriptor) Direction() Direction { return d.direction }

// EnterShadow reports whether parent and child lookups follow shadow trees.
func (d *Descriptor) EnterShadow() bool { return d.enterShadow }

// Index is the position of the state in its Registry, or -1 if unresolved.
func (d *Descriptor) Index() int { return d.index }

// ParentDeps returns the states read on the parent, self included.
func (d *Descriptor) ParentDeps() []TypeID { return slices.Clone(d.parentDeps) }

// ChildDeps returns the states read on the children, self included.
func (d *Descriptor) ChildDeps() []TypeID { return slices.Clone(d.childDeps) }

// NodeDeps returns the other states read on the same node.
func (d *Descriptor) NodeDeps() []TypeID { return slices.Clone(d.nodeDeps) }

// Format renders the value of the state on id. It must not be called while
// an update cycle runs.
func (d *Descriptor) Format(s *component.Store, id tree.NodeID) (string, bool) {
	return d.ops.format(s, id)
}

// Dependants returns the invalidation edges leaving this state.
func (d *Descriptor) Dependants() Dependants { return d.dependants.clone() }

// dependsOn returns every state d reads, other than itself, without
// duplicates.
func (d *Descriptor) dependsOn() []TypeID {
	var out []TypeID
	for _, deps := range [][]TypeID{d.parentDeps, d.childDeps, d.nodeDeps} {
		for _, id := range deps {
			if id != d.id && !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	return out
}

func (d *Descriptor) clone() *Descriptor {
	c := *d
	c.parentDeps = slices.Clone(d.parentDeps)
	c.childDeps = slices.Clone(d.childDeps)
	c.nodeDeps = slices.Clone(d.nodeDeps)
	c.dependants = Dependants{}
	c.index = -1
	return &c
}
