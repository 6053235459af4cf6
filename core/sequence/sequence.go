// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package sequence provides reactive ordered sequences of cells.
//
// Every structural mutation builds a new element list, records a Diff
// describing it and dispatches exactly one Delegate to the sequence's
// listeners. Sequences have a single implicit channel.
package sequence

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

var logger = loggo.GetLogger("cells.sequence")

// ErrIndexOutOfRange is returned when an index or range does not fit
// the sequence.
const ErrIndexOutOfRange = errors.ConstError("index out of range")

// Sequence is a reactive ordered list of cells.
type Sequence[T any] struct {
	cells     []*cell.Cell[T]
	tag       change.TypeTag
	nullable  bool
	mutable   bool
	equal     change.Equality[T]
	opts      []Option
	cellOpts  []cell.Option
	logger    cell.Logger
	lineage   uuid.UUID
	number    uint64
	last      Diff
	listeners *registry.Registry[Delegate[T]]
}

// Of returns a mutable sequence of the given items, none of which may be
// absent.
func Of[T any](items []T, opts ...Option) (*Sequence[T], error) {
	return newSequence(items, false, true, opts)
}

// OfNullable returns a mutable sequence whose elements may be absent.
func OfNullable[T any](items []T, opts ...Option) (*Sequence[T], error) {
	return newSequence(items, true, true, opts)
}

// Immutable returns a sequence which cannot be modified. It can still
// fire NoChange notifications.
func Immutable[T any](items []T, opts ...Option) (*Sequence[T], error) {
	return newSequence(items, false, false, opts)
}

// Empty returns an empty mutable sequence.
func Empty[T any](opts ...Option) (*Sequence[T], error) {
	return newSequence[T](nil, false, true, opts)
}

// OfCells returns a mutable sequence holding the given cells, which must
// all share the same nullability.
func OfCells[T any](cells []*cell.Cell[T], opts ...Option) (*Sequence[T], error) {
	nullable := len(cells) > 0 && cells[0].AllowsNull()
	s, err := newEmpty[T](nullable, true, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, c := range cells {
		if err := s.checkCell(c); err != nil {
			return nil, errors.Trace(err)
		}
	}
	s.cells = slices.Clone(cells)
	return s, nil
}

// Must panics if err is not nil and returns s otherwise.
func Must[T any](s *Sequence[T], err error) *Sequence[T] {
	if err != nil {
		panic(err)
	}
	return s
}

func newSequence[T any](items []T, nullable, mutable bool, opts []Option) (*Sequence[T], error) {
	s, err := newEmpty[T](nullable, mutable, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if s.cells, err = s.newCells(itemsOf(items)); err != nil {
		return nil, errors.Trace(err)
	}
	return s, nil
}

func newEmpty[T any](nullable, mutable bool, opts []Option) (*Sequence[T], error) {
	cfg := config{
		logger: logger,
		arena:  owner.Default,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Sequence[T]{
		nullable: nullable,
		mutable:  mutable,
		opts:     opts,
		logger:   cfg.logger,
		lineage:  uuid.New(),
		cells:    []*cell.Cell[T]{},
	}
	declared := change.TypeOf[T]()
	s.tag = declared
	if !cfg.tag.IsZero() {
		if !cfg.tag.AssignableTo(declared) {
			return nil, errors.NotValidf("type %s for sequence of %s", cfg.tag, declared)
		}
		s.tag = cfg.tag
		s.cellOpts = append(s.cellOpts, cell.WithType(cfg.tag))
	}
	s.equal = change.EqualityFor[T]()
	if cfg.equal != nil {
		equal, ok := cfg.equal.(change.Equality[T])
		if !ok {
			return nil, errors.NotValidf("equality %T for sequence of %s", cfg.equal, declared)
		}
		s.equal = equal
		s.cellOpts = append(s.cellOpts, cell.WithEquality(equal))
	}
	s.cellOpts = append(s.cellOpts, cell.WithLogger(cfg.logger), cell.WithArena(cfg.arena))
	s.listeners = registry.New[Delegate[T]](registry.Config{
		Logger:    cfg.logger,
		Recorder:  cfg.recorder,
		Executor:  cfg.executor,
		Arena:     cfg.arena,
		Component: "sequence",
	})
	return s, nil
}

func itemsOf[T any](values []T) []change.Item[T] {
	items := make([]change.Item[T], len(values))
	for i, v := range values {
		items[i] = change.ItemOf(v)
	}
	return items
}

func (s *Sequence[T]) newCell(item change.Item[T]) (*cell.Cell[T], error) {
	switch {
	case s.nullable && !s.mutable:
		return cell.ImmutableNullable(item, s.cellOpts...)
	case s.nullable:
		c, err := cell.Empty[T](s.cellOpts...)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if item.IsPresent() {
			err = c.SetItem(channel.All, item)
		}
		return c, errors.Trace(err)
	case s.mutable:
		return cell.New(item.Value(), s.cellOpts...)
	default:
		return cell.Immutable(item.Value(), s.cellOpts...)
	}
}

func (s *Sequence[T]) newCells(items []change.Item[T]) ([]*cell.Cell[T], error) {
	cells := make([]*cell.Cell[T], len(items))
	for i, item := range items {
		c, err := s.newCell(item)
		if err != nil {
			return nil, errors.Annotatef(err, "element %d", i)
		}
		cells[i] = c
	}
	return cells, nil
}

func (s *Sequence[T]) checkCell(c *cell.Cell[T]) error {
	if c.AllowsNull() != s.nullable {
		return errors.NotValidf("cell nullability %v in sequence with nullability %v", c.AllowsNull(), s.nullable)
	}
	if v, ok := c.Item().Get(); ok && !s.tag.Accepts(v) {
		return errors.Annotatef(cell.ErrTypeMismatch, "sequence of %s given %T", s.tag, v)
	}
	return nil
}

func (s *Sequence[T]) checkMutable() error {
	if !s.mutable {
		return errors.NotSupportedf("modifying immutable sequence")
	}
	return nil
}

func (s *Sequence[T]) checkRange(from, to int) error {
	if from < 0 || to < from || to > len(s.cells) {
		return errors.Annotatef(ErrIndexOutOfRange, "range [%d, %d) of sequence of length %d", from, to, len(s.cells))
	}
	return nil
}

func (s *Sequence[T]) itemEqual(a, b change.Item[T]) bool {
	return change.Classify(a, b, s.equal) == change.NoChange
}

// commit installs next, unless d records no change, and dispatches the
// delegate describing the mutation.
func (s *Sequence[T]) commit(next []*cell.Cell[T], d Diff, removed, added []*cell.Cell[T]) {
	if d.kind != NoChange {
		s.cells = next
	}
	s.number++
	d.version = Version{lineage: s.lineage, number: s.number}
	s.last = d
	result := s.cells
	s.listeners.Dispatch(channel.All, func() Delegate[T] {
		return Delegate[T]{
			diff:    d,
			removed: snapshotOf(removed),
			added:   snapshotOf(added),
			result:  snapshotOf(result),
		}
	})
}

func (s *Sequence[T]) insert(at int, cells []*cell.Cell[T]) {
	next := slices.Concat(s.cells[:at], cells, s.cells[at:])
	s.commit(next, rangeDiff(Add, at, len(cells)), nil, cells)
}

func (s *Sequence[T]) cut(from, to int) []*cell.Cell[T] {
	removed := slices.Clone(s.cells[from:to])
	next := slices.Concat(s.cells[:from], s.cells[to:])
	s.commit(next, rangeDiff(Remove, from, to-from), removed, nil)
	return removed
}

func (s *Sequence[T]) replace(start int, cells []*cell.Cell[T]) {
	old := slices.Clone(s.cells[start : start+len(cells)])
	next := slices.Clone(s.cells)
	copy(next[start:], cells)
	s.commit(next, rangeDiff(Set, start, len(cells)), old, cells)
}

func (s *Sequence[T]) filter(kind Kind, drop func(*cell.Cell[T]) bool) []*cell.Cell[T] {
	var (
		r       run
		kept    = make([]*cell.Cell[T], 0, len(s.cells))
		removed []*cell.Cell[T]
	)
	for i, c := range s.cells {
		if drop(c) {
			r.add(i)
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	s.commit(kept, r.diff(kind), removed, nil)
	return removed
}

func (s *Sequence[T]) rebuild(kind Kind, size int, next []*cell.Cell[T], removed, added []*cell.Cell[T]) {
	s.commit(next, wholeDiff(kind, size), removed, added)
}

func (s *Sequence[T]) derive(cells []*cell.Cell[T]) (*Sequence[T], error) {
	out, err := newEmpty[T](s.nullable, true, s.opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	out.cells = cells
	return out, nil
}

// Add appends items.
func (s *Sequence[T]) Add(items ...T) error {
	return s.AddAt(len(s.cells), items...)
}

// AddAll appends every item of items.
func (s *Sequence[T]) AddAll(items []T) error {
	return s.AddAt(len(s.cells), items...)
}

// AddAt inserts items before index at. An index equal to the length
// appends.
func (s *Sequence[T]) AddAt(at int, items ...T) error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	if err := s.checkRange(at, at); err != nil {
		return errors.Trace(err)
	}
	cells, err := s.newCells(itemsOf(items))
	if err != nil {
		return errors.Trace(err)
	}
	s.insert(at, cells)
	return nil
}

// AddCell appends an existing cell. Its nullability must match the
// sequence.
func (s *Sequence[T]) AddCell(c *cell.Cell[T]) error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	if err := s.checkCell(c); err != nil {
		return errors.Trace(err)
	}
	s.insert(len(s.cells), []*cell.Cell[T]{c})
	return nil
}

// SetAt replaces the element at index i with a new cell holding item.
func (s *Sequence[T]) SetAt(i int, item T) error {
	if err := s.checkRange(i, i+1); err != nil {
		return errors.Trace(err)
	}
	return s.SetRange(i, item)
}

// SetRange replaces the elements starting at index start with new cells
// holding items.
func (s *Sequence[T]) SetRange(start int, items ...T) error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	if err := s.checkRange(start, start+len(items)); err != nil {
		return errors.Trace(err)
	}
	cells, err := s.newCells(itemsOf(items))
	if err != nil {
		return errors.Trace(err)
	}
	s.replace(start, cells)
	return nil
}

// RemoveAt removes the element at index i.
func (s *Sequence[T]) RemoveAt(i int) error {
	if err := s.checkRange(i, i+1); err != nil {
		return errors.Trace(err)
	}
	return s.RemoveRange(i, i+1)
}

// RemoveRange removes the elements in [from, to).
func (s *Sequence[T]) RemoveRange(from, to int) error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	if err := s.checkRange(from, to); err != nil {
		return errors.Trace(err)
	}
	s.cut(from, to)
	return nil
}

// PopRange removes the elements in [from, to) and returns them as a new
// sequence.
func (s *Sequence[T]) PopRange(from, to int) (*Sequence[T], error) {
	if err := s.checkMutable(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := s.checkRange(from, to); err != nil {
		return nil, errors.Trace(err)
	}
	return s.derive(s.cut(from, to))
}

// RemoveFirst removes the first n elements.
func (s *Sequence[T]) RemoveFirst(n int) error {
	return s.RemoveRange(0, n)
}

// RemoveLast removes the last n elements.
func (s *Sequence[T]) RemoveLast(n int) error {
	if n < 0 {
		return errors.Annotatef(ErrIndexOutOfRange, "removing last %d elements", n)
	}
	return s.RemoveRange(len(s.cells)-n, len(s.cells))
}

// Remove removes the first element equal to item. It reports whether one
// was found.
func (s *Sequence[T]) Remove(item T) (bool, error) {
	if err := s.checkMutable(); err != nil {
		return false, errors.Trace(err)
	}
	i := s.IndexOf(item)
	if i < 0 {
		s.commit(s.cells, Diff{kind: NoChange}, nil, nil)
		return false, nil
	}
	s.cut(i, i+1)
	return true, nil
}

// RemoveIf removes every present element matching pred and returns how
// many were removed.
func (s *Sequence[T]) RemoveIf(pred func(T) bool) (int, error) {
	return s.RemoveIfItem(presentMatching(pred))
}

// RemoveIfItem removes every element whose item matches pred, absent
// items included.
func (s *Sequence[T]) RemoveIfItem(pred func(change.Item[T]) bool) (int, error) {
	removed, err := s.popIf(Remove, pred)
	return len(removed), errors.Trace(err)
}

// PopIf removes every present element matching pred and returns them as
// a new sequence.
func (s *Sequence[T]) PopIf(pred func(T) bool) (*Sequence[T], error) {
	removed, err := s.popIf(Remove, presentMatching(pred))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.derive(removed)
}

// RemoveAll removes every element equal to one of items and returns how
// many were removed.
func (s *Sequence[T]) RemoveAll(items ...T) (int, error) {
	removed, err := s.popIf(Remove, s.memberOf(items))
	return len(removed), errors.Trace(err)
}

// RetainIf removes every element not matching pred and returns how many
// were removed. Absent elements are removed.
func (s *Sequence[T]) RetainIf(pred func(T) bool) (int, error) {
	keep := presentMatching(pred)
	removed, err := s.popIf(Retain, func(item change.Item[T]) bool {
		return !keep(item)
	})
	return len(removed), errors.Trace(err)
}

// RetainAll removes every element not equal to one of items and returns
// how many were removed.
func (s *Sequence[T]) RetainAll(items ...T) (int, error) {
	keep := s.memberOf(items)
	removed, err := s.popIf(Retain, func(item change.Item[T]) bool {
		return !keep(item)
	})
	return len(removed), errors.Trace(err)
}

func (s *Sequence[T]) popIf(kind Kind, pred func(change.Item[T]) bool) ([]*cell.Cell[T], error) {
	if err := s.checkMutable(); err != nil {
		return nil, errors.Trace(err)
	}
	return s.filter(kind, func(c *cell.Cell[T]) bool {
		return pred(c.Item())
	}), nil
}

func presentMatching[T any](pred func(T) bool) func(change.Item[T]) bool {
	return func(item change.Item[T]) bool {
		v, ok := item.Get()
		return ok && pred(v)
	}
}

func (s *Sequence[T]) memberOf(values []T) func(change.Item[T]) bool {
	items := itemsOf(values)
	return func(item change.Item[T]) bool {
		return slices.ContainsFunc(items, func(other change.Item[T]) bool {
			return s.itemEqual(item, other)
		})
	}
}

// Clear removes every element.
func (s *Sequence[T]) Clear() error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	d := Diff{kind: Clear, size: len(s.cells)}
	if len(s.cells) > 0 {
		d.hasStart = true
	}
	s.commit([]*cell.Cell[T]{}, d, s.cells, nil)
	return nil
}

// Sort orders the elements by cmp, keeping the order of equal elements.
// Absent elements sort first.
func (s *Sequence[T]) Sort(cmp func(a, b T) int) error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	if len(s.cells) <= 1 {
		s.commit(s.cells, Diff{kind: NoChange}, nil, nil)
		return nil
	}
	next := slices.Clone(s.cells)
	slices.SortStableFunc(next, func(a, b *cell.Cell[T]) int {
		av, aok := a.Item().Get()
		bv, bok := b.Item().Get()
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return -1
		case !bok:
			return 1
		}
		return cmp(av, bv)
	})
	s.rebuild(Sort, len(next), next, nil, nil)
	return nil
}

// Distinct removes every element equal to an earlier one and returns
// how many were removed.
func (s *Sequence[T]) Distinct() (int, error) {
	if err := s.checkMutable(); err != nil {
		return 0, errors.Trace(err)
	}
	if len(s.cells) <= 1 {
		s.commit(s.cells, Diff{kind: NoChange}, nil, nil)
		return 0, nil
	}
	var kept, removed []*cell.Cell[T]
	for _, c := range s.cells {
		dup := slices.ContainsFunc(kept, func(k *cell.Cell[T]) bool {
			return s.itemEqual(k.Item(), c.Item())
		})
		if dup {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	s.rebuild(Distinct, len(removed), kept, removed, nil)
	return len(removed), nil
}

// Reverse reverses the order of the elements.
func (s *Sequence[T]) Reverse() error {
	if err := s.checkMutable(); err != nil {
		return errors.Trace(err)
	}
	if len(s.cells) <= 1 {
		s.commit(s.cells, Diff{kind: NoChange}, nil, nil)
		return nil
	}
	next := slices.Clone(s.cells)
	slices.Reverse(next)
	s.rebuild(Reverse, len(next), next, nil, nil)
	return nil
}

// Fire notifies the listeners with a NoChange diff, whether or not the
// sequence is mutable.
func (s *Sequence[T]) Fire() {
	s.commit(s.cells, Diff{kind: NoChange}, nil, nil)
}

// Len returns the number of elements.
func (s *Sequence[T]) Len() int {
	return len(s.cells)
}

// IsEmpty reports whether the sequence has no elements.
func (s *Sequence[T]) IsEmpty() bool {
	return len(s.cells) == 0
}

// At returns the item at index i.
func (s *Sequence[T]) At(i int) (change.Item[T], error) {
	c, err := s.CellAt(i)
	if err != nil {
		return change.None[T](), errors.Trace(err)
	}
	return c.Item(), nil
}

// CellAt returns the cell at index i.
func (s *Sequence[T]) CellAt(i int) (*cell.Cell[T], error) {
	if err := s.checkRange(i, i+1); err != nil {
		return nil, errors.Trace(err)
	}
	return s.cells[i], nil
}

// First returns the first item. It returns a NotFound error if the
// sequence is empty.
func (s *Sequence[T]) First() (change.Item[T], error) {
	if len(s.cells) == 0 {
		return change.None[T](), errors.NotFoundf("first element of empty sequence")
	}
	return s.cells[0].Item(), nil
}

// Last returns the last item. It returns a NotFound error if the
// sequence is empty.
func (s *Sequence[T]) Last() (change.Item[T], error) {
	if len(s.cells) == 0 {
		return change.None[T](), errors.NotFoundf("last element of empty sequence")
	}
	return s.cells[len(s.cells)-1].Item(), nil
}

// IndexOf returns the index of the first element equal to item, or -1.
func (s *Sequence[T]) IndexOf(item T) int {
	target := change.ItemOf(item)
	return slices.IndexFunc(s.cells, func(c *cell.Cell[T]) bool {
		return s.itemEqual(c.Item(), target)
	})
}

// Contains reports whether an element equal to item is present.
func (s *Sequence[T]) Contains(item T) bool {
	return s.IndexOf(item) >= 0
}

// Snapshot returns an immutable copy of the current items.
func (s *Sequence[T]) Snapshot() Snapshot[T] {
	return snapshotOf(s.cells)
}

// Items returns the current items.
func (s *Sequence[T]) Items() []change.Item[T] {
	return s.Snapshot().Items()
}

// Values returns the current values, with the zero value for absent
// items.
func (s *Sequence[T]) Values() []T {
	return s.Snapshot().Values()
}

// Cells returns a copy of the element list.
func (s *Sequence[T]) Cells() []*cell.Cell[T] {
	return slices.Clone(s.cells)
}

// Diff returns the diff of the most recent notification.
func (s *Sequence[T]) Diff() Diff {
	return s.last
}

// Type returns the declared element type.
func (s *Sequence[T]) Type() change.TypeTag {
	return s.tag
}

// AllowsNull reports whether elements may be absent.
func (s *Sequence[T]) AllowsNull() bool {
	return s.nullable
}

// IsMutable reports whether the sequence can be modified.
func (s *Sequence[T]) IsMutable() bool {
	return s.mutable
}

// Arena returns the arena resolving the owners of weak listeners.
func (s *Sequence[T]) Arena() *owner.Arena {
	return s.listeners.Arena()
}

// OnChange registers fn for every mutation.
func (s *Sequence[T]) OnChange(fn func(Delegate[T])) registry.Handle {
	return s.listeners.Add(channel.All, fn)
}

// OnChangeWeak registers fn for every mutation for as long as o is
// tracked in the sequence's arena.
func (s *Sequence[T]) OnChangeWeak(o owner.Handle, fn func(any, Delegate[T])) (registry.Handle, error) {
	h, err := s.listeners.AddOwned(o, channel.All, fn)
	return h, errors.Trace(err)
}

// Subscribe registers fn to be called on every mutation.
func (s *Sequence[T]) Subscribe(fn func()) registry.Handle {
	return s.listeners.Add(channel.All, func(Delegate[T]) {
		fn()
	})
}

// SubscribeWeak registers fn to be called on every mutation for as long
// as o is tracked in the sequence's arena.
func (s *Sequence[T]) SubscribeWeak(o owner.Handle, fn func(any)) (registry.Handle, error) {
	h, err := s.listeners.AddOwned(o, channel.All, func(v any, _ Delegate[T]) {
		fn(v)
	})
	return h, errors.Trace(err)
}

// Unsubscribe removes the listener identified by h.
func (s *Sequence[T]) Unsubscribe(h registry.Handle) bool {
	return s.listeners.Remove(h)
}

// UnsubscribeAll removes every listener.
func (s *Sequence[T]) UnsubscribeAll() {
	s.listeners.RemoveAll()
}

// NumListeners returns the number of registered listeners.
func (s *Sequence[T]) NumListeners() int {
	return s.listeners.Len()
}

func (s *Sequence[T]) String() string {
	return fmt.Sprintf("sequence%s", s.Snapshot())
}
