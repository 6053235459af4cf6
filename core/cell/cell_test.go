// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cell_test

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
)

type cellSuite struct {
	testing.IsolationSuite

	arena *owner.Arena
}

var _ = gc.Suite(&cellSuite{})

func (s *cellSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.arena = owner.NewArena()
}

func (s *cellSuite) TestSetClassifiesChange(c *gc.C) {
	v, err := cell.New(5, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	var kinds []change.Kind
	v.OnChange(channel.ViewModel, func(d cell.Delegate[int]) {
		kinds = append(kinds, d.Change())
	})

	c.Assert(v.Set(channel.ViewModel, 5), jc.ErrorIsNil)
	c.Check(kinds, gc.HasLen, 0)

	v.Fire(channel.ViewModel)
	c.Check(kinds, jc.DeepEquals, []change.Kind{change.NoChange})

	c.Assert(v.Set(channel.ViewModel, 7), jc.ErrorIsNil)
	c.Check(kinds, jc.DeepEquals, []change.Kind{change.NoChange, change.ValueChanged})
	c.Check(v.OrZero(), gc.Equals, 7)
}

func (s *cellSuite) TestDelegate(c *gc.C) {
	v, err := cell.NewNullable("a", cell.WithID("name"), cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	var got cell.Delegate[string]
	v.OnChange(channel.All, func(d cell.Delegate[string]) {
		got = d
	})

	c.Assert(v.Set(channel.View, "b"), jc.ErrorIsNil)
	c.Check(got.Channel(), gc.Equals, channel.View)
	c.Check(got.ID(), gc.Equals, "name")
	c.Check(got.Change(), gc.Equals, change.ValueChanged)
	c.Check(got.Old().Value(), gc.Equals, "a")
	c.Check(got.Current().Value(), gc.Equals, "b")
	c.Check(got.Type().Name(), gc.Equals, "string")
	c.Check(got.String(), gc.Equals, "value-changed on view: a -> b")
}

func (s *cellSuite) TestPresenceChanges(c *gc.C) {
	v, err := cell.Empty[*int](cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.IsEmpty(), jc.IsTrue)

	var kinds []change.Kind
	v.Subscribe(func() {})
	v.OnChange(channel.View, func(d cell.Delegate[*int]) {
		kinds = append(kinds, d.Change())
	})

	n := 3
	c.Assert(v.Set(channel.View, &n), jc.ErrorIsNil)
	c.Assert(v.Set(channel.View, nil), jc.ErrorIsNil)
	c.Assert(v.SetAbsent(channel.View), jc.ErrorIsNil)
	c.Check(kinds, jc.DeepEquals, []change.Kind{change.BecamePresent, change.BecameAbsent})

	_, err = v.Get()
	c.Check(errors.Is(err, errors.NotFound), jc.IsTrue)
}

func (s *cellSuite) TestNonNullableRejectsAbsent(c *gc.C) {
	_, err := cell.New[*int](nil)
	c.Check(errors.Is(err, cell.ErrNullItem), jc.IsTrue)

	n := 1
	v, err := cell.New(&n, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	calls := 0
	v.Subscribe(func() { calls++ })

	err = v.Set(channel.View, nil)
	c.Check(errors.Is(err, cell.ErrNullItem), jc.IsTrue)
	err = v.SetAbsent(channel.View)
	c.Check(errors.Is(err, cell.ErrNullItem), jc.IsTrue)

	c.Check(calls, gc.Equals, 0)
	c.Check(v.IsPresent(), jc.IsTrue)
	got, err := v.Get()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(got, gc.Equals, &n)
}

func (s *cellSuite) TestTypeNarrowing(c *gc.C) {
	v, err := cell.New[fmt.Stringer](channel.View, cell.WithType(change.TypeOf[channel.Channel]()), cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.Type().Name(), gc.Equals, "channel.Channel")

	c.Assert(v.Set(channel.View, channel.ViewModel), jc.ErrorIsNil)

	err = v.Set(channel.View, change.TypeOf[int]())
	c.Check(errors.Is(err, cell.ErrTypeMismatch), jc.IsTrue)
	c.Check(v.OrZero(), gc.Equals, fmt.Stringer(channel.ViewModel))
}

func (s *cellSuite) TestTypeTagMustNarrowDeclaredType(c *gc.C) {
	_, err := cell.New[fmt.Stringer](channel.View, cell.WithType(change.TypeOf[int]()))
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *cellSuite) TestInvalidID(c *gc.C) {
	_, err := cell.New(1, cell.WithID("not valid!"))
	c.Check(err, gc.ErrorMatches, `cell id "not valid!" not valid`)
}

func (s *cellSuite) TestImmutable(c *gc.C) {
	v, err := cell.Immutable("fixed", cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.IsMutable(), jc.IsFalse)

	var kinds []change.Kind
	v.OnChange(channel.All, func(d cell.Delegate[string]) {
		kinds = append(kinds, d.Change())
	})

	err = v.Set(channel.View, "other")
	c.Check(errors.Is(err, errors.NotSupported), jc.IsTrue)
	c.Check(v.OrZero(), gc.Equals, "fixed")

	v.Fire(channel.View)
	c.Check(kinds, jc.DeepEquals, []change.Kind{change.NoChange})
}

func (s *cellSuite) TestSlicesCompareByContents(c *gc.C) {
	v, err := cell.New([]int{1, 2}, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	calls := 0
	v.Subscribe(func() { calls++ })
	c.Assert(v.Set(channel.View, []int{1, 2}), jc.ErrorIsNil)
	c.Check(calls, gc.Equals, 0)
	c.Check(v.Is([]int{1, 2}), jc.IsTrue)
}

func (s *cellSuite) TestWithEquality(c *gc.C) {
	sameLength := func(a, b string) bool {
		return len(a) == len(b)
	}
	v, err := cell.New("abc", cell.WithEquality[string](sameLength), cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	calls := 0
	v.Subscribe(func() { calls++ })
	c.Assert(v.Set(channel.View, "xyz"), jc.ErrorIsNil)
	c.Check(calls, gc.Equals, 0)
	c.Check(v.OrZero(), gc.Equals, "abc")

	_, err = cell.New(1, cell.WithEquality[string](sameLength))
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *cellSuite) TestUpdate(c *gc.C) {
	v, err := cell.New(1, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(v.Update(channel.ViewModel, func(n int) int { return n + 1 }), jc.ErrorIsNil)
	c.Check(v.OrZero(), gc.Equals, 2)
}

func (s *cellSuite) TestReentrantSetNestsBatches(c *gc.C) {
	v, err := cell.New(0, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	var trace []string
	v.OnChange(channel.All, func(d cell.Delegate[int]) {
		trace = append(trace, fmt.Sprintf("first %d", d.Current().Value()))
		if d.Current().Value() == 1 {
			c.Check(v.Set(channel.View, 2), jc.ErrorIsNil)
		}
	})
	v.OnChange(channel.All, func(d cell.Delegate[int]) {
		trace = append(trace, fmt.Sprintf("second %d", d.Current().Value()))
	})

	c.Assert(v.Set(channel.View, 1), jc.ErrorIsNil)
	c.Check(trace, jc.DeepEquals, []string{
		"first 1",
		"first 2",
		"second 2",
		"second 1",
	})
}

func (s *cellSuite) TestWeakListenerStopsAfterRelease(c *gc.C) {
	v, err := cell.New(0, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	type screen struct {
		shown []int
	}
	sc := &screen{}
	h := s.arena.Track(sc)

	_, err = cell.Bind(v, h, channel.All, func(o *screen, d cell.Delegate[int]) {
		o.shown = append(o.shown, d.Current().Value())
	})
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(v.Set(channel.View, 1), jc.ErrorIsNil)
	s.arena.Release(h)
	c.Assert(v.Set(channel.View, 2), jc.ErrorIsNil)

	c.Check(sc.shown, jc.DeepEquals, []int{1})
	c.Check(v.NumListeners(), gc.Equals, 0)
}

func (s *cellSuite) TestSubscribeWeak(c *gc.C) {
	v, err := cell.New("a", cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	count := 0
	h := s.arena.Track(&count)
	_, err = v.SubscribeWeak(h, func(o any) {
		*o.(*int)++
	})
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(v.Set(channel.View, "b"), jc.ErrorIsNil)
	c.Check(count, gc.Equals, 1)
}

func (s *cellSuite) TestUnsubscribe(c *gc.C) {
	v, err := cell.New(0, cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)

	calls := 0
	h := v.Subscribe(func() { calls++ })
	v.OnChange(channel.View, func(cell.Delegate[int]) { calls++ })
	c.Check(v.NumListeners(), gc.Equals, 2)

	c.Check(v.Unsubscribe(h), jc.IsTrue)
	c.Assert(v.Set(channel.View, 1), jc.ErrorIsNil)
	c.Check(calls, gc.Equals, 1)

	v.UnsubscribeAll()
	c.Assert(v.Set(channel.View, 2), jc.ErrorIsNil)
	c.Check(calls, gc.Equals, 1)
	c.Check(v.NumListeners(), gc.Equals, 0)
}

func (s *cellSuite) TestString(c *gc.C) {
	v := cell.Must(cell.New(3, cell.WithID("count")))
	c.Check(v.String(), gc.Equals, "count(3)")
	e := cell.Must(cell.Empty[int]())
	c.Check(e.String(), gc.Equals, "cell(<absent>)")
}

func (s *cellSuite) TestMustPanics(c *gc.C) {
	c.Check(func() {
		cell.Must(cell.New[*int](nil))
	}, gc.PanicMatches, `cell "": absent item not allowed`)
}

type boxed struct {
	Contents any
}

func (s *cellSuite) TestSetWithUncomparableContents(c *gc.C) {
	v := cell.Must(cell.New(boxed{Contents: []int{1}}, cell.WithArena(s.arena)))
	calls := 0
	v.Subscribe(func() { calls++ })

	c.Assert(v.Set(channel.View, boxed{Contents: []int{1}}), jc.ErrorIsNil)
	c.Check(calls, gc.Equals, 0)
	c.Assert(v.Set(channel.View, boxed{Contents: []int{2}}), jc.ErrorIsNil)
	c.Check(calls, gc.Equals, 1)
}

func (s *cellSuite) TestUpdateImmutableSkipsFunction(c *gc.C) {
	v := cell.Must(cell.Immutable(1, cell.WithArena(s.arena)))
	called := false
	err := v.Update(channel.View, func(n int) int {
		called = true
		return n + 1
	})
	c.Check(errors.Is(err, errors.NotSupported), jc.IsTrue)
	c.Check(called, jc.IsFalse)
	c.Check(v.OrZero(), gc.Equals, 1)
}

func (s *cellSuite) TestImmutableNullable(c *gc.C) {
	v, err := cell.ImmutableNullable(change.None[string](), cell.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.IsMutable(), jc.IsFalse)
	c.Check(v.AllowsNull(), jc.IsTrue)
	c.Check(v.Item().IsPresent(), jc.IsFalse)

	err = v.Set(channel.View, "x")
	c.Check(errors.Is(err, errors.NotSupported), jc.IsTrue)
}
