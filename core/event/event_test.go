// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package event_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/cells/core/event"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

type eventSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&eventSuite{})

func (s *eventSuite) TestFireInOrder(c *gc.C) {
	e := event.New()
	var calls []int
	e.Subscribe(func() { calls = append(calls, 1) })
	h := e.Subscribe(func() { calls = append(calls, 2) })
	e.Subscribe(func() { calls = append(calls, 3) })
	c.Check(e.Len(), gc.Equals, 3)

	e.Fire()
	c.Check(calls, jc.DeepEquals, []int{1, 2, 3})

	c.Check(e.Unsubscribe(h), jc.IsTrue)
	e.Fire()
	c.Check(calls, jc.DeepEquals, []int{1, 2, 3, 1, 3})

	e.UnsubscribeAll()
	e.Fire()
	c.Check(e.Len(), gc.Equals, 0)
	c.Check(calls, gc.HasLen, 5)
}

func (s *eventSuite) TestUsingExecutor(c *gc.C) {
	var queue []func()
	e := event.Using(registry.ExecutorFunc(func(fn func()) {
		queue = append(queue, fn)
	}))

	fired := 0
	e.Subscribe(func() { fired++ })
	e.Fire()
	e.Fire()
	c.Check(fired, gc.Equals, 0)

	for _, fn := range queue {
		fn()
	}
	c.Check(fired, gc.Equals, 2)
}

func (s *eventSuite) TestSubscribeWeak(c *gc.C) {
	arena := owner.NewArena()
	e := event.New(event.WithArena(arena))

	count := 0
	h := arena.Track(&count)
	_, err := e.SubscribeWeak(h, func(o any) { *o.(*int)++ })
	c.Assert(err, jc.ErrorIsNil)

	e.Fire()
	arena.Release(h)
	e.Fire()
	c.Check(count, gc.Equals, 1)
	c.Check(e.Len(), gc.Equals, 0)
}
