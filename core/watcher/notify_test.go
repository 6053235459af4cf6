// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package watcher_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/change"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/event"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/sequence"
	"github.com/juju/cells/core/watcher"
	"github.com/juju/cells/internal/testhelpers"
)

type notifySuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&notifySuite{})

func (s *notifySuite) TestCellNotifications(c *gc.C) {
	src := cell.Must(cell.New(1, cell.WithArena(owner.NewArena())))
	w, err := watcher.NewNotifyWatcher(src)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	wc.AssertOneChange()

	c.Assert(src.Set(channel.View, 2), jc.ErrorIsNil)
	wc.AssertOneChange()

	// Setting an equal value is not a change.
	c.Assert(src.Set(channel.View, 2), jc.ErrorIsNil)
	wc.AssertNoChange()

	wc.AssertKilled()
}

func (s *notifySuite) TestCoalesces(c *gc.C) {
	src := cell.Must(cell.New("a", cell.WithArena(owner.NewArena())))
	w, err := watcher.NewNotifyWatcher(src)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	wc.AssertOneChange()

	for _, v := range []string{"b", "c", "d"} {
		c.Assert(src.Set(channel.All, v), jc.ErrorIsNil)
	}
	wc.AssertOneChange()
	wc.AssertKilled()
}

func (s *notifySuite) TestEventNotifications(c *gc.C) {
	e := event.New(event.WithArena(owner.NewArena()))
	w, err := watcher.NewNotifyWatcher(e)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	wc.AssertOneChange()

	e.Fire()
	wc.AssertOneChange()
	wc.AssertKilled()
}

func (s *notifySuite) TestSequenceNotifications(c *gc.C) {
	seq := sequence.Must(sequence.Of([]int{1}, sequence.WithArena(owner.NewArena())))
	w, err := watcher.NewNotifyWatcher(seq)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	wc.AssertOneChange()

	c.Assert(seq.Add(2), jc.ErrorIsNil)
	wc.AssertOneChange()
	wc.AssertKilled()
}

func (s *notifySuite) TestKillReleasesRegistration(c *gc.C) {
	arena := owner.NewArena()
	src := cell.Must(cell.New(1, cell.WithArena(arena)))
	w, err := watcher.NewNotifyWatcher(src)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(arena.Len(), gc.Equals, 1)

	workertest.CleanKill(c, w)
	c.Check(arena.Len(), gc.Equals, 0)

	// The dead registration goes on the next notification.
	c.Assert(src.Set(channel.View, 2), jc.ErrorIsNil)
	c.Check(src.NumListeners(), gc.Equals, 0)
}

func (s *notifySuite) TestKillTwice(c *gc.C) {
	src := cell.Must(cell.New(1, cell.WithArena(owner.NewArena())))
	w, err := watcher.NewNotifyWatcher(src)
	c.Assert(err, jc.ErrorIsNil)
	w.Kill()
	workertest.CleanKill(c, w)

	// Notifying after the kill neither panics nor sends.
	c.Assert(src.Set(channel.View, 2), jc.ErrorIsNil)
}

type valueSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&valueSuite{})

func (s *valueSuite) TestLatestValue(c *gc.C) {
	src := cell.Must(cell.NewNullable("a", cell.WithArena(owner.NewArena())))
	w, err := watcher.NewValueWatcher[string](src)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	c.Check(wc.AssertOneChange(), gc.Equals, change.Some("a"))

	c.Assert(src.Set(channel.View, "b"), jc.ErrorIsNil)
	c.Assert(src.Set(channel.View, "c"), jc.ErrorIsNil)
	c.Check(wc.AssertOneChange(), gc.Equals, change.Some("c"))

	c.Assert(src.SetAbsent(channel.View), jc.ErrorIsNil)
	c.Check(wc.AssertOneChange().IsPresent(), jc.IsFalse)

	wc.AssertKilled()
}

func (s *valueSuite) TestView(c *gc.C) {
	src := cell.Must(cell.New(2, cell.WithArena(owner.NewArena())))
	doubled, err := cell.NewView(src, func(v int) (int, error) { return v * 2, nil })
	c.Assert(err, jc.ErrorIsNil)

	w, err := watcher.NewValueWatcher[int](doubled)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	c.Check(wc.AssertOneChange(), gc.Equals, change.Some(4))

	c.Assert(src.Set(channel.View, 5), jc.ErrorIsNil)
	c.Check(wc.AssertOneChange(), gc.Equals, change.Some(10))
	wc.AssertKilled()
}

type sequenceSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&sequenceSuite{})

func (s *sequenceSuite) TestBatches(c *gc.C) {
	seq := sequence.Must(sequence.Of([]string{"a"}, sequence.WithArena(owner.NewArena())))
	w, err := watcher.NewSequenceWatcher[string](seq)
	c.Assert(err, jc.ErrorIsNil)
	wc := testhelpers.NewWatcherC(c, w)
	c.Check(wc.AssertOneChange(), gc.HasLen, 0)

	c.Assert(seq.Add("b"), jc.ErrorIsNil)
	c.Assert(seq.RemoveAt(0), jc.ErrorIsNil)

	var got []sequence.Delegate[string]
	for len(got) < 2 {
		got = append(got, wc.AssertChange()...)
	}
	wc.AssertNoChange()

	c.Check(got[0].Kind(), gc.Equals, sequence.Add)
	c.Check(got[0].Added().Values(), jc.DeepEquals, []string{"b"})
	c.Check(got[1].Kind(), gc.Equals, sequence.Remove)
	c.Check(got[1].Removed().Values(), jc.DeepEquals, []string{"a"})
	c.Check(got[1].Result().Values(), jc.DeepEquals, []string{"b"})
	c.Check(got[1].Diff().IsDirectSuccessorOf(got[0].Diff()), jc.IsTrue)

	wc.AssertKilled()
}

func (s *sequenceSuite) TestKillWhileSending(c *gc.C) {
	seq := sequence.Must(sequence.Of([]int{}, sequence.WithArena(owner.NewArena())))
	w, err := watcher.NewSequenceWatcher[int](seq)
	c.Assert(err, jc.ErrorIsNil)

	// Nobody reads the initial batch, so the loop is blocked sending.
	c.Assert(seq.Add(1), jc.ErrorIsNil)
	workertest.CleanKill(c, w)
}
