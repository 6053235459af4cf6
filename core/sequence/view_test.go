// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sequence_test

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/sequence"
)

type viewSuite struct {
	testing.IsolationSuite

	arena *owner.Arena
}

var _ = gc.Suite(&viewSuite{})

func (s *viewSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.arena = owner.NewArena()
}

func (s *viewSuite) numbers(c *gc.C, items ...string) *sequence.Sequence[string] {
	seq, err := sequence.Of(items, sequence.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	return seq
}

func (s *viewSuite) TestIncrementalUpdates(c *gc.C) {
	src := s.numbers(c, "1", "2", "3")
	v, err := sequence.NewView(src, strconv.Atoi)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{1, 2, 3})

	got := record(v.Sequence)

	c.Assert(src.AddAt(1, "10"), jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{1, 10, 2, 3})

	c.Assert(src.RemoveRange(2, 4), jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{1, 10})

	c.Assert(src.SetAt(0, "5"), jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{5, 10})

	c.Assert(*got, gc.HasLen, 3)
	checkDiff(c, (*got)[0].Diff(), sequence.Add, 1, true, 1)
	checkDiff(c, (*got)[1].Diff(), sequence.Remove, 2, true, 2)
	checkDiff(c, (*got)[2].Diff(), sequence.Set, 0, true, 1)
}

func (s *viewSuite) TestWholeOperationsRebuild(c *gc.C) {
	src := s.numbers(c, "3", "1", "2")
	v, err := sequence.NewView(src, strconv.Atoi)
	c.Assert(err, jc.ErrorIsNil)
	got := record(v.Sequence)

	c.Assert(src.Sort(cmp.Compare[string]), jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{1, 2, 3})

	_, err = src.RemoveIf(func(text string) bool { return text != "2" })
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{2})

	c.Assert(*got, gc.HasLen, 2)
	checkDiff(c, (*got)[0].Diff(), sequence.Sort, 0, false, 3)
	checkDiff(c, (*got)[1].Diff(), sequence.Remove, 0, false, 2)
}

func (s *viewSuite) TestViewIsReadOnly(c *gc.C) {
	src := s.numbers(c, "1")
	v, err := sequence.NewView(src, strconv.Atoi)
	c.Assert(err, jc.ErrorIsNil)

	err = v.Add(2)
	c.Check(errors.Is(err, errors.NotSupported), jc.IsTrue)
	c.Check(v.AllowsNull(), jc.IsTrue)
}

func (s *viewSuite) TestMapperFailures(c *gc.C) {
	src := s.numbers(c, "x")
	_, err := sequence.NewView(src, strconv.Atoi)
	c.Check(err, gc.ErrorMatches, `mapping element 0: strconv.Atoi: parsing "x": invalid syntax`)

	v, err := sequence.NewView(src, strconv.Atoi, sequence.WithErrorObject(-1))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{-1})

	lenient := s.numbers(c, "1")
	w, err := sequence.NewView(lenient, strconv.Atoi)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(lenient.Add("y"), jc.ErrorIsNil)
	item, err := w.At(1)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(item.IsPresent(), jc.IsFalse)
}

func (s *viewSuite) TestNullObject(c *gc.C) {
	src, err := sequence.OfNullable([]*string{nil}, sequence.WithArena(s.arena))
	c.Assert(err, jc.ErrorIsNil)
	v, err := sequence.NewView(src, func(p *string) (string, error) {
		return *p, nil
	}, sequence.WithNullObject("-"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []string{"-"})
}

func (s *viewSuite) TestClose(c *gc.C) {
	src := s.numbers(c, "1")
	v, err := sequence.NewView(src, strconv.Atoi)
	c.Assert(err, jc.ErrorIsNil)

	v.Close()
	v.Close()
	c.Assert(src.Add("2"), jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []int{1})
	c.Check(src.NumListeners(), gc.Equals, 0)
}

func (s *viewSuite) TestViewLenAndIsEmpty(c *gc.C) {
	src := s.numbers(c)
	size, err := sequence.ViewLen(src)
	c.Assert(err, jc.ErrorIsNil)
	empty, err := sequence.ViewIsEmpty(src)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(size.OrZero(), gc.Equals, 0)
	c.Check(empty.OrZero(), jc.IsTrue)

	c.Assert(src.Add("a", "b"), jc.ErrorIsNil)
	c.Check(size.OrZero(), gc.Equals, 2)
	c.Check(empty.OrZero(), jc.IsFalse)

	size.Close()
	c.Assert(src.Clear(), jc.ErrorIsNil)
	c.Check(size.OrZero(), gc.Equals, 2)
	c.Check(empty.OrZero(), jc.IsTrue)
}

func (s *viewSuite) TestViewElementsAreReadOnly(c *gc.C) {
	src := s.numbers(c, "a", "b")
	v, err := sequence.NewView(src, func(text string) (string, error) {
		return strings.ToUpper(text), nil
	})
	c.Assert(err, jc.ErrorIsNil)

	elem, err := v.CellAt(0)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(elem.IsMutable(), jc.IsFalse)
	err = elem.Set(channel.View, "zzz")
	c.Check(errors.Is(err, errors.NotSupported), jc.IsTrue)
	c.Check(v.Values(), jc.DeepEquals, []string{"A", "B"})

	c.Assert(src.Add("c"), jc.ErrorIsNil)
	c.Check(v.Values(), jc.DeepEquals, []string{"A", "B", "C"})
}
