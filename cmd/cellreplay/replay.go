// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"cmp"
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/yaml.v3"

	"github.com/juju/cells/core/cell"
	"github.com/juju/cells/core/channel"
	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
	"github.com/juju/cells/core/sequence"
	"github.com/juju/cells/internal/pubsub/cellhub"
)

var logger = loggo.GetLogger("cells.cmd.cellreplay")

const origin = "cellreplay"

// TraceEntry is a single notification observed during a replay.
type TraceEntry struct {
	Step     int                      `yaml:"step"`
	Cell     *cellhub.CellChanged     `yaml:"cell,omitempty"`
	Sequence *cellhub.SequenceChanged `yaml:"sequence,omitempty"`
}

// Replayer builds the cells of a script and applies its steps,
// recording every notification.
type Replayer struct {
	arena    *owner.Arena
	recorder registry.Recorder

	cells     map[string]*cell.Cell[string]
	views     map[string]*cell.View[string]
	sequences map[string]*sequence.Sequence[string]
	seqViews  map[string]*sequence.View[string]

	step  int
	trace []TraceEntry
}

// NewReplayer returns a Replayer creating its cells in arena and
// reporting dispatch statistics to recorder.
func NewReplayer(arena *owner.Arena, recorder registry.Recorder) *Replayer {
	return &Replayer{
		arena:     arena,
		recorder:  recorder,
		cells:     make(map[string]*cell.Cell[string]),
		views:     make(map[string]*cell.View[string]),
		sequences: make(map[string]*sequence.Sequence[string]),
		seqViews:  make(map[string]*sequence.View[string]),
	}
}

// Trace returns the notifications recorded so far.
func (r *Replayer) Trace() []TraceEntry {
	return r.trace
}

// Run builds the script's cells, sequences and views, then applies
// every step in order. It stops at the first failing step.
func (r *Replayer) Run(script *Script) error {
	defer r.close()

	for _, spec := range script.Cells {
		if err := r.addCell(spec); err != nil {
			return errors.Annotatef(err, "cell %q", spec.ID)
		}
	}
	for _, spec := range script.Sequences {
		if err := r.addSequence(spec); err != nil {
			return errors.Annotatef(err, "sequence %q", spec.ID)
		}
	}
	for _, spec := range script.Views {
		if err := r.addView(spec); err != nil {
			return errors.Annotatef(err, "view %q", spec.ID)
		}
	}
	for i, step := range script.Steps {
		r.step = i
		logger.Debugf("step %d: %s on %s%s", i, step.Op, step.Cell, step.Sequence)
		if err := r.apply(step); err != nil {
			return errors.Annotatef(err, "step %d", i)
		}
	}
	return nil
}

func (r *Replayer) cellOptions(id string) []cell.Option {
	return []cell.Option{
		cell.WithID(id),
		cell.WithArena(r.arena),
		cell.WithRecorder(r.recorder),
	}
}

func (r *Replayer) sequenceOptions() []sequence.Option {
	return []sequence.Option{
		sequence.WithArena(r.arena),
		sequence.WithRecorder(r.recorder),
	}
}

func (r *Replayer) addCell(spec CellSpec) error {
	opts := r.cellOptions(spec.ID)
	var (
		c   *cell.Cell[string]
		err error
	)
	switch {
	case spec.Value == nil:
		c, err = cell.Empty[string](opts...)
	case spec.Immutable:
		c, err = cell.Immutable(*spec.Value, opts...)
	case spec.Nullable:
		c, err = cell.NewNullable(*spec.Value, opts...)
	default:
		c, err = cell.New(*spec.Value, opts...)
	}
	if err != nil {
		return errors.Trace(err)
	}
	r.cells[spec.ID] = c
	r.watchCell(c)
	return nil
}

func (r *Replayer) addSequence(spec SequenceSpec) error {
	opts := r.sequenceOptions()
	var (
		s   *sequence.Sequence[string]
		err error
	)
	if spec.Immutable {
		s, err = sequence.Immutable(spec.Items, opts...)
	} else {
		s, err = sequence.Of(spec.Items, opts...)
	}
	if err != nil {
		return errors.Trace(err)
	}
	r.sequences[spec.ID] = s
	r.watchSequence(spec.ID, s)
	return nil
}

func (r *Replayer) addView(spec ViewSpec) error {
	mapper := mappers[spec.Map]
	if spec.Sequence != "" {
		src, ok := r.sequences[spec.Sequence]
		if !ok {
			return errors.NotFoundf("sequence %q", spec.Sequence)
		}
		v, err := sequence.NewView(src, mapper)
		if err != nil {
			return errors.Trace(err)
		}
		r.seqViews[spec.ID] = v
		r.sequences[spec.ID] = v.Sequence
		r.watchSequence(spec.ID, v.Sequence)
		return nil
	}

	var (
		v   *cell.View[string]
		err error
	)
	opts := []cell.ViewOption[string]{
		cell.ViewWith[string](cell.WithID(spec.ID), cell.WithRecorder(r.recorder)),
		cell.NullableView[string](),
	}
	if src, ok := r.cells[spec.Cell]; ok {
		v, err = cell.NewView(src, mapper, opts...)
	} else if src, ok := r.views[spec.Cell]; ok {
		v, err = cell.NewView(src, mapper, opts...)
	} else {
		return errors.NotFoundf("cell %q", spec.Cell)
	}
	if err != nil {
		return errors.Trace(err)
	}
	r.views[spec.ID] = v
	r.watchCell(v)
	return nil
}

func (r *Replayer) watchCell(src cellhub.CellSource[string]) {
	src.OnChange(channel.All, func(d cell.Delegate[string]) {
		msg := cellhub.NewCellChanged(origin, d)
		r.trace = append(r.trace, TraceEntry{Step: r.step, Cell: &msg})
	})
}

func (r *Replayer) watchSequence(id string, s *sequence.Sequence[string]) {
	s.OnChange(func(d sequence.Delegate[string]) {
		msg := cellhub.NewSequenceChanged(origin, id, d)
		r.trace = append(r.trace, TraceEntry{Step: r.step, Sequence: &msg})
	})
}

func (r *Replayer) apply(step Step) error {
	if step.Cell != "" {
		c, ok := r.cells[step.Cell]
		if !ok {
			// Views are read-only.
			if _, ok := r.views[step.Cell]; ok {
				return errors.NotSupportedf("mutating view %q", step.Cell)
			}
			return errors.NotFoundf("cell %q", step.Cell)
		}
		return errors.Trace(r.applyCell(c, step))
	}
	if _, ok := r.seqViews[step.Sequence]; ok {
		return errors.NotSupportedf("mutating view %q", step.Sequence)
	}
	s, ok := r.sequences[step.Sequence]
	if !ok {
		return errors.NotFoundf("sequence %q", step.Sequence)
	}
	return errors.Trace(r.applySequence(s, step))
}

func (r *Replayer) applyCell(c *cell.Cell[string], step Step) error {
	ch := channel.All
	if step.Channel != "" {
		ch = channel.Channel(step.Channel)
	}
	switch step.Op {
	case "set":
		return c.Set(ch, *step.Value)
	case "absent":
		return c.SetAbsent(ch)
	case "fire":
		c.Fire(ch)
		return nil
	}
	return errors.NotValidf("cell op %q", step.Op)
}

func (r *Replayer) applySequence(s *sequence.Sequence[string], step Step) error {
	var err error
	switch step.Op {
	case "add":
		err = s.Add(step.Items...)
	case "add-at":
		err = s.AddAt(step.Index, step.Items...)
	case "set", "set-at":
		err = s.SetRange(step.Index, step.Items...)
	case "remove":
		for _, item := range step.Items {
			if _, err = s.Remove(item); err != nil {
				break
			}
		}
	case "remove-at":
		err = s.RemoveAt(step.Index)
	case "remove-all":
		_, err = s.RemoveAll(step.Items...)
	case "retain":
		_, err = s.RetainAll(step.Items...)
	case "clear":
		err = s.Clear()
	case "sort":
		err = s.Sort(cmp.Compare[string])
	case "distinct":
		_, err = s.Distinct()
	case "reverse":
		err = s.Reverse()
	case "fire":
		s.Fire()
	default:
		err = errors.NotValidf("sequence op %q", step.Op)
	}
	return errors.Trace(err)
}

func (r *Replayer) close() {
	for _, v := range r.views {
		v.Close()
	}
	for _, v := range r.seqViews {
		v.Close()
	}
}

// WriteText writes the trace one notification per line.
func WriteText(w io.Writer, trace []TraceEntry) error {
	for _, e := range trace {
		var err error
		switch {
		case e.Cell != nil:
			_, err = fmt.Fprintf(w, "%d: cell %s: %s on %s: %q -> %q\n",
				e.Step, e.Cell.ID, e.Cell.Change, e.Cell.Channel, e.Cell.Old, e.Cell.Current)
		case e.Sequence != nil:
			_, err = fmt.Fprintf(w, "%d: sequence %s: %s start=%d size=%d removed=%q added=%q\n",
				e.Step, e.Sequence.ID, e.Sequence.Kind, e.Sequence.Start, e.Sequence.Size,
				e.Sequence.Removed, e.Sequence.Added)
		}
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// WriteYAML writes the trace as a YAML document.
func WriteYAML(w io.Writer, trace []TraceEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(trace); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(enc.Close())
}
