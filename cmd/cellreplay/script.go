// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"io"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/juju/cells/core/sequence"
)

// Script is a replay script: the cells, sequences and views to create,
// then the steps mutating them.
type Script struct {
	Cells     []CellSpec     `yaml:"cells"`
	Sequences []SequenceSpec `yaml:"sequences"`
	Views     []ViewSpec     `yaml:"views"`
	Steps     []Step         `yaml:"steps"`
}

// CellSpec declares a string cell. A cell without a value starts empty
// and is therefore nullable.
type CellSpec struct {
	ID        string  `yaml:"id"`
	Value     *string `yaml:"value"`
	Nullable  bool    `yaml:"nullable"`
	Immutable bool    `yaml:"immutable"`
}

// SequenceSpec declares a sequence of strings.
type SequenceSpec struct {
	ID        string   `yaml:"id"`
	Items     []string `yaml:"items"`
	Immutable bool     `yaml:"immutable"`
}

// ViewSpec declares a view mapping a cell or a sequence through one of
// the named mappers.
type ViewSpec struct {
	ID       string `yaml:"id"`
	Cell     string `yaml:"cell"`
	Sequence string `yaml:"sequence"`
	Map      string `yaml:"map"`
}

// Step is a single mutation of a cell or a sequence.
type Step struct {
	Cell     string   `yaml:"cell"`
	Sequence string   `yaml:"sequence"`
	Op       string   `yaml:"op"`
	Channel  string   `yaml:"channel"`
	Value    *string  `yaml:"value"`
	Index    int      `yaml:"index"`
	Items    []string `yaml:"items"`
}

var (
	cellOps = set.NewStrings("set", "absent", "fire")

	// Sequence ops not named after the diff kind they produce.
	sequenceOps = set.NewStrings("add-at", "set-at", "remove-at", "remove-all", "fire")
)

var mappers = map[string]func(string) (string, error){
	"upper": func(s string) (string, error) { return strings.ToUpper(s), nil },
	"lower": func(s string) (string, error) { return strings.ToLower(s), nil },
	"trim":  func(s string) (string, error) { return strings.TrimSpace(s), nil },
	"non-empty": func(s string) (string, error) {
		if s == "" {
			return "", errors.NotValidf("empty value")
		}
		return s, nil
	},
}

// ParseScript reads and validates a replay script.
func ParseScript(r io.Reader) (*Script, error) {
	var script Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil && err != io.EOF {
		return nil, errors.Annotate(err, "decoding script")
	}
	if err := script.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &script, nil
}

// Validate checks that every id is declared once and that every step
// names a declared target and a known op.
func (s *Script) Validate() error {
	cells := set.NewStrings()
	sequences := set.NewStrings()
	declare := func(ids set.Strings, id string) error {
		if id == "" {
			return errors.NotValidf("empty id")
		}
		if cells.Contains(id) || sequences.Contains(id) {
			return errors.AlreadyExistsf("id %q", id)
		}
		ids.Add(id)
		return nil
	}
	for _, c := range s.Cells {
		if err := declare(cells, c.ID); err != nil {
			return errors.Trace(err)
		}
	}
	for _, seq := range s.Sequences {
		if err := declare(sequences, seq.ID); err != nil {
			return errors.Trace(err)
		}
	}
	for _, v := range s.Views {
		if _, ok := mappers[v.Map]; !ok {
			return errors.NotValidf("view %q mapper %q", v.ID, v.Map)
		}
		switch {
		case v.Cell != "" && v.Sequence != "":
			return errors.NotValidf("view %q of both a cell and a sequence", v.ID)
		case v.Cell != "":
			if !cells.Contains(v.Cell) {
				return errors.NotFoundf("cell %q for view %q", v.Cell, v.ID)
			}
			if err := declare(cells, v.ID); err != nil {
				return errors.Trace(err)
			}
		case v.Sequence != "":
			if !sequences.Contains(v.Sequence) {
				return errors.NotFoundf("sequence %q for view %q", v.Sequence, v.ID)
			}
			if err := declare(sequences, v.ID); err != nil {
				return errors.Trace(err)
			}
		default:
			return errors.NotValidf("view %q without source", v.ID)
		}
	}
	for i, step := range s.Steps {
		if err := step.validate(cells, sequences); err != nil {
			return errors.Annotatef(err, "step %d", i)
		}
	}
	return nil
}

func (step Step) validate(cells, sequences set.Strings) error {
	switch {
	case step.Cell != "" && step.Sequence != "":
		return errors.NotValidf("step on both a cell and a sequence")
	case step.Cell != "":
		if !cells.Contains(step.Cell) {
			return errors.NotFoundf("cell %q", step.Cell)
		}
		if !cellOps.Contains(step.Op) {
			return errors.NotValidf("cell op %q", step.Op)
		}
		if step.Op == "set" && step.Value == nil {
			return errors.NotValidf("set without value")
		}
	case step.Sequence != "":
		if !sequences.Contains(step.Sequence) {
			return errors.NotFoundf("sequence %q", step.Sequence)
		}
		if kind, ok := sequence.ParseKind(step.Op); (!ok || kind == sequence.NoChange) && !sequenceOps.Contains(step.Op) {
			return errors.NotValidf("sequence op %q", step.Op)
		}
	default:
		return errors.NotValidf("step without target")
	}
	return nil
}
