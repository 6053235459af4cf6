// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Command cellreplay replays a YAML script of cell and sequence
// mutations and prints every notification they produce.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/internal/metrics"
)

func main() {
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Main runs the command with the given arguments and returns its exit
// code.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		format  string
		logging string
		stats   bool
	)
	flags := gnuflag.NewFlagSet("cellreplay", gnuflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&format, "format", "text", "output format: text or yaml")
	flags.StringVar(&logging, "logging-config", "", "loggo configuration, e.g. <root>=DEBUG")
	flags.BoolVar(&stats, "stats", false, "print dispatch statistics after the trace")
	if err := flags.Parse(true, args); err != nil {
		return 2
	}
	if err := run(flags.Args(), format, logging, stats, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "ERROR %v\n", err)
		return 1
	}
	return 0
}

func run(args []string, format, logging string, stats bool, stdin io.Reader, stdout io.Writer) error {
	if logging != "" {
		if err := loggo.ConfigureLoggers(logging); err != nil {
			return errors.Annotate(err, "configuring logging")
		}
	}
	write, ok := map[string]func(io.Writer, []TraceEntry) error{
		"text": WriteText,
		"yaml": WriteYAML,
	}[format]
	if !ok {
		return errors.NotValidf("format %q", format)
	}

	in := stdin
	switch len(args) {
	case 0:
	case 1:
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			defer f.Close()
			in = f
		}
	default:
		return errors.Errorf("unrecognized args: %q", args[1:])
	}

	script, err := ParseScript(in)
	if err != nil {
		return errors.Trace(err)
	}

	arena := owner.NewArena()
	collector := metrics.NewCollector(arena)
	replayer := NewReplayer(arena, collector)
	runErr := replayer.Run(script)

	// Print what happened before the failure, if any.
	if err := write(stdout, replayer.Trace()); err != nil {
		return errors.Trace(err)
	}
	if runErr != nil {
		return errors.Trace(runErr)
	}
	if stats {
		return errors.Trace(writeStats(stdout, collector))
	}
	return nil
}

func writeStats(w io.Writer, collector prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return errors.Trace(err)
	}
	families, err := reg.Gather()
	if err != nil {
		return errors.Trace(err)
	}
	var lines []string
	for _, family := range families {
		for _, m := range family.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %v", family.GetName(), labels(m), value(m)))
		}
	}
	sort.Strings(lines)
	_, err = fmt.Fprintln(w, strings.Join(lines, "\n"))
	return errors.Trace(err)
}

func labels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	parts := make([]string, len(m.GetLabel()))
	for i, l := range m.GetLabel() {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func value(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	}
	return 0
}
