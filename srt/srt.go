/*
NAME
  srt.go

DESCRIPTION
  srt.go formats Cues into SubRip (.srt) text and atomically writes the
  result to a file.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package srt renders recognised cues as a SubRip (.srt) file, writing it
// atomically (temp file + rename) so a reader never observes a partial
// file, mirroring container/flv/encoder.go's buffered-writer-then-flush
// idiom and revid/senders.go's finalise-by-rename clip handling.
package srt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cue is one timed subtitle entry: [StartMs,EndMs] in milliseconds plus
// one or more text lines. Ordinals are assigned by Render in the order the
// cues are given (Close sorts by StartMs first), not carried on the value
// itself.
type Cue struct {
	StartMs int64
	EndMs   int64
	Lines   []string
}

// FormatTimestamp renders ms as SubRip's HH:MM:SS,mmm.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	ms -= hours * 3600000
	minutes := ms / 60000
	ms -= minutes * 60000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// Render formats cues as SubRip text. Cues are renumbered from 1 in the
// order given; any cue whose EndMs <= StartMs is clamped to
// StartMs+1 (spec.md §4.6 edge case: zero/negative duration cue).
func Render(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		end := c.EndMs
		if end <= c.StartMs {
			end = c.StartMs + 1
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(c.StartMs), FormatTimestamp(end))
		if len(c.Lines) == 0 {
			b.WriteString("\n")
		} else {
			for _, line := range c.Lines {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Writer accumulates cues and atomically writes the rendered file on
// Close. It is not safe for concurrent use; the pipeline owns exactly one
// Writer per run.
type Writer struct {
	path string
	cues []Cue
}

// NewWriter returns a Writer that will finalise to path on Close.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write appends cue to the pending set. Cues need not arrive in order;
// Close sorts by StartMs before rendering and assigns final ordinals.
func (w *Writer) Write(cue Cue) {
	w.cues = append(w.cues, cue)
}

// Close renders every written cue, sorted by StartMs ascending, and
// atomically replaces the destination file (temp file in the same
// directory + rename, so a reader never observes a partial write —
// spec.md §7 WriterIo: a failed rename leaves the prior file, if any,
// untouched).
func (w *Writer) Close() error {
	sortCuesByStart(w.cues)

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".srt-*.tmp")
	if err != nil {
		return fmt.Errorf("srt: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(Render(w.cues)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("srt: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("srt: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("srt: rename temp file: %w", err)
	}
	return nil
}

func sortCuesByStart(cues []Cue) {
	// Insertion sort: cue counts are small (a handful to low hundreds per
	// clip) and cues usually arrive nearly sorted already since the OCR
	// dispatcher reorders to start_pts ascending upstream.
	for i := 1; i < len(cues); i++ {
		for j := i; j > 0 && cues[j].StartMs < cues[j-1].StartMs; j-- {
			cues[j], cues[j-1] = cues[j-1], cues[j]
		}
	}
}
