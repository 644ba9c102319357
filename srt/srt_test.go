package srt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00,000"},
		{1234, "00:00:01,234"},
		{61000, "00:01:01,000"},
		{3661001, "01:01:01,001"},
	}
	for _, c := range cases {
		if got := FormatTimestamp(c.ms); got != c.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

func TestRenderOrdinalsAndTimestamps(t *testing.T) {
	cues := []Cue{
		{StartMs: 2000, EndMs: 6000, Lines: []string{"hello"}},
		{StartMs: 7000, EndMs: 8000, Lines: []string{"world"}},
	}
	out := Render(cues)
	want := "1\n00:00:02,000 --> 00:00:06,000\nhello\n\n2\n00:00:07,000 --> 00:00:08,000\nworld\n\n"
	if out != want {
		t.Errorf("Render:\n%q\nwant:\n%q", out, want)
	}
}

func TestRenderClampsNonPositiveDuration(t *testing.T) {
	cues := []Cue{{StartMs: 5000, EndMs: 5000, Lines: []string{"x"}}}
	out := Render(cues)
	if !strings.Contains(out, "00:00:05,000 --> 00:00:05,001") {
		t.Errorf("expected clamped end timestamp, got %q", out)
	}
}

func TestRenderEmptyTextCueHasBlankLine(t *testing.T) {
	cues := []Cue{{StartMs: 0, EndMs: 1000}}
	out := Render(cues)
	want := "1\n00:00:00,000 --> 00:00:01,000\n\n\n"
	if out != want {
		t.Errorf("Render empty-text cue:\n%q\nwant:\n%q", out, want)
	}
}

func TestWriterAtomicWriteAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.srt")
	w := NewWriter(path)
	w.Write(Cue{StartMs: 7000, EndMs: 8000, Lines: []string{"second"}})
	w.Write(Cue{StartMs: 2000, EndMs: 6000, Lines: []string{"first"}})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "1\n00:00:02,000 --> 00:00:06,000\nfirst\n") {
		t.Errorf("cues not sorted by start time: %q", content)
	}

	// No leftover temp files in the directory.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 file in dir after Close, got %d: %+v", len(entries), entries)
	}
}

func TestRenderRoundTripIsByteIdentical(t *testing.T) {
	cues := []Cue{
		{StartMs: 0, EndMs: 2000, Lines: []string{"a"}},
		{StartMs: 2000, EndMs: 4000, Lines: []string{"b", "c"}},
	}
	first := Render(cues)
	parsed := parseForTest(t, first)
	second := Render(parsed)
	if first != second {
		t.Errorf("round trip not byte-identical:\nfirst:  %q\nsecond: %q", first, second)
	}
}

// parseForTest is a minimal SubRip parser used only to exercise the
// round-trip property (spec.md §8 property 6); it is not part of the
// package's public surface.
func parseForTest(t *testing.T, text string) []Cue {
	t.Helper()
	blocks := strings.Split(strings.TrimRight(text, "\n"), "\n\n")
	var cues []Cue
	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			continue
		}
		times := strings.Split(lines[1], " --> ")
		if len(times) != 2 {
			t.Fatalf("malformed timing line: %q", lines[1])
		}
		start := parseTimestampForTest(t, times[0])
		end := parseTimestampForTest(t, times[1])
		cues = append(cues, Cue{StartMs: start, EndMs: end, Lines: lines[2:]})
	}
	return cues
}

func parseTimestampForTest(t *testing.T, s string) int64 {
	t.Helper()
	var h, m, sec, ms int64
	if _, err := fmt.Sscanf(s, "%02d:%02d:%02d,%03d", &h, &m, &sec, &ms); err != nil {
		t.Fatalf("parse timestamp %q: %v", s, err)
	}
	return h*3600000 + m*60000 + sec*1000 + ms
}
