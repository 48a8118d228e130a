package subtitles

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// overrunTolerance is how far past the end of the clip a cue may run before
// it is reported.
const overrunTolerance = 2 * time.Second

// Cue is one timed caption.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcript is a parsed SRT document. Blocks without a readable timing line
// are counted in Untimed.
type Transcript struct {
	Cues    []Cue
	Untimed int
}

// ReadTranscript parses the SRT file at path.
func ReadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read srt: %w", err)
	}
	return ParseTranscript(string(data)), nil
}

// ParseTranscript splits content into blank-line separated cue blocks.
// CRLF line endings are accepted.
func ParseTranscript(content string) Transcript {
	var t Transcript
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if cue, ok := parseCue(block); ok {
			t.Cues = append(t.Cues, cue)
		} else {
			t.Untimed++
		}
	}
	return t
}

// Len returns the number of non-empty cue blocks, timed or not.
func (t Transcript) Len() int {
	return len(t.Cues) + t.Untimed
}

// Issues lists problems that would make the burned captions wrong for a clip
// of the given length. An empty result means the transcript is usable.
func (t Transcript) Issues(clip time.Duration) []string {
	if t.Len() == 0 {
		return []string{"empty_subtitle_file"}
	}
	if len(t.Cues) == 0 {
		return []string{"no_valid_timestamps"}
	}
	var issues []string
	if t.Untimed > 0 {
		issues = append(issues, fmt.Sprintf("untimed_cues: %d", t.Untimed))
	}
	var last time.Duration
	for i, c := range t.Cues {
		if c.End < c.Start {
			issues = append(issues, fmt.Sprintf("cue_ends_before_start: cue=%d", i+1))
		}
		last = max(last, c.End)
	}
	if clip > 0 && last > clip+overrunTolerance {
		issues = append(issues, fmt.Sprintf("cue_past_end: last=%.1fs video=%.1fs", last.Seconds(), clip.Seconds()))
	}
	return issues
}

func parseCue(block string) (Cue, bool) {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		from, to, ok := strings.Cut(line, "-->")
		if !ok {
			continue
		}
		// Some writers append cue settings after the end time.
		fields := strings.Fields(to)
		if len(fields) == 0 {
			return Cue{}, false
		}
		start, err := parseTimestamp(from)
		if err != nil {
			return Cue{}, false
		}
		end, err := parseTimestamp(fields[0])
		if err != nil {
			return Cue{}, false
		}
		return Cue{Start: start, End: end, Text: strings.Join(lines[i+1:], "\n")}, true
	}
	return Cue{}, false
}

// parseTimestamp reads HH:MM:SS,mmm. A period is accepted in place of the
// comma.
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	clock, frac, ok := strings.Cut(strings.Replace(value, ".", ",", 1), ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var total time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		total += time.Duration(n) * unit
	}
	ms, err := strconv.Atoi(frac)
	if err != nil || ms < 0 || len(frac) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return total + time.Duration(ms)*time.Millisecond, nil
}
