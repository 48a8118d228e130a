package ffprobe

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	CodecTag  string `json:"codec_tag_string"`
	TimeBase  string `json:"time_base"`
	// Extradata is the hex dump printed by -show_data.
	Extradata     string         `json:"extradata"`
	ExtradataSize int            `json:"extradata_size"`
	Duration      string         `json:"duration"`
	BitRate       string         `json:"bit_rate"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	SampleRate    string         `json:"sample_rate"`
	Channels      int            `json:"channels"`
	Disposition   map[string]int `json:"disposition"`
	Tags          Tags           `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
	Tags       Tags   `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-show_data", "-of", "json", "--", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return Parse(output)
}

// Parse decodes an ffprobe JSON document.
func Parse(output []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// ExtradataBytes decodes the codec extradata. Each dump line holds an
// offset, up to sixteen hex bytes in pairs, and an ASCII column.
func (s Stream) ExtradataBytes() ([]byte, error) {
	var out []byte
	for _, line := range strings.Split(s.Extradata, "\n") {
		_, rest, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		if len(rest) > 40 {
			rest = rest[:40]
		}
		chunk, err := hex.DecodeString(strings.ReplaceAll(rest, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("ffprobe extradata: %w", err)
		}
		out = append(out, chunk...)
	}
	if s.ExtradataSize > 0 && len(out) != s.ExtradataSize {
		return nil, fmt.Errorf("ffprobe extradata: decoded %d bytes, expected %d", len(out), s.ExtradataSize)
	}
	return out, nil
}

// Flag reports whether the named disposition flag is set.
func (s Stream) Flag(name string) bool {
	return s.Disposition[name] != 0
}

// Language returns the stream language tag, or "".
func (s Stream) Language() string {
	value, _ := s.Tags.Get("language")
	return value
}

// BitRateValue returns the stream bit rate in bits per second, or 0 when unavailable.
func (s Stream) BitRateValue() int64 {
	rate := parseFloat(s.BitRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// SampleRateValue returns the audio sample rate in Hz, or 0 when unavailable.
func (s Stream) SampleRateValue() int {
	rate := parseFloat(s.SampleRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int(rate)
}

// TimeBaseValue splits the "num/den" time base. It returns zeros when the
// value is missing or malformed.
func (s Stream) TimeBaseValue() (int, int) {
	num, den, ok := strings.Cut(strings.TrimSpace(s.TimeBase), "/")
	if !ok {
		return 0, 0
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, 0
	}
	return n, d
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
