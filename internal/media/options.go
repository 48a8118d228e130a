package media

import (
	"fmt"
	"strings"
	"time"
)

// VideoMode selects how the muxer handles video streams.
type VideoMode int

const (
	// VideoCopy writes video packets unchanged.
	VideoCopy VideoMode = iota
	// VideoReencode decodes, filters and re-encodes video with H.264.
	VideoReencode
)

func (m VideoMode) String() string {
	if m == VideoReencode {
		return "reencode"
	}
	return "copy"
}

// AudioCopy keeps audio packets unchanged.
const AudioCopy = "copy"

// AudioPCM16LE is the signed 16-bit little-endian PCM target.
const AudioPCM16LE = "pcm_s16le"

// MuxOptions configures a destination container.
type MuxOptions struct {
	// Start and Duration restrict the written time window. A zero Duration
	// means the window is unbounded.
	Start    time.Duration
	Duration time.Duration
	Video    VideoMode
	// Audio is AudioCopy (or empty) or the name of a target audio encoder.
	Audio string
	// VideoFilter is applied before re-encoding; requires VideoReencode.
	VideoFilter string
	// DropVideo omits video entirely.
	DropVideo bool
}

// Windowed reports whether a time window applies.
func (o MuxOptions) Windowed() bool {
	return o.Start > 0 || o.Duration > 0
}

// AudioCodec returns the normalized audio target.
func (o MuxOptions) AudioCodec() string {
	codec := strings.TrimSpace(o.Audio)
	if codec == "" {
		return AudioCopy
	}
	return codec
}

// Validate rejects option combinations the muxer cannot honor.
func (o MuxOptions) Validate() error {
	if o.Start < 0 {
		return Wrap(ErrMux, fmt.Sprintf("negative start %s", o.Start), nil)
	}
	if o.Duration < 0 {
		return Wrap(ErrMux, fmt.Sprintf("negative duration %s", o.Duration), nil)
	}
	if strings.TrimSpace(o.VideoFilter) != "" && o.Video != VideoReencode {
		return Wrap(ErrMux, "video filter requires video re-encoding", nil)
	}
	if o.DropVideo && o.Video == VideoReencode {
		return Wrap(ErrMux, "video re-encoding requested with video dropped", nil)
	}
	return nil
}
