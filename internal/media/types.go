package media

import (
	"fmt"
	"math"
	"strings"
)

// NoTimestamp marks an absent PTS or DTS.
const NoTimestamp int64 = math.MinInt64

// ClockRate is the tick rate of packet timestamps (the MPEG system clock).
const ClockRate = 90000

// Medium classifies a stream by the kind of data it carries.
type Medium int

const (
	MediumUnknown Medium = iota
	MediumVideo
	MediumAudio
	MediumSubtitle
	MediumData
)

func (m Medium) String() string {
	switch m {
	case MediumVideo:
		return "video"
	case MediumAudio:
		return "audio"
	case MediumSubtitle:
		return "subtitle"
	case MediumData:
		return "data"
	default:
		return "unknown"
	}
}

// ParseMedium maps an ffprobe style codec_type to a Medium.
func ParseMedium(value string) Medium {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return MediumVideo
	case "audio":
		return MediumAudio
	case "subtitle":
		return MediumSubtitle
	case "data", "attachment":
		return MediumData
	default:
		return MediumUnknown
	}
}

// TimeBase is a rational tick duration in seconds.
type TimeBase struct {
	Num int
	Den int
}

func (tb TimeBase) String() string {
	if tb.Den == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", tb.Num, tb.Den)
}

// TransportBinding ties a stream to its elementary stream in the MPEG-TS
// interchange used between the backend processes. A zero StreamType means
// the stream cannot be relayed.
type TransportBinding struct {
	StreamType  uint8
	StreamID    uint8
	Descriptors []TransportDescriptor
}

// TransportDescriptor is one PMT descriptor: its tag and raw payload.
type TransportDescriptor struct {
	Tag  uint8
	Data []byte
}

// CodecParameters is the per-stream parameter set copied verbatim from a
// source stream to its destination stream.
type CodecParameters struct {
	Medium     Medium
	CodecName  string
	CodecTag   string
	TimeBase   TimeBase
	Extradata  []byte
	Width      int
	Height     int
	SampleRate int
	Channels   int
	BitRate    int64
	Transport  TransportBinding
}

// Clone returns a deep copy of the parameters.
func (p CodecParameters) Clone() CodecParameters {
	out := p
	if p.Extradata != nil {
		out.Extradata = append([]byte(nil), p.Extradata...)
	}
	if p.Transport.Descriptors != nil {
		out.Transport.Descriptors = make([]TransportDescriptor, len(p.Transport.Descriptors))
		for i, d := range p.Transport.Descriptors {
			out.Transport.Descriptors[i] = TransportDescriptor{Tag: d.Tag, Data: append([]byte(nil), d.Data...)}
		}
	}
	return out
}

// Disposition carries the stream flags relevant to best-stream ranking.
type Disposition struct {
	Default         bool
	HearingImpaired bool
	VisualImpaired  bool
}

// Stream is one elementary stream of a container.
type Stream struct {
	Index       int
	Codec       CodecParameters
	Disposition Disposition
	Language    string
}

// Medium returns the stream medium.
func (s Stream) Medium() Medium {
	return s.Codec.Medium
}

// Relayable reports whether the backend can move the stream's packets
// unchanged.
func (s Stream) Relayable() bool {
	return s.Codec.Transport.StreamType != 0
}

// Tag is one container metadata entry.
type Tag struct {
	Key   string
	Value string
}

// Metadata is an ordered list of container tags.
type Metadata []Tag

// Get returns the first value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	for _, tag := range m {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Clone returns a copy that shares no backing array with m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return append(Metadata(nil), m...)
}

// Packet is one unit of compressed data belonging to a stream.
type Packet struct {
	StreamIndex int
	PTS         int64
	DTS         int64
	Keyframe    bool
	Data        []byte
}

// HasPTS reports whether the packet carries a presentation timestamp.
func (p Packet) HasPTS() bool { return p.PTS != NoTimestamp }

// HasDTS reports whether the packet carries a decode timestamp.
func (p Packet) HasDTS() bool { return p.DTS != NoTimestamp }
