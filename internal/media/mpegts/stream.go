package mpegts

// Elementary stream types carried by the interchange (ISO/IEC 13818-1
// table 2-34 plus the ATSC audio types ffmpeg emits).
const (
	StreamTypeMPEG1Video uint8 = 0x01
	StreamTypeMPEG2Video uint8 = 0x02
	StreamTypeMPEG1Audio uint8 = 0x03
	StreamTypeMPEG2Audio uint8 = 0x04
	StreamTypePrivate    uint8 = 0x06
	StreamTypeAAC        uint8 = 0x0f
	StreamTypeMPEG4Video uint8 = 0x10
	StreamTypeAACLATM    uint8 = 0x11
	StreamTypeH264       uint8 = 0x1b
	StreamTypeHEVC       uint8 = 0x24
	StreamTypeAC3        uint8 = 0x81
	StreamTypeDTS        uint8 = 0x82
	StreamTypeEAC3       uint8 = 0x87
)

const (
	streamIDPrivate1 uint8 = 0xbd
	streamIDAudio    uint8 = 0xc0
	streamIDVideo    uint8 = 0xe0
)

// Descriptor tags the interchange passes through structurally. Other tags
// travel as opaque payloads.
const (
	DescriptorTagRegistration uint8 = 0x05
	DescriptorTagExtension    uint8 = 0x7f
)

// Descriptor is one entry of a PMT elementary stream descriptor loop. Data
// is the payload after the tag and length bytes.
type Descriptor struct {
	Tag  uint8
	Data []byte
}

// Registration builds a registration descriptor for a four character
// format identifier such as "Opus".
func Registration(format string) Descriptor {
	return Descriptor{Tag: DescriptorTagRegistration, Data: []byte(format)}
}

// ElementaryStream describes one PMT entry.
type ElementaryStream struct {
	PID        uint16
	StreamType uint8
	// StreamID is the PES stream_id. Zero means "derive from StreamType".
	StreamID    uint8
	Descriptors []Descriptor
}

// Format returns the registration format identifier, or "".
func (es ElementaryStream) Format() string {
	for _, d := range es.Descriptors {
		if d.Tag == DescriptorTagRegistration && len(d.Data) >= 4 {
			return string(d.Data[:4])
		}
	}
	return ""
}

// IsVideo reports whether the stream type carries video.
func (es ElementaryStream) IsVideo() bool {
	switch es.StreamType {
	case StreamTypeMPEG1Video, StreamTypeMPEG2Video, StreamTypeMPEG4Video, StreamTypeH264, StreamTypeHEVC:
		return true
	}
	return false
}

// PES is one demultiplexed PES packet. PTS and DTS are 90 kHz ticks or
// media.NoTimestamp.
type PES struct {
	PID          uint16
	StreamID     uint8
	PTS          int64
	DTS          int64
	RandomAccess bool
	Data         []byte
}

// DefaultStreamID returns the PES stream_id a muxer assigns to the first
// stream of the given type.
func DefaultStreamID(streamType uint8) uint8 {
	switch streamType {
	case StreamTypeMPEG1Video, StreamTypeMPEG2Video, StreamTypeMPEG4Video, StreamTypeH264, StreamTypeHEVC:
		return streamIDVideo
	case StreamTypeMPEG1Audio, StreamTypeMPEG2Audio, StreamTypeAAC, StreamTypeAACLATM:
		return streamIDAudio
	default:
		return streamIDPrivate1
	}
}

// timestampMask keeps the 33-bit PTS/DTS range.
const timestampMask = (int64(1) << 33) - 1
