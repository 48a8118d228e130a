package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astits"

	"quickshorts/internal/media"
)

// ErrNoProgram is returned when the stream ends before a PMT is seen.
var ErrNoProgram = errors.New("mpegts: no program map table")

// Reader demultiplexes a transport stream into PES packets.
type Reader struct {
	dmx     *astits.Demuxer
	streams []ElementaryStream
	pmtSeen bool
	pending []PES
}

// NewReader wraps r. Reading stops early when ctx is cancelled.
func NewReader(ctx context.Context, r io.Reader) *Reader {
	return &Reader{dmx: astits.NewDemuxer(ctx, r)}
}

// Streams reads until the first PMT and returns its elementary streams in
// table order. PES packets that arrive before the PMT are kept for ReadPES.
func (r *Reader) Streams() ([]ElementaryStream, error) {
	for !r.pmtSeen {
		if err := r.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoProgram
			}
			return nil, err
		}
	}
	return append([]ElementaryStream(nil), r.streams...), nil
}

// ReadPES returns the next PES packet in stream order, or io.EOF.
func (r *Reader) ReadPES() (PES, error) {
	if !r.pmtSeen {
		if _, err := r.Streams(); err != nil {
			return PES{}, err
		}
	}
	for len(r.pending) == 0 {
		if err := r.next(); err != nil {
			return PES{}, err
		}
	}
	p := r.pending[0]
	r.pending = r.pending[1:]
	return p, nil
}

func (r *Reader) next() error {
	d, err := r.dmx.NextData()
	if errors.Is(err, astits.ErrNoMorePackets) || errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("mpegts: demux: %w", err)
	}
	switch {
	case d.PMT != nil:
		if r.pmtSeen {
			return nil
		}
		r.pmtSeen = true
		for _, es := range d.PMT.ElementaryStreams {
			r.streams = append(r.streams, ElementaryStream{
				PID:         es.ElementaryPID,
				StreamType:  uint8(es.StreamType),
				Descriptors: fromAstits(es.ElementaryStreamDescriptors),
			})
		}
	case d.PES != nil:
		r.pending = append(r.pending, convertPES(d))
	}
	return nil
}

func convertPES(d *astits.DemuxerData) PES {
	p := PES{PID: d.PID, PTS: media.NoTimestamp, DTS: media.NoTimestamp, Data: d.PES.Data}
	if h := d.PES.Header; h != nil {
		p.StreamID = h.StreamID
		if oh := h.OptionalHeader; oh != nil {
			switch oh.PTSDTSIndicator {
			case astits.PTSDTSIndicatorBothPresent:
				if oh.DTS != nil {
					p.DTS = oh.DTS.Base
				}
				fallthrough
			case astits.PTSDTSIndicatorOnlyPTS:
				if oh.PTS != nil {
					p.PTS = oh.PTS.Base
				}
			}
		}
	}
	if fp := d.FirstPacket; fp != nil && fp.AdaptationField != nil {
		p.RandomAccess = fp.AdaptationField.RandomAccessIndicator
	}
	return p
}
