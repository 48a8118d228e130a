package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astits"

	"quickshorts/internal/media"
)

// Writer multiplexes PES packets into a single-program transport stream.
type Writer struct {
	mux           *astits.Muxer
	streams       map[uint16]ElementaryStream
	pcrPID        uint16
	hasPCRPID     bool
	tablesWritten bool
}

// NewWriter wraps w.
func NewWriter(ctx context.Context, w io.Writer) *Writer {
	return &Writer{
		mux:     astits.NewMuxer(ctx, w),
		streams: make(map[uint16]ElementaryStream),
	}
}

// AddStream registers an elementary stream in the PMT together with its
// descriptor loop. The first video stream carries the PCR; without video
// the first stream does.
func (w *Writer) AddStream(es ElementaryStream) error {
	if w.tablesWritten {
		return errors.New("mpegts: stream added after tables were written")
	}
	if _, dup := w.streams[es.PID]; dup {
		return fmt.Errorf("mpegts: duplicate pid %d", es.PID)
	}
	if es.StreamID == 0 {
		es.StreamID = DefaultStreamID(es.StreamType)
	}
	err := w.mux.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID:               es.PID,
		StreamType:                  astits.StreamType(es.StreamType),
		ElementaryStreamDescriptors: toAstits(es.Descriptors),
	})
	if err != nil {
		return fmt.Errorf("mpegts: add stream pid %d: %w", es.PID, err)
	}
	w.streams[es.PID] = es
	if !w.hasPCRPID || (es.IsVideo() && !w.streams[w.pcrPID].IsVideo()) {
		w.pcrPID = es.PID
		w.hasPCRPID = true
		w.mux.SetPCRPID(es.PID)
	}
	return nil
}

// WriteTables emits the PAT and PMT.
func (w *Writer) WriteTables() error {
	if len(w.streams) == 0 {
		return errors.New("mpegts: no streams")
	}
	if _, err := w.mux.WriteTables(); err != nil {
		return fmt.Errorf("mpegts: write tables: %w", err)
	}
	w.tablesWritten = true
	return nil
}

// WritePES writes one PES packet to its elementary stream.
func (w *Writer) WritePES(p PES) error {
	es, ok := w.streams[p.PID]
	if !ok {
		return fmt.Errorf("mpegts: unknown pid %d", p.PID)
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("mpegts: empty payload on pid %d", p.PID)
	}
	streamID := p.StreamID
	if streamID == 0 {
		streamID = es.StreamID
	}

	pts, dts := p.PTS, p.DTS
	if pts == media.NoTimestamp && dts != media.NoTimestamp {
		pts = dts
		dts = media.NoTimestamp
	}
	header := &astits.PESOptionalHeader{
		MarkerBits:             2,
		DataAlignmentIndicator: true,
		PTSDTSIndicator:        astits.PTSDTSIndicatorNoPTSOrDTS,
	}
	clock := media.NoTimestamp
	switch {
	case pts != media.NoTimestamp && dts != media.NoTimestamp:
		header.PTSDTSIndicator = astits.PTSDTSIndicatorBothPresent
		header.PTS = &astits.ClockReference{Base: pts & timestampMask}
		header.DTS = &astits.ClockReference{Base: dts & timestampMask}
		clock = dts
	case pts != media.NoTimestamp:
		header.PTSDTSIndicator = astits.PTSDTSIndicatorOnlyPTS
		header.PTS = &astits.ClockReference{Base: pts & timestampMask}
		clock = pts
	}

	var af *astits.PacketAdaptationField
	if p.RandomAccess || (p.PID == w.pcrPID && clock != media.NoTimestamp) {
		af = &astits.PacketAdaptationField{RandomAccessIndicator: p.RandomAccess}
		if p.PID == w.pcrPID && clock != media.NoTimestamp {
			af.HasPCR = true
			af.PCR = &astits.ClockReference{Base: clock & timestampMask}
		}
	}

	_, err := w.mux.WriteData(&astits.MuxerData{
		PID:             p.PID,
		AdaptationField: af,
		PES: &astits.PESData{
			Header: &astits.PESHeader{
				StreamID:       streamID,
				OptionalHeader: header,
			},
			Data: p.Data,
		},
	})
	if err != nil {
		return fmt.Errorf("mpegts: write pes pid %d: %w", p.PID, err)
	}
	return nil
}
