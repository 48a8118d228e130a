package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"quickshorts/internal/logging"
	"quickshorts/internal/media"
	"quickshorts/internal/media/ffprobe"
	"quickshorts/internal/media/mpegts"
)

// firstPID is the transport PID of output stream 0.
const firstPID uint16 = 0x100

type muxState int

const (
	muxOpened muxState = iota
	muxHeaderWritten
	muxTrailerWritten
)

func (s muxState) String() string {
	switch s {
	case muxHeaderWritten:
		return "header-written"
	case muxTrailerWritten:
		return "trailer-written"
	default:
		return "opened"
	}
}

// Muxer is a destination container under construction.
type Muxer struct {
	ctx      context.Context
	binary   string
	inspect  string
	path     string
	opts     media.MuxOptions
	logger   *slog.Logger
	state    muxState
	params   []media.CodecParameters
	metadata media.Metadata

	cmd      *exec.Cmd
	stdin    io.WriteCloser
	buf      *bufio.Writer
	stderr   *tailBuffer
	writer   *mpegts.Writer
	sinkDone bool
	waited   bool
	closed   bool
}

// OpenForWrite validates opts and the destination directory. Nothing is
// written until WriteHeader starts the encoding process, which creates
// path.
func (b *Backend) OpenForWrite(ctx context.Context, path string, opts media.MuxOptions) (*Muxer, error) {
	tools, err := b.EnsureInitialized(ctx)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, media.Wrap(media.ErrMux, "empty destination path", nil)
	}
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, media.Wrap(media.ErrIO, "destination directory "+dir, err)
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return nil, media.Wrap(media.ErrIO, "destination directory "+dir+" is not writable", err)
	}
	return &Muxer{
		ctx:     context.WithoutCancel(ctx),
		binary:  tools.FFmpeg,
		inspect: tools.FFprobe,
		path:    path,
		opts:    opts,
		logger:  b.logger.With(logging.String("destination", path)),
		stderr:  &tailBuffer{},
	}, nil
}

func (m *Muxer) require(want muxState, op string) {
	if m.closed || m.state != want {
		panic(fmt.Sprintf("ffmpeg muxer: %s called in state %s (closed=%v)", op, m.state, m.closed))
	}
}

// AddStream creates an output stream from params copied verbatim.
func (m *Muxer) AddStream(params media.CodecParameters) (int, error) {
	m.require(muxOpened, "AddStream")
	if params.Medium != media.MediumVideo && params.Medium != media.MediumAudio {
		return 0, media.Wrap(media.ErrMux, fmt.Sprintf("cannot write %s stream", params.Medium), nil)
	}
	if params.Medium == media.MediumVideo && m.opts.DropVideo {
		return 0, media.Wrap(media.ErrMux, "video stream added while video is dropped", nil)
	}
	if params.Transport.StreamType == 0 {
		return 0, media.Wrap(media.ErrUnsupportedFormat, "codec "+params.CodecName+" cannot be relayed", nil)
	}
	m.params = append(m.params, params.Clone())
	return len(m.params) - 1, nil
}

// SetMetadata records container tags written with the header.
func (m *Muxer) SetMetadata(md media.Metadata) {
	m.require(muxOpened, "SetMetadata")
	m.metadata = md.Clone()
}

// WriteHeader starts the encoding process and writes the transport tables.
func (m *Muxer) WriteHeader() error {
	m.require(muxOpened, "WriteHeader")
	if len(m.params) == 0 {
		return media.Wrap(media.ErrMux, "no output streams", nil)
	}
	args := muxArgs(m.path, m.opts, m.metadata, m.params)
	m.logger.Debug("starting mux process", logging.String("command", m.binary+" "+strings.Join(args, " ")))

	cmd := exec.CommandContext(m.ctx, m.binary, args...)
	cmd.Stderr = m.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return media.Wrap(media.ErrMux, "mux stdin pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return media.Wrap(media.ErrMux, "start mux process", err)
	}
	m.cmd = cmd
	m.stdin = stdin
	m.buf = bufio.NewWriterSize(stdin, pipeBufferSize)
	m.writer = mpegts.NewWriter(m.ctx, m.buf)

	for i, p := range m.params {
		if err := m.writer.AddStream(elementaryFor(firstPID+uint16(i), p.Transport)); err != nil {
			return media.Wrap(media.ErrMux, "add output stream", err)
		}
	}
	if err := m.writer.WriteTables(); err != nil {
		if isBrokenPipe(err) {
			m.sinkDone = true
		} else {
			return media.Wrap(media.ErrMux, "write header", err)
		}
	}
	m.state = muxHeaderWritten
	return nil
}

// WritePacket writes one packet to its output stream. Once the encoding
// process stops reading, packets are accepted and dropped and Complete
// reports true.
func (m *Muxer) WritePacket(pkt media.Packet) error {
	m.require(muxHeaderWritten, "WritePacket")
	if m.sinkDone {
		return nil
	}
	if pkt.StreamIndex < 0 || pkt.StreamIndex >= len(m.params) {
		return media.Wrap(media.ErrPacketWrite, fmt.Sprintf("unknown output stream %d", pkt.StreamIndex), nil)
	}
	if len(pkt.Data) == 0 {
		return media.Wrap(media.ErrPacketWrite, fmt.Sprintf("empty packet on stream %d", pkt.StreamIndex), nil)
	}
	err := m.writer.WritePES(mpegts.PES{
		PID:          firstPID + uint16(pkt.StreamIndex),
		StreamID:     m.params[pkt.StreamIndex].Transport.StreamID,
		PTS:          pkt.PTS,
		DTS:          pkt.DTS,
		RandomAccess: pkt.Keyframe,
		Data:         pkt.Data,
	})
	if err != nil {
		if isBrokenPipe(err) {
			m.sinkDone = true
			m.logger.Debug("mux process stopped reading input")
			return nil
		}
		return media.Wrap(media.ErrPacketWrite, fmt.Sprintf("stream %d", pkt.StreamIndex), err)
	}
	return nil
}

// Complete reports whether the encoding process has stopped consuming input,
// which happens once a time window has been written in full.
func (m *Muxer) Complete() bool {
	return m.sinkDone
}

// WriteTrailer ends the input, waits for the encoding process and reports
// its failure, if any. The finished file is then inspected and every copied
// stream whose codec name, tag or extradata differs from its source is
// logged.
func (m *Muxer) WriteTrailer() error {
	m.require(muxHeaderWritten, "WriteTrailer")
	m.state = muxTrailerWritten

	var flushErr error
	if err := m.buf.Flush(); err != nil && !isBrokenPipe(err) {
		flushErr = err
	}
	if err := m.stdin.Close(); err != nil && !isBrokenPipe(err) && flushErr == nil {
		flushErr = err
	}
	m.waited = true
	if err := m.cmd.Wait(); err != nil {
		return media.Wrap(media.ErrMux, withDiagnostics("mux process failed", m.stderr), err)
	}
	if flushErr != nil {
		return media.Wrap(media.ErrMux, "flush destination", flushErr)
	}
	written, err := ffprobe.Inspect(m.ctx, m.inspect, m.path)
	if err != nil {
		return media.Wrap(media.ErrMux, "inspect destination", err)
	}
	for _, drift := range codecDrift(m.path, m.opts, m.params, written.Streams) {
		m.logger.Warn("copied codec parameters changed",
			logging.String(logging.FieldEventType, "codec_parameters_changed"),
			logging.String("difference", drift),
		)
	}
	return nil
}

// codecDrift compares the copied streams found in the output against the
// source parameters they were created from.
func codecDrift(path string, opts media.MuxOptions, params []media.CodecParameters, found []ffprobe.Stream) []string {
	if len(found) != len(params) {
		return []string{fmt.Sprintf("destination has %d streams, expected %d", len(found), len(params))}
	}
	tagged := keepsCodecTags(path)
	var drift []string
	for i, p := range params {
		copied := (p.Medium == media.MediumVideo && opts.Video == media.VideoCopy) ||
			(p.Medium == media.MediumAudio && opts.AudioCodec() == media.AudioCopy)
		if !copied {
			continue
		}
		out := found[i]
		if out.CodecName != p.CodecName {
			drift = append(drift, fmt.Sprintf("stream %d codec %s became %s", i, p.CodecName, out.CodecName))
			continue
		}
		// Tags and extradata layouts only compare within one container family.
		if !tagged || fourCC(p.CodecTag) == "" {
			continue
		}
		if out.CodecTag != p.CodecTag {
			drift = append(drift, fmt.Sprintf("stream %d tag %s became %s", i, p.CodecTag, out.CodecTag))
		}
		extradata, err := out.ExtradataBytes()
		if err != nil {
			drift = append(drift, fmt.Sprintf("stream %d extradata unreadable: %v", i, err))
			continue
		}
		if !bytes.Equal(extradata, p.Extradata) {
			drift = append(drift, fmt.Sprintf("stream %d extradata differs (%d bytes, source %d)", i, len(extradata), len(p.Extradata)))
		}
	}
	return drift
}

// Close releases the encoding process. An unfinished process is killed.
func (m *Muxer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.cmd == nil || m.waited {
		return nil
	}
	_ = m.stdin.Close()
	if m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
	}
	m.waited = true
	_ = m.cmd.Wait()
	return nil
}
