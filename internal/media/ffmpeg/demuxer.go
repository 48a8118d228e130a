package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"quickshorts/internal/logging"
	"quickshorts/internal/media"
	"quickshorts/internal/media/ffprobe"
	"quickshorts/internal/media/mpegts"
)

const pipeBufferSize = 1 << 20

// Demuxer is an opened source container.
type Demuxer struct {
	path     string
	seek     time.Duration
	streams  []media.Stream
	metadata media.Metadata
	logger   *slog.Logger

	cmd      *exec.Cmd
	stdout   io.ReadCloser
	stderr   *tailBuffer
	reader   *mpegts.Reader
	pidIndex map[uint16]int
	finished bool
	waited   bool
	closed   bool
}

// Open probes path and starts streaming its video and audio packets. A
// positive start seeks the input first; packet timestamps then count from
// the seek point.
func (b *Backend) Open(ctx context.Context, path string, start time.Duration) (*Demuxer, error) {
	tools, err := b.EnsureInitialized(ctx)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, media.Wrap(media.ErrNotFound, path, err)
		}
		return nil, media.Wrap(media.ErrIO, "stat "+path, err)
	}
	if info.IsDir() {
		return nil, media.Wrap(media.ErrNotFound, path+" is a directory", nil)
	}

	inspected, err := ffprobe.Inspect(ctx, tools.FFprobe, path)
	if err != nil {
		return nil, classifyInspectError(path, err)
	}
	logger := b.logger.With(logging.String("source", path))
	streams := convertStreams(inspected.Streams, logger)
	if len(streams) == 0 {
		return nil, media.Wrap(media.ErrUnsupportedFormat, path+": no streams", nil)
	}

	d := &Demuxer{
		path:     path,
		seek:     max(start, 0),
		streams:  streams,
		metadata: convertTags(inspected.Format.Tags),
		logger:   logger,
		stderr:   &tailBuffer{},
		pidIndex: make(map[uint16]int),
	}
	if err := d.start(ctx, tools.FFmpeg); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// classifyInspectError maps ffprobe failures onto the demux taxonomy.
func classifyInspectError(path string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such file"):
		return media.Wrap(media.ErrNotFound, path, err)
	case strings.Contains(msg, "invalid data found"),
		strings.Contains(msg, "could not find codec parameters"),
		strings.Contains(msg, "unknown format"):
		return media.Wrap(media.ErrUnsupportedFormat, path, err)
	default:
		return media.Wrap(media.ErrCorrupt, path, err)
	}
}

func convertStreams(probed []ffprobe.Stream, logger *slog.Logger) []media.Stream {
	streams := make([]media.Stream, 0, len(probed))
	for _, ps := range probed {
		medium := media.ParseMedium(ps.CodecType)
		num, den := ps.TimeBaseValue()
		extradata, err := ps.ExtradataBytes()
		if err != nil {
			logger.Warn("codec extradata unreadable",
				logging.String(logging.FieldEventType, "extradata_unreadable"),
				logging.Int(logging.FieldSourceStream, ps.Index),
				logging.Error(err),
			)
			extradata = nil
		}
		if len(extradata) == 0 {
			extradata = nil
		}
		streams = append(streams, media.Stream{
			Index: ps.Index,
			Codec: media.CodecParameters{
				Medium:     medium,
				CodecName:  ps.CodecName,
				CodecTag:   ps.CodecTag,
				TimeBase:   media.TimeBase{Num: num, Den: den},
				Extradata:  extradata,
				Width:      ps.Width,
				Height:     ps.Height,
				SampleRate: ps.SampleRateValue(),
				Channels:   ps.Channels,
				BitRate:    ps.BitRateValue(),
				Transport:  predictTransport(medium, ps.CodecName, ps.Flag("attached_pic")),
			},
			Disposition: media.Disposition{
				Default:         ps.Flag("default"),
				HearingImpaired: ps.Flag("hearing_impaired"),
				VisualImpaired:  ps.Flag("visual_impaired"),
			},
			Language: ps.Language(),
		})
	}
	return streams
}

func convertTags(tags ffprobe.Tags) media.Metadata {
	if len(tags) == 0 {
		return nil
	}
	md := make(media.Metadata, 0, len(tags))
	for _, tag := range tags {
		md = append(md, media.Tag{Key: tag.Key, Value: tag.Value})
	}
	return md
}

func (d *Demuxer) start(ctx context.Context, binary string) error {
	var carried []int
	for _, s := range d.streams {
		if s.Relayable() {
			carried = append(carried, s.Index)
			continue
		}
		if s.Medium() == media.MediumVideo || s.Medium() == media.MediumAudio {
			d.logger.Debug("stream not relayable",
				logging.Int(logging.FieldSourceStream, s.Index),
				logging.String("codec", s.Codec.CodecName),
			)
		}
	}
	if len(carried) == 0 {
		d.finished = true
		return nil
	}

	// The relay cannot be cancelled, so the streaming process outlives ctx.
	runCtx := context.WithoutCancel(ctx)
	args := demuxArgs(d.path, carried, d.seek)
	d.logger.Debug("starting demux process", logging.String("command", binary+" "+strings.Join(args, " ")))
	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Stderr = d.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return media.Wrap(media.ErrIO, "demux stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return media.Wrap(media.ErrIO, "start demux process", err)
	}
	d.cmd = cmd
	d.stdout = stdout
	d.reader = mpegts.NewReader(runCtx, bufio.NewReaderSize(stdout, pipeBufferSize))

	elementary, err := d.reader.Streams()
	if err != nil {
		_ = d.wait()
		return media.Wrap(media.ErrCorrupt, withDiagnostics(d.path+": read transport tables", d.stderr), err)
	}
	if len(elementary) != len(carried) {
		return media.Wrap(media.ErrCorrupt, fmt.Sprintf("%s: expected %d elementary streams, got %d", d.path, len(carried), len(elementary)), nil)
	}
	for i, es := range elementary {
		source := carried[i]
		d.pidIndex[es.PID] = source
		for j := range d.streams {
			if d.streams[j].Index == source {
				d.streams[j].Codec.Transport = bindingFor(es)
			}
		}
	}
	return nil
}

// Streams returns the container streams in container order.
func (d *Demuxer) Streams() []media.Stream {
	out := make([]media.Stream, len(d.streams))
	for i, s := range d.streams {
		s.Codec = s.Codec.Clone()
		out[i] = s
	}
	return out
}

// Metadata returns the container tags in source order.
func (d *Demuxer) Metadata() media.Metadata {
	return d.metadata.Clone()
}

// BestStream returns the preferred stream of medium.
func (d *Demuxer) BestStream(medium media.Medium) (media.Stream, bool) {
	return media.BestStream(d.Streams(), medium)
}

// ReadPacket returns the next packet in interleave order, or io.EOF.
func (d *Demuxer) ReadPacket() (media.Packet, error) {
	if d.closed {
		return media.Packet{}, media.Wrap(media.ErrIO, "read from closed demuxer", nil)
	}
	for !d.finished {
		pes, err := d.reader.ReadPES()
		if errors.Is(err, io.EOF) {
			d.finished = true
			if werr := d.wait(); werr != nil {
				return media.Packet{}, media.Wrap(media.ErrCorrupt, withDiagnostics(d.path+": demux process failed", d.stderr), werr)
			}
			break
		}
		if err != nil {
			d.finished = true
			return media.Packet{}, media.Wrap(media.ErrCorrupt, withDiagnostics(d.path, d.stderr), err)
		}
		index, ok := d.pidIndex[pes.PID]
		if !ok {
			continue
		}
		return media.Packet{
			StreamIndex: index,
			PTS:         pes.PTS,
			DTS:         pes.DTS,
			Keyframe:    pes.RandomAccess,
			Data:        pes.Data,
		}, nil
	}
	return media.Packet{}, io.EOF
}

func (d *Demuxer) wait() error {
	if d.cmd == nil || d.waited {
		return nil
	}
	d.waited = true
	return d.cmd.Wait()
}

// Close stops the demux process if it is still running.
func (d *Demuxer) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.cmd == nil || d.waited {
		return nil
	}
	if d.stdout != nil {
		_ = d.stdout.Close()
	}
	if d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
	}
	_ = d.wait()
	return nil
}
