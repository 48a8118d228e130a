package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"quickshorts/internal/logging"
	"quickshorts/internal/media"
	"quickshorts/internal/subtitles"
)

// Operation names used in results and log fields.
const (
	OpTrim          = "trim"
	OpExtractAudio  = "extract_audio"
	OpBurnSubtitles = "burn_subtitles"
)

// Result describes one completed operation.
type Result struct {
	Operation string
	Output    string
	Streams   int
	Relay     media.RelayStats
	Elapsed   time.Duration
}

// Scale is an optional output frame size for BurnSubtitles. A zero value
// keeps the source size.
type Scale struct {
	Width  int
	Height int
}

// Pipeline runs operations against a Framework.
type Pipeline struct {
	framework Framework
	policy    media.PacketFailurePolicy
	logger    *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPolicy sets the packet failure policy applied by the relay.
func WithPolicy(policy media.PacketFailurePolicy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a pipeline. The default policy is BestEffort.
func New(framework Framework, opts ...Option) *Pipeline {
	p := &Pipeline{
		framework: framework,
		policy:    media.BestEffort,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// Policy reports the configured packet failure policy.
func (p *Pipeline) Policy() media.PacketFailurePolicy {
	return p.policy
}

// TrimVideo copies the video and audio streams of input into output,
// restricted to duration starting at start. Packets are not re-encoded, so
// the window opens at the keyframe preceding start.
func (p *Pipeline) TrimVideo(ctx context.Context, input, output string, start, duration time.Duration) (Result, error) {
	if duration <= 0 {
		return Result{Operation: OpTrim}, media.Wrap(media.ErrMux, fmt.Sprintf("trim duration must be positive, got %s", duration), nil)
	}
	opts := media.MuxOptions{
		Start:    start,
		Duration: duration,
		Video:    media.VideoCopy,
		Audio:    media.AudioCopy,
	}
	return p.run(ctx, OpTrim, input, output, opts, selectAV)
}

// ExtractAudio writes the best audio stream of input to output as PCM
// signed 16-bit little-endian. No destination is created when input has no
// audio.
func (p *Pipeline) ExtractAudio(ctx context.Context, input, output string) (Result, error) {
	opts := media.MuxOptions{
		Audio:     media.AudioPCM16LE,
		DropVideo: true,
	}
	return p.run(ctx, OpExtractAudio, input, output, opts, func(src media.Source) (media.Predicate, error) {
		best, ok := src.BestStream(media.MediumAudio)
		if !ok {
			return nil, media.NoStreamOfKind(media.MediumAudio)
		}
		if !best.Relayable() {
			return nil, media.Wrap(media.ErrUnsupportedFormat, "audio codec "+best.Codec.CodecName+" cannot be relayed", nil)
		}
		return media.OnlyIndex(best.Index), nil
	})
}

// BurnSubtitles re-encodes the video of input with subtitlePath rendered
// in style, copying audio. The style is validated before anything is
// opened.
func (p *Pipeline) BurnSubtitles(ctx context.Context, input, subtitlePath, output string, spec subtitles.StyleSpec, scale Scale) (Result, error) {
	style, err := subtitles.NewStyle(spec)
	if err != nil {
		return Result{Operation: OpBurnSubtitles}, err
	}
	if _, err := os.Stat(subtitlePath); err != nil {
		return Result{Operation: OpBurnSubtitles}, media.Wrap(media.ErrNotFound, "subtitle file "+subtitlePath, err)
	}
	filter := style.Filter(subtitlePath).Scaled(scale.Width, scale.Height)
	opts := media.MuxOptions{
		Video:       media.VideoReencode,
		Audio:       media.AudioCopy,
		VideoFilter: filter.String(),
	}
	return p.run(ctx, OpBurnSubtitles, input, output, opts, selectAV)
}

func selectAV(media.Source) (media.Predicate, error) {
	return media.MediumIn(media.MediumVideo, media.MediumAudio), nil
}

type selector func(src media.Source) (media.Predicate, error)

func (p *Pipeline) run(ctx context.Context, op, input, output string, opts media.MuxOptions, choose selector) (result Result, err error) {
	result = Result{Operation: op, Output: output}
	ctx = logging.WithOperation(ctx, op)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	// The source seeks to the window start, so the sink's window begins at
	// the first relayed packet.
	src, err := p.framework.Open(ctx, input, opts.Start)
	if err != nil {
		return result, err
	}
	opts.Start = 0
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Debug("close source failed", logging.Error(cerr))
		}
	}()

	keep, err := choose(src)
	if err != nil {
		return result, err
	}
	streams := src.Streams()
	keep, err = relayableOnly(logger, streams, keep)
	if err != nil {
		return result, err
	}
	mapping := media.Select(streams, keep)
	if mapping.Len() == 0 {
		return result, media.Wrap(media.ErrNoStreamOfKind, "no video or audio streams in "+input, nil)
	}
	result.Streams = mapping.Len()

	dst, err := p.framework.OpenForWrite(ctx, output, opts)
	if err != nil {
		return result, err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = media.Wrap(media.ErrIO, "close destination", cerr)
		}
	}()

	byIndex := make(map[int]media.Stream, len(streams))
	for _, s := range streams {
		byIndex[s.Index] = s
	}
	for _, source := range mapping.Sources() {
		want, _ := mapping.Lookup(source)
		got, err := dst.AddStream(byIndex[source].Codec)
		if err != nil {
			return result, err
		}
		if got != want {
			return result, media.Wrap(media.ErrMux, fmt.Sprintf("stream %d mapped to %d, sink assigned %d", source, want, got), nil)
		}
	}
	dst.SetMetadata(src.Metadata())

	if err := dst.WriteHeader(); err != nil {
		return result, err
	}
	logger.Info("relay started",
		logging.String(logging.FieldEventType, "relay_started"),
		logging.String("input", input),
		logging.String("output", output),
		logging.Int("streams", mapping.Len()),
		logging.String("policy", p.policy.String()),
	)

	relay := media.Relay{Policy: p.policy, Logger: logger}
	stats, err := relay.Run(src, dst, mapping)
	result.Relay = stats
	if err != nil {
		return result, err
	}
	if err := dst.WriteTrailer(); err != nil {
		return result, err
	}

	result.Elapsed = time.Since(started)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "operation_completed"),
		logging.String("output", output),
		logging.Int64("packets_written", stats.Written),
		logging.Int64("packets_discarded", stats.Discarded),
		logging.Duration("elapsed", result.Elapsed),
	}
	if stats.Failed > 0 {
		attrs = append(attrs, logging.Int64("packets_failed", stats.Failed))
	}
	logger.Info("operation completed", logging.Args(attrs...)...)
	return result, nil
}

// relayableOnly narrows keep to streams the framework can relay. Dropped streams
// are logged. A medium whose every kept stream is unrelayable fails the
// operation before any destination is opened.
func relayableOnly(logger *slog.Logger, streams []media.Stream, keep media.Predicate) (media.Predicate, error) {
	wanted := make(map[media.Medium]bool)
	for _, s := range streams {
		if !keep(s) {
			continue
		}
		if s.Relayable() {
			wanted[s.Medium()] = true
			continue
		}
		if _, seen := wanted[s.Medium()]; !seen {
			wanted[s.Medium()] = false
		}
		logger.Warn("stream left unmapped",
			logging.String(logging.FieldEventType, "stream_unmapped"),
			logging.Int(logging.FieldSourceStream, s.Index),
			logging.String("codec", s.Codec.CodecName),
			logging.String(logging.FieldErrorHint, "the codec cannot be relayed without re-encoding"),
		)
	}
	for _, medium := range []media.Medium{media.MediumVideo, media.MediumAudio} {
		if ok, present := wanted[medium]; present && !ok {
			return nil, media.Wrap(media.ErrUnsupportedFormat, fmt.Sprintf("no relayable %s stream", medium), nil)
		}
	}
	return func(s media.Stream) bool {
		return keep(s) && s.Relayable()
	}, nil
}

// IsInvalidInput reports whether err was caused by caller supplied settings
// rather than the media or the environment.
func IsInvalidInput(err error) bool {
	return subtitles.IsStyleError(err) || errors.Is(err, media.ErrNoStreamOfKind)
}
