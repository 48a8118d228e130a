package pipeline

import (
	"context"
	"time"

	"quickshorts/internal/media"
	"quickshorts/internal/media/ffmpeg"
)

// Framework opens containers for reading and writing. Open positions the
// source at start; packet timestamps then count from that point.
type Framework interface {
	Open(ctx context.Context, path string, start time.Duration) (media.Source, error)
	OpenForWrite(ctx context.Context, path string, opts media.MuxOptions) (media.Sink, error)
}

// FFmpeg adapts an ffmpeg backend to Framework.
func FFmpeg(backend *ffmpeg.Backend) Framework {
	return ffmpegFramework{backend: backend}
}

type ffmpegFramework struct {
	backend *ffmpeg.Backend
}

func (f ffmpegFramework) Open(ctx context.Context, path string, start time.Duration) (media.Source, error) {
	d, err := f.backend.Open(ctx, path, start)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (f ffmpegFramework) OpenForWrite(ctx context.Context, path string, opts media.MuxOptions) (media.Sink, error) {
	m, err := f.backend.OpenForWrite(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}
