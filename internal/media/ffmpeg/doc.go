// Package ffmpeg implements media.Source and media.Sink on top of the
// ffmpeg and ffprobe command line tools.
//
// A Demuxer probes the source with ffprobe and runs ffmpeg to stream the
// selected elementary streams as MPEG-TS, which the Go side reads packet by
// packet. A Muxer writes packets back out as MPEG-TS into a second ffmpeg
// process that applies the time window, filters and encoders and writes the
// destination container.
//
// Backend.EnsureInitialized resolves both binaries once and caches the
// outcome; every Open and OpenForWrite calls it first.
package ffmpeg
