package ffmpeg

import (
	"fmt"
	"strconv"
	"time"

	"quickshorts/internal/media"
)

// h264Encoder is the fixed target for video re-encoding.
const h264Encoder = "libx264"

// demuxArgs builds the streaming-stage command line. A positive start
// seeks the input before the first packet is read, so stream copy begins at
// the keyframe preceding start. The transport keeps one access unit per PES
// packet and no mux delay, so timestamps are the source's.
func demuxArgs(path string, streams []int, start time.Duration) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}
	if start > 0 {
		args = append(args, "-ss", seconds(start))
	}
	args = append(args, "-i", path)
	for _, idx := range streams {
		args = append(args, "-map", fmt.Sprintf("0:%d", idx))
	}
	return append(args, "-c", "copy",
		"-f", "mpegts", "-pes_payload_size", "0", "-muxdelay", "0", "-muxpreload", "0",
		"pipe:1")
}

// muxArgs builds the encoding-stage command line for the output streams in
// params order. Copied streams keep their source codec tag when the
// destination container stores one.
func muxArgs(path string, opts media.MuxOptions, md media.Metadata, params []media.CodecParameters) []string {
	var hasVideo, hasAudio bool
	for _, p := range params {
		hasVideo = hasVideo || p.Medium == media.MediumVideo
		hasAudio = hasAudio || p.Medium == media.MediumAudio
	}
	args := []string{"-hide_banner", "-loglevel", "error", "-f", "mpegts", "-i", "pipe:0", "-map", "0"}
	if opts.Start > 0 {
		args = append(args, "-ss", seconds(opts.Start))
	}
	if opts.Duration > 0 {
		args = append(args, "-t", seconds(opts.Duration))
	}
	switch {
	case opts.DropVideo:
		args = append(args, "-vn")
	case hasVideo && opts.Video == media.VideoReencode:
		if opts.VideoFilter != "" {
			args = append(args, "-vf", opts.VideoFilter)
		}
		args = append(args, "-c:v", h264Encoder)
	case hasVideo:
		args = append(args, "-c:v", "copy")
	}
	if hasAudio {
		args = append(args, "-c:a", opts.AudioCodec())
	}
	if keepsCodecTags(path) {
		args = append(args, tagArgs(opts, params)...)
	}
	for _, tag := range md {
		if tag.Key == "" {
			continue
		}
		args = append(args, "-metadata", tag.Key+"="+tag.Value)
	}
	return append(args, "-y", path)
}

func tagArgs(opts media.MuxOptions, params []media.CodecParameters) []string {
	var args []string
	var video, audio int
	for _, p := range params {
		switch p.Medium {
		case media.MediumVideo:
			n := video
			video++
			if opts.DropVideo || opts.Video == media.VideoReencode {
				continue
			}
			if tag := fourCC(p.CodecTag); tag != "" {
				args = append(args, fmt.Sprintf("-tag:v:%d", n), tag)
			}
		case media.MediumAudio:
			n := audio
			audio++
			if opts.AudioCodec() != media.AudioCopy {
				continue
			}
			if tag := fourCC(p.CodecTag); tag != "" {
				args = append(args, fmt.Sprintf("-tag:a:%d", n), tag)
			}
		}
	}
	return args
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
