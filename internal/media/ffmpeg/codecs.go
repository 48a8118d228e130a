package ffmpeg

import (
	"path/filepath"
	"strings"

	"quickshorts/internal/media"
	"quickshorts/internal/media/mpegts"
)

// transportTypes lists the codecs ffmpeg can carry in MPEG-TS with stream
// copy, keyed by ffprobe codec_name, with the stream type ffmpeg assigns.
// Opus travels as private data identified by its registration descriptor.
var transportTypes = map[string]uint8{
	"h264":       mpegts.StreamTypeH264,
	"hevc":       mpegts.StreamTypeHEVC,
	"mpeg1video": mpegts.StreamTypeMPEG2Video,
	"mpeg2video": mpegts.StreamTypeMPEG2Video,
	"mpeg4":      mpegts.StreamTypeMPEG4Video,
	"aac":        mpegts.StreamTypeAAC,
	"aac_latm":   mpegts.StreamTypeAACLATM,
	"mp2":        mpegts.StreamTypeMPEG1Audio,
	"mp3":        mpegts.StreamTypeMPEG1Audio,
	"ac3":        mpegts.StreamTypeAC3,
	"eac3":       mpegts.StreamTypeEAC3,
	"dts":        mpegts.StreamTypeDTS,
	"opus":       mpegts.StreamTypePrivate,
}

// predictTransport returns the expected binding for a stream ffprobe reported. Only
// video and audio are carried. Cover art and codecs ffmpeg cannot place in
// a transport stream (vp9, flac, pcm, prores) get the zero binding.
func predictTransport(medium media.Medium, codec string, attachedPic bool) media.TransportBinding {
	if medium != media.MediumVideo && medium != media.MediumAudio {
		return media.TransportBinding{}
	}
	if attachedPic {
		return media.TransportBinding{}
	}
	st, ok := transportTypes[codec]
	if !ok {
		return media.TransportBinding{}
	}
	return media.TransportBinding{StreamType: st, StreamID: mpegts.DefaultStreamID(st)}
}

func bindingFor(es mpegts.ElementaryStream) media.TransportBinding {
	b := media.TransportBinding{StreamType: es.StreamType, StreamID: mpegts.DefaultStreamID(es.StreamType)}
	for _, d := range es.Descriptors {
		b.Descriptors = append(b.Descriptors, media.TransportDescriptor{Tag: d.Tag, Data: d.Data})
	}
	return b
}

func elementaryFor(pid uint16, b media.TransportBinding) mpegts.ElementaryStream {
	es := mpegts.ElementaryStream{PID: pid, StreamType: b.StreamType, StreamID: b.StreamID}
	for _, d := range b.Descriptors {
		es.Descriptors = append(es.Descriptors, mpegts.Descriptor{Tag: d.Tag, Data: d.Data})
	}
	return es
}

// movFamily lists the destination extensions whose muxer accepts the
// source's ISO base media codec tags.
var movFamily = map[string]bool{
	".mp4": true,
	".m4v": true,
	".m4a": true,
	".mov": true,
	".3gp": true,
}

func keepsCodecTags(path string) bool {
	return movFamily[strings.ToLower(filepath.Ext(path))]
}

// fourCC returns tag when it is a printable four character code. ffprobe
// renders unprintable bytes as "[27]" and absent tags as "[0][0][0][0]".
func fourCC(tag string) string {
	if len(tag) != 4 {
		return ""
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] < 0x20 || tag[i] > 0x7e || tag[i] == '[' {
			return ""
		}
	}
	return tag
}
