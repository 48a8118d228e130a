package ffprobe

import (
	"bytes"
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{BitRate: "nope", SampleRate: "-1"}},
		Format:  Format{Duration: "bad"},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if got := result.Streams[0].BitRateValue(); got != 0 {
		t.Fatalf("expected bitrate 0, got %d", got)
	}
	if got := result.Streams[0].SampleRateValue(); got != 0 {
		t.Fatalf("expected sample rate 0, got %d", got)
	}
}

const sampleProbe = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "codec_tag_string": "avc1",
     "time_base": "1/15360", "width": 1920, "height": 1080, "extradata_size": 20,
     "extradata": "\n00000000: 0164 001f ffe1 0019 6764 001f acd9 4050  .d......gd....@P\n00000010: 05bb 0110                                ....\n",
     "disposition": {"default": 1, "hearing_impaired": 0},
     "tags": {"language": "und", "handler_name": "VideoHandler"}},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "time_base": "1/48000",
     "sample_rate": "48000", "channels": 2, "bit_rate": "128000",
     "disposition": {"default": 1}, "tags": {"language": "eng"}}
  ],
  "format": {
    "filename": "in.mp4", "nb_streams": 2, "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "12.5",
    "tags": {"major_brand": "isom", "minor_version": "512", "title": "Clip", "encoder": "Lavf60"}
  }
}`

func TestParsePreservesTagOrderAndDisposition(t *testing.T) {
	result, err := Parse([]byte(sampleProbe))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	keys := make([]string, 0, len(result.Format.Tags))
	for _, tag := range result.Format.Tags {
		keys = append(keys, tag.Key)
	}
	want := []string{"major_brand", "minor_version", "title", "encoder"}
	if len(keys) != len(want) {
		t.Fatalf("unexpected tags: %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("tag order = %v, want %v", keys, want)
		}
	}
	if title, ok := result.Format.Tags.Get("title"); !ok || title != "Clip" {
		t.Fatalf("title = %q, %v", title, ok)
	}

	video := result.Streams[0]
	if !video.Flag("default") || video.Flag("hearing_impaired") || video.Flag("missing") {
		t.Fatalf("unexpected disposition: %v", video.Disposition)
	}
	if num, den := video.TimeBaseValue(); num != 1 || den != 15360 {
		t.Fatalf("time base = %d/%d", num, den)
	}
	audio := result.Streams[1]
	if audio.Language() != "eng" || audio.SampleRateValue() != 48000 || audio.BitRateValue() != 128000 {
		t.Fatalf("unexpected audio fields: %+v", audio)
	}
	extradata, err := video.ExtradataBytes()
	if err != nil {
		t.Fatalf("ExtradataBytes: %v", err)
	}
	wantExtradata := []byte{
		0x01, 0x64, 0x00, 0x1f, 0xff, 0xe1, 0x00, 0x19, 0x67, 0x64, 0x00, 0x1f, 0xac, 0xd9, 0x40, 0x50,
		0x05, 0xbb, 0x01, 0x10,
	}
	if !bytes.Equal(extradata, wantExtradata) {
		t.Fatalf("extradata = % x\nwant % x", extradata, wantExtradata)
	}
	if none, err := audio.ExtradataBytes(); err != nil || len(none) != 0 {
		t.Fatalf("audio extradata = % x, %v", none, err)
	}
}

func TestExtradataBytesRejectsSizeMismatch(t *testing.T) {
	s := Stream{Extradata: "\n00000000: 0164 001f                                .d..\n", ExtradataSize: 5}
	if _, err := s.ExtradataBytes(); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestTimeBaseValueMalformed(t *testing.T) {
	for _, value := range []string{"", "1", "a/b", "1/0"} {
		if num, den := (Stream{TimeBase: value}).TimeBaseValue(); num != 0 || den != 0 {
			t.Fatalf("TimeBaseValue(%q) = %d/%d, want 0/0", value, num, den)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
