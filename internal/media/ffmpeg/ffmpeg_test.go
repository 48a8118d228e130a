package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"quickshorts/internal/logging"
	"quickshorts/internal/media"
	"quickshorts/internal/media/ffprobe"
	"quickshorts/internal/media/mpegts"
)

func TestDemuxArgs(t *testing.T) {
	output := []string{"-c", "copy", "-f", "mpegts", "-pes_payload_size", "0", "-muxdelay", "0", "-muxpreload", "0", "pipe:1"}
	tests := []struct {
		name  string
		start time.Duration
		input []string
	}{
		{name: "from start", input: []string{"-i", "/in/clip.mp4"}},
		{name: "seek before input", start: 2500 * time.Millisecond, input: []string{"-ss", "2.5", "-i", "/in/clip.mp4"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := demuxArgs("/in/clip.mp4", []int{0, 2}, tc.start)
			want := append([]string{"-nostdin", "-hide_banner", "-loglevel", "error"}, tc.input...)
			want = append(want, "-map", "0:0", "-map", "0:2")
			want = append(want, output...)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("demuxArgs = %v\nwant %v", got, want)
			}
		})
	}
}

func TestMuxArgs(t *testing.T) {
	md := media.Metadata{{Key: "title", Value: "Clip"}, {Key: "", Value: "ignored"}}
	hevc := media.CodecParameters{Medium: media.MediumVideo, CodecName: "hevc", CodecTag: "hvc1"}
	aac := media.CodecParameters{Medium: media.MediumAudio, CodecName: "aac", CodecTag: "mp4a"}
	ac3 := media.CodecParameters{Medium: media.MediumAudio, CodecName: "ac3", CodecTag: "[0][0][0][0]"}
	tests := []struct {
		name   string
		path   string
		opts   media.MuxOptions
		params []media.CodecParameters
		want   []string
	}{
		{
			name:   "trim copy keeps tags",
			opts:   media.MuxOptions{Duration: 60 * time.Second},
			params: []media.CodecParameters{hevc, ac3, aac},
			want:   []string{"-t", "60", "-c:v", "copy", "-c:a", "copy", "-tag:v:0", "hvc1", "-tag:a:1", "mp4a"},
		},
		{
			name:   "trim with start",
			opts:   media.MuxOptions{Start: 1500 * time.Millisecond, Duration: 10 * time.Second},
			params: []media.CodecParameters{hevc},
			want:   []string{"-ss", "1.5", "-t", "10", "-c:v", "copy", "-tag:v:0", "hvc1"},
		},
		{
			name:   "tags dropped outside mp4 family",
			path:   "/out/short.mkv",
			opts:   media.MuxOptions{Duration: 60 * time.Second},
			params: []media.CodecParameters{hevc, aac},
			want:   []string{"-t", "60", "-c:v", "copy", "-c:a", "copy"},
		},
		{
			name:   "extract audio",
			opts:   media.MuxOptions{DropVideo: true, Audio: media.AudioPCM16LE},
			params: []media.CodecParameters{aac},
			want:   []string{"-vn", "-c:a", "pcm_s16le"},
		},
		{
			name:   "burn keeps audio tag only",
			opts:   media.MuxOptions{Video: media.VideoReencode, VideoFilter: "subtitles=filename=a.srt"},
			params: []media.CodecParameters{hevc, aac},
			want:   []string{"-vf", "subtitles=filename=a.srt", "-c:v", "libx264", "-c:a", "copy", "-tag:a:0", "mp4a"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := tc.path
			if path == "" {
				path = "/out/short.mp4"
			}
			got := muxArgs(path, tc.opts, md, tc.params)
			prefix := []string{"-hide_banner", "-loglevel", "error", "-f", "mpegts", "-i", "pipe:0", "-map", "0"}
			suffix := []string{"-metadata", "title=Clip", "-y", path}
			want := append(append(append([]string{}, prefix...), tc.want...), suffix...)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("muxArgs = %v\nwant %v", got, want)
			}
		})
	}
}

func TestClassifyInspectError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"ffprobe inspect: exit status 1: x.mp4: Invalid data found when processing input", media.ErrUnsupportedFormat},
		{"ffprobe inspect: exit status 1: x.mp4: No such file or directory", media.ErrNotFound},
		{"ffprobe inspect: exit status 1: moov atom not found", media.ErrCorrupt},
	}
	for _, tc := range tests {
		err := classifyInspectError("x.mp4", errors.New(tc.msg))
		if !errors.Is(err, tc.want) {
			t.Fatalf("classify(%q) = %v, want %v", tc.msg, err, tc.want)
		}
	}
}

func TestConvertStreamsPredictsTransport(t *testing.T) {
	streams := convertStreams([]ffprobe.Stream{
		{Index: 0, CodecName: "h264", CodecType: "video", CodecTag: "avc1", TimeBase: "1/12800",
			ExtradataSize: 4, Extradata: "\n00000000: 0164 001f                                .d..\n",
			Disposition: map[string]int{"default": 1}},
		{Index: 1, CodecName: "opus", CodecType: "audio"},
		{Index: 2, CodecName: "aac", CodecType: "audio", Channels: 2, BitRate: "96000"},
		{Index: 3, CodecName: "mov_text", CodecType: "subtitle"},
		{Index: 4, CodecName: "vp9", CodecType: "video"},
		{Index: 5, CodecName: "mjpeg", CodecType: "video", Disposition: map[string]int{"attached_pic": 1}},
		{Index: 6, CodecName: "flac", CodecType: "audio"},
	}, logging.NewNop())
	if len(streams) != 7 {
		t.Fatalf("expected 7 streams, got %d", len(streams))
	}
	if !streams[0].Relayable() || streams[0].Codec.Transport.StreamID != 0xe0 {
		t.Fatalf("h264 transport = %+v", streams[0].Codec.Transport)
	}
	if streams[0].Codec.TimeBase != (media.TimeBase{Num: 1, Den: 12800}) || !streams[0].Disposition.Default {
		t.Fatalf("unexpected video stream: %+v", streams[0])
	}
	if !bytes.Equal(streams[0].Codec.Extradata, []byte{0x01, 0x64, 0x00, 0x1f}) || streams[0].Codec.CodecTag != "avc1" {
		t.Fatalf("codec parameters not kept: %+v", streams[0].Codec)
	}
	if b := streams[1].Codec.Transport; b.StreamType != mpegts.StreamTypePrivate || b.StreamID != 0xbd {
		t.Fatalf("opus transport = %+v", b)
	}
	if !streams[2].Relayable() || streams[2].Codec.BitRate != 96000 || streams[2].Codec.Extradata != nil {
		t.Fatalf("unexpected aac stream: %+v", streams[2])
	}
	if streams[3].Relayable() || streams[3].Medium() != media.MediumSubtitle {
		t.Fatalf("unexpected subtitle stream: %+v", streams[3])
	}
	for _, i := range []int{4, 5, 6} {
		if streams[i].Relayable() {
			t.Fatalf("%s stream %d should not be relayable", streams[i].Codec.CodecName, i)
		}
	}
}

func TestBindingKeepsDescriptors(t *testing.T) {
	es := mpegts.ElementaryStream{
		PID:         0x101,
		StreamType:  mpegts.StreamTypePrivate,
		Descriptors: []mpegts.Descriptor{mpegts.Registration("Opus"), {Tag: mpegts.DescriptorTagExtension, Data: []byte{0x80, 0x02}}},
	}
	binding := bindingFor(es)
	if binding.StreamID != 0xbd || len(binding.Descriptors) != 2 {
		t.Fatalf("unexpected binding %+v", binding)
	}
	back := elementaryFor(0x100, binding)
	if back.PID != 0x100 || back.Format() != "Opus" || !bytes.Equal(back.Descriptors[1].Data, []byte{0x80, 0x02}) {
		t.Fatalf("unexpected elementary stream %+v", back)
	}
}

func TestCodecDrift(t *testing.T) {
	video := media.CodecParameters{Medium: media.MediumVideo, CodecName: "h264", CodecTag: "avc1", Extradata: []byte{0x01, 0x64, 0x00, 0x1f}}
	audio := media.CodecParameters{Medium: media.MediumAudio, CodecName: "aac", CodecTag: "mp4a"}
	same := []ffprobe.Stream{
		{CodecName: "h264", CodecTag: "avc1", ExtradataSize: 4, Extradata: "00000000: 0164 001f                                .d..\n"},
		{CodecName: "aac", CodecTag: "mp4a"},
	}
	copyOpts := media.MuxOptions{Duration: 5 * time.Second}
	params := []media.CodecParameters{video, audio}
	if drift := codecDrift("/out/a.mp4", copyOpts, params, same); len(drift) != 0 {
		t.Fatalf("unexpected drift %v", drift)
	}

	changed := []ffprobe.Stream{
		{CodecName: "h264", CodecTag: "avc3", ExtradataSize: 2, Extradata: "00000000: 0164                                     .d\n"},
		{CodecName: "mp3", CodecTag: "mp4a"},
	}
	drift := codecDrift("/out/a.mp4", copyOpts, params, changed)
	if len(drift) != 3 {
		t.Fatalf("expected tag, extradata and codec drift, got %v", drift)
	}

	if drift := codecDrift("/out/a.mkv", copyOpts, params, changed[:1]); len(drift) != 1 || !strings.Contains(drift[0], "expected 2") {
		t.Fatalf("expected stream count drift, got %v", drift)
	}
	burn := media.MuxOptions{Video: media.VideoReencode}
	reencoded := []ffprobe.Stream{{CodecName: "h264", CodecTag: "avc1"}, {CodecName: "aac", CodecTag: "mp4a"}}
	if drift := codecDrift("/out/a.mp4", burn, params, reencoded); len(drift) != 0 {
		t.Fatalf("re-encoded video must not be compared, got %v", drift)
	}
}

func TestFourCC(t *testing.T) {
	for tag, want := range map[string]string{
		"avc1":         "avc1",
		"Opus":         "Opus",
		"[0][0][0][0]": "",
		"[27]":         "",
		"":             "",
		"mp4a1":        "",
	} {
		if got := fourCC(tag); got != want {
			t.Fatalf("fourCC(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestTailBufferKeepsEnd(t *testing.T) {
	var tb tailBuffer
	_, _ = tb.Write([]byte(strings.Repeat("a", stderrTailLimit)))
	_, _ = tb.Write([]byte("tail-marker"))
	got := tb.String()
	if len(got) != stderrTailLimit || !strings.HasSuffix(got, "tail-marker") {
		t.Fatalf("unexpected tail length %d", len(got))
	}
}

func TestMuxerOutOfOrderPanics(t *testing.T) {
	m := &Muxer{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for WritePacket before WriteHeader")
		}
	}()
	_ = m.WritePacket(media.Packet{Data: []byte{1}})
}

func TestMuxerAddStreamValidation(t *testing.T) {
	m := &Muxer{opts: media.MuxOptions{DropVideo: true}}
	video := media.CodecParameters{Medium: media.MediumVideo, CodecName: "h264", Transport: media.TransportBinding{StreamType: 0x1b}}
	if _, err := m.AddStream(video); !errors.Is(err, media.ErrMux) {
		t.Fatalf("expected ErrMux for dropped video, got %v", err)
	}
	vp9 := media.CodecParameters{Medium: media.MediumVideo, CodecName: "vp9"}
	m.opts.DropVideo = false
	if _, err := m.AddStream(vp9); !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	aac := media.CodecParameters{Medium: media.MediumAudio, CodecName: "aac", Transport: media.TransportBinding{StreamType: 0x0f}}
	idx, err := m.AddStream(aac)
	if err != nil || idx != 0 {
		t.Fatalf("AddStream(aac) = %d, %v", idx, err)
	}
}

func TestEnsureInitializedCachesFailure(t *testing.T) {
	b := New(WithBinaries("quickshorts-missing-ffmpeg", ""))
	_, err := b.EnsureInitialized(context.Background())
	if !errors.Is(err, media.ErrFrameworkUnavailable) {
		t.Fatalf("expected ErrFrameworkUnavailable, got %v", err)
	}
	_, again := b.EnsureInitialized(context.Background())
	if again != err {
		t.Fatalf("expected cached error, got %v", again)
	}
	if _, err := b.Open(context.Background(), "/nonexistent.mp4", 0); !errors.Is(err, media.ErrFrameworkUnavailable) {
		t.Fatalf("Open should surface init failure, got %v", err)
	}
}

func TestOpenMissingSource(t *testing.T) {
	requireFFmpeg(t)
	b := New()
	_, err := b.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), 0)
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenGarbageSource(t *testing.T) {
	requireFFmpeg(t)
	path := filepath.Join(t.TempDir(), "garbage.mp4")
	if err := os.WriteFile(path, []byte("definitely not a video"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	_, err := New().Open(context.Background(), path, 0)
	if !media.IsDemuxError(err) {
		t.Fatalf("expected demux error, got %v", err)
	}
}

func TestOpenForWriteLeavesDestinationUntouched(t *testing.T) {
	requireFFmpeg(t)
	dst := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(dst, []byte("previous"), 0o644); err != nil {
		t.Fatalf("seed destination: %v", err)
	}
	mux, err := New().OpenForWrite(context.Background(), dst, media.MuxOptions{})
	if err != nil {
		t.Fatalf("OpenForWrite: %v", err)
	}
	vp9 := media.CodecParameters{Medium: media.MediumVideo, CodecName: "vp9"}
	if _, err := mux.AddStream(vp9); !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	_ = mux.Close()
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "previous" {
		t.Fatalf("destination changed before WriteHeader: %q, %v", data, err)
	}
}

func TestRemuxWindowEndToEnd(t *testing.T) {
	requireFFmpeg(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "in.mp4")
	gen := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=10:size=160x120:rate=25",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=10",
		"-c:v", "libx264", "-g", "25", "-c:a", "aac", "-shortest", "-y", src)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot generate fixture: %v: %s", err, out)
	}

	b := New()
	demux, err := b.Open(context.Background(), src, 2*time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer demux.Close()

	mapping := media.Select(demux.Streams(), media.MediumIn(media.MediumVideo, media.MediumAudio))
	if mapping.Len() != 2 {
		t.Fatalf("expected 2 mapped streams, got %d", mapping.Len())
	}

	dst := filepath.Join(dir, "out.mp4")
	mux, err := b.OpenForWrite(context.Background(), dst, media.MuxOptions{Duration: 5 * time.Second})
	if err != nil {
		t.Fatalf("OpenForWrite: %v", err)
	}
	defer mux.Close()
	for _, s := range demux.Streams() {
		if _, ok := mapping.Lookup(s.Index); ok {
			if _, err := mux.AddStream(s.Codec); err != nil {
				t.Fatalf("AddStream: %v", err)
			}
		}
	}
	mux.SetMetadata(demux.Metadata())
	if err := mux.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	stats, err := media.Relay{}.Run(demux, mux, mapping)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if err := mux.WriteTrailer(); err != nil {
		t.Fatalf("WriteTrailer: %v", err)
	}
	if stats.Written == 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	tools, _ := b.EnsureInitialized(context.Background())
	source, err := ffprobe.Inspect(context.Background(), tools.FFprobe, src)
	if err != nil {
		t.Fatalf("inspect source: %v", err)
	}
	output, err := ffprobe.Inspect(context.Background(), tools.FFprobe, dst)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if len(output.Streams) != 2 || output.VideoStreamCount() != 1 || output.AudioStreamCount() != 1 {
		t.Fatalf("unexpected output streams: %+v", output.Streams)
	}
	for i, out := range output.Streams {
		in := source.Streams[i]
		if out.CodecName != in.CodecName || out.CodecTag != in.CodecTag {
			t.Fatalf("stream %d is %s/%s, source %s/%s", i, out.CodecName, out.CodecTag, in.CodecName, in.CodecTag)
		}
	}
	if d := output.DurationSeconds(); d < 4.5 || d > 5.5 {
		t.Fatalf("output duration %v outside trim window", d)
	}

	// AAC frames come back unchanged once the sink strips ADTS again.
	sourceFrames := map[string]bool{}
	for _, h := range audioPacketHashes(t, src) {
		sourceFrames[h] = true
	}
	outFrames := audioPacketHashes(t, dst)
	if len(outFrames) == 0 {
		t.Fatal("expected audio packets in output")
	}
	for i, h := range outFrames {
		if !sourceFrames[h] {
			t.Fatalf("output audio packet %d (%s) not found in source", i, h)
		}
	}
}

// audioPacketHashes lists the md5 of every audio packet in path.
func audioPacketHashes(t *testing.T, path string) []string {
	t.Helper()
	out, err := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-i", path, "-map", "0:a", "-c", "copy", "-f", "framemd5", "-").Output()
	if err != nil {
		t.Fatalf("framemd5 %s: %v", path, err)
	}
	var hashes []string
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		hashes = append(hashes, strings.TrimSpace(fields[len(fields)-1]))
	}
	return hashes
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
}
