package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes interleaved 16-bit samples
func writeWAV(t *testing.T, path string, sampleRate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	encoder := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWAVReaderRanges(t *testing.T) {
	const sampleRate = 8000
	path := filepath.Join(t.TempDir(), "ramp.wav")

	// 3 seconds of stereo: left is a ramp, right is constant
	frames := 3 * sampleRate
	data := make([]int, 0, frames*2)
	for i := range frames {
		data = append(data, i%16000, 1000)
	}
	writeWAV(t, path, sampleRate, 2, data)

	reader, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reader.(*WAVReader); !ok {
		t.Fatalf("Open chose %T for a .wav file", reader)
	}

	ctx := context.Background()
	duration, err := reader.Duration(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(duration-3) > 1e-6 {
		t.Errorf("duration = %g, want 3", duration)
	}

	samples, sr, err := reader.ReadRange(ctx, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if sr != sampleRate {
		t.Errorf("sample rate = %d", sr)
	}
	if len(samples) != sampleRate/2 {
		t.Fatalf("got %d samples, want %d", len(samples), sampleRate/2)
	}
	// frame 8000 mixes 8000 and 1000
	if want := (8000.0 + 1000.0) / 2 / 32768; math.Abs(samples[0]-want) > 1e-12 {
		t.Errorf("first sample = %g, want %g", samples[0], want)
	}

	tail, _, err := reader.ReadRange(ctx, 2.5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != sampleRate/2 {
		t.Errorf("range past the end gave %d samples, want %d", len(tail), sampleRate/2)
	}

	// a late window must line up with the ramp frame for frame
	late, _, err := reader.ReadRange(ctx, 2.9, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if len(late) != 400 {
		t.Fatalf("late range gave %d samples, want 400", len(late))
	}
	for i, got := range late {
		want := (float64((23200+i)%16000) + 1000) / 2 / 32768
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("late sample %d = %g, want %g", i, got, want)
		}
	}

	if _, _, err := reader.ReadRange(ctx, 5, 1); !errors.Is(err, ErrNoSamples) {
		t.Errorf("range after the end: err = %v, want ErrNoSamples", err)
	}
}

func TestWAVReaderRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.wav")
	if err := os.WriteFile(path, []byte("definitely not RIFF data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWAVReader(path).Duration(context.Background()); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOpenChoosesReader(t *testing.T) {
	tests := []struct {
		path  string
		force bool
		want  string
	}{
		{"a.wav", false, "*transcode.WAVReader"},
		{"b.WAV", false, "*transcode.WAVReader"},
		{"c.mp3", false, "*transcode.MP3Reader"},
		{"d.flac", false, "*transcode.FFmpegReader"},
		{"e.wav", true, "*transcode.FFmpegReader"},
	}

	for _, tt := range tests {
		cfg := DefaultDecoderConfig()
		cfg.ForceFFmpeg = tt.force
		r, err := Open(tt.path, cfg)
		if err != nil {
			t.Fatalf("Open(%s): %v", tt.path, err)
		}
		if got := fmt.Sprintf("%T", r); got != tt.want {
			t.Errorf("Open(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}

	bad := DefaultDecoderConfig()
	bad.TargetSampleRate = 0
	if _, err := Open("x.flac", bad); err == nil {
		t.Error("expected config error")
	}
}

func TestParseFFprobeDuration(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    float64
		wantErr bool
	}{
		{
			name: "container duration",
			json: `{"format":{"duration":"183.42"},"streams":[{"codec_type":"audio","duration":"183.40"}]}`,
			want: 183.42,
		},
		{
			name: "stream duration only",
			json: `{"format":{},"streams":[{"codec_type":"audio","duration":"12.5"}]}`,
			want: 12.5,
		},
		{name: "no streams", json: `{"format":{"duration":"1"},"streams":[]}`, wantErr: true},
		{name: "no duration", json: `{"streams":[{"codec_type":"audio"}]}`, wantErr: true},
		{name: "garbage", json: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFFprobeDuration([]byte(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %g", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("duration = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestBytesToFloat64(t *testing.T) {
	raw := make([]byte, 8*3+5)
	for i, v := range []float64{0.5, -1, 0.25} {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	got := bytesToFloat64(raw)
	if len(got) != 3 || got[0] != 0.5 || got[1] != -1 || got[2] != 0.25 {
		t.Errorf("got %v", got)
	}
}

func TestFFmpegOutputArgs(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.ResampleQuality = "high"
	args := NewFFmpegReader("x.flac", cfg).outputArgs()

	want := []string{"-f", "f64le", "-ac", "1", "-ar", "22050", "-af", "aresample=resampler=soxr:precision=28", "-v", "error"}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}
