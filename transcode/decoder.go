package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-pulso/logging"
)

var (
	// ErrUnsupportedFormat is returned for files no reader can decode
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoSamples is returned when a range decodes to nothing
	ErrNoSamples = errors.New("no audio samples decoded")
)

// Reader decodes mono sample ranges without decoding the whole file
type Reader interface {
	// Duration returns the length of the recording in seconds
	Duration(ctx context.Context) (float64, error)

	// ReadRange decodes [start, start+duration) seconds as mono samples
	ReadRange(ctx context.Context, start, duration float64) ([]float64, int, error)
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate" toml:"target_sample_rate"`
	ResampleQuality  string        `json:"resample_quality" toml:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path" toml:"ffmpeg_path"`           // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path" toml:"ffprobe_path"`         // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout" toml:"timeout"`                   // Timeout for each ffmpeg call
	ForceFFmpeg      bool          `json:"force_ffmpeg" toml:"force_ffmpeg"`         // skip the native WAV and MP3 readers
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		ResampleQuality:  "medium",
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          30 * time.Second,
	}
}

// Validate checks the configuration without touching the binaries
func (c *DecoderConfig) Validate() error {
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", c.TargetSampleRate)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", c.Timeout)
	}
	switch c.ResampleQuality {
	case "", "fast", "medium", "high":
	default:
		return fmt.Errorf("unknown resample quality %q", c.ResampleQuality)
	}
	return nil
}

// Open returns the reader for path: WAV and MP3 are decoded natively,
// everything else goes through ffmpeg
func Open(path string, config *DecoderConfig) (Reader, error) {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !config.ForceFFmpeg {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".wav", ".wave":
			return NewWAVReader(path), nil
		case ".mp3":
			return NewMP3Reader(path), nil
		}
	}
	return NewFFmpegReader(path, config), nil
}

// FFmpegReader decodes ranges by running ffmpeg with an input seek, so
// only the requested span is ever decoded
type FFmpegReader struct {
	path   string
	config *DecoderConfig
	logger logging.Logger
}

// NewFFmpegReader creates an ffmpeg-backed reader
func NewFFmpegReader(path string, config *DecoderConfig) *FFmpegReader {
	return &FFmpegReader{
		path:   path,
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "ffmpeg_reader",
			"filename":  path,
		}),
	}
}

// Duration probes the container duration with ffprobe
func (r *FFmpegReader) Duration(ctx context.Context) (float64, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_format",           // Container duration
		"-show_streams",          // Stream info
		"-select_streams", "a:0", // First audio stream only
		r.path,
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	output, err := exec.CommandContext(ctx, r.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return 0, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeDuration(output)
}

// ReadRange decodes one span as mono float64 at the target sample rate
func (r *FFmpegReader) ReadRange(ctx context.Context, start, duration float64) ([]float64, int, error) {
	args := []string{
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-i", r.path,
	}
	args = append(args, r.outputArgs()...)
	args = append(args, "pipe:1") // Output to stdout

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	r.logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := exec.CommandContext(ctx, r.config.FFmpegPath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			r.logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, 0, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("%w: %s at %.2fs", ErrNoSamples, r.path, start)
	}
	return samples, r.config.TargetSampleRate, nil
}

// outputArgs builds the raw mono float64 output arguments
func (r *FFmpegReader) outputArgs() []string {
	args := []string{
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", "1",
		"-ar", strconv.Itoa(r.config.TargetSampleRate),
	}

	switch r.config.ResampleQuality {
	case "fast":
		args = append(args, "-af", "aresample=resampler=soxr:precision=16")
	case "medium":
		args = append(args, "-af", "aresample=resampler=soxr:precision=20")
	case "high":
		args = append(args, "-af", "aresample=resampler=soxr:precision=28")
	}

	// Suppress ffmpeg output
	return append(args, "-v", "error")
}

func (r *FFmpegReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.Timeout > 0 {
		return context.WithTimeout(ctx, r.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// parseFFprobeDuration reads the duration from ffprobe JSON, preferring
// the container value over the stream value
func parseFFprobeDuration(jsonData []byte) (float64, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
			Duration  string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 || probe.Streams[0].CodecType != "audio" {
		return 0, fmt.Errorf("%w: no audio streams found", ErrUnsupportedFormat)
	}

	for _, raw := range []string{probe.Format.Duration, probe.Streams[0].Duration} {
		if d, err := strconv.ParseFloat(raw, 64); err == nil && d > 0 {
			return d, nil
		}
	}
	return 0, errors.New("ffprobe reported no duration")
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	// Trim to multiple of 8 bytes
	data = data[:len(data)-(len(data)%8)]

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
