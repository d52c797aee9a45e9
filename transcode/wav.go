package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames is the number of frames decoded per PCMBuffer call
const wavChunkFrames = 4096

// WAVReader decodes ranges of a PCM WAV file at its native sample rate,
// mixing every channel down to mono
type WAVReader struct {
	path string
}

// NewWAVReader creates a WAV reader. The file is opened on each call so
// concurrent reads never share a cursor.
func NewWAVReader(path string) *WAVReader {
	return &WAVReader{path: path}
}

func (r *WAVReader) open() (*os.File, *wav.Decoder, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open file: %w", err)
	}
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedFormat, r.path)
	}
	return f, decoder, nil
}

// Duration returns the PCM length in seconds
func (r *WAVReader) Duration(context.Context) (float64, error) {
	f, decoder, err := r.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d, err := decoder.Duration()
	if err != nil {
		return 0, fmt.Errorf("could not read WAV duration: %w", err)
	}
	return d.Seconds(), nil
}

// ReadRange decodes [start, start+duration) seconds
func (r *WAVReader) ReadRange(ctx context.Context, start, duration float64) ([]float64, int, error) {
	f, decoder, err := r.open()
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	if err := decoder.FwdToPCM(); err != nil {
		return nil, 0, fmt.Errorf("could not find PCM data: %w", err)
	}

	sampleRate := int(decoder.SampleRate)
	channels := max(1, int(decoder.NumChans))
	scale := math.Exp2(float64(decoder.BitDepth) - 1)

	first := int(math.Round(start * float64(sampleRate)))
	wanted := int(math.Round(duration * float64(sampleRate)))
	out := make([]float64, 0, wanted)

	// skip whole frames of raw PCM instead of decoding them
	bytesPerSample := (int(decoder.BitDepth)-1)/8 + 1
	skip := int64(first) * int64(channels) * int64(bytesPerSample)
	if skipped, err := io.CopyN(io.Discard, decoder.PCMChunk.R, skip); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("%w: %s at %.2fs", ErrNoSamples, r.path, start)
		}
		return nil, 0, fmt.Errorf("could not skip %d PCM bytes (skipped %d): %w", skip, skipped, err)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, wavChunkFrames*channels),
	}

	for len(out) < wanted {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		n, err := decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("could not read PCM buffer: %w", err)
		}
		if n == 0 {
			break
		}

		for i := 0; i+channels <= n && len(out) < wanted; i += channels {
			sum := 0
			for c := range channels {
				sum += buf.Data[i+c]
			}
			out = append(out, float64(sum)/float64(channels)/scale)
		}
	}

	if len(out) == 0 {
		return nil, 0, fmt.Errorf("%w: %s at %.2fs", ErrNoSamples, r.path, start)
	}
	return out, sampleRate, nil
}
