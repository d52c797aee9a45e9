package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo
const mp3BytesPerFrame = 4

// MP3Reader decodes ranges of an MP3 file by seeking the decoder, which
// only decodes from the nearest frame boundary
type MP3Reader struct {
	path string
}

// NewMP3Reader creates an MP3 reader. The file is opened on each call so
// concurrent reads never share a cursor.
func NewMP3Reader(path string) *MP3Reader {
	return &MP3Reader{path: path}
}

func (r *MP3Reader) open() (*os.File, *mp3.Decoder, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open file: %w", err)
	}
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, r.path, err)
	}
	return f, decoder, nil
}

// Duration returns the decoded length in seconds
func (r *MP3Reader) Duration(context.Context) (float64, error) {
	f, decoder, err := r.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if decoder.Length() < 0 {
		return 0, errors.New("mp3 length unknown")
	}
	return float64(decoder.Length()/mp3BytesPerFrame) / float64(decoder.SampleRate()), nil
}

// ReadRange decodes [start, start+duration) seconds, averaging the two
// channels
func (r *MP3Reader) ReadRange(ctx context.Context, start, duration float64) ([]float64, int, error) {
	f, decoder, err := r.open()
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	sampleRate := decoder.SampleRate()
	first := int64(math.Round(start * float64(sampleRate)))
	frames := int(math.Round(duration * float64(sampleRate)))

	if _, err := decoder.Seek(first*mp3BytesPerFrame, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("could not seek to %.2fs: %w", start, err)
	}

	raw := make([]byte, frames*mp3BytesPerFrame)
	n, err := io.ReadFull(decoder, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("mp3 decode failed: %w", err)
	}

	out := make([]float64, n/mp3BytesPerFrame)
	for i := range out {
		left := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		right := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		out[i] = (float64(left) + float64(right)) / 2 / 32768
	}

	if len(out) == 0 {
		return nil, 0, fmt.Errorf("%w: %s at %.2fs", ErrNoSamples, r.path, start)
	}
	return out, sampleRate, nil
}
