package timeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"subforge/internal/fileutil"
)

const bitDepth = 16

// Format describes clip PCM layout.
type Format struct {
	SampleRate int
	Channels   int
}

// Mono returns a single-channel format at sampleRate.
func Mono(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: 1}
}

func (f Format) valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// framesFor returns the number of frames covering ms milliseconds.
func (f Format) framesFor(ms int) int {
	if ms <= 0 {
		return 0
	}
	return int(math.Round(float64(ms) * float64(f.SampleRate) / 1000))
}

// Clip is an immutable 16-bit PCM audio buffer.
type Clip struct {
	buf *audio.IntBuffer
}

// NewClip wraps interleaved samples.
func NewClip(format Format, samples []int) Clip {
	return Clip{buf: &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}}
}

// Silence returns ms milliseconds of silence.
func Silence(ms int, format Format) Clip {
	return NewClip(format, make([]int, format.framesFor(ms)*format.Channels))
}

// Format returns the clip layout.
func (c Clip) Format() Format {
	if c.buf == nil || c.buf.Format == nil {
		return Format{}
	}
	return Format{SampleRate: c.buf.Format.SampleRate, Channels: c.buf.Format.NumChannels}
}

// Samples returns the interleaved sample data. Callers must not modify it.
func (c Clip) Samples() []int {
	if c.buf == nil {
		return nil
	}
	return c.buf.Data
}

// Frames returns the number of sample frames.
func (c Clip) Frames() int {
	f := c.Format()
	if !f.valid() {
		return 0
	}
	return len(c.buf.Data) / f.Channels
}

// DurationMs returns the clip length rounded to the nearest millisecond.
func (c Clip) DurationMs() int {
	f := c.Format()
	if !f.valid() {
		return 0
	}
	return int(math.Round(float64(c.Frames()) * 1000 / float64(f.SampleRate)))
}

// PadTo appends silence so the clip lasts ms. Longer clips are returned as is.
func (c Clip) PadTo(ms int) Clip {
	f := c.Format()
	want := f.framesFor(ms)
	if want <= c.Frames() {
		return c
	}
	data := make([]int, want*f.Channels)
	copy(data, c.Samples())
	return NewClip(f, data)
}

// TrimTo cuts the clip to ms. Shorter clips are returned as is.
func (c Clip) TrimTo(ms int) Clip {
	f := c.Format()
	want := f.framesFor(ms)
	if want >= c.Frames() {
		return c
	}
	data := make([]int, want*f.Channels)
	copy(data, c.Samples())
	return NewClip(f, data)
}

// FitTo pads or trims so the clip lasts exactly ms.
func (c Clip) FitTo(ms int) Clip {
	return c.PadTo(ms).TrimTo(ms)
}

// DecodeClip reads a WAV stream. Non-16-bit sources are rescaled to 16 bits.
func DecodeClip(r io.ReadSeeker) (Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return Clip{}, errors.New("decode wav: not a valid wav stream")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return Clip{}, errors.New("decode wav: missing format")
	}
	data := buf.Data
	if depth := int(decoder.BitDepth); depth != bitDepth && depth > 0 {
		data = rescale(data, depth)
	}
	return NewClip(Format{SampleRate: buf.Format.SampleRate, Channels: buf.Format.NumChannels}, data), nil
}

// DecodeClipBytes decodes an in-memory WAV payload.
func DecodeClipBytes(data []byte) (Clip, error) {
	return DecodeClip(bytes.NewReader(data))
}

// ReadClip decodes a WAV file.
func ReadClip(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()
	return DecodeClip(file)
}

// WriteClip encodes clip as 16-bit PCM WAV at path, replacing it atomically.
func WriteClip(path string, clip Clip) error {
	f := clip.Format()
	if !f.valid() {
		return errors.New("write wav: clip has no format")
	}
	return fileutil.WriteAtomicFile(path, 0o644, func(file *os.File) error {
		encoder := wav.NewEncoder(file, f.SampleRate, bitDepth, f.Channels, 1)
		if err := encoder.Write(clip.buf); err != nil {
			return fmt.Errorf("encode wav: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("finalize wav: %w", err)
		}
		return nil
	})
}

func rescale(data []int, fromDepth int) []int {
	out := make([]int, len(data))
	shift := fromDepth - bitDepth
	for i, sample := range data {
		if fromDepth == 8 {
			// 8-bit WAV is unsigned around 128.
			out[i] = (sample - 128) << 8
			continue
		}
		if shift > 0 {
			out[i] = sample >> shift
		} else {
			out[i] = sample << -shift
		}
	}
	return out
}
