// Package audioout plays a block renderer through the host audio device.
package audioout

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-scopesynth/dsp/dither"
)

// Format is the sample encoding handed to the device.
type Format int

const (
	// FormatFloat32LE is 32-bit float, little endian.
	FormatFloat32LE Format = iota
	// FormatInt16LE is signed 16-bit PCM, little endian, TPDF dithered with
	// first-order noise shaping.
	FormatInt16LE
)

// ParseFormat accepts "f32" and "s16".
func ParseFormat(name string) (Format, error) {
	switch name {
	case "f32":
		return FormatFloat32LE, nil
	case "s16":
		return FormatInt16LE, nil
	default:
		return 0, fmt.Errorf("audioout: unknown sample format %q", name)
	}
}

// BytesPerSample returns the encoded size of one sample.
func (f Format) BytesPerSample() int {
	if f == FormatInt16LE {
		return 2
	}
	return 4
}

// Renderer fills planar output blocks. instrument.Processor satisfies it.
type Renderer interface {
	ProcessBlock(out [][]float64)
}

// Stream adapts a Renderer to an io.Reader producing interleaved frames in
// the chosen Format. Blocks are rendered on demand and partially consumed
// blocks carry over to the next Read. Read does not allocate.
type Stream struct {
	r        Renderer
	format   Format
	channels int
	block    [][]float64
	quant    []*dither.Quantizer
	pos      int
	rendered uint64
}

var _ io.Reader = (*Stream)(nil)

// NewStream allocates the render block for channels x blockSize.
func NewStream(r Renderer, channels, blockSize int, format Format) (*Stream, error) {
	if r == nil {
		return nil, fmt.Errorf("audioout: renderer must not be nil")
	}
	if channels <= 0 {
		return nil, fmt.Errorf("audioout: channel count must be > 0: %d", channels)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("audioout: block size must be > 0: %d", blockSize)
	}

	if format != FormatFloat32LE && format != FormatInt16LE {
		return nil, fmt.Errorf("audioout: unknown sample format %d", format)
	}

	block := make([][]float64, channels)
	for ch := range block {
		block[ch] = make([]float64, blockSize)
	}

	var quant []*dither.Quantizer
	if format == FormatInt16LE {
		quant = make([]*dither.Quantizer, channels)
		for ch := range quant {
			q, err := dither.NewQuantizer(dither.WithBitDepth(16), dither.WithNoiseShaping(1))
			if err != nil {
				return nil, fmt.Errorf("audioout: %w", err)
			}
			quant[ch] = q
		}
	}

	return &Stream{
		r:        r,
		format:   format,
		channels: channels,
		block:    block,
		quant:    quant,
		pos:      blockSize,
	}, nil
}

// FrameSize returns the byte size of one interleaved frame.
func (s *Stream) FrameSize() int { return s.channels * s.format.BytesPerSample() }

// Format returns the sample encoding.
func (s *Stream) Format() Format { return s.format }

// Blocks returns how many blocks have been rendered.
func (s *Stream) Blocks() uint64 { return s.rendered }

// Read fills p with as many whole frames as fit. A p shorter than one frame
// yields io.ErrShortBuffer.
func (s *Stream) Read(p []byte) (int, error) {
	frameSize := s.FrameSize()
	if len(p) < frameSize {
		return 0, io.ErrShortBuffer
	}

	frames := len(s.block[0])
	n := 0

	for n+frameSize <= len(p) {
		if s.pos == frames {
			s.r.ProcessBlock(s.block)
			s.pos = 0
			s.rendered++
		}

		for ch := range s.block {
			v := s.block[ch][s.pos]
			if s.format == FormatInt16LE {
				binary.LittleEndian.PutUint16(p[n:], uint16(int16(s.quant[ch].ProcessInteger(v))))
				n += 2
				continue
			}
			binary.LittleEndian.PutUint32(p[n:], math.Float32bits(float32(v)))
			n += 4
		}
		s.pos++
	}

	return n, nil
}
