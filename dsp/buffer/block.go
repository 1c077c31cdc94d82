package buffer

import "fmt"

// Block is a planar multichannel scratch buffer. Storage is allocated once
// by NewBlock; every other method is allocation-free.
type Block struct {
	data     []float64
	channels [][]float64
	views    [][]float64
	frames   int
}

// NewBlock returns a zero-filled Block with the given channel count and
// frame capacity.
func NewBlock(channels, frames int) (*Block, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("buffer: channel count must be > 0: %d", channels)
	}
	if frames <= 0 {
		return nil, fmt.Errorf("buffer: frame count must be > 0: %d", frames)
	}

	b := &Block{
		data:     make([]float64, channels*frames),
		channels: make([][]float64, channels),
		views:    make([][]float64, channels),
		frames:   frames,
	}
	for ch := range b.channels {
		b.channels[ch] = b.data[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}

	return b, nil
}

// Channels returns the number of channels.
func (b *Block) Channels() int {
	return len(b.channels)
}

// Frames returns the frame capacity of every channel.
func (b *Block) Frames() int {
	return b.frames
}

// Channel returns the full-length slice of channel ch.
func (b *Block) Channel(ch int) []float64 {
	return b.channels[ch]
}

// View returns the first n frames of every channel. The returned outer slice
// is owned by the Block and reused by the next call.
func (b *Block) View(n int) [][]float64 {
	n = b.clampFrames(n)
	for ch, s := range b.channels {
		b.views[ch] = s[:n]
	}

	return b.views
}

// Clear zeroes the first n frames of every channel.
func (b *Block) Clear(n int) {
	n = b.clampFrames(n)
	for _, s := range b.channels {
		clear(s[:n])
	}
}

func (b *Block) clampFrames(n int) int {
	if n < 0 {
		return 0
	}
	if n > b.frames {
		return b.frames
	}

	return n
}
