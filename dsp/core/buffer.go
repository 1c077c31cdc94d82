package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ZeroChannels clears the frame range [start, start+n) on every channel.
func ZeroChannels(channels [][]float64, start, n int) {
	for _, ch := range channels {
		Zero(ch[start : start+n])
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}

// SubBlock returns a view of frames [start, start+n) on every channel of block,
// writing the channel slices into views. views must have len(block) entries.
func SubBlock(views, block [][]float64, start, n int) [][]float64 {
	for ch := range block {
		views[ch] = block[ch][start : start+n]
	}
	return views[:len(block)]
}
