package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformFrame(w, h int, v float64) *Frame {
	f := NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func TestDenoisePassthroughUntilHistoryFull(t *testing.T) {
	d := NewDenoiser()

	first := uniformFrame(4, 4, 20.0)
	out := d.Denoise(first)
	assert.Same(t, first, out, "first frame should pass through unchanged")
}

func TestDenoiseWeightedAverage(t *testing.T) {
	d := NewDenoiser()

	d.Denoise(uniformFrame(4, 4, 10.0))
	out := d.Denoise(uniformFrame(4, 4, 20.0))

	// 10*0.4 + 20*0.6 = 16.0
	for _, v := range out.Pix {
		assert.InDelta(t, 16.0, v, 1e-9)
	}
}

func TestDenoiseSlidingWindow(t *testing.T) {
	d := NewDenoiser()

	d.Denoise(uniformFrame(2, 2, 10.0))
	d.Denoise(uniformFrame(2, 2, 20.0))
	out := d.Denoise(uniformFrame(2, 2, 30.0))

	// window is now [20, 30]: 20*0.4 + 30*0.6 = 26.0
	for _, v := range out.Pix {
		assert.InDelta(t, 26.0, v, 1e-9)
	}
}

func TestDenoiseReset(t *testing.T) {
	d := NewDenoiser()

	d.Denoise(uniformFrame(2, 2, 10.0))
	d.Denoise(uniformFrame(2, 2, 20.0))
	d.Reset()

	fresh := uniformFrame(2, 2, 30.0)
	out := d.Denoise(fresh)
	assert.Same(t, fresh, out, "frame after reset should pass through unchanged")
}
