package frame

// Denoiser smooths successive calibrated frames with a short weighted
// history, exploiting sensor oversampling to suppress read noise. It keeps
// the two most recent frames; until the history is full the input passes
// through unchanged. Single writer: one processing cycle at a time per
// device stream.
type Denoiser struct {
	history [2]*Frame
	filled  int
}

// Weights for the temporal average, oldest first. More recent frames count
// more.
var denoiseWeights = [2]float64{0.4, 0.6}

// NewDenoiser returns an empty denoiser.
func NewDenoiser() *Denoiser {
	return &Denoiser{}
}

// Denoise pushes f into the history and returns the weighted average of the
// last two frames, or f unchanged while the history is still filling.
func (d *Denoiser) Denoise(f *Frame) *Frame {
	// shift, newest in slot 1
	d.history[0] = d.history[1]
	d.history[1] = f
	if d.filled < 2 {
		d.filled++
	}

	if d.filled < 2 {
		return f
	}

	out := NewFrame(f.Width, f.Height)
	older, newer := d.history[0], d.history[1]
	for i := range out.Pix {
		out.Pix[i] = older.Pix[i]*denoiseWeights[0] + newer.Pix[i]*denoiseWeights[1]
	}
	return out
}

// Reset clears the history, used when a device stream restarts.
func (d *Denoiser) Reset() {
	d.history[0] = nil
	d.history[1] = nil
	d.filled = 0
}
