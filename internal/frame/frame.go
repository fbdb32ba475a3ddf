// Package frame implements decoding of raw thermal sensor buffers into
// calibrated temperature frames: format detection, radiometric calibration
// and temporal denoising.
package frame

// Format identifies the wire format of an incoming frame buffer.
type Format string

const (
	// FormatPackedImage is a JPEG-compressed 8-bit intensity frame.
	FormatPackedImage Format = "MJPEG"
	// FormatRadiometric is raw 16-bit little-endian radiometric data.
	FormatRadiometric Format = "Y16"
)

// Frame is a 2-D array of per-pixel values in row-major order. Depending on
// the stage it holds raw radiometric counts or calibrated temperatures in °C.
type Frame struct {
	Width  int
	Height int
	Pix    []float64
}

// NewFrame allocates a zeroed frame of the given geometry.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the value at pixel (x, y). The caller is responsible for bounds.
func (f *Frame) At(x, y int) float64 {
	return f.Pix[y*f.Width+x]
}

// Set stores a value at pixel (x, y). The caller is responsible for bounds.
func (f *Frame) Set(x, y int, v float64) {
	f.Pix[y*f.Width+x] = v
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.Width, f.Height)
	copy(out.Pix, f.Pix)
	return out
}

// MinMax returns the smallest and largest pixel value in the frame.
func (f *Frame) MinMax() (minV, maxV float64) {
	minV, maxV = f.Pix[0], f.Pix[0]
	for _, v := range f.Pix[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}
