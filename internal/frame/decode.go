package frame

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"

	"github.com/thermalab/thermal-ar-go/internal/errors"
)

const (
	// Scale factor from 8-bit packed intensity back to the 16-bit count
	// range, 65535/255. Applied to packed frames so calibration math is
	// format independent.
	packedRescale = 257
	// Bytes per sample in raw radiometric buffers.
	sampleWidth = 2
)

// ErrBufferSize is returned when a raw buffer does not match the configured
// frame geometry exactly.
var ErrBufferSize = errors.Newf("frame buffer size does not match geometry").
	Component("frame").
	Category(errors.CategoryFrameDecode).
	Build()

// ErrCorruptImage is returned when a packed-image frame cannot be decoded.
var ErrCorruptImage = errors.Newf("packed image frame is corrupt").
	Component("frame").
	Category(errors.CategoryFrameDecode).
	Build()

// DetectFormat classifies a frame buffer by its leading bytes. JPEG frames
// start with the 0xFF 0xD8 SOI marker, everything else is treated as raw
// radiometric data.
func DetectFormat(buf []byte) Format {
	if len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xD8 {
		return FormatPackedImage
	}
	return FormatRadiometric
}

// Decoder turns raw frame buffers into 2-D radiometric frames of a fixed
// geometry. It is stateless and safe for concurrent use.
type Decoder struct {
	width  int
	height int
}

// NewDecoder returns a decoder for the given frame geometry.
func NewDecoder(width, height int) *Decoder {
	return &Decoder{width: width, height: height}
}

// Decode classifies buf and decodes it into a radiometric frame. The returned
// format tells the caller which path was taken. Decode failures abort only the
// current frame; the decoder itself carries no state to corrupt.
func (d *Decoder) Decode(buf []byte) (*Frame, Format, error) {
	format := DetectFormat(buf)

	var f *Frame
	var err error
	switch format {
	case FormatPackedImage:
		f, err = d.decodePacked(buf)
	default:
		f, err = d.decodeRadiometric(buf)
	}
	if err != nil {
		return nil, format, err
	}
	return f, format, nil
}

// decodePacked decompresses a JPEG frame and rescales its 8-bit intensities
// to the radiometric count range.
func (d *Decoder) decodePacked(buf []byte) (*Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.New(errors.Join(ErrCorruptImage, err)).
			Component("frame").
			Category(errors.CategoryFrameDecode).
			Context("size", len(buf)).
			Build()
	}

	bounds := img.Bounds()
	if bounds.Dx() != d.width || bounds.Dy() != d.height {
		return nil, errors.Newf("packed frame is %dx%d, expected %dx%d: %w",
			bounds.Dx(), bounds.Dy(), d.width, d.height, ErrBufferSize).
			Component("frame").
			Category(errors.CategoryFrameDecode).
			Build()
	}

	f := NewFrame(d.width, d.height)
	gray, ok := img.(*image.Gray)
	if ok {
		for y := 0; y < d.height; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+d.width]
			for x, v := range row {
				f.Pix[y*d.width+x] = float64(v) * packedRescale
			}
		}
		return f, nil
	}

	// Color JPEG, use luma
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels, BT.601 luma keeps the full range
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			f.Pix[y*d.width+x] = luma
		}
	}
	return f, nil
}

// decodeRadiometric reinterprets buf as fixed-width unsigned samples and
// reshapes them to the configured geometry. The buffer must match
// height×width×2 bytes exactly.
func (d *Decoder) decodeRadiometric(buf []byte) (*Frame, error) {
	expected := d.width * d.height * sampleWidth
	if len(buf) != expected {
		return nil, errors.Newf("raw frame is %d bytes, expected %d: %w",
			len(buf), expected, ErrBufferSize).
			Component("frame").
			Category(errors.CategoryFrameDecode).
			Context("size", len(buf)).
			Context("expected", expected).
			Build()
	}

	f := NewFrame(d.width, d.height)
	for i := range f.Pix {
		f.Pix[i] = float64(binary.LittleEndian.Uint16(buf[i*sampleWidth:]))
	}
	return f, nil
}
