package frame

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalab/thermal-ar-go/internal/errors"
)

const (
	testWidth  = 320
	testHeight = 256
)

// rawBuffer builds a raw Y16 buffer of the test geometry filled with value.
func rawBuffer(value uint16) []byte {
	buf := make([]byte, testWidth*testHeight*2)
	for i := 0; i < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], value)
	}
	return buf
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want Format
	}{
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatPackedImage},
		{"raw data", []byte{0x00, 0x20, 0x00, 0x20}, FormatRadiometric},
		{"empty", nil, FormatRadiometric},
		{"single byte", []byte{0xFF}, FormatRadiometric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.buf))
		})
	}
}

func TestDecodeRadiometric(t *testing.T) {
	d := NewDecoder(testWidth, testHeight)

	f, format, err := d.Decode(rawBuffer(8192))
	require.NoError(t, err)
	assert.Equal(t, FormatRadiometric, format)
	assert.Equal(t, testWidth, f.Width)
	assert.Equal(t, testHeight, f.Height)
	assert.InDelta(t, 8192.0, f.At(0, 0), 1e-9)
	assert.InDelta(t, 8192.0, f.At(testWidth-1, testHeight-1), 1e-9)
}

func TestDecodeRadiometricSizeMismatch(t *testing.T) {
	d := NewDecoder(testWidth, testHeight)

	short := make([]byte, testWidth*testHeight*2-1)
	_, _, err := d.Decode(short)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferSize))
}

func TestDecodePacked(t *testing.T) {
	// Encode a uniform gray image, decode it and verify the rescale to the
	// radiometric range.
	img := image.NewGray(image.Rect(0, 0, testWidth, testHeight))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))

	d := NewDecoder(testWidth, testHeight)
	f, format, err := d.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, FormatPackedImage, format)

	// JPEG is lossy, allow a small tolerance around 128*257
	assert.InDelta(t, 128*257, f.At(testWidth/2, testHeight/2), 3*257)
}

func TestDecodePackedCorrupt(t *testing.T) {
	d := NewDecoder(testWidth, testHeight)

	_, format, err := d.Decode([]byte{0xFF, 0xD8, 0x00, 0x01, 0x02})
	require.Error(t, err)
	assert.Equal(t, FormatPackedImage, format)
	assert.True(t, errors.Is(err, ErrCorruptImage))
}

func TestDecodePackedWrongGeometry(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	d := NewDecoder(testWidth, testHeight)
	_, _, err := d.Decode(buf.Bytes())
	assert.Error(t, err)
}
