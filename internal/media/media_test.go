package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_PassThrough(t *testing.T) {
	content := pngOf(t, 40, 20)
	img, err := Normalize(Upload{Filename: "a.png", Content: content}, 100, 1<<20)
	require.NoError(t, err)
	assert.False(t, img.Resized)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, content, img.Content)
	assert.Equal(t, 40, img.Width)
}

func TestNormalize_DownsizesToWebP(t *testing.T) {
	img, err := Normalize(Upload{Filename: "big.png", Content: pngOf(t, 300, 150)}, 100, 1<<20)
	require.NoError(t, err)
	assert.True(t, img.Resized)
	assert.Equal(t, "image/webp", img.ContentType)
	assert.Equal(t, "big.webp", img.Filename)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)

	decoded, format, err := image.Decode(bytes.NewReader(img.Content))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 100, decoded.Bounds().Dx())
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   Upload
		max  int64
	}{
		{"empty", Upload{Filename: "x.png"}, 1 << 20},
		{"not an image", Upload{Filename: "x.txt", Content: []byte("hello world")}, 1 << 20},
		{"too large", Upload{Filename: "x.png", Content: pngOf(t, 10, 10)}, 10},
		{"truncated png", Upload{Filename: "x.png", Content: pngOf(t, 10, 10)[:40]}, 1 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in, 100, tt.max)
			require.Error(t, err)
			assert.Equal(t, 400, models.StatusFor(err))
		})
	}
}
