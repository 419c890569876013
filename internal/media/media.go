// Package media validates product images before they are forwarded upstream and shrinks
// oversized ones.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxDimension = 2048
	WebPQuality         = 70
)

// Upload is one image received from the dashboard.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Image is a validated image ready for upstream.
type Image struct {
	Filename    string
	ContentType string
	Content     []byte
	Width       int
	Height      int
	Resized     bool
}

// Normalize validates u and re-encodes it as WebP when either side exceeds maxDim.
// Images within bounds are passed through byte for byte.
func Normalize(u Upload, maxDim int, maxBytes int64) (*Image, error) {
	if len(u.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if maxBytes > 0 && int64(len(u.Content)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("%s is too large (max %dMB)", u.Filename, maxBytes/(1024*1024)))
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	detected := http.DetectContentType(u.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError(fmt.Sprintf("%s is not a supported image", u.Filename))
	}

	decoded, format, err := image.Decode(bytes.NewReader(u.Content))
	if err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("%s is not a valid image", u.Filename))
	}
	sourceMime := decodedFormatToMime(format)
	if sourceMime == "" {
		return nil, models.NewValidationError("Unsupported image format")
	}

	b := decoded.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return &Image{
			Filename:    u.Filename,
			ContentType: sourceMime,
			Content:     u.Content,
			Width:       b.Dx(),
			Height:      b.Dy(),
		}, nil
	}

	resized := resizeToFit(decoded, maxDim, maxDim)
	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	rb := resized.Bounds()
	return &Image{
		Filename:    webpName(u.Filename),
		ContentType: "image/webp",
		Content:     buf.Bytes(),
		Width:       rb.Dx(),
		Height:      rb.Dy(),
		Resized:     true,
	}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func webpName(name string) string {
	if name == "" {
		return "image.webp"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".webp"
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
