// Package imaging turns arbitrary source images into their storage
// representation: a stable content hash plus a downscaled, recompressed
// JPEG blob.
package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/jpeg"

	_ "image/gif" // register decoders for the formats sources arrive in
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Storage caps. Both dimensions of a stored blob fit within these bounds;
// images are never upscaled.
const (
	MaxWidth  = 972
	MaxHeight = 1215
)

// JPEGQuality is the fixed quality factor for the storage representation.
const JPEGQuality = 85

// Normalized is the storage representation of a source image.
type Normalized struct {
	Hash   string // lowercase hex SHA-256 of the source bytes
	Blob   []byte // downscaled JPEG
	Width  int
	Height int
}

// Hash returns the lowercase hex SHA-256 digest of the source bytes.
// The hash is computed on the original bytes, before any downscaling or
// re-encoding, so identical sources always hash identically regardless of
// encoder parameters.
func Hash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Downscale decodes the source, scales it to fit within MaxWidth×MaxHeight
// preserving aspect ratio (never upscaling), and re-encodes it as JPEG at
// JPEGQuality. Decode failures are reported as *LoadError, encode failures
// as *EncodeError.
func Downscale(src []byte) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, 0, 0, &LoadError{Err: err}
	}

	bounds := img.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy())

	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, 0, 0, &EncodeError{Err: err}
	}

	return buf.Bytes(), width, height, nil
}

// Normalize computes the content hash and the storage blob for the source.
func Normalize(src []byte) (*Normalized, error) {
	blob, width, height, err := Downscale(src)
	if err != nil {
		return nil, err
	}
	return &Normalized{
		Hash:   Hash(src),
		Blob:   blob,
		Width:  width,
		Height: height,
	}, nil
}

// scaledSize fits (w, h) within the storage caps, preserving aspect ratio.
// The scale factor is min(capW/w, capH/h, 1): never upscale.
func scaledSize(w, h int) (int, int) {
	ratio := 1.0
	if r := float64(MaxWidth) / float64(w); r < ratio {
		ratio = r
	}
	if r := float64(MaxHeight) / float64(h); r < ratio {
		ratio = r
	}
	if ratio == 1.0 {
		return w, h
	}
	sw := int(float64(w)*ratio + 0.5)
	sh := int(float64(h)*ratio + 0.5)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}
