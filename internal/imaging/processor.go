// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes uploaded images, applies EXIF orientation and
// renders the resized variants stored next to each original.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/ocms-shop/internal/model"
)

// MaxPixels bounds the decoded size of an upload.
const MaxPixels = 40_000_000

// Errors returned by Process.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooLarge     = errors.New("image dimensions too large")
)

// Image is an encoded image ready to be stored.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Ext returns the file extension matching the image's MIME type.
func (i Image) Ext() string {
	return model.ExtensionForMimeType(i.MimeType)
}

// Result holds the processed original and its variants keyed by variant name.
type Result struct {
	Original Image
	Variants map[string]Image
}

// Processor handles image processing operations using pure Go libraries.
type Processor struct {
	variants        map[string]model.ImageVariantConfig
	originalQuality int
}

// NewProcessor creates a processor producing model.ImageVariants.
func NewProcessor() *Processor {
	return &Processor{
		variants:        model.ImageVariants,
		originalQuality: 92,
	}
}

// Process decodes data, rotates it according to EXIF and re-encodes the
// original plus every configured variant. Metadata is dropped in the process.
func (p *Processor) Process(data []byte) (*Result, error) {
	source := DetectMimeType(data)
	if _, ok := outputs[source]; !ok {
		return nil, ErrUnsupportedFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, exifOrientation(bytes.NewReader(data)))

	original, err := encode(img, source, p.originalQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding original: %w", err)
	}

	res := &Result{
		Original: original,
		Variants: make(map[string]Image, len(p.variants)),
	}
	for name, vc := range p.variants {
		v, err := encode(resize(img, vc), source, vc.Quality)
		if err != nil {
			return nil, fmt.Errorf("encoding %s variant: %w", name, err)
		}
		res.Variants[name] = v
	}
	return res, nil
}

// resize crops to the exact size or fits within bounds. Images already
// inside the bounds are not upscaled.
func resize(img image.Image, vc model.ImageVariantConfig) image.Image {
	b := img.Bounds()
	if vc.Crop {
		return imaging.Fill(img, vc.Width, vc.Height, imaging.Center, imaging.Lanczos)
	}
	if b.Dx() <= vc.Width && b.Dy() <= vc.Height {
		return img
	}
	return imaging.Fit(img, vc.Width, vc.Height, imaging.Lanczos)
}

// DetectMimeType sniffs the MIME type of data, ignoring any parameters.
func DetectMimeType(data []byte) string {
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return mt
}

// orientations undo EXIF orientations 2 to 8. Orientation 1 and unknown
// values leave the image as it is.
var orientations = map[int]func(image.Image) *image.NRGBA{
	2: imaging.FlipH,
	3: imaging.Rotate180,
	4: imaging.FlipV,
	5: imaging.Transpose,
	6: imaging.Rotate270,
	7: imaging.Transverse,
	8: imaging.Rotate90,
}

// exifOrientation returns the orientation tag, or 1 when there is none.
func exifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

func applyOrientation(img image.Image, orientation int) image.Image {
	if fix, ok := orientations[orientation]; ok {
		return fix(img)
	}
	return img
}

// outputs maps a source format to the format it is stored in. WebP has no
// pure Go encoder and is stored as JPEG. TIFF and BMP are absent on
// purpose: the decoder in disintegration/imaging is affected by
// CVE-2023-36308.
var outputs = map[string]struct {
	format imaging.Format
	mime   string
}{
	model.MimeTypeJPEG: {imaging.JPEG, model.MimeTypeJPEG},
	model.MimeTypePNG:  {imaging.PNG, model.MimeTypePNG},
	model.MimeTypeGIF:  {imaging.GIF, model.MimeTypeGIF},
	model.MimeTypeWebP: {imaging.JPEG, model.MimeTypeJPEG},
}

func encode(img image.Image, sourceMime string, quality int) (Image, error) {
	out := outputs[sourceMime]
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, out.format, imaging.JPEGQuality(quality)); err != nil {
		return Image{}, err
	}
	b := img.Bounds()
	return Image{Data: buf.Bytes(), MimeType: out.mime, Width: b.Dx(), Height: b.Dy()}, nil
}
