// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"maps"
	"slices"
)

// Variants generated for each uploaded image.
const (
	VariantThumbnail = "thumbnail"
	VariantMedium    = "medium"
)

// MIME types handled by uploads and imports.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypeCSV  = "text/csv"
)

// Upload limits
const (
	MaxImageUploadSize = 10 << 20
	MaxCSVUploadSize   = 5 << 20
)

// Storage prefixes for uploaded images.
const (
	MediaPrefixProducts   = "products"
	MediaPrefixBanners    = "banners"
	MediaPrefixCategories = "categories"
)

// ImageVariantConfig sizes one variant. Crop fills the box exactly;
// otherwise the image is scaled to fit inside it.
type ImageVariantConfig struct {
	Width, Height int
	Quality       int
	Crop          bool
}

// ImageVariants is the variant set for product, banner and category images.
var ImageVariants = map[string]ImageVariantConfig{
	VariantThumbnail: {Width: 300, Height: 300, Quality: 80, Crop: true},
	VariantMedium:    {Width: 800, Height: 800, Quality: 85, Crop: false},
}

// imageExtensions maps every accepted image MIME type to its stored extension.
var imageExtensions = map[string]string{
	MimeTypeJPEG: ".jpg",
	MimeTypePNG:  ".png",
	MimeTypeGIF:  ".gif",
	MimeTypeWebP: ".webp",
}

// SupportedImageTypes lists the accepted image MIME types, sorted.
func SupportedImageTypes() []string {
	return slices.Sorted(maps.Keys(imageExtensions))
}

func IsSupportedImageType(mimeType string) bool {
	_, ok := imageExtensions[mimeType]
	return ok
}

// ExtensionForMimeType returns "" for types that cannot be uploaded.
func ExtensionForMimeType(mimeType string) string {
	return imageExtensions[mimeType]
}
