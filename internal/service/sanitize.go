// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/olegiv/ocms-shop/internal/model"
)

// ugcSanitizer keeps safe formatting tags in admin-authored page content.
var ugcSanitizer = bluemonday.UGCPolicy()

// strictSanitizer strips all markup from customer-supplied text.
var strictSanitizer = bluemonday.StrictPolicy()

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// SanitizeText removes every tag from s. Entities produced by the policy
// are decoded so the stored value is plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictSanitizer.Sanitize(s)))
}

// RenderContent converts page content to sanitized HTML.
func RenderContent(content, format string) (string, error) {
	if format != model.ContentFormatMarkdown {
		return ugcSanitizer.Sanitize(content), nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return string(ugcSanitizer.SanitizeBytes(buf.Bytes())), nil
}
