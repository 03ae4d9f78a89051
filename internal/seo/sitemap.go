// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo renders the storefront sitemap and robots.txt.
package seo

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"
)

// Namespace is the sitemaps.org schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Kind selects the storefront route of a sitemap entry.
type Kind int

const (
	KindPage Kind = iota
	KindCategory
	KindProduct
)

type route struct {
	prefix     string
	changeFreq string
	priority   string
}

var routes = map[Kind]route{
	KindPage:     {"/sayfa/", "monthly", "0.5"},
	KindCategory: {"/kategori/", "daily", "0.8"},
	KindProduct:  {"/urun/", "weekly", "0.7"},
}

// Entry is one slug-addressed resource.
type Entry struct {
	Kind      Kind
	Slug      string
	UpdatedAt time.Time
}

// Path returns the storefront path of e, for example /urun/keten-elbise.
func (e Entry) Path() string {
	return routes[e.Kind].prefix + e.Slug
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []urlEntry
}

type urlEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

// Sitemap renders the home page followed by entries in the given order.
// lastmod is written in UTC and omitted for a zero UpdatedAt.
func Sitemap(siteURL string, entries []Entry) ([]byte, error) {
	base := strings.TrimRight(siteURL, "/")
	set := urlset{XMLNS: Namespace, URLs: make([]urlEntry, 0, len(entries)+1)}
	set.URLs = append(set.URLs, urlEntry{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"})

	for _, e := range entries {
		r := routes[e.Kind]
		u := urlEntry{Loc: base + e.Path(), ChangeFreq: r.changeFreq, Priority: r.priority}
		if !e.UpdatedAt.IsZero() {
			u.LastMod = e.UpdatedAt.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
