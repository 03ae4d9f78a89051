// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

// bannerCacheTTL is short because validity windows open and close on their own.
const bannerCacheTTL = time.Minute

// BannerInput holds the writable fields of a banner.
type BannerInput struct {
	Title        string
	Subtitle     string
	ImageURL     string
	LinkURL      string
	ButtonText   string
	Position     string
	DisplayOrder int64
	IsActive     bool
	StartsAt     *time.Time
	EndsAt       *time.Time
}

// BannerInputFromBanner returns the input that reproduces b.
func BannerInputFromBanner(b store.Banner) BannerInput {
	in := BannerInput{
		Title:        b.Title,
		Subtitle:     b.Subtitle,
		ImageURL:     b.ImageUrl,
		LinkURL:      b.LinkUrl,
		ButtonText:   b.ButtonText,
		Position:     b.Position,
		DisplayOrder: b.DisplayOrder,
		IsActive:     b.IsActive,
	}
	if b.StartsAt.Valid {
		t := b.StartsAt.Time
		in.StartsAt = &t
	}
	if b.EndsAt.Valid {
		t := b.EndsAt.Time
		in.EndsAt = &t
	}
	return in
}

// PageInput holds the writable fields of a CMS page.
type PageInput struct {
	Title           string
	Slug            string
	Content         string
	ContentFormat   string
	MetaTitle       string
	MetaDescription string
	IsPublished     bool
	ShowInFooter    bool
}

// PageInputFromPage returns the input that reproduces p.
func PageInputFromPage(p store.Page) PageInput {
	return PageInput{
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		ContentFormat:   p.ContentFormat,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		IsPublished:     p.IsPublished,
		ShowInFooter:    p.ShowInFooter,
	}
}

// PageView is a page with its rendered, sanitized HTML.
type PageView struct {
	Page        store.Page
	ContentHTML string
}

// ContentService manages banners and CMS pages.
type ContentService struct {
	queries *store.Queries
	cache   *cache.Manager
	banners *cache.TypedCache[[]store.Banner]
	pages   *cache.TypedCache[PageView]
	images  ImageRemover
	events  *EventService
}

// NewContentService creates a ContentService. images may be nil.
func NewContentService(db *sql.DB, cm *cache.Manager, images ImageRemover, events *EventService) *ContentService {
	return &ContentService{
		queries: store.New(db),
		cache:   cm,
		banners: cache.For[[]store.Banner](cm, cache.NamespaceBanners),
		pages:   cache.For[PageView](cm, cache.NamespacePages),
		images:  images,
		events:  events,
	}
}

// ActiveBanners returns banners visible now, optionally for one position.
func (s *ContentService) ActiveBanners(ctx context.Context, position string) ([]store.Banner, error) {
	if position != "" && !model.IsValidBannerPosition(position) {
		return nil, invalid("position", "Geçersiz banner konumu")
	}
	key := "active:" + position
	if cached, ok := s.banners.Get(ctx, key); ok {
		return *cached, nil
	}
	banners, err := s.queries.ListActiveBanners(ctx, store.ListActiveBannersParams{
		Position: position, Now: store.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	if banners == nil {
		banners = []store.Banner{}
	}
	if err := s.banners.SetWithTTL(ctx, key, &banners, bannerCacheTTL); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	return banners, nil
}

// ListBanners returns every banner for administration.
func (s *ContentService) ListBanners(ctx context.Context) ([]store.Banner, error) {
	banners, err := s.queries.ListBanners(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	if banners == nil {
		banners = []store.Banner{}
	}
	return banners, nil
}

// GetBanner returns a banner by id.
func (s *ContentService) GetBanner(ctx context.Context, id int64) (store.Banner, error) {
	b, err := s.queries.GetBannerByID(ctx, id)
	if err != nil {
		return store.Banner{}, notFound(err, "loading banner")
	}
	return b, nil
}

func prepareBanner(in *BannerInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Position = strings.TrimSpace(in.Position)
	if in.Title == "" {
		return invalid("title", "Başlık zorunludur")
	}
	if in.Position == "" {
		in.Position = model.BannerPositionHero
	}
	if !model.IsValidBannerPosition(in.Position) {
		return invalid("position", "Geçersiz banner konumu")
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return invalid("ends_at", "Bitiş tarihi başlangıç tarihinden sonra olmalıdır")
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// CreateBanner adds a banner.
func (s *ContentService) CreateBanner(ctx context.Context, actorID int64, in BannerInput) (store.Banner, error) {
	if err := prepareBanner(&in); err != nil {
		return store.Banner{}, err
	}
	now := store.Now()
	b, err := s.queries.CreateBanner(ctx, store.CreateBannerParams{
		Title:        in.Title,
		Subtitle:     strings.TrimSpace(in.Subtitle),
		ImageUrl:     in.ImageURL,
		LinkUrl:      strings.TrimSpace(in.LinkURL),
		ButtonText:   strings.TrimSpace(in.ButtonText),
		Position:     in.Position,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
		StartsAt:     nullTime(in.StartsAt),
		EndsAt:       nullTime(in.EndsAt),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.Banner{}, fmt.Errorf("creating banner: %w", err)
	}
	s.cache.InvalidateBanners(ctx)
	_ = s.events.LogInfo(ctx, model.EventCategoryContent, "Banner created", actor(actorID), map[string]any{"banner_id": b.ID})
	return b, nil
}

// UpdateBanner replaces a banner's fields. A replaced image is deleted.
func (s *ContentService) UpdateBanner(ctx context.Context, actorID, id int64, in BannerInput) (store.Banner, error) {
	old, err := s.GetBanner(ctx, id)
	if err != nil {
		return store.Banner{}, err
	}
	if err := prepareBanner(&in); err != nil {
		return store.Banner{}, err
	}
	b, err := s.queries.UpdateBanner(ctx, store.UpdateBannerParams{
		Title:        in.Title,
		Subtitle:     strings.TrimSpace(in.Subtitle),
		ImageUrl:     in.ImageURL,
		LinkUrl:      strings.TrimSpace(in.LinkURL),
		ButtonText:   strings.TrimSpace(in.ButtonText),
		Position:     in.Position,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
		StartsAt:     nullTime(in.StartsAt),
		EndsAt:       nullTime(in.EndsAt),
		UpdatedAt:    store.Now(),
		ID:           id,
	})
	if err != nil {
		return store.Banner{}, notFound(err, "updating banner")
	}
	if old.ImageUrl != "" && old.ImageUrl != b.ImageUrl {
		s.removeImage(ctx, old.ImageUrl)
	}
	s.cache.InvalidateBanners(ctx)
	_ = s.events.LogInfo(ctx, model.EventCategoryContent, "Banner updated", actor(actorID), map[string]any{"banner_id": id})
	return b, nil
}

// DeleteBanner removes a banner and its image.
func (s *ContentService) DeleteBanner(ctx context.Context, actorID, id int64) error {
	b, err := s.GetBanner(ctx, id)
	if err != nil {
		return err
	}
	if err := s.queries.DeleteBanner(ctx, id); err != nil {
		return fmt.Errorf("deleting banner: %w", err)
	}
	if b.ImageUrl != "" {
		s.removeImage(ctx, b.ImageUrl)
	}
	s.cache.InvalidateBanners(ctx)
	_ = s.events.LogInfo(ctx, model.EventCategoryContent, "Banner deleted", actor(actorID), map[string]any{"banner_id": id})
	return nil
}

// DeactivateExpiredBanners switches off banners whose window has ended.
func (s *ContentService) DeactivateExpiredBanners(ctx context.Context) (int64, error) {
	n, err := s.queries.DeactivateExpiredBanners(ctx, store.Now())
	if err != nil {
		return 0, fmt.Errorf("deactivating banners: %w", err)
	}
	if n > 0 {
		s.cache.InvalidateBanners(ctx)
	}
	return n, nil
}

func (s *ContentService) removeImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.DeleteImage(ctx, url); err != nil {
		slog.Warn("banner image delete failed", "url", url, "error", err)
	}
}

// PublishedPages returns published pages.
func (s *ContentService) PublishedPages(ctx context.Context) ([]store.Page, error) {
	return s.listPages(ctx, true)
}

// FooterPages returns published pages flagged for the footer.
func (s *ContentService) FooterPages(ctx context.Context) ([]store.Page, error) {
	pages, err := s.queries.ListFooterPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing footer pages: %w", err)
	}
	if pages == nil {
		pages = []store.Page{}
	}
	return pages, nil
}

// ListPages returns every page for administration.
func (s *ContentService) ListPages(ctx context.Context) ([]store.Page, error) {
	return s.listPages(ctx, false)
}

func (s *ContentService) listPages(ctx context.Context, publishedOnly bool) ([]store.Page, error) {
	pages, err := s.queries.ListPages(ctx, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if pages == nil {
		pages = []store.Page{}
	}
	return pages, nil
}

// GetPublishedPage returns a published page rendered to HTML.
func (s *ContentService) GetPublishedPage(ctx context.Context, slug string) (*PageView, error) {
	return s.pages.GetOrSet(ctx, slug, func() (*PageView, error) {
		p, err := s.queries.GetPageBySlug(ctx, slug)
		if err != nil {
			return nil, notFound(err, "loading page")
		}
		if !p.IsPublished {
			return nil, ErrNotFound
		}
		return renderPage(p)
	})
}

// GetPage returns any page by id, rendered.
func (s *ContentService) GetPage(ctx context.Context, id int64) (*PageView, error) {
	p, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "loading page")
	}
	return renderPage(p)
}

func renderPage(p store.Page) (*PageView, error) {
	html, err := RenderContent(p.Content, p.ContentFormat)
	if err != nil {
		return nil, err
	}
	return &PageView{Page: p, ContentHTML: html}, nil
}

func (s *ContentService) preparePage(ctx context.Context, id int64, in *PageInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Title == "" {
		return invalid("title", "Başlık zorunludur")
	}
	if in.ContentFormat == "" {
		in.ContentFormat = model.ContentFormatHTML
	}
	if !model.IsValidContentFormat(in.ContentFormat) {
		return invalid("content_format", "İçerik biçimi html veya markdown olmalıdır")
	}

	taken := func(slug string) (bool, error) {
		p, err := s.queries.GetPageBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return p.ID != id, nil
	}

	if in.Slug != "" {
		if !util.IsValidSlug(in.Slug) {
			return invalid("slug", "Geçersiz kısa ad (slug)")
		}
		t, err := taken(in.Slug)
		if err != nil {
			return fmt.Errorf("checking slug: %w", err)
		}
		if t {
			return ErrSlugTaken
		}
		return nil
	}
	slug, err := util.UniqueSlug(util.Slugify(in.Title), taken)
	if err != nil {
		return fmt.Errorf("generating slug: %w", err)
	}
	in.Slug = slug
	return nil
}

// CreatePage adds a CMS page.
func (s *ContentService) CreatePage(ctx context.Context, actorID int64, in PageInput) (store.Page, error) {
	if err := s.preparePage(ctx, 0, &in); err != nil {
		return store.Page{}, err
	}
	now := store.Now()
	p, err := s.queries.CreatePage(ctx, store.CreatePageParams{
		Title:           in.Title,
		Slug:            in.Slug,
		Content:         in.Content,
		ContentFormat:   in.ContentFormat,
		MetaTitle:       strings.TrimSpace(in.MetaTitle),
		MetaDescription: strings.TrimSpace(in.MetaDescription),
		IsPublished:     in.IsPublished,
		ShowInFooter:    in.ShowInFooter,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.Page{}, ErrSlugTaken
		}
		return store.Page{}, fmt.Errorf("creating page: %w", err)
	}
	s.cache.InvalidatePages(ctx)
	_ = s.events.LogInfo(ctx, model.EventCategoryContent, "Page created", actor(actorID), map[string]any{"page_id": p.ID, "slug": p.Slug})
	return p, nil
}

// UpdatePage replaces a page's fields.
func (s *ContentService) UpdatePage(ctx context.Context, actorID, id int64, in PageInput) (store.Page, error) {
	if _, err := s.queries.GetPageByID(ctx, id); err != nil {
		return store.Page{}, notFound(err, "loading page")
	}
	if err := s.preparePage(ctx, id, &in); err != nil {
		return store.Page{}, err
	}
	p, err := s.queries.UpdatePage(ctx, store.UpdatePageParams{
		Title:           in.Title,
		Slug:            in.Slug,
		Content:         in.Content,
		ContentFormat:   in.ContentFormat,
		MetaTitle:       strings.TrimSpace(in.MetaTitle),
		MetaDescription: strings.TrimSpace(in.MetaDescription),
		IsPublished:     in.IsPublished,
		ShowInFooter:    in.ShowInFooter,
		UpdatedAt:       store.Now(),
		ID:              id,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.Page{}, ErrSlugTaken
		}
		return store.Page{}, notFound(err, "updating page")
	}
	s.cache.InvalidatePages(ctx)
	_ = s.events.LogInfo(ctx, model.EventCategoryContent, "Page updated", actor(actorID), map[string]any{"page_id": id})
	return p, nil
}

// DeletePage removes a page.
func (s *ContentService) DeletePage(ctx context.Context, actorID, id int64) error {
	if _, err := s.queries.GetPageByID(ctx, id); err != nil {
		return notFound(err, "loading page")
	}
	if err := s.queries.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	s.cache.InvalidatePages(ctx)
	_ = s.events.LogInfo(ctx, model.EventCategoryContent, "Page deleted", actor(actorID), map[string]any{"page_id": id})
	return nil
}
