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

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

// RelatedProductsLimit is the number of related products on a detail page.
const RelatedProductsLimit = 4

// ImageRemover deletes a stored image and its variants by public URL.
type ImageRemover interface {
	DeleteImage(ctx context.Context, url string) error
}

// ProductQuery describes a storefront product listing.
type ProductQuery struct {
	CategorySlug string
	Search       string
	Featured     bool
	New          bool
	InStock      bool
	Size         string
	MinPrice     decimal.NullDecimal
	MaxPrice     decimal.NullDecimal
	Sort         string
	Paging
}

func (q ProductQuery) cacheKey() string {
	return fmt.Sprintf("list:c=%s|q=%s|f=%t|n=%t|s=%t|z=%s|min=%s|max=%s|o=%s|p=%d|pp=%d",
		q.CategorySlug, strings.ToLower(q.Search), q.Featured, q.New, q.InStock, q.Size,
		nullDecimalKey(q.MinPrice), nullDecimalKey(q.MaxPrice), q.Sort, q.Page, q.PerPage)
}

func nullDecimalKey(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []store.Product
	Total    int64
	Page     int
	PerPage  int
}

// Pages returns the number of pages in the listing.
func (p *ProductPage) Pages() int {
	return TotalPages(p.Total, p.PerPage)
}

// ProductDetail is a product with everything its detail page shows.
type ProductDetail struct {
	Product  store.Product
	Category *store.Category
	Reviews  store.ReviewSummary
	Related  []store.Product
}

// ProductInput holds the writable fields of a product.
type ProductInput struct {
	CategoryID    *int64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	SalePrice     decimal.NullDecimal
	Sku           string
	StockStatus   string
	StockQuantity *int64
	Images        []string
	Sizes         []string
	IsFeatured    bool
	IsNew         bool
	PreOrder      bool
	IsActive      bool
}

// InputFromProduct returns the input that reproduces p, for partial updates.
func InputFromProduct(p store.Product) ProductInput {
	in := ProductInput{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Sku:         p.Sku.String,
		StockStatus: p.StockStatus,
		Images:      append([]string(nil), p.Images...),
		Sizes:       append([]string(nil), p.Sizes...),
		IsFeatured:  p.IsFeatured,
		IsNew:       p.IsNew,
		PreOrder:    p.PreOrder,
		IsActive:    p.IsActive,
	}
	if p.CategoryID.Valid {
		id := p.CategoryID.Int64
		in.CategoryID = &id
	}
	if p.StockQuantity.Valid {
		qty := p.StockQuantity.Int64
		in.StockQuantity = &qty
	}
	return in
}

// CategoryInput holds the writable fields of a category.
type CategoryInput struct {
	Name         string
	Slug         string
	Description  string
	ImageURL     string
	ParentID     *int64
	DisplayOrder int64
	IsActive     bool
}

// CatalogService manages categories and products.
type CatalogService struct {
	queries    *store.Queries
	cache      *cache.Manager
	products   *cache.TypedCache[ProductPage]
	categories *cache.TypedCache[[]store.CategoryWithCount]
	images     ImageRemover
	events     *EventService
	lowStock   int64
}

// NewCatalogService creates a CatalogService. images may be nil.
func NewCatalogService(db *sql.DB, cm *cache.Manager, images ImageRemover, events *EventService, lowStock int64) *CatalogService {
	if lowStock <= 0 {
		lowStock = model.DefaultLowStockThreshold
	}
	return &CatalogService{
		queries:    store.New(db),
		cache:      cm,
		products:   cache.For[ProductPage](cm, cache.NamespaceProducts),
		categories: cache.For[[]store.CategoryWithCount](cm, cache.NamespaceCategories),
		images:     images,
		events:     events,
		lowStock:   lowStock,
	}
}

// ListCategories returns active categories with their active product counts.
func (s *CatalogService) ListCategories(ctx context.Context) ([]store.CategoryWithCount, error) {
	cats, err := s.categories.GetOrSet(ctx, "active", func() (*[]store.CategoryWithCount, error) {
		list, err := s.queries.ListActiveCategoriesWithCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing categories: %w", err)
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *cats, nil
}

// GetCategoryBySlug returns an active category.
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (store.Category, error) {
	c, err := s.queries.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return store.Category{}, notFound(err, "loading category")
	}
	if !c.IsActive {
		return store.Category{}, ErrNotFound
	}
	return c, nil
}

// ListProducts returns a page of active products. Results are cached until
// the next catalog write.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	q.Paging = q.Paging.Normalize()
	q.Search = strings.TrimSpace(q.Search)

	return s.products.GetOrSet(ctx, q.cacheKey(), func() (*ProductPage, error) {
		page := &ProductPage{Products: []store.Product{}, Page: q.Page, PerPage: q.PerPage}

		f := store.ProductFilter{
			Search:   q.Search,
			Featured: q.Featured,
			New:      q.New,
			InStock:  q.InStock,
			Size:     q.Size,
			MinPrice: q.MinPrice,
			MaxPrice: q.MaxPrice,
			Sort:     q.Sort,
			Limit:    q.Limit(),
			Offset:   q.Offset(),
		}
		if q.CategorySlug != "" {
			c, err := s.GetCategoryBySlug(ctx, q.CategorySlug)
			if errors.Is(err, ErrNotFound) {
				return page, nil
			}
			if err != nil {
				return nil, err
			}
			f.CategoryID = c.ID
		}

		products, err := s.queries.ListProducts(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("listing products: %w", err)
		}
		total, err := s.queries.CountProducts(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("counting products: %w", err)
		}
		if products != nil {
			page.Products = products
		}
		page.Total = total
		return page, nil
	})
}

// FeaturedProducts returns up to limit featured products.
func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int) ([]store.Product, error) {
	page, err := s.ListProducts(ctx, ProductQuery{Featured: true, Paging: Paging{Page: 1, PerPage: limit}})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// NewProducts returns up to limit products flagged as new.
func (s *CatalogService) NewProducts(ctx context.Context, limit int) ([]store.Product, error) {
	page, err := s.ListProducts(ctx, ProductQuery{New: true, Paging: Paging{Page: 1, PerPage: limit}})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// GetProductDetail returns an active product with its category, approved
// review summary and related products.
func (s *CatalogService) GetProductDetail(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "loading product")
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}

	detail := &ProductDetail{Product: p, Related: []store.Product{}}
	if p.CategoryID.Valid {
		c, err := s.queries.GetCategoryByID(ctx, p.CategoryID.Int64)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading category: %w", err)
		}
		if err == nil {
			detail.Category = &c
		}

		related, err := s.queries.ListRelatedProducts(ctx, store.ListRelatedProductsParams{
			CategoryID: p.CategoryID.Int64, ExcludeID: p.ID, Limit: RelatedProductsLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("listing related products: %w", err)
		}
		if related != nil {
			detail.Related = related
		}
	}

	detail.Reviews, err = s.queries.GetReviewSummary(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("loading review summary: %w", err)
	}
	return detail, nil
}

// RecordView stores a product view classified by user agent. Crawlers are
// not recorded; the result reports whether a view was stored.
func (s *CatalogService) RecordView(ctx context.Context, productID int64, userID *int64, userAgent string) (bool, error) {
	ua := ParseUserAgent(userAgent)
	if ua.IsBot() {
		return false, nil
	}
	err := s.queries.CreateProductView(ctx, store.CreateProductViewParams{
		ProductID:  productID,
		UserID:     util.NullInt64FromPtr(userID),
		DeviceType: ua.DeviceType,
		Browser:    ua.Browser,
		Os:         ua.OS,
		CreatedAt:  store.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("recording view: %w", err)
	}
	return true, nil
}

// AdminListProducts lists all products, including inactive ones.
func (s *CatalogService) AdminListProducts(ctx context.Context, search string, p Paging) (*ProductPage, error) {
	p = p.Normalize()
	f := store.ProductFilter{
		Search:          strings.TrimSpace(search),
		IncludeInactive: true,
		Limit:           p.Limit(),
		Offset:          p.Offset(),
	}
	products, err := s.queries.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	total, err := s.queries.CountProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}
	if products == nil {
		products = []store.Product{}
	}
	return &ProductPage{Products: products, Total: total, Page: p.Page, PerPage: p.PerPage}, nil
}

// GetProduct returns any product by id.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (store.Product, error) {
	p, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		return store.Product{}, notFound(err, "loading product")
	}
	return p, nil
}

// CreateProduct validates and inserts a product.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (store.Product, error) {
	if err := s.prepareProduct(ctx, 0, &in); err != nil {
		return store.Product{}, err
	}

	now := store.Now()
	p, err := s.queries.CreateProduct(ctx, store.CreateProductParams{
		CategoryID:    util.NullInt64FromPtr(in.CategoryID),
		Name:          in.Name,
		Slug:          in.Slug,
		Description:   in.Description,
		Price:         in.Price,
		SalePrice:     in.SalePrice,
		Sku:           util.NullStringFromValue(in.Sku),
		StockStatus:   in.StockStatus,
		StockQuantity: util.NullInt64FromPtr(in.StockQuantity),
		Images:        store.StringList(in.Images),
		Sizes:         store.StringList(in.Sizes),
		IsFeatured:    in.IsFeatured,
		IsNew:         in.IsNew,
		PreOrder:      in.PreOrder,
		IsActive:      in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return store.Product{}, productWriteError(err, "creating product")
	}

	s.cache.InvalidateCatalog(ctx)
	return p, nil
}

// UpdateProduct replaces a product's fields.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (store.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return store.Product{}, err
	}
	if err := s.prepareProduct(ctx, id, &in); err != nil {
		return store.Product{}, err
	}

	p, err := s.queries.UpdateProduct(ctx, store.UpdateProductParams{
		CategoryID:    util.NullInt64FromPtr(in.CategoryID),
		Name:          in.Name,
		Slug:          in.Slug,
		Description:   in.Description,
		Price:         in.Price,
		SalePrice:     in.SalePrice,
		Sku:           util.NullStringFromValue(in.Sku),
		StockStatus:   in.StockStatus,
		StockQuantity: util.NullInt64FromPtr(in.StockQuantity),
		Images:        store.StringList(in.Images),
		Sizes:         store.StringList(in.Sizes),
		IsFeatured:    in.IsFeatured,
		IsNew:         in.IsNew,
		PreOrder:      in.PreOrder,
		IsActive:      in.IsActive,
		UpdatedAt:     store.Now(),
		ID:            id,
	})
	if err != nil {
		return store.Product{}, productWriteError(err, "updating product")
	}

	s.cache.InvalidateCatalog(ctx)
	return p, nil
}

func productWriteError(err error, doing string) error {
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "sku") {
			return ErrSkuTaken
		}
		return ErrSlugTaken
	}
	return notFound(err, doing)
}

// prepareProduct normalizes and validates in. id is 0 for new products.
func (s *CatalogService) prepareProduct(ctx context.Context, id int64, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Sku = strings.TrimSpace(in.Sku)
	in.Slug = strings.TrimSpace(in.Slug)

	if in.Name == "" {
		return invalid("name", "Ürün adı zorunludur")
	}
	if !in.Price.IsPositive() {
		return invalid("price", "Fiyat sıfırdan büyük olmalıdır")
	}
	in.Price = in.Price.Round(2)
	if in.SalePrice.Valid {
		if !in.SalePrice.Decimal.IsPositive() || !in.SalePrice.Decimal.LessThan(in.Price) {
			return invalid("sale_price", "İndirimli fiyat normal fiyattan düşük olmalıdır")
		}
		in.SalePrice.Decimal = in.SalePrice.Decimal.Round(2)
	}

	if in.CategoryID != nil {
		if _, err := s.queries.GetCategoryByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return invalid("category_id", "Kategori bulunamadı")
			}
			return fmt.Errorf("loading category: %w", err)
		}
	}

	if in.StockStatus == "" {
		in.StockStatus = model.StockInStock
		if in.PreOrder {
			in.StockStatus = model.StockPreOrder
		}
	}
	if !model.IsValidStockStatus(in.StockStatus) {
		return invalid("stock_status", "Geçersiz stok durumu")
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return invalid("stock_quantity", "Stok adedi negatif olamaz")
		}
		in.StockStatus = model.StockStatusForQuantity(in.StockStatus, *in.StockQuantity, s.lowStock)
	}

	in.Images = cleanList(in.Images)
	in.Sizes = cleanList(in.Sizes)

	if in.Sku != "" {
		other, err := s.queries.GetProductBySku(ctx, in.Sku)
		switch {
		case err == nil && other.ID != id:
			return ErrSkuTaken
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking sku: %w", err)
		}
	}

	if in.Slug != "" {
		if !util.IsValidSlug(in.Slug) {
			return invalid("slug", "Geçersiz kısa ad (slug)")
		}
		taken, err := s.productSlugTaken(ctx, in.Slug, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlugTaken
		}
		return nil
	}

	slug, err := util.UniqueSlug(util.Slugify(in.Name), func(candidate string) (bool, error) {
		return s.productSlugTaken(ctx, candidate, id)
	})
	if err != nil {
		return fmt.Errorf("generating slug: %w", err)
	}
	in.Slug = slug
	return nil
}

func (s *CatalogService) productSlugTaken(ctx context.Context, slug string, id int64) (bool, error) {
	other, err := s.queries.GetProductBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return other.ID != id, nil
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// DeleteProduct removes a product. Products referenced by order items are
// deactivated instead, and deactivated reports true.
func (s *CatalogService) DeleteProduct(ctx context.Context, actorID, id int64) (deactivated bool, err error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return false, err
	}

	n, err := s.queries.CountOrderItemsForProduct(ctx, id)
	if err != nil {
		return false, fmt.Errorf("counting order items: %w", err)
	}
	if n > 0 {
		if err := s.queries.SetProductActive(ctx, store.SetProductActiveParams{
			IsActive: false, UpdatedAt: store.Now(), ID: id,
		}); err != nil {
			return false, fmt.Errorf("deactivating product: %w", err)
		}
		_ = s.events.LogCatalogEvent(ctx, model.EventLevelInfo, "Product deactivated instead of deleted", actor(actorID),
			map[string]any{"product_id": id, "order_items": n})
		s.cache.InvalidateCatalog(ctx)
		return true, nil
	}

	if err := s.queries.DeleteProduct(ctx, id); err != nil {
		return false, fmt.Errorf("deleting product: %w", err)
	}
	s.cache.InvalidateCatalog(ctx)

	if s.images != nil {
		for _, u := range p.Images {
			if err := s.images.DeleteImage(ctx, u); err != nil {
				slog.Warn("product image cleanup failed", "product_id", id, "url", u, "error", err)
			}
		}
	}
	_ = s.events.LogCatalogEvent(ctx, model.EventLevelInfo, "Product deleted", actor(actorID),
		map[string]any{"product_id": id, "slug": p.Slug})
	return false, nil
}

// AddProductImages appends image URLs to a product, skipping duplicates.
func (s *CatalogService) AddProductImages(ctx context.Context, id int64, urls []string) (store.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return store.Product{}, err
	}
	images := cleanList(append(append([]string(nil), p.Images...), urls...))
	return s.setImages(ctx, id, images)
}

// RemoveProductImage removes one image URL from a product and deletes the
// stored files.
func (s *CatalogService) RemoveProductImage(ctx context.Context, id int64, url string) (store.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return store.Product{}, err
	}
	if !p.Images.Contains(url) {
		return store.Product{}, ErrNotFound
	}

	images := make([]string, 0, len(p.Images)-1)
	for _, u := range p.Images {
		if u != url {
			images = append(images, u)
		}
	}
	updated, err := s.setImages(ctx, id, images)
	if err != nil {
		return store.Product{}, err
	}

	if s.images != nil {
		if err := s.images.DeleteImage(ctx, url); err != nil {
			slog.Warn("product image cleanup failed", "product_id", id, "url", url, "error", err)
		}
	}
	return updated, nil
}

func (s *CatalogService) setImages(ctx context.Context, id int64, images []string) (store.Product, error) {
	p, err := s.queries.UpdateProductImages(ctx, store.UpdateProductImagesParams{
		Images: store.StringList(images), UpdatedAt: store.Now(), ID: id,
	})
	if err != nil {
		return store.Product{}, notFound(err, "updating images")
	}
	s.cache.InvalidateCatalog(ctx)
	return p, nil
}

// AdminListCategories returns every category, active or not.
func (s *CatalogService) AdminListCategories(ctx context.Context) ([]store.Category, error) {
	cats, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	if cats == nil {
		cats = []store.Category{}
	}
	return cats, nil
}

// GetCategory returns any category by id.
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (store.Category, error) {
	c, err := s.queries.GetCategoryByID(ctx, id)
	if err != nil {
		return store.Category{}, notFound(err, "loading category")
	}
	return c, nil
}

// CreateCategory validates and inserts a category.
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (store.Category, error) {
	if err := s.prepareCategory(ctx, 0, &in); err != nil {
		return store.Category{}, err
	}
	now := store.Now()
	c, err := s.queries.CreateCategory(ctx, store.CreateCategoryParams{
		Name:         in.Name,
		Slug:         in.Slug,
		Description:  in.Description,
		ImageUrl:     in.ImageURL,
		ParentID:     util.NullInt64FromPtr(in.ParentID),
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.Category{}, ErrSlugTaken
		}
		return store.Category{}, fmt.Errorf("creating category: %w", err)
	}
	s.cache.InvalidateCatalog(ctx)
	return c, nil
}

// UpdateCategory replaces a category's fields.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (store.Category, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return store.Category{}, err
	}
	if err := s.prepareCategory(ctx, id, &in); err != nil {
		return store.Category{}, err
	}
	c, err := s.queries.UpdateCategory(ctx, store.UpdateCategoryParams{
		Name:         in.Name,
		Slug:         in.Slug,
		Description:  in.Description,
		ImageUrl:     in.ImageURL,
		ParentID:     util.NullInt64FromPtr(in.ParentID),
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
		UpdatedAt:    store.Now(),
		ID:           id,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.Category{}, ErrSlugTaken
		}
		return store.Category{}, notFound(err, "updating category")
	}
	s.cache.InvalidateCatalog(ctx)
	return c, nil
}

func (s *CatalogService) prepareCategory(ctx context.Context, id int64, in *CategoryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return invalid("name", "Kategori adı zorunludur")
	}
	if in.ParentID != nil {
		if *in.ParentID == id {
			return invalid("parent_id", "Kategori kendi üst kategorisi olamaz")
		}
		if _, err := s.queries.GetCategoryByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return invalid("parent_id", "Üst kategori bulunamadı")
			}
			return fmt.Errorf("loading parent category: %w", err)
		}
	}

	taken := func(slug string) (bool, error) {
		other, err := s.queries.GetCategoryBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("checking slug: %w", err)
		}
		return other.ID != id, nil
	}

	if in.Slug == "" {
		slug, err := util.UniqueSlug(util.Slugify(in.Name), taken)
		if err != nil {
			return err
		}
		in.Slug = slug
		return nil
	}
	if !util.IsValidSlug(in.Slug) {
		return invalid("slug", "Geçersiz kısa ad (slug)")
	}
	exists, err := taken(in.Slug)
	if err != nil {
		return err
	}
	if exists {
		return ErrSlugTaken
	}
	return nil
}

// DeleteCategory removes an empty category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	n, err := s.queries.CountProductsInCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if n > 0 {
		return ErrCategoryNotEmpty
	}
	if err := s.queries.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	s.cache.InvalidateCatalog(ctx)
	return nil
}
