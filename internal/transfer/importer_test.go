// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

func TestImportResult_Operations(t *testing.T) {
	result := newImportResult(false)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, result.Errors)

	result.Created = 2
	result.Updated = 1
	result.skip(4, "Geçersiz fiyat")

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 4, result.Total())
	assert.Equal(t, []RowError{{Row: 4, Message: "Geçersiz fiyat"}}, result.Errors)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"S|M|L", []string{"S", "M", "L"}},
		{" S | | M |S", []string{"S", "M"}},
		{"|", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), tt.in)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"1", true, true},
		{"Evet", true, true},
		{"TRUE", true, true},
		{"hayır", false, true},
		{"0", false, true},
		{"no", false, true},
		{"belki", false, false},
	}
	for _, tt := range tests {
		got, ok := parseBool(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseBool(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantOK  bool
		wantNil bool
	}{
		{"", "", true, true},
		{"450", "450", true, false},
		{"299,90", "299.9", true, false},
		{"12.345", "12.35", true, false},
		{"abc", "", false, true},
	}
	for _, tt := range tests {
		got, ok := parseMoney(tt.in)
		if ok != tt.wantOK || got.Valid == tt.wantNil {
			t.Errorf("parseMoney(%q) = %v, %v", tt.in, got, ok)
			continue
		}
		if got.Valid && !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parseMoney(%q) = %s, want %s", tt.in, got.Decimal, tt.want)
		}
	}
}

func TestImporter_FileErrors(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()
	imp := NewImporter(s.DB, testutil.TestLoggerSilent())

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyFile},
		{"missing price", "name,sku\nGömlek,G-1\n", ErrMissingColumns},
		{"missing name", "price\n10\n", ErrMissingColumns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := imp.Import(s.Ctx, strings.NewReader(tt.input), ImportOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("Import() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImporter_CreatesAndSkips(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	cache := &countingCache{}
	metrics := &countingMetrics{}
	imp := NewImporter(s.DB, testutil.TestLoggerSilent())
	imp.SetCache(cache)
	imp.SetMetrics(metrics)

	input := csvInput(
		"\ufeffName,Price,Category,Sizes,Stock_Quantity,SKU,Sale_Price",
		"Keten Gömlek,450,Erkek Giyim,S|M|L,3,KG-1,",
		"Etek,abc,,,,,",
		",100,,,,,",
		"Keten Gömlek,500,erkek-giyim,,,KG-2,",
		"Kazak,\"299,90\",Erkek Giyim,,,KZ-1,",
		"Şal,100,,,,SL-1,120",
		"Bere,50,,,-2,BR-1,",
	)
	result, err := imp.Import(s.Ctx, input, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 4, result.Skipped)
	assert.Equal(t, 1, result.CategoriesCreated)

	rows := make([]int, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{3, 4, 7, 8}, rows)
	assert.Contains(t, result.Errors[0].Message, "Geçersiz fiyat")

	shirt, err := s.Queries.GetProductBySku(s.Ctx, "KG-1")
	require.NoError(t, err)
	assert.Equal(t, "keten-gomlek", shirt.Slug)
	assert.Equal(t, store.StringList{"S", "M", "L"}, shirt.Sizes)
	assert.Equal(t, model.StockLowStock, shirt.StockStatus)
	assert.True(t, shirt.IsActive)

	second, err := s.Queries.GetProductBySku(s.Ctx, "KG-2")
	require.NoError(t, err)
	assert.Equal(t, "keten-gomlek-2", second.Slug)
	assert.Equal(t, shirt.CategoryID, second.CategoryID)

	cat, err := s.Queries.GetCategoryBySlug(s.Ctx, "erkek-giyim")
	require.NoError(t, err)
	assert.Equal(t, "Erkek Giyim", cat.Name)
	assert.Equal(t, sql.NullInt64{Int64: cat.ID, Valid: true}, shirt.CategoryID)

	sweater, err := s.Queries.GetProductBySku(s.Ctx, "KZ-1")
	require.NoError(t, err)
	assert.True(t, sweater.Price.Equal(decimal.RequireFromString("299.90")))

	assert.Equal(t, 1, cache.invalidations)
	assert.Equal(t, map[string]int{OutcomeCreated: 3, OutcomeUpdated: 0, OutcomeSkipped: 4}, metrics.rows)
}

func TestImporter_UpdatesExisting(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	bySku := testutil.CreateProduct(t, s.Queries, "mevcut", "100", testutil.WithStock(10), testutil.WithSizes("M"))
	bySlug := testutil.CreateProduct(t, s.Queries, "canta", "300")

	imp := NewImporter(s.DB, testutil.TestLoggerSilent())
	input := csvInput(
		"name,slug,price,sku,stock_quantity,is_featured,is_active",
		"Yeni Ad,,120,SKU-mevcut,,evet,",
		",canta,,,0,,hayır",
	)
	result, err := imp.Import(s.Ctx, input, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated, "errors: %v", result.Errors)
	assert.Equal(t, 0, result.Created)

	got, err := s.Queries.GetProductByID(s.Ctx, bySku.ID)
	require.NoError(t, err)
	assert.Equal(t, "Yeni Ad", got.Name)
	assert.Equal(t, "mevcut", got.Slug)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, int64(10), got.StockQuantity.Int64)
	assert.Equal(t, store.StringList{"M"}, got.Sizes)
	assert.True(t, got.IsFeatured)
	assert.True(t, got.IsActive)

	got, err = s.Queries.GetProductByID(s.Ctx, bySlug.ID)
	require.NoError(t, err)
	assert.Equal(t, "canta", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, model.StockOutOfStock, got.StockStatus)
	assert.False(t, got.IsActive)
}

func TestImporter_SlugConflictOnUpdate(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	testutil.CreateProduct(t, s.Queries, "birinci", "10")
	testutil.CreateProduct(t, s.Queries, "ikinci", "10")

	imp := NewImporter(s.DB, testutil.TestLoggerSilent())
	result, err := imp.Import(s.Ctx, csvInput(
		"name,slug,price,sku",
		"İkinci,birinci,12,SKU-ikinci",
	), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Errors[0].Message, "birinci")
}

func TestImporter_DryRun(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	cache := &countingCache{}
	imp := NewImporter(s.DB, testutil.TestLoggerSilent())
	imp.SetCache(cache)

	result, err := imp.Import(s.Ctx, csvInput(
		"name,price,category",
		"Gömlek,100,Yeni Kategori",
		"Pantolon,200,Yeni Kategori",
	), ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.CategoriesCreated)

	products, err := s.Queries.ListProducts(s.Ctx, store.ProductFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, products)
	cats, err := s.Queries.ListCategories(s.Ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.Zero(t, cache.invalidations)
}

func TestImporter_RowValidation(t *testing.T) {
	cols, err := indexHeader(Columns)
	require.NoError(t, err)

	record := func(set map[string]string) []string {
		rec := make([]string, len(Columns))
		for i, c := range Columns {
			rec[i] = set[c]
		}
		return rec
	}

	tests := []struct {
		name string
		set  map[string]string
		want string
	}{
		{"bad slug", map[string]string{ColName: "x", ColPrice: "1", ColSlug: "Kötü Slug"}, "slug"},
		{"zero price", map[string]string{ColName: "x", ColPrice: "0"}, "fiyat"},
		{"bad stock status", map[string]string{ColName: "x", ColPrice: "1", ColStockStatus: "sold"}, "stok durumu"},
		{"negative quantity", map[string]string{ColName: "x", ColPrice: "1", ColStockQuantity: "-1"}, "stok adedi"},
		{"bad flag", map[string]string{ColName: "x", ColPrice: "1", ColIsNew: "belki"}, ColIsNew},
		{"valid", map[string]string{ColName: "x", ColPrice: "1", ColPreOrder: "1", ColSizes: "S|M"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, msg := parseRow(record(tt.set), cols)
			if tt.want == "" {
				assert.Empty(t, msg)
				assert.True(t, *row.preOrder)
				assert.Equal(t, []string{"S", "M"}, row.sizes)
				return
			}
			assert.Contains(t, msg, tt.want)
		})
	}
}

func TestImporter_TooManyRows(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	var b strings.Builder
	b.WriteString("name,price\n")
	for range MaxImportRows + 1 {
		b.WriteString("x,abc\n")
	}
	_, err := NewImporter(s.DB, nil).Import(s.Ctx, strings.NewReader(b.String()), ImportOptions{})
	assert.ErrorIs(t, err, ErrTooManyRows)
}
