// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

func TestExportEmptyDatabase(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	var buf bytes.Buffer
	n, err := NewExporter(s.DB, testutil.TestLoggerSilent()).ExportProducts(s.Ctx, &buf, ExportOptions{})
	if err != nil {
		t.Fatalf("ExportProducts failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows, got %d", n)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 || len(records[0]) != len(Columns) {
		t.Fatalf("expected only the header, got %v", records)
	}
}

func TestExportWithData(t *testing.T) {
	s := setupTest(t)
	defer s.Cleanup()

	cat := testutil.CreateCategory(t, s.Queries, "Kadın", "kadin")
	testutil.CreateProduct(t, s.Queries, "elbise", "250",
		testutil.WithCategory(cat.ID),
		testutil.WithSalePrice("199.9"),
		testutil.WithSizes("S", "M"),
		testutil.WithStock(4),
	)
	hidden := testutil.CreateProduct(t, s.Queries, "gizli", "10")
	if _, err := s.DB.Exec(`UPDATE products SET is_active = 0 WHERE id = ?`, hidden.ID); err != nil {
		t.Fatalf("deactivating: %v", err)
	}

	exporter := NewExporter(s.DB, testutil.TestLoggerSilent())

	var buf bytes.Buffer
	n, err := exporter.ExportProducts(s.Ctx, &buf, ExportOptions{BOM: true})
	if err != nil {
		t.Fatalf("ExportProducts failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 active product, got %d", n)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Error("expected BOM prefix")
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	got := map[string]string{}
	for i, col := range records[0] {
		got[col] = records[1][i]
	}
	want := map[string]string{
		ColName:          "elbise",
		ColPrice:         "250.00",
		ColSalePrice:     "199.90",
		ColSku:           "SKU-elbise",
		ColCategory:      "kadin",
		ColStockStatus:   "low_stock",
		ColStockQuantity: "4",
		ColSizes:         "S|M",
		ColImages:        "",
		ColIsActive:      "1",
		ColPreOrder:      "0",
	}
	for col, w := range want {
		if got[col] != w {
			t.Errorf("%s = %q, want %q", col, got[col], w)
		}
	}

	buf.Reset()
	n, err = exporter.ExportProducts(s.Ctx, &buf, ExportOptions{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ExportProducts failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 products with inactive, got %d", n)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := setupTest(t)
	defer src.Cleanup()

	cat := testutil.CreateCategory(t, src.Queries, "Aksesuar", "aksesuar")
	testutil.CreateProduct(t, src.Queries, "kemer", "80",
		testutil.WithCategory(cat.ID),
		testutil.WithSizes("90", "100"),
	)

	var buf bytes.Buffer
	if _, err := NewExporter(src.DB, nil).ExportProducts(src.Ctx, &buf, ExportOptions{BOM: true}); err != nil {
		t.Fatalf("ExportProducts failed: %v", err)
	}

	dst := setupTest(t)
	defer dst.Cleanup()

	result, err := NewImporter(dst.DB, nil).Import(dst.Ctx, &buf, ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Created != 1 || result.CategoriesCreated != 1 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	p, err := dst.Queries.GetProductBySlug(dst.Ctx, "kemer")
	if err != nil {
		t.Fatalf("GetProductBySlug: %v", err)
	}
	if !p.Price.Equal(src.mustProduct(t, "kemer").Price) {
		t.Errorf("price = %s", p.Price)
	}
	if len(p.Sizes) != 2 || !p.CategoryID.Valid {
		t.Errorf("imported product = %+v", p)
	}
}

func (s *testSetup) mustProduct(t *testing.T, slug string) store.Product {
	t.Helper()
	p, err := s.Queries.GetProductBySlug(s.Ctx, slug)
	if err != nil {
		t.Fatalf("GetProductBySlug(%q): %v", slug, err)
	}
	return p
}
