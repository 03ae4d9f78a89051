// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

// testSetup contains common test dependencies.
type testSetup struct {
	DB      *sql.DB
	Queries *store.Queries
	Ctx     context.Context
	Cleanup func()
}

// setupTest creates a migrated database and its queries.
func setupTest(t *testing.T) *testSetup {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	return &testSetup{
		DB:      db,
		Queries: store.New(db),
		Ctx:     context.Background(),
		Cleanup: cleanup,
	}
}

// csvInput joins lines into a CSV document.
func csvInput(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

type countingCache struct{ invalidations int }

func (c *countingCache) InvalidateCatalog(context.Context) { c.invalidations++ }

type countingMetrics struct{ rows map[string]int }

func (m *countingMetrics) ImportRows(outcome string, n int) {
	if m.rows == nil {
		m.rows = map[string]int{}
	}
	m.rows[outcome] += n
}
