// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage_Validation(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3Storage(S3Options{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("access key without secret", func(t *testing.T) {
		_, err := NewS3Storage(S3Options{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})
}

func TestS3Storage_URLs(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{
			name: "public url",
			opts: S3Options{Bucket: "shop", AccessKey: "k", SecretKey: "s", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/products/originals/a.jpg",
		},
		{
			name: "custom endpoint",
			opts: S3Options{Bucket: "shop", AccessKey: "k", SecretKey: "s", Endpoint: "minio.local:9000", UsePathStyle: true},
			want: "https://minio.local:9000/shop/products/originals/a.jpg",
		},
		{
			name: "aws default",
			opts: S3Options{Bucket: "shop", AccessKey: "k", SecretKey: "s", Region: "eu-central-1"},
			want: "https://shop.s3.eu-central-1.amazonaws.com/products/originals/a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewS3Storage(tt.opts)
			require.NoError(t, err)

			u := s.URL("products/originals/a.jpg")
			assert.Equal(t, tt.want, u)

			key, ok := s.KeyFromURL(u)
			assert.True(t, ok)
			assert.Equal(t, "products/originals/a.jpg", key)

			_, ok = s.KeyFromURL("/uploads/products/originals/a.jpg")
			assert.False(t, ok)
			assert.Equal(t, "s3", s.Name())
		})
	}
}

func TestS3Storage_RejectsInvalidKeys(t *testing.T) {
	s, err := NewS3Storage(S3Options{Bucket: "shop", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, "../x", []byte("x"), "image/jpeg"), ErrInvalidKey)
	assert.ErrorIs(t, s.Delete(ctx, ""), ErrInvalidKey)
	_, err = s.Exists(ctx, "/abs")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

// TestIntegration_S3RoundTrip runs against a real bucket when
// SHOP_TEST_S3_BUCKET is set.
func TestIntegration_S3RoundTrip(t *testing.T) {
	bucket := os.Getenv("SHOP_TEST_S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: SHOP_TEST_S3_BUCKET not set")
	}

	s, err := NewS3Storage(S3Options{
		Endpoint:     os.Getenv("SHOP_TEST_S3_ENDPOINT"),
		Bucket:       bucket,
		AccessKey:    os.Getenv("SHOP_TEST_S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("SHOP_TEST_S3_SECRET_KEY"),
		UsePathStyle: true,
	})
	require.NoError(t, err)

	ctx := context.Background()
	key := "test/roundtrip.txt"
	require.NoError(t, s.Put(ctx, key, []byte("hello"), "text/plain"))
	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Delete(ctx, key))
}
