// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/middleware"
)

// RouteConfig holds the collaborators of the API router.
type RouteConfig struct {
	Tokens middleware.TokenVerifier
	Admins middleware.AdminChecker
	// Login rate-limits and locks sign-in attempts. Nil disables it.
	Login *middleware.LoginProtection
}

// Routes returns the router for everything under /api.
func (h *Handler) Routes(cfg RouteConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoStore)
	if h.sessions != nil {
		r.Use(h.sessions.LoadAndSave)
	}
	r.Use(middleware.OptionalAuth(cfg.Tokens))

	requireAuth := middleware.RequireAuth(cfg.Tokens)

	r.Route("/auth", func(r chi.Router) {
		if cfg.Login != nil {
			r.With(cfg.Login.Middleware()).Post("/register", h.Register)
			r.With(cfg.Login.Middleware()).Post("/login", h.Login(cfg.Login))
		} else {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login(nil))
		}
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)
			r.Put("/password", h.ChangePassword)
		})
	})

	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{slug}", h.GetCategory)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/featured", h.FeaturedProducts)
		r.Get("/new", h.NewProducts)
		r.Get("/{slug}", h.GetProduct)
		r.Get("/{slug}/reviews", h.ListReviews)
		r.With(requireAuth).Post("/{slug}/reviews", h.CreateReview)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddCartItem)
		r.Put("/items/{id}", h.UpdateCartItem)
		r.Delete("/items/{id}", h.RemoveCartItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Checkout)
		r.Get("/track/{orderNumber}", h.TrackOrder)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", h.ListMyOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
		})
	})

	r.Route("/favorites", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListFavorites)
		r.Post("/", h.AddFavorite)
		r.Get("/check/{productId}", h.CheckFavorite)
		r.Delete("/{productId}", h.RemoveFavorite)
	})

	r.Get("/banners", h.ListBanners)
	r.Get("/pages", h.ListPages)
	r.Get("/pages/{slug}", h.GetPage)

	r.Post("/newsletter/subscribe", h.Subscribe)
	r.Post("/newsletter/unsubscribe", h.Unsubscribe)
	r.Get("/newsletter/unsubscribe/{token}", h.UnsubscribeToken)

	r.Post("/special-size-requests", h.CreateSizeRequest)

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin(cfg.Admins))
		h.adminRoutes(r)
	})

	return r
}

func (h *Handler) adminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.AdminListProducts)
		r.Post("/", h.AdminCreateProduct)
		r.Post("/import", h.AdminImportProducts)
		r.Get("/export", h.AdminExportProducts)
		r.Get("/{id}", h.AdminGetProduct)
		r.Put("/{id}", h.AdminUpdateProduct)
		r.Delete("/{id}", h.AdminDeleteProduct)
		r.Post("/{id}/images", h.AdminAddProductImage)
		r.Delete("/{id}/images", h.AdminRemoveProductImage)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.AdminListCategories)
		r.Post("/", h.AdminCreateCategory)
		r.Get("/{id}", h.AdminGetCategory)
		r.Put("/{id}", h.AdminUpdateCategory)
		r.Delete("/{id}", h.AdminDeleteCategory)
		r.Post("/{id}/image", h.AdminCategoryImage)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.AdminListOrders)
		r.Get("/{id}", h.AdminGetOrder)
		r.Put("/{id}/status", h.AdminUpdateOrderStatus)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.AdminListUsers)
		r.Get("/{id}", h.AdminGetUser)
		r.Put("/{id}", h.AdminUpdateUser)
		r.Delete("/{id}", h.AdminDeleteUser)
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.AdminListReviews)
		r.Put("/{id}/approve", h.AdminApproveReview)
		r.Put("/{id}/unapprove", h.AdminUnapproveReview)
		r.Delete("/{id}", h.AdminDeleteReview)
	})

	r.Route("/banners", func(r chi.Router) {
		r.Get("/", h.AdminListBanners)
		r.Post("/", h.AdminCreateBanner)
		r.Get("/{id}", h.AdminGetBanner)
		r.Put("/{id}", h.AdminUpdateBanner)
		r.Delete("/{id}", h.AdminDeleteBanner)
	})

	r.Route("/pages", func(r chi.Router) {
		r.Get("/", h.AdminListPages)
		r.Post("/", h.AdminCreatePage)
		r.Get("/{id}", h.AdminGetPage)
		r.Put("/{id}", h.AdminUpdatePage)
		r.Delete("/{id}", h.AdminDeletePage)
	})

	r.Route("/newsletter", func(r chi.Router) {
		r.Get("/", h.AdminListSubscribers)
		r.Get("/export", h.AdminExportSubscribers)
		r.Delete("/{id}", h.AdminDeleteSubscriber)
	})

	r.Route("/special-size-requests", func(r chi.Router) {
		r.Get("/", h.AdminListSizeRequests)
		r.Get("/{id}", h.AdminGetSizeRequest)
		r.Put("/{id}", h.AdminUpdateSizeRequest)
		r.Delete("/{id}", h.AdminDeleteSizeRequest)
	})

	r.Post("/uploads", h.UploadImage)
	r.Get("/analytics", h.AdminAnalytics)
	r.Get("/events", h.AdminListEvents)
	r.Get("/cache/stats", h.AdminCacheStats)
	r.Post("/cache/clear", h.AdminClearCache)
	r.Get("/webhooks/deliveries", h.AdminListWebhookDeliveries)
	r.Get("/jobs", h.AdminListJobs)
	r.Post("/jobs/{name}/run", h.AdminRunJob)
}
