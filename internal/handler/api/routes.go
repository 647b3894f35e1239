// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/wpautoblog/internal/middleware"
)

// RequestTimeout bounds every API request except manual job runs, which
// hold the connection until the job finishes.
const RequestTimeout = 60 * time.Second

// Routes returns the /api/v1 router. Every route requires the admin token.
func (h *Handler) Routes(adminToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.AdminTokenAuth(adminToken))

	r.Post("/scheduler/jobs/{source}/{name}/trigger", h.TriggerJob)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		h.mountResources(r)
	})

	return r
}

func (h *Handler) mountResources(r chi.Router) {
	r.Get("/", h.Status)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Put("/plan", h.SetUserPlan)
			r.Post("/credits", h.AddUserCredits)
		})
	})

	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.ListBlogs)
		r.Post("/", h.CreateBlog)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetBlog)
			r.Put("/", h.UpdateBlog)
			r.Delete("/", h.DeleteBlog)
			r.Post("/test-connection", h.TestConnection)
			r.Get("/ideas", h.ListIdeas)
			r.Post("/ideas", h.CreateIdea)
			r.Post("/ideas/generate", h.GenerateIdeas)
			r.Get("/posts", h.ListPosts)
		})
	})

	r.Route("/ideas/{id}", func(r chi.Router) {
		r.Post("/queue", h.QueueIdea)
		r.Delete("/", h.DeleteIdea)
	})

	r.Get("/scheduler/jobs", h.ListJobs)
	r.Put("/scheduler/jobs/{source}/{name}", h.UpdateJobSchedule)

	r.Get("/events", h.ListEvents)
}
