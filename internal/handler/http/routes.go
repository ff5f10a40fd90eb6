package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/ping", h.ping)
		r.Get("/api/version", h.getServerVersion)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/api/conversations", h.listConversations)
		r.Post("/api/conversations", h.createConversation)
		r.Put("/api/conversations/{id}", h.updateConversation)
		r.Patch("/api/conversations/{id}/title", h.updateTitle)
		r.With(h.messagesHashing).Put("/api/conversations/{id}/messages", h.updateMessages)
		r.Delete("/api/conversations/{id}", h.deleteConversation)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
