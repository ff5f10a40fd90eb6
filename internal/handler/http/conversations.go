// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-chat-keeper/internal/app"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/go-chi/chi/v5"
)

// ping answers the client's connectivity probe.
func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, ErrNoUserInContext)
		return
	}

	conversations, err := h.services.ConversationService.ListConversations(r.Context(), userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listConversations").Int64("user_id", userID).Msg("error listing conversations")
		writeError(w, err)
		return
	}

	if _, err := utils.WriteJSON(w, conversations, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.listConversations").Msg("error writing response")
	}
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, ErrNoUserInContext)
		return
	}

	var c models.Conversation
	if err := utils.DecodeJSON(w, r, &c); err != nil {
		log.Err(err).Str("func", "*Handler.createConversation").Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}
	// the owner is always the token subject
	c.UserID = userID

	if err := h.services.ConversationService.CreateConversation(r.Context(), c); err != nil {
		log.Err(err).Str("func", "*Handler.createConversation").Str("id", c.ID).Msg("error creating conversation")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateConversation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, ErrNoUserInContext)
		return
	}
	id := chi.URLParam(r, "id")

	var c models.Conversation
	if err := utils.DecodeJSON(w, r, &c); err != nil {
		log.Err(err).Str("func", "*Handler.updateConversation").Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}
	if c.ID == "" {
		c.ID = id
	}
	if c.ID != id {
		writeError(w, ErrIDMismatch)
		return
	}
	c.UserID = userID

	if err := h.services.ConversationService.UpdateConversation(r.Context(), c); err != nil {
		log.Err(err).Str("func", "*Handler.updateConversation").Str("id", id).Msg("error updating conversation")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) updateTitle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, ErrNoUserInContext)
		return
	}
	id := chi.URLParam(r, "id")

	var req models.TitleRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		log.Err(err).Str("func", "*Handler.updateTitle").Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	if err := h.services.ConversationService.UpdateTitle(r.Context(), userID, id, req); err != nil {
		log.Err(err).Str("func", "*Handler.updateTitle").Str("id", id).Msg("error updating title")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) updateMessages(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, ErrNoUserInContext)
		return
	}
	id := chi.URLParam(r, "id")

	var req models.MessagesRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		log.Err(err).Str("func", "*Handler.updateMessages").Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	if err := h.services.ConversationService.UpdateMessages(r.Context(), userID, id, req); err != nil {
		log.Err(err).Str("func", "*Handler.updateMessages").Str("id", id).Int("length", req.Length).Msg("error updating messages")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, ErrNoUserInContext)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.services.ConversationService.DeleteConversation(r.Context(), userID, id); err != nil {
		log.Err(err).Str("func", "*Handler.deleteConversation").Str("id", id).Msg("error deleting conversation")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
