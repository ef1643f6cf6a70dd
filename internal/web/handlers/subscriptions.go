package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/logger"
	"github.com/kozaktomas/bird-tagger/internal/notify"
)

// SubscriptionsHandler subscribes e-mail addresses to species alerts.
type SubscriptionsHandler struct {
	notifier notify.Notifier // nil when notifications are disabled
	catalog  []string
	log      *logger.Logger
}

// NewSubscriptionsHandler creates a new subscriptions handler. catalog holds the
// lowercase species names that can be subscribed to.
func NewSubscriptionsHandler(notifier notify.Notifier, catalog []string, log *logger.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{notifier: notifier, catalog: catalog, log: log.With("handler", "subscriptions")}
}

// SubscribeRequest is the body of POST /subscriptions.
type SubscribeRequest struct {
	Email   string `json:"email"`
	Species string `json:"species"`
}

// Subscribe handles POST /subscriptions.
func (h *SubscriptionsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil {
		respondError(w, http.StatusServiceUnavailable, "notifications are disabled")
		return
	}

	var req SubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	species := strings.ToLower(strings.TrimSpace(req.Species))
	if req.Email == "" || species == "" {
		respondError(w, http.StatusBadRequest, "email and species are required")
		return
	}
	if len(h.catalog) > 0 && !slices.Contains(h.catalog, species) {
		respondError(w, http.StatusBadRequest, "unknown species: "+species)
		return
	}

	sub, err := h.notifier.Subscribe(r.Context(), species, req.Email)
	if err != nil {
		if errors.Is(err, asset.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("failed to subscribe", "species", species, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	h.log.Info("subscribed to species alerts", "species", species)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          "subscribed to " + species + " notifications, check your inbox to confirm",
		"species":          sub.Species,
		"email":            sub.Email,
		"subscription_arn": sub.SubscriptionARN,
		"topic_arn":        sub.TopicARN,
	})
}
