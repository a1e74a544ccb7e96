package httpserver

import (
	"log/slog"
	"net/http"

	"pethaven/internal/service"
)

// handleListConversations returns one entry per counterparty and pet, newest
// first.
func handleListConversations(convSvc *service.ConversationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := convSvc.ListForUser(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}
