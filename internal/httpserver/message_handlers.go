package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pethaven/internal/service"
)

func petScope(r *http.Request) string {
	if id := r.URL.Query().Get("petId"); id != "" {
		return id
	}
	return r.URL.Query().Get("pet_id")
}

// handleListMessages returns the thread with {userID}, oldest first. With
// petId set only messages about that pet are returned.
func handleListMessages(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := msgSvc.History(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "userID"), petScope(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleMarkThreadRead(msgSvc *service.MessageService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := msgSvc.MarkThreadRead(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "userID"), petScope(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"updated": n})
	}
}
