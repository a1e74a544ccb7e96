package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pethaven/internal/service"
)

func handleCreateApplication(apps *service.ApplicationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.ApplicationCreateInput
		if !decodeJSON(w, r, &req) {
			return
		}
		app, err := apps.Create(r.Context(), CurrentUser(r), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, app)
	}
}

func handleMyApplications(apps *service.ApplicationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := apps.ListMine(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleShelterApplications(apps *service.ApplicationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := apps.ListForShelter(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleUpdateApplicationStatus(apps *service.ApplicationService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.StatusUpdateInput
		if !decodeJSON(w, r, &req) {
			return
		}
		app, err := apps.UpdateStatus(r.Context(), CurrentUser(r), chi.URLParam(r, "id"), req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}
