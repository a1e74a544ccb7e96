package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pethaven/internal/domain"
	"pethaven/internal/service"
)

func handleListPets(pets *service.PetService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := pets.List(r.Context(), domain.PetFilter{
			Status:   domain.PetStatus(q.Get("status")),
			Category: q.Get("category"),
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetPet(pets *service.PetService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pet, err := pets.Get(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, pet)
	}
}

func handleCreatePet(pets *service.PetService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.PetCreateInput
		if !decodeJSON(w, r, &req) {
			return
		}
		pet, err := pets.Create(r.Context(), CurrentUser(r).ID, req)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, pet)
	}
}
