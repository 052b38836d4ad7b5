package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/critsec/iams/pkg/apperr"
)

// Router serves the read-only reference catalog.
func Router(store *Store) chi.Router {
	r := chi.NewRouter()
	r.Get("/{set}", ListSetHandler(store))
	return r
}

// ListSetHandler handles GET /api/v1/catalog/{set}.
func ListSetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set := chi.URLParam(r, "set")
		rows, err := store.ListSet(set)
		if err != nil {
			kind := apperr.KindOf(err)
			writeError(w, apperr.HTTPStatus(kind), kind, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind apperr.Kind, message string) {
	writeJSON(w, status, map[string]string{"error": message, "kind": string(kind)})
}
