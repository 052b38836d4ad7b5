package ledger

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/critsec/iams/pkg/apperr"
)

// Router serves the event API: the four submission endpoints and their
// flagged listings.
func Router(store *Store, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/logs", ListLogsHandler(store))
	r.Post("/logs", SubmitLogHandler(store, logger))

	r.Get("/images", ListImagesHandler(store))
	r.Post("/images", SubmitImageHandler(store, logger))

	r.Get("/dats", ListDatsHandler(store))
	r.Post("/dats", SubmitDatHandler(store, logger))

	r.Get("/vms", ListVMsHandler(store))
	r.Post("/vms", CreateVMHandler(store, logger))
	r.Put("/vms/{vmId}", UpdateVMHandler(store, logger))

	return r
}

// SubmitLogHandler handles POST /logs. A fan-out submission returns every
// inserted row id.
func SubmitLogHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LogSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		ids, err := store.SubmitLog(r.Context(), req)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
	}
}

// SubmitImageHandler handles POST /images.
func SubmitImageHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImageSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		id, err := store.SubmitImage(r.Context(), req)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

// SubmitDatHandler handles POST /dats.
func SubmitDatHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DatSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		id, err := store.SubmitDat(r.Context(), req)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

// CreateVMHandler handles POST /vms. The response reports the persisted
// status and whether the scan guard overrode the chosen one.
func CreateVMHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VMSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		res, err := store.CreateVM(r.Context(), req)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// UpdateVMHandler handles PUT /vms/{vmId}.
func UpdateVMHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(w, r, "vmId")
		if !ok {
			return
		}
		var req VMSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		res, err := store.UpdateVM(r.Context(), id, req)
		if err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListLogsHandler handles GET /logs.
func ListLogsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.ListLogs(r.Context(), ParseListParams(r))
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListImagesHandler handles GET /images.
func ListImagesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.ListImages(r.Context(), ParseListParams(r))
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListDatsHandler handles GET /dats.
func ListDatsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.ListDats(r.Context(), ParseListParams(r))
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListVMsHandler handles GET /vms.
func ListVMsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.ListVMs(r.Context(), ParseListParams(r))
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func uintParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil || v == 0 {
		writeErr(w, nil, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(v), true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErr maps an error to its HTTP status. Referential integrity failures
// point at a stale or tampered form, so they are logged at error level.
func writeErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindReferentialIntegrity && logger != nil {
		logger.Error("referential integrity violation", "error", err)
	}
	writeJSON(w, apperr.HTTPStatus(kind), map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}
