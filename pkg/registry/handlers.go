package registry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/critsec/iams/pkg/apperr"
)

// Router serves the registry API: projects, assets, employees and the asset
// delete-request protocol.
func Router(store *Store, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/projects", ListProjectsHandler(store))
	r.Get("/projects/{projectId}/assets", ProjectAssetsHandler(store))

	r.Get("/assets", ListAssetsHandler(store))
	r.Post("/assets", CreateAssetHandler(store, logger))
	r.Get("/assets/{assetId}", GetAssetHandler(store))
	r.Put("/assets/{assetId}", UpdateAssetHandler(store, logger))
	r.Post("/assets/{assetId}/delete-request", DeleteRequestHandler(store, logger))

	r.Get("/employees", ListEmployeesHandler(store))

	return r
}

// ListProjectsHandler handles GET /projects.
func ListProjectsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := store.ListProjects(r.Context())
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}

// ProjectAssetsHandler handles GET /projects/{projectId}/assets. It returns
// exactly the assets of the given project; the UI resets the asset selection
// whenever the project changes.
func ProjectAssetsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(w, r, "projectId")
		if !ok {
			return
		}
		rows, err := store.AssetsByProject(r.Context(), id)
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
	}
}

// ListAssetsHandler handles GET /assets with page/page_size parameters.
func ListAssetsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := intQuery(r, "page", 1)
		pageSize := intQuery(r, "page_size", 20)
		if pageSize > 100 {
			pageSize = 100
		}

		rows, total, err := store.ListAssets(r.Context(), page, pageSize)
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
		if totalPages < 1 {
			totalPages = 1
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":       rows,
			"total_count": total,
			"total_pages": totalPages,
			"page":        page,
			"page_size":   pageSize,
		})
	}
}

// GetAssetHandler handles GET /assets/{assetId}.
func GetAssetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(w, r, "assetId")
		if !ok {
			return
		}
		row, err := store.GetAsset(r.Context(), id)
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

// assetRequest is the write payload for asset create/update.
type assetRequest struct {
	Asset  Asset `json:"asset"`
	UserID uint  `json:"user_id"`
}

// CreateAssetHandler handles POST /assets.
func CreateAssetHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		req.Asset.ID = 0
		if err := store.CreateAsset(r.Context(), &req.Asset, req.UserID); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": req.Asset.ID})
	}
}

// UpdateAssetHandler handles PUT /assets/{assetId}.
func UpdateAssetHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(w, r, "assetId")
		if !ok {
			return
		}
		var req assetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		req.Asset.ID = id
		if err := store.UpdateAsset(r.Context(), &req.Asset, req.UserID); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id})
	}
}

// deleteRequestBody is the payload for the delete-confirmation protocol.
type deleteRequestBody struct {
	Confirmation string `json:"confirmation"`
	UserID       uint   `json:"user_id"`
}

// DeleteRequestHandler handles POST /assets/{assetId}/delete-request.
func DeleteRequestHandler(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(w, r, "assetId")
		if !ok {
			return
		}
		var req deleteRequestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, logger, apperr.Validation("invalid request body: %v", err))
			return
		}
		if err := store.SubmitDeleteRequest(r.Context(), id, req.Confirmation, req.UserID); err != nil {
			writeErr(w, logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"requested": true})
	}
}

// ListEmployeesHandler handles GET /employees. With submitters=true only
// active Cybersecurity members are returned.
func ListEmployeesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submitters, _ := strconv.ParseBool(r.URL.Query().Get("submitters"))
		rows, err := store.ListEmployees(r.Context(), submitters)
		if err != nil {
			writeErr(w, nil, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rows})
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

func intQuery(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErr maps an error to its HTTP status. Referential integrity failures
// are logged at error level but surfaced as validation errors.
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
