package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// Activator applies a calibration profile to the running pipeline.
type Activator interface {
	ApplyProfile(p *store.Profile) error
}

// ProfileHandler handles HTTP requests for calibration profiles.
type ProfileHandler struct {
	store     *store.Store
	activator Activator
}

// NewProfileHandler creates a ProfileHandler. activator may be nil, in
// which case activation is only persisted.
func NewProfileHandler(s *store.Store, activator Activator) *ProfileHandler {
	return &ProfileHandler{store: s, activator: activator}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and
// /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createProfileRequest struct {
	Name        string              `json:"name"`
	Calibration gesture.Calibration `json:"calibration"`
}

type updateProfileRequest struct {
	Name        *string         `json:"name"`
	Calibration json.RawMessage `json:"calibration"`
}

type listProfilesResponse struct {
	Profiles []*store.Profile `json:"profiles"`
}

// writeStoreError maps repository errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, store.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to "+action+" profile")
	}
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeStoreError(w, err, "list")
		return
	}
	if profiles == nil {
		profiles = []*store.Profile{}
	}
	writeJSON(w, http.StatusOK, listProfilesResponse{Profiles: profiles})
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// create handles POST /api/profiles. Calibration fields left out of the
// body take their default values.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	req := createProfileRequest{Calibration: gesture.DefaultCalibration()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p := &store.Profile{Name: req.Name, Calibration: req.Calibration}
	if err := h.store.Profiles().Create(p); err != nil {
		writeStoreError(w, err, "create")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// update handles PUT /api/profiles/{id}. Calibration fields in the body
// are merged onto the stored calibration. An active profile is re-applied.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	repo := h.store.Profiles()
	p, err := repo.GetByID(id)
	if err != nil {
		writeStoreError(w, err, "get")
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if len(req.Calibration) > 0 {
		if err := json.Unmarshal(req.Calibration, &p.Calibration); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid calibration")
			return
		}
	}

	if err := repo.Update(p); err != nil {
		writeStoreError(w, err, "update")
		return
	}

	if p.Active && !h.apply(w, p) {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		writeStoreError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activate handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().Activate(id)
	if err != nil {
		writeStoreError(w, err, "activate")
		return
	}
	if !h.apply(w, p) {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) apply(w http.ResponseWriter, p *store.Profile) bool {
	if h.activator == nil {
		return true
	}
	if err := h.activator.ApplyProfile(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to apply profile: "+err.Error())
		return false
	}
	return true
}
