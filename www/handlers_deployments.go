package www

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fleetedge/assign"
	"fleetedge/engine"
	"fleetedge/fleet"
)

func (h *Handlers) apiCreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req engine.CreateDeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.engine.CreateDeployment(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(d)
}

func (h *Handlers) apiListDeployments(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	deployments, err := h.engine.DB().ListDeployments(status, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, deployments)
}

func (h *Handlers) apiGetDeployment(w http.ResponseWriter, r *http.Request) {
	d, err := h.engine.DB().GetDeploymentByUUID(chi.URLParam(r, "uuid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, d)
}

func (h *Handlers) apiDeploymentHistory(w http.ResponseWriter, r *http.Request) {
	d, err := h.engine.DB().GetDeploymentByUUID(chi.URLParam(r, "uuid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hist, err := h.engine.DB().ListDeploymentHistory(d.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, hist)
}

func (h *Handlers) apiStartDeployment(w http.ResponseWriter, r *http.Request) {
	d, err := h.engine.StartDeployment(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, d)
}

func (h *Handlers) apiUpdateTracking(w http.ResponseWriter, r *http.Request) {
	var snap fleet.TrackingSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.engine.UpdateDeploymentTracking(r.Context(), chi.URLParam(r, "uuid"), snap)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, d)
}

func (h *Handlers) apiCompleteDeployment(w http.ResponseWriter, r *http.Request) {
	var req engine.CompleteDeploymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.engine.CompleteDeployment(r.Context(), chi.URLParam(r, "uuid"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, d)
}

func (h *Handlers) apiCancelDeployment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.engine.CancelDeployment(r.Context(), chi.URLParam(r, "uuid"), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, d)
}

func (h *Handlers) apiSelectCandidates(w http.ResponseWriter, r *http.Request) {
	var req assign.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	candidates, err := h.engine.SelectCandidates(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// An empty pool is a normal answer, not an error.
	if candidates == nil {
		candidates = []assign.Candidate{}
	}
	writeJSON(w, candidates)
}
