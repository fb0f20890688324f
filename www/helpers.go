package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fleetedge/fleet"
	"fleetedge/remote"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func parseID(r *http.Request, param string) (int64, error) {
	s := chi.URLParam(r, param)
	return strconv.ParseInt(s, 10, 64)
}

// writeDomainError maps engine errors onto HTTP statuses: bad input is
// 400, state machine and scheduling violations are 409, a missing
// record is 404, and an authority failure is 502.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *fleet.ValidationError
	var pe *fleet.PreconditionError
	var ite *fleet.IllegalTransitionError
	var te *fleet.TerminalStateError
	var ce *fleet.ConflictError
	var se *remote.StatusError

	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &ve), errors.As(err, &pe):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &ce):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":       err.Error(),
			"conflictIds": ce.IDs,
		})
	case errors.As(err, &ite), errors.As(err, &te):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &se), remote.IsTransient(err):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
