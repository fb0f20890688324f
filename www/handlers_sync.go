package www

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fleetedge/store"
)

func (h *Handlers) apiSyncQueue(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.engine.DB().ListPendingSync(limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []store.SyncItem{}
	}
	pending, _ := h.engine.DB().CountPendingSync()
	dead, _ := h.engine.DB().CountDeadLetters()
	writeJSON(w, map[string]interface{}{
		"pending":     pending,
		"deadLetters": dead,
		"items":       items,
	})
}

func (h *Handlers) apiDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	letters, err := h.engine.DB().ListDeadLetters(limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if letters == nil {
		letters = []store.DeadLetter{}
	}
	writeJSON(w, letters)
}

func (h *Handlers) apiRequeueDeadLetter(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}
	if err := h.engine.DB().RequeueDeadLetter(id, time.Now().UTC()); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.engine.TriggerReplay()
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiTriggerReplay(w http.ResponseWriter, r *http.Request) {
	h.engine.TriggerReplay()
	writeJSON(w, map[string]string{"status": "replay triggered"})
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.engine.DB().GetAdminUser(req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeDomainError(w, err)
		return
	}
	if !checkPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.sessions.setUser(w, r, user.Username)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w, r)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.New) < 8 {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}
	username, _ := h.sessions.getUser(r)
	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !checkPassword(req.Current, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "current password incorrect")
		return
	}
	hash, err := hashPassword(req.New)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.engine.DB().UpdateAdminPassword(username, hash); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
