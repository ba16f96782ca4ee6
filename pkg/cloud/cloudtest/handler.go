package cloudtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/marmos91/dittostore/pkg/cloud"
	"github.com/marmos91/dittostore/pkg/drive"
)

// Handler serves svc over the HTTP API spoken by cloud.HTTPService.
//
// Every request carrying an X-Request-Id header is recorded; RequestIDs
// returns them in arrival order.
type Handler struct {
	svc *Service
	mux *http.ServeMux

	requestIDs chan string
}

// NewHandler wraps svc.
func NewHandler(svc *Service) *Handler {
	h := &Handler{
		svc:        svc,
		mux:        http.NewServeMux(),
		requestIDs: make(chan string, 1024),
	}
	h.mux.HandleFunc("POST /api/login", h.login)
	h.mux.HandleFunc("GET /api/users/{user}/files", h.listFiles)
	h.mux.HandleFunc("GET /api/users/{user}/files/{name}", h.getFile)
	h.mux.HandleFunc("PATCH /api/users/{user}/files/{name}", h.patchFile)
	h.mux.HandleFunc("DELETE /api/users/{user}/files/{name}", h.deleteFile)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id := r.Header.Get(cloud.RequestIDHeader); id != "" {
		select {
		case h.requestIDs <- id:
		default:
		}
	}
	h.mux.ServeHTTP(w, r)
}

// RequestIDs drains the request IDs recorded so far.
func (h *Handler) RequestIDs() []string {
	var ids []string
	for {
		select {
		case id := <-h.requestIDs:
			ids = append(ids, id)
		default:
			return ids
		}
	}
}

func bearer(r *http.Request) cloud.AccessToken {
	return cloud.NewAccessToken(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var se *drive.StoreError
	if errors.As(err, &se) {
		switch se.Code {
		case drive.ErrNotFound:
			status = http.StatusNotFound
		case drive.ErrRemoteFailure:
			status = http.StatusForbidden
		case drive.ErrInvalidArgument:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"message": se.Message})
		return
	}
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request"})
		return
	}

	resp, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	motd := resp.Motd
	if motd == nil {
		motd = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": resp.AccessToken.Token(),
		"motd":         motd,
	})
}

type wireEntry struct {
	Filename string    `json:"filename"`
	Mtime    time.Time `json:"mtime"`
	Length   uint64    `json:"length"`
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.GetFiles(r.Context(), bearer(r), r.PathValue("user"))
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]wireEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, wireEntry(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": entries})
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	user, name := r.PathValue("user"), r.PathValue("name")

	if r.URL.Query().Has("acls") {
		acls, err := h.svc.GetFileAcls(r.Context(), bearer(r), user, name)
		if err != nil {
			writeError(w, err)
			return
		}
		readers := acls.Readers()
		if readers == nil {
			readers = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"readers": readers})
		return
	}

	content, err := h.svc.GetFile(r.Context(), bearer(r), user, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (h *Handler) patchFile(w http.ResponseWriter, r *http.Request) {
	user, name := r.PathValue("user"), r.PathValue("name")

	if r.URL.Query().Has("acls") {
		var req struct {
			Add    []string `json:"add"`
			Remove []string `json:"remove"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request"})
			return
		}
		err := h.svc.PatchFileAcls(r.Context(), bearer(r), user, name,
			drive.NewFileAcls(req.Add...), drive.NewFileAcls(req.Remove...))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Malformed request"})
		return
	}
	if err := h.svc.PatchFileContent(r.Context(), bearer(r), user, name, req.Content); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFile(r.Context(), bearer(r), r.PathValue("user"), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
