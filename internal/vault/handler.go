package vault

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/filevault/filevault/internal/auth"
	"github.com/filevault/filevault/internal/transport"
	"github.com/filevault/filevault/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	MaxUpload int64
}

func NewHandler(svc ServiceAPI, maxUpload int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		MaxUpload:   maxUpload,
	}
}

// Upload accepts a single multipart "file" part and streams it through the
// service; the body never lands on disk or in memory whole. MaxBytesReader
// caps the request so an oversized upload fails the stream mid-flight and
// the partial blob is cleaned up.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	part, header, err := r.FormFile("file")
	if err != nil {
		h.Logger.Warn("multipart parse failed", "error", err)
		h.WriteError(w, http.StatusBadRequest, "a multipart \"file\" part is required")
		return
	}
	defer part.Close()

	f, err := h.Service.Upload(r.Context(), actor, UploadParams{
		Reader:       part,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Origin:       r.RemoteAddr,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("file uploaded", "file_id", f.ID, "owner_id", actor.ID, "size", f.FileSize)
	h.WriteJSON(w, http.StatusCreated, f)
}

// Download streams the stored bytes back with the original display name.
// Headers are written only after the blob stream is open, so an access or
// consistency failure still produces a clean JSON error.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	rc, f, err := h.Service.Download(r.Context(), actor, chi.URLParam(r, "fileID"), r.RemoteAddr)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", f.FileSize))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.OriginalName))
	w.Header().Set("X-Content-SHA256", f.HashSHA256)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("download stream interrupted", "file_id", f.ID, "error", err)
	}
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto ShareDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Service.Share(r.Context(), actor, chi.URLParam(r, "fileID"), dto, r.RemoteAddr)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("file shared", "file_id", g.FileID, "grantee_id", g.GranteeID, "level", g.Level)
	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	fileID := chi.URLParam(r, "fileID")
	if err := h.Service.Delete(r.Context(), actor, fileID, r.RemoteAddr); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("file deleted", "file_id", fileID, "actor_id", actor.ID)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	files, err := h.Service.ListAccessible(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	files, err := h.Service.ListAll(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}
