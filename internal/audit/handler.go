package audit

import (
	"log/slog"
	"net/http"

	"github.com/filevault/filevault/internal/transport"
	"github.com/filevault/filevault/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Recorder *Recorder
}

func NewHandler(recorder *Recorder) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Recorder:    recorder,
	}
}

// List returns the full trail newest first. Route-level role gating keeps
// this admin-only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Recorder.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"logs": records})
}
