package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/readme-generator/internal/model"
)

// Refiner is the slice of service.ReadmeService the handler needs.
type Refiner interface {
	Refine(ctx context.Context, currentReadme, userRequest string) (string, error)
}

// RefineRequest is the JSON body for POST /api/ai/refine.
type RefineRequest struct {
	CurrentReadme string `json:"currentReadme"`
	UserRequest   string `json:"userRequest"`
}

// AIHandler applies free-text edit requests to an existing README.
type AIHandler struct {
	readmes Refiner
	logger  *slog.Logger
}

// NewAIHandler creates an AIHandler.
func NewAIHandler(readmes Refiner, logger *slog.Logger) *AIHandler {
	return &AIHandler{readmes: readmes, logger: logger}
}

// HandleRefine rewrites a README according to the user's request.
//
// HTTP: POST /api/ai/refine
// Auth: Required
// Body: {"currentReadme": "...", "userRequest": "..."}
//
// Response: 200 {"readme": "..."}
func (h *AIHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	var req RefineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	readme, err := h.readmes.Refine(r.Context(), req.CurrentReadme, req.UserRequest)
	if err != nil {
		h.logger.Error("refine failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Document{Readme: readme})
}
