package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
)

// AttachmentService stores and deletes attachment files with their metadata.
type AttachmentService interface {
	Upload(ctx context.Context, caller middleware.Caller, contractID, fileContent, fileName string) (*contracts.Attachment, error)
	Delete(ctx context.Context, caller middleware.Caller, contractID, attachmentID, storagePath string) error
}

type FileHandler struct {
	attachments AttachmentService
}

func NewFileHandler(attachments AttachmentService) *FileHandler {
	return &FileHandler{attachments: attachments}
}

type uploadFileRequest struct {
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
	ContractID  string `json:"contractId"`
}

type deleteFileRequest struct {
	ContractID   string `json:"contractId"`
	AttachmentID string `json:"attachmentId"`
	StoragePath  string `json:"storagePath"`
	FileName     string `json:"fileName,omitempty"`
}

func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required"))
		return
	}

	var req uploadFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	attachment, err := h.attachments.Upload(r.Context(), caller, req.ContractID, req.FileContent, req.FileName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":       true,
		"newAttachment": attachment,
	})
}

func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required"))
		return
	}

	var req deleteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	if err := h.attachments.Delete(r.Context(), caller, req.ContractID, req.AttachmentID, req.StoragePath); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
