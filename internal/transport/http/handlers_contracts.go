package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
)

// ContractService owns contract reads and writes.
type ContractService interface {
	Create(ctx context.Context, caller middleware.Caller, input contracts.CreateInput) (*contracts.Contract, error)
	Update(ctx context.Context, caller middleware.Caller, id string, input contracts.UpdateInput) (*contracts.Contract, error)
	Get(ctx context.Context, id string) (*contracts.Contract, error)
	List(ctx context.Context) ([]contracts.Contract, error)
	ListAttachments(ctx context.Context, contractID string) ([]contracts.Attachment, error)
	ListAuditEntries(ctx context.Context, contractID string) ([]contracts.AuditEntry, error)
}

// ArchiveService runs the privileged deletion workflow.
type ArchiveService interface {
	Delete(ctx context.Context, caller middleware.Caller, contractID string) (string, error)
}

type ContractHandler struct {
	contracts ContractService
	archive   ArchiveService
}

func NewContractHandler(contractSvc ContractService, archive ArchiveService) *ContractHandler {
	return &ContractHandler{contracts: contractSvc, archive: archive}
}

type createContractRequest struct {
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	ContractedParty string  `json:"contracted_party"`
	TotalValue      float64 `json:"total_value"`
	Sector          string  `json:"sector"`
	CostCenter      string  `json:"cost_center"`
}

type updateContractRequest struct {
	Title           *string  `json:"title"`
	Status          *string  `json:"status"`
	ContractedParty *string  `json:"contracted_party"`
	TotalValue      *float64 `json:"total_value"`
	Sector          *string  `json:"sector"`
	CostCenter      *string  `json:"cost_center"`
}

type deleteContractRequest struct {
	ContractID string `json:"contractId"`
}

type contractResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	ContractedParty string    `json:"contracted_party"`
	TotalValue      float64   `json:"total_value"`
	Sector          string    `json:"sector"`
	CostCenter      string    `json:"cost_center"`
	CreatedBy       string    `json:"created_by"`
	UpdatedBy       string    `json:"updated_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toContractResponse(c contracts.Contract) contractResponse {
	return contractResponse{
		ID:              c.ID,
		Title:           c.Title,
		Status:          string(c.Status),
		ContractedParty: c.ContractedParty,
		TotalValue:      c.TotalValue,
		Sector:          c.Sector,
		CostCenter:      c.CostCenter,
		CreatedBy:       c.CreatedBy,
		UpdatedBy:       c.UpdatedBy,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (h *ContractHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required"))
		return
	}

	var req createContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	contract, err := h.contracts.Create(r.Context(), caller, contracts.CreateInput{
		Title:           req.Title,
		Status:          req.Status,
		ContractedParty: req.ContractedParty,
		TotalValue:      req.TotalValue,
		Sector:          req.Sector,
		CostCenter:      req.CostCenter,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"contract": toContractResponse(*contract),
	})
}

func (h *ContractHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required"))
		return
	}

	var req updateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	contract, err := h.contracts.Update(r.Context(), caller, chi.URLParam(r, "id"), contracts.UpdateInput{
		Title:           req.Title,
		Status:          req.Status,
		ContractedParty: req.ContractedParty,
		TotalValue:      req.TotalValue,
		Sector:          req.Sector,
		CostCenter:      req.CostCenter,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contract": toContractResponse(*contract),
	})
}

func (h *ContractHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	contract, err := h.contracts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contract": toContractResponse(*contract),
	})
}

func (h *ContractHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.contracts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]contractResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toContractResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"contracts": out,
	})
}

func (h *ContractHandler) HandleListAttachments(w http.ResponseWriter, r *http.Request) {
	list, err := h.contracts.ListAttachments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"attachments": list,
	})
}

func (h *ContractHandler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	list, err := h.contracts.ListAuditEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entries": list,
	})
}

// HandleDelete runs the archival workflow for the contract named in the body.
func (h *ContractHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required"))
		return
	}

	var req deleteContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	message, err := h.archive.Delete(r.Context(), caller, req.ContractID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
	})
}
