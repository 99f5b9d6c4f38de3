package contracts

import (
	"time"

	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
)

// Status is a contract lifecycle label, drawn from a fixed ordered set.
type Status string

const (
	StatusProposal    Status = "Proposta Registrada"
	StatusDocsChecked Status = "Documentação Validada"
	StatusSigned      Status = "Contrato Assinado"
	StatusClosed      Status = "Contrato Encerrado"
	StatusCancelled   Status = "Cancelado"
)

// Lifecycle lists the statuses in their business order.
func Lifecycle() []Status {
	return []Status{StatusProposal, StatusDocsChecked, StatusSigned, StatusClosed, StatusCancelled}
}

// ValidStatus reports whether the label belongs to the lifecycle set.
func ValidStatus(raw string) bool {
	for _, s := range Lifecycle() {
		if Status(raw) == s {
			return true
		}
	}
	return false
}

// Contract is the live record mutated by authenticated clients. Status
// transitions drive the notification and audit side effects.
type Contract struct {
	ID              string
	Title           string
	Status          Status
	ContractedParty string
	TotalValue      float64
	Sector          string
	CostCenter      string
	CreatedBy       string
	UpdatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot converts the contract to its event-borne form.
func (c Contract) Snapshot() *events.ContractSnapshot {
	return &events.ContractSnapshot{
		ID:              c.ID,
		Title:           c.Title,
		Status:          string(c.Status),
		ContractedParty: c.ContractedParty,
		TotalValue:      c.TotalValue,
		Sector:          c.Sector,
		CostCenter:      c.CostCenter,
		CreatedBy:       c.CreatedBy,
		UpdatedBy:       c.UpdatedBy,
	}
}

// Attachment is metadata for one stored file, child of exactly one contract.
type Attachment struct {
	ID          string    `json:"id"`
	ContractID  string    `json:"contract_id"`
	Name        string    `json:"name"`
	StoragePath string    `json:"storage_path"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// AuditEntry is one append-only, human-readable change record.
type AuditEntry struct {
	ID         string    `json:"id"`
	ContractID string    `json:"contract_id"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArchivedContract is the frozen union written at deletion time: the
// contract's fields plus its full child history and deletion provenance.
// Created once, never mutated.
type ArchivedContract struct {
	ContractID  string
	Contract    Contract
	Attachments []Attachment
	AuditLog    []AuditEntry
	DeletedBy   string
	DeletedAt   time.Time
}
