package contracts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
	txcontext "github.com/fbn1986/gerenciador-de-contratos/pkg/platform/tx"
)

// PostgresStore persists the contract tree. Children are plain rows while
// live; the archive row freezes them as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateContract(ctx context.Context, c Contract) error {
	query := `
		INSERT INTO contracts (id, title, status, contracted_party, total_value, sector,
			cost_center, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		c.ID, c.Title, string(c.Status), c.ContractedParty, c.TotalValue, c.Sector,
		c.CostCenter, c.CreatedBy, c.UpdatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateContract(ctx context.Context, c Contract) error {
	query := `
		UPDATE contracts
		SET title = $2, status = $3, contracted_party = $4, total_value = $5,
			sector = $6, cost_center = $7, updated_by = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		c.ID, c.Title, string(c.Status), c.ContractedParty, c.TotalValue,
		c.Sector, c.CostCenter, c.UpdatedBy, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) GetContract(ctx context.Context, id string) (*Contract, error) {
	query := `
		SELECT id, title, status, contracted_party, total_value, sector,
			cost_center, created_by, updated_by, created_at, updated_at
		FROM contracts
		WHERE id = $1
	`
	var c Contract
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Status, &c.ContractedParty, &c.TotalValue, &c.Sector,
		&c.CostCenter, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan contract: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListContracts(ctx context.Context) ([]Contract, error) {
	query := `
		SELECT id, title, status, contracted_party, total_value, sector,
			cost_center, created_by, updated_by, created_at, updated_at
		FROM contracts
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Status, &c.ContractedParty, &c.TotalValue, &c.Sector,
			&c.CostCenter, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddAttachment(ctx context.Context, a Attachment) error {
	query := `
		INSERT INTO attachments (id, contract_id, name, storage_path, url, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		a.ID, a.ContractID, a.Name, a.StoragePath, a.URL, a.UploadedBy, a.UploadedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteAttachment(ctx context.Context, contractID, attachmentID string) error {
	query := `DELETE FROM attachments WHERE contract_id = $1 AND id = $2`
	result, err := s.execer(ctx).ExecContext(ctx, query, contractID, attachmentID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) ListAttachments(ctx context.Context, contractID string) ([]Attachment, error) {
	query := `
		SELECT id, contract_id, name, storage_path, url, uploaded_by, uploaded_at
		FROM attachments
		WHERE contract_id = $1
		ORDER BY uploaded_at
	`
	rows, err := s.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.ContractID, &a.Name, &a.StoragePath, &a.URL, &a.UploadedBy, &a.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AppendAuditEntries writes the batch in one transaction. now() is stable for
// the transaction's lifetime, so every entry shares one server-assigned
// timestamp and the batch persists all-or-nothing.
func (s *PostgresStore) AppendAuditEntries(ctx context.Context, entries []AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO audit_entries (id, contract_id, action, details, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		for _, entry := range entries {
			if _, err := s.execer(ctx).ExecContext(ctx, query, entry.ID, entry.ContractID, entry.Action, entry.Details, entry.Actor); err != nil {
				return fmt.Errorf("insert audit entry: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListAuditEntries(ctx context.Context, contractID string) ([]AuditEntry, error) {
	query := `
		SELECT id, contract_id, action, details, actor, created_at
		FROM audit_entries
		WHERE contract_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ContractID, &e.Action, &e.Details, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// archivedContractFields is the JSONB shape of the frozen contract fields.
type archivedContractFields struct {
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	ContractedParty string  `json:"contracted_party"`
	TotalValue      float64 `json:"total_value"`
	Sector          string  `json:"sector"`
	CostCenter      string  `json:"cost_center"`
	CreatedBy       string  `json:"created_by"`
	UpdatedBy       string  `json:"updated_by"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func (s *PostgresStore) ArchiveContract(ctx context.Context, archived ArchivedContract) error {
	c := archived.Contract
	fields, err := json.Marshal(archivedContractFields{
		Title:           c.Title,
		Status:          string(c.Status),
		ContractedParty: c.ContractedParty,
		TotalValue:      c.TotalValue,
		Sector:          c.Sector,
		CostCenter:      c.CostCenter,
		CreatedBy:       c.CreatedBy,
		UpdatedBy:       c.UpdatedBy,
		CreatedAt:       c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal archived contract: %w", err)
	}

	attachments, err := json.Marshal(archived.Attachments)
	if err != nil {
		return fmt.Errorf("marshal archived attachments: %w", err)
	}
	auditLog, err := json.Marshal(archived.AuditLog)
	if err != nil {
		return fmt.Errorf("marshal archived audit log: %w", err)
	}

	query := `
		INSERT INTO archived_contracts (contract_id, contract, attachments, audit_log, deleted_by, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		archived.ContractID, fields, attachments, auditLog, archived.DeletedBy, archived.DeletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert archived contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetArchivedContract(ctx context.Context, contractID string) (*ArchivedContract, error) {
	query := `
		SELECT contract_id, contract, attachments, audit_log, deleted_by, deleted_at
		FROM archived_contracts
		WHERE contract_id = $1
	`
	var (
		archived       ArchivedContract
		fieldsRaw      []byte
		attachmentsRaw []byte
		auditLogRaw    []byte
	)
	err := s.db.QueryRowContext(ctx, query, contractID).Scan(
		&archived.ContractID, &fieldsRaw, &attachmentsRaw, &auditLogRaw,
		&archived.DeletedBy, &archived.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan archived contract: %w", err)
	}

	var fields archivedContractFields
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal archived contract: %w", err)
	}
	archived.Contract = Contract{
		ID:              archived.ContractID,
		Title:           fields.Title,
		Status:          Status(fields.Status),
		ContractedParty: fields.ContractedParty,
		TotalValue:      fields.TotalValue,
		Sector:          fields.Sector,
		CostCenter:      fields.CostCenter,
		CreatedBy:       fields.CreatedBy,
		UpdatedBy:       fields.UpdatedBy,
	}
	if err := json.Unmarshal(attachmentsRaw, &archived.Attachments); err != nil {
		return nil, fmt.Errorf("unmarshal archived attachments: %w", err)
	}
	if err := json.Unmarshal(auditLogRaw, &archived.AuditLog); err != nil {
		return nil, fmt.Errorf("unmarshal archived audit log: %w", err)
	}
	return &archived, nil
}

// PurgeContractTree removes the whole live subtree in one transaction.
func (s *PostgresStore) PurgeContractTree(ctx context.Context, contractID string) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM attachments WHERE contract_id = $1`, contractID); err != nil {
			return fmt.Errorf("purge attachments: %w", err)
		}
		if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM audit_entries WHERE contract_id = $1`, contractID); err != nil {
			return fmt.Errorf("purge audit entries: %w", err)
		}
		result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, contractID)
		if err != nil {
			return fmt.Errorf("purge contract: %w", err)
		}
		return requireRow(result)
	})
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
