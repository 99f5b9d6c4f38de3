// Package archive implements the privileged contract deletion workflow: the
// live contract tree is frozen into a single archive record, backing files
// are removed, and the live rows are purged.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fbn1986/gerenciador-de-contratos/internal/attachments"
	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// Authorizer decides whether the caller may destroy contracts.
type Authorizer interface {
	RequirePrivileged(ctx context.Context, caller middleware.Caller) error
}

// Workflow runs the deletion in five phases: authorize, snapshot, archive,
// delete files, purge rows. The archive write must land before anything is
// destroyed, so every exit up to that point leaves the live tree untouched.
type Workflow struct {
	auth    Authorizer
	store   contracts.Store
	storage attachments.ObjectStorage
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	now func() time.Time
}

func NewWorkflow(auth Authorizer, store contracts.Store, storage attachments.ObjectStorage, logger *slog.Logger, m *metrics.Metrics) *Workflow {
	return &Workflow{
		auth:    auth,
		store:   store,
		storage: storage,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("archive"),
		now:     time.Now,
	}
}

// Delete archives and removes the contract identified by contractID on behalf
// of a privileged caller, returning a confirmation message.
func (w *Workflow) Delete(ctx context.Context, caller middleware.Caller, contractID string) (string, error) {
	ctx, span := w.tracer.Start(ctx, "archive.Delete",
		trace.WithAttributes(attribute.String("contract.id", contractID)))
	defer span.End()

	if err := w.authorize(ctx, caller, contractID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	contract, attachmentRows, auditRows, err := w.snapshot(ctx, contractID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if err := w.archiveTree(ctx, caller, *contract, attachmentRows, auditRows); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	w.deleteFiles(ctx, contractID, attachmentRows)

	if err := w.purge(ctx, contractID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if w.metrics != nil {
		w.metrics.ContractsArchived.Inc()
	}
	w.logger.InfoContext(ctx, "contract archived and deleted",
		"contract_id", contractID,
		"deleted_by", caller.UID,
		"attachments", len(attachmentRows),
		"audit_entries", len(auditRows))

	return fmt.Sprintf("Contrato %q excluído e arquivado com sucesso.", contract.Title), nil
}

func (w *Workflow) authorize(ctx context.Context, caller middleware.Caller, contractID string) error {
	ctx, span := w.tracer.Start(ctx, "archive.authorize")
	defer span.End()

	if caller.UID == "" {
		return dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required")
	}
	if err := w.auth.RequirePrivileged(ctx, caller); err != nil {
		return err
	}
	if contractID == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "contractId is required")
	}
	return nil
}

// snapshot reads the contract and its complete child sets. Everything is read
// before anything is written.
func (w *Workflow) snapshot(ctx context.Context, contractID string) (*contracts.Contract, []contracts.Attachment, []contracts.AuditEntry, error) {
	ctx, span := w.tracer.Start(ctx, "archive.snapshot")
	defer span.End()

	contract, err := w.store.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}

	var (
		attachmentRows []contracts.Attachment
		auditRows      []contracts.AuditEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attachmentRows, err = w.store.ListAttachments(gctx, contractID)
		return err
	})
	g.Go(func() error {
		var err error
		auditRows, err = w.store.ListAuditEntries(gctx, contractID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract children")
	}

	span.SetAttributes(
		attribute.Int("attachments", len(attachmentRows)),
		attribute.Int("audit_entries", len(auditRows)),
	)
	return contract, attachmentRows, auditRows, nil
}

func (w *Workflow) archiveTree(ctx context.Context, caller middleware.Caller, contract contracts.Contract, attachmentRows []contracts.Attachment, auditRows []contracts.AuditEntry) error {
	ctx, span := w.tracer.Start(ctx, "archive.write")
	defer span.End()

	archived := contracts.ArchivedContract{
		ContractID:  contract.ID,
		Contract:    contract,
		Attachments: attachmentRows,
		AuditLog:    auditRows,
		DeletedBy:   caller.UID,
		DeletedAt:   w.now().UTC(),
	}
	if err := w.store.ArchiveContract(ctx, archived); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "contract is already archived")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write archive record")
	}
	return nil
}

// deleteFiles removes every backing object, best-effort. A file that cannot
// be removed is logged and skipped; the workflow keeps going because the
// archive record already holds everything the business needs.
func (w *Workflow) deleteFiles(ctx context.Context, contractID string, attachmentRows []contracts.Attachment) {
	ctx, span := w.tracer.Start(ctx, "archive.delete_files",
		trace.WithAttributes(attribute.Int("count", len(attachmentRows))))
	defer span.End()

	for _, att := range attachmentRows {
		if att.StoragePath == "" {
			continue
		}
		if err := w.storage.Delete(ctx, att.StoragePath); err != nil {
			w.logger.WarnContext(ctx, "failed to delete attachment object, skipping",
				"contract_id", contractID, "path", att.StoragePath, "error", err)
			if w.metrics != nil {
				w.metrics.OrphanedStorageObject.Inc()
			}
		}
	}
}

func (w *Workflow) purge(ctx context.Context, contractID string) error {
	ctx, span := w.tracer.Start(ctx, "archive.purge")
	defer span.End()

	if err := w.store.PurgeContractTree(ctx, contractID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge contract rows")
	}
	return nil
}
