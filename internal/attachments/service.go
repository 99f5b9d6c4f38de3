package attachments

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// MetadataStore is the slice of the contract store the attachment manager
// needs.
type MetadataStore interface {
	AddAttachment(ctx context.Context, attachment contracts.Attachment) error
	DeleteAttachment(ctx context.Context, contractID, attachmentID string) error
	AppendAuditEntries(ctx context.Context, entries []contracts.AuditEntry) error
}

// Service stores and deletes attachment files together with their metadata
// records.
type Service struct {
	store   MetadataStore
	storage ObjectStorage
	logger  *slog.Logger
	metrics *metrics.Metrics

	// now is swappable so tests can pin the timestamp-prefixed object key.
	now func() time.Time
}

func NewService(store MetadataStore, storage ObjectStorage, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, storage: storage, logger: logger, metrics: m, now: time.Now}
}

// Upload decodes the payload, stores the object, and records the metadata as
// a child of the contract. The object key is prefixed with the upload time in
// milliseconds: two same-named uploads in the same millisecond would collide,
// which is an accepted edge case of this scheme.
func (s *Service) Upload(ctx context.Context, caller middleware.Caller, contractID, fileContent, fileName string) (*contracts.Attachment, error) {
	if caller.UID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required")
	}
	if fileContent == "" || fileName == "" || contractID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "fileContent, fileName and contractId are required")
	}

	data, contentType, err := decodeDataURI(fileContent)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidArgument, "fileContent is not valid base64 data")
	}

	uploadedAt := s.now().UTC()
	path := fmt.Sprintf("contracts/%s/%d_%s", contractID, uploadedAt.UnixMilli(), fileName)

	url, err := s.storage.Put(ctx, path, data, contentType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store file")
	}

	attachment := contracts.Attachment{
		ID:          uuid.NewString(),
		ContractID:  contractID,
		Name:        fileName,
		StoragePath: path,
		URL:         url,
		UploadedBy:  caller.UID,
		UploadedAt:  uploadedAt,
	}
	if err := s.store.AddAttachment(ctx, attachment); err != nil {
		// The object is already in the bucket; it becomes an orphan the
		// archive has no record of. Logged for later reconciliation.
		s.logger.ErrorContext(ctx, "metadata write failed after upload, object orphaned",
			"path", path, "error", err)
		if s.metrics != nil {
			s.metrics.OrphanedStorageObject.Inc()
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attachment")
	}

	s.appendAudit(ctx, contractID, "Anexo Adicionado", fileName, caller.UID)
	if s.metrics != nil {
		s.metrics.AttachmentsUploaded.Inc()
	}
	return &attachment, nil
}

// Delete removes the metadata record, then the backing file. If the file
// deletion fails after the record is gone the object is orphaned: a logged
// storage-cost leak, not a correctness hazard, since nothing reads the file
// once the metadata is removed.
func (s *Service) Delete(ctx context.Context, caller middleware.Caller, contractID, attachmentID, storagePath string) error {
	if caller.UID == "" {
		return dErrors.New(dErrors.CodeUnauthenticated, "caller identity is required")
	}
	if contractID == "" || attachmentID == "" || storagePath == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "contractId, attachmentId and storagePath are required")
	}

	if err := s.store.DeleteAttachment(ctx, contractID, attachmentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "attachment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete attachment record")
	}

	if err := s.storage.Delete(ctx, storagePath); err != nil {
		s.logger.ErrorContext(ctx, "file deletion failed after metadata removal, object orphaned",
			"path", storagePath, "error", err)
		if s.metrics != nil {
			s.metrics.OrphanedStorageObject.Inc()
		}
	}

	s.appendAudit(ctx, contractID, "Anexo Removido", storagePath, caller.UID)
	if s.metrics != nil {
		s.metrics.AttachmentsDeleted.Inc()
	}
	return nil
}

// appendAudit writes a single attachment audit entry, best-effort.
func (s *Service) appendAudit(ctx context.Context, contractID, action, detail, actor string) {
	entry := contracts.AuditEntry{
		ID:         uuid.NewString(),
		ContractID: contractID,
		Action:     action,
		Details:    detail,
		Actor:      actor,
	}
	if err := s.store.AppendAuditEntries(ctx, []contracts.AuditEntry{entry}); err != nil {
		s.logger.WarnContext(ctx, "failed to append attachment audit entry",
			"contract_id", contractID, "action", action, "error", err)
	}
}

// decodeDataURI accepts either a full "data:<mime>;base64,<payload>" URI or a
// bare base64 payload.
func decodeDataURI(raw string) ([]byte, string, error) {
	contentType := "application/octet-stream"
	payload := raw

	if strings.HasPrefix(raw, "data:") {
		meta, rest, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		payload = rest
		if mime, _, _ := strings.Cut(meta, ";"); mime != "" {
			contentType = mime
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return data, contentType, nil
}
