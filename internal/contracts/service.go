package contracts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// CreateInput are the caller-supplied fields of a new contract.
type CreateInput struct {
	Title           string
	Status          string
	ContractedParty string
	TotalValue      float64
	Sector          string
	CostCenter      string
}

// UpdateInput carries partial changes; nil fields are left untouched.
type UpdateInput struct {
	Title           *string
	Status          *string
	ContractedParty *string
	TotalValue      *float64
	Sector          *string
	CostCenter      *string
}

// Service owns contract writes and emits the data-change events the audit
// recorder and notification dispatcher react to.
type Service struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(store Store, publisher events.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{store: store, publisher: publisher, logger: logger, metrics: m}
}

func (s *Service) Create(ctx context.Context, caller middleware.Caller, input CreateInput) (*Contract, error) {
	if input.Title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "title is required")
	}
	if input.Status == "" {
		input.Status = string(StatusProposal)
	}
	if !ValidStatus(input.Status) {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "unknown contract status")
	}

	now := time.Now().UTC()
	contract := Contract{
		ID:              uuid.NewString(),
		Title:           input.Title,
		Status:          Status(input.Status),
		ContractedParty: input.ContractedParty,
		TotalValue:      input.TotalValue,
		Sector:          input.Sector,
		CostCenter:      input.CostCenter,
		CreatedBy:       caller.UID,
		UpdatedBy:       caller.UID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateContract(ctx, contract); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contract")
	}

	s.publish(ctx, events.Envelope{
		Kind:       events.KindContractCreated,
		OccurredAt: now,
		After:      contract.Snapshot(),
	})
	if s.metrics != nil {
		s.metrics.ContractsCreated.Inc()
	}
	return &contract, nil
}

func (s *Service) Update(ctx context.Context, caller middleware.Caller, id string, input UpdateInput) (*Contract, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "contract id is required")
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	after := *before
	if input.Title != nil {
		after.Title = *input.Title
	}
	if input.Status != nil {
		if !ValidStatus(*input.Status) {
			return nil, dErrors.New(dErrors.CodeInvalidArgument, "unknown contract status")
		}
		after.Status = Status(*input.Status)
	}
	if input.ContractedParty != nil {
		after.ContractedParty = *input.ContractedParty
	}
	if input.TotalValue != nil {
		after.TotalValue = *input.TotalValue
	}
	if input.Sector != nil {
		after.Sector = *input.Sector
	}
	if input.CostCenter != nil {
		after.CostCenter = *input.CostCenter
	}
	after.UpdatedBy = caller.UID
	after.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateContract(ctx, after); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contract")
	}

	s.publish(ctx, events.Envelope{
		Kind:       events.KindContractUpdated,
		OccurredAt: after.UpdatedAt,
		Before:     before.Snapshot(),
		After:      after.Snapshot(),
	})
	return &after, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Contract, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contract not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contract")
	}
	return contract, nil
}

func (s *Service) List(ctx context.Context) ([]Contract, error) {
	list, err := s.store.ListContracts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contracts")
	}
	return list, nil
}

func (s *Service) ListAttachments(ctx context.Context, contractID string) ([]Attachment, error) {
	if _, err := s.Get(ctx, contractID); err != nil {
		return nil, err
	}
	list, err := s.store.ListAttachments(ctx, contractID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attachments")
	}
	return list, nil
}

func (s *Service) ListAuditEntries(ctx context.Context, contractID string) ([]AuditEntry, error) {
	if _, err := s.Get(ctx, contractID); err != nil {
		return nil, err
	}
	list, err := s.store.ListAuditEntries(ctx, contractID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return list, nil
}

// publish is fire-and-forget: the datastore write already succeeded and the
// handlers behind the bus are best-effort by contract.
func (s *Service) publish(ctx context.Context, env events.Envelope) {
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish contract event", "kind", env.Kind, "error", err)
	}
}
