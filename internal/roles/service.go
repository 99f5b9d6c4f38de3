package roles

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// AccountCreator is the identity-provider side of user creation.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
}

// Service owns role assignment: the first-signup bootstrap, role resolution
// for privilege checks, and privileged user creation.
type Service struct {
	store    Store
	cache    *Cache
	accounts AccountCreator
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(store Store, cache *Cache, accounts AccountCreator, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, cache: cache, accounts: accounts, logger: logger, metrics: m}
}

// EnsureInitialRole assigns a role to a newly created identity. The very
// first record ever created gets the elevated role and flips the one-shot
// bootstrap flag; everyone after that gets the default role.
//
// The emptiness check and the write are deliberately not guarded by a
// transaction: under concurrent first-time signups more than one caller can
// observe an empty store and be elevated. The original behaves the same way
// and product has not signed off on closing the race, so it stays.
func (s *Service) EnsureInitialRole(ctx context.Context, uid, email string) error {
	if uid == "" {
		return dErrors.New(dErrors.CodeInvalidArgument, "uid is required")
	}

	// Event delivery is at-least-once, and privileged user creation writes
	// the role record before the event arrives. An existing record wins.
	if _, err := s.store.Get(ctx, uid); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing role")
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count role records")
	}

	role := RoleUser
	if count == 0 {
		role = RoleAdmin
		s.logger.InfoContext(ctx, "no role records found, elevating first identity", "uid", uid)
	}

	record := Record{UID: uid, Role: role, Email: email, CreatedAt: time.Now().UTC()}
	if err := s.store.Put(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write role record")
	}
	s.cache.Invalidate(ctx, uid)

	if role == RoleAdmin {
		if err := s.store.SetBootstrapComplete(ctx); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark bootstrap complete")
		}
	}

	s.logger.InfoContext(ctx, "role assigned", "uid", uid, "role", role)
	return nil
}

// ResolveRole returns the caller's role label, read through the cache.
func (s *Service) ResolveRole(ctx context.Context, uid string) (Role, error) {
	if role, ok := s.cache.Get(ctx, uid); ok {
		return role, nil
	}

	record, err := s.store.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no role record for identity")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve role")
	}

	s.cache.Set(ctx, uid, record.Role)
	return record.Role, nil
}

// RequirePrivileged resolves the caller's role and fails unless it is one of
// the privileged labels.
func (s *Service) RequirePrivileged(ctx context.Context, caller middleware.Caller) error {
	role, err := s.ResolveRole(ctx, caller.UID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodePermissionDenied, "caller has no role assigned")
		}
		return err
	}
	if !IsPrivileged(role) {
		return dErrors.New(dErrors.CodePermissionDenied, "caller is not allowed to perform this operation")
	}
	return nil
}

// CreateUser creates an identity-provider record and a matching role record
// on behalf of a privileged caller. No write happens unless every
// precondition passes.
func (s *Service) CreateUser(ctx context.Context, caller middleware.Caller, email, password, roleLabel string) (string, error) {
	if err := s.RequirePrivileged(ctx, caller); err != nil {
		return "", err
	}

	if email == "" || password == "" || roleLabel == "" {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "email, password and role are required")
	}
	if !govalidator.IsEmail(email) {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "invalid email")
	}
	role, ok := ParseRole(roleLabel)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "unknown role label")
	}

	uid, err := s.accounts.CreateAccount(ctx, email, password)
	if err != nil {
		return "", err
	}

	record := Record{UID: uid, Role: role, Email: email, CreatedAt: time.Now().UTC()}
	if err := s.store.Put(ctx, record); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to write role record")
	}
	s.cache.Invalidate(ctx, uid)

	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	s.logger.InfoContext(ctx, "user created", "uid", uid, "role", role, "created_by", caller.UID)
	return uid, nil
}
