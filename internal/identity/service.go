package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// Service is the identity gateway: it owns the user directory, issues and
// validates bearer tokens, and announces new identities on the event bus so
// the role bootstrapper can react.
type Service struct {
	users     UserStore
	tokens    *TokenService
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(users UserStore, tokens *TokenService, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{users: users, tokens: tokens, publisher: publisher, logger: logger}
}

// Register creates a self-service account and emits a user-created event.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	uid, err := s.createAccount(ctx, email, password)
	if err != nil {
		return "", err
	}
	s.announce(ctx, uid, email)
	return uid, nil
}

// CreateAccount creates an identity record on behalf of a privileged caller.
// The caller writes the role record itself, but the user-created event is
// still emitted so every identity flows through the same bootstrap path.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (string, error) {
	uid, err := s.createAccount(ctx, email, password)
	if err != nil {
		return "", err
	}
	s.announce(ctx, uid, email)
	return uid, nil
}

func (s *Service) createAccount(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return user.UID, nil
}

func (s *Service) announce(ctx context.Context, uid, email string) {
	env := events.Envelope{
		Kind:       events.KindUserCreated,
		OccurredAt: time.Now().UTC(),
		User:       &events.UserPayload{UID: uid, Email: email},
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		// The account exists either way; bootstrap catches up on next login
		// or by manual reassignment.
		s.logger.ErrorContext(ctx, "failed to publish user-created event", "uid", uid, "error", err)
	}
}

// Login verifies credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "invalid credentials")
	}

	token, err := s.tokens.Generate(user.UID, user.Email)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return token, nil
}

// ResolveCaller validates a bearer token and resolves it to a caller
// identity. It satisfies the transport middleware's CallerResolver.
func (s *Service) ResolveCaller(_ context.Context, bearerToken string) (middleware.Caller, error) {
	claims, err := s.tokens.Validate(bearerToken)
	if err != nil {
		return middleware.Caller{}, err
	}
	return middleware.Caller{UID: claims.Subject, Email: claims.Email}, nil
}
