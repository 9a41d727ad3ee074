package auth

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type ObtainTokensMessage struct {
	Identifier string `json:"identifier" example:"user@example.com" doc:"Email, username, or user id"`
	Password   string `json:"password" example:"some_secret_word" doc:"Password"`
}

func (m ObtainTokensMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Identifier, validation.Required),
		validation.Field(&m.Password, validation.Required),
	)
}

// ObtainTokensHandler exchanges credentials for an access/refresh token pair.
type ObtainTokensHandler struct {
	repo     RepositoryManager
	provider IdentityProvider
	tokens   TokenService
	activity ActivitySink
	logger   Logger
}

func NewObtainTokensHandler(repo RepositoryManager, provider IdentityProvider, tokens TokenService) *ObtainTokensHandler {
	return &ObtainTokensHandler{
		repo:     repo,
		provider: provider,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit login events.
func (h *ObtainTokensHandler) WithActivitySink(sink ActivitySink) *ObtainTokensHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ObtainTokensHandler) WithLogger(logger Logger) *ObtainTokensHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute runs the login. Domain failures come back inside the result, never
// as a raw error; the error return is reserved for context cancellation.
func (h *ObtainTokensHandler) Execute(ctx context.Context, event ObtainTokensMessage) (*ObtainResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token obtain",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ObtainTokensHandler) execute(ctx context.Context, event ObtainTokensMessage) (*ObtainResult, error) {
	if err := event.Validate(); err != nil {
		return &ObtainResult{MutationResult: failureResult(err)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	identity, err := h.provider.VerifyIdentity(ctx, event.Identifier, event.Password)
	if err != nil {
		h.recordActivity(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": event.Identifier,
		})

		if errors.Is(err, ErrMismatchedHashAndPassword) || errors.Is(err, ErrTooManyLoginAttempts) {
			return &ObtainResult{MutationResult: failureResult(err)}, nil
		}

		h.logger.Error("identity verification failed: %v", err)
		return &ObtainResult{MutationResult: failureResult(ErrMismatchedHashAndPassword)}, nil
	}

	access, expiresAt, err := h.tokens.Mint(TokenTypeAccess, identity)
	if err != nil {
		h.logger.Error("failed to mint access token: %v", err)
		return &ObtainResult{MutationResult: failureResult(goerrors.New("could not issue tokens", goerrors.CategoryInternal))}, nil
	}

	refresh, err := h.repo.RefreshTokens().Issue(ctx, identity)
	if err != nil {
		h.logger.Error("failed to issue refresh token: %v", err)
		return &ObtainResult{MutationResult: failureResult(goerrors.New("could not issue tokens", goerrors.CategoryInternal))}, nil
	}

	h.recordActivity(ctx, ActivityEventLoginSuccess, identity.ID(), nil)

	return &ObtainResult{
		MutationResult: successResult(),
		Payload: &TokenPayload{
			Token:        access,
			RefreshToken: refresh.Token,
			ExpiresAt:    expiresAt,
		},
		User: summarizeIdentity(identity),
	}, nil
}

func (h *ObtainTokensHandler) recordActivity(ctx context.Context, eventType ActivityEventType, userID string, meta map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   meta,
		OccurredAt: time.Now(),
	}
	if userID != "" {
		event.Actor = ActorRef{ID: userID, Type: "user"}
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during login: %v", err)
	}
}
