package auth

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type RefreshTokenMessage struct {
	RefreshToken string `json:"refreshToken" doc:"Refresh token issued on login"`
}

func (m RefreshTokenMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.RefreshToken, validation.Required),
	)
}

// RefreshTokenHandler swaps a live refresh token for a new access token,
// rotating the refresh token in the same step so a presented token can never
// mint twice.
type RefreshTokenHandler struct {
	repo     RepositoryManager
	tokens   TokenService
	config   Config
	activity ActivitySink
	logger   Logger
}

func NewRefreshTokenHandler(repo RepositoryManager, tokens TokenService, cfg Config) *RefreshTokenHandler {
	return &RefreshTokenHandler{
		repo:     repo,
		tokens:   tokens,
		config:   cfg,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit refresh events.
func (h *RefreshTokenHandler) WithActivitySink(sink ActivitySink) *RefreshTokenHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RefreshTokenHandler) WithLogger(logger Logger) *RefreshTokenHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RefreshTokenHandler) Execute(ctx context.Context, event RefreshTokenMessage) (*RefreshResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token refresh",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RefreshTokenHandler) execute(ctx context.Context, event RefreshTokenMessage) (*RefreshResult, error) {
	if err := event.Validate(); err != nil {
		return &RefreshResult{MutationResult: failureResult(err)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var record *RefreshToken
	var err error

	if h.config.RotateOnUse {
		record, err = h.repo.RefreshTokens().Rotate(ctx, event.RefreshToken)
	} else {
		record, err = h.repo.RefreshTokens().Resolve(ctx, event.RefreshToken)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired),
			errors.Is(err, ErrTokenRevoked),
			errors.Is(err, ErrTokenNotFound):
			return &RefreshResult{MutationResult: failureResult(err)}, nil
		default:
			h.logger.Error("failed to rotate refresh token: %v", err)
			return &RefreshResult{MutationResult: failureResult(ErrTokenMalformed)}, nil
		}
	}

	identity, err := h.subjectIdentity(ctx, record)
	if err != nil {
		return &RefreshResult{MutationResult: failureResult(ErrTokenMalformed)}, nil
	}

	access, expiresAt, err := h.tokens.Mint(TokenTypeAccess, identity)
	if err != nil {
		h.logger.Error("failed to mint access token: %v", err)
		return &RefreshResult{MutationResult: failureResult(goerrors.New("could not issue tokens", goerrors.CategoryInternal))}, nil
	}

	h.recordActivity(ctx, record)

	payload := &TokenPayload{
		Token:     access,
		ExpiresAt: expiresAt,
	}
	if h.config.RotateOnUse {
		payload.RefreshToken = record.Token
	}

	return &RefreshResult{
		MutationResult: successResult(),
		Payload:        payload,
	}, nil
}

func (h *RefreshTokenHandler) subjectIdentity(ctx context.Context, record *RefreshToken) (Identity, error) {
	user, err := h.repo.Users().GetByIdentifier(ctx, record.UserID.String())
	if err != nil {
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, ErrIdentityNotFound
	}
	return NewIdentityFromUser(user), nil
}

func (h *RefreshTokenHandler) recordActivity(ctx context.Context, record *RefreshToken) {
	event := ActivityEvent{
		EventType: ActivityEventTokenRefreshed,
		Actor: ActorRef{
			ID:   record.UserID.String(),
			Type: "user",
		},
		UserID: record.UserID.String(),
		Metadata: map[string]any{
			"refresh_token_id": record.ID.String(),
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during refresh: %v", err)
	}
}
