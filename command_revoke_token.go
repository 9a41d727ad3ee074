package auth

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type RevokeTokenMessage struct {
	RefreshToken string `json:"refreshToken" doc:"Refresh token to revoke"`
}

func (m RevokeTokenMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.RefreshToken, validation.Required),
	)
}

// RevokeTokenHandler invalidates a refresh token so it can never mint again.
// Revoking an unknown or already revoked token is a reported failure, not a
// silent no-op.
type RevokeTokenHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewRevokeTokenHandler(repo RepositoryManager) *RevokeTokenHandler {
	return &RevokeTokenHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit revocation events.
func (h *RevokeTokenHandler) WithActivitySink(sink ActivitySink) *RevokeTokenHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RevokeTokenHandler) WithLogger(logger Logger) *RevokeTokenHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RevokeTokenHandler) Execute(ctx context.Context, event RevokeTokenMessage) (*RevokeResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token revocation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RevokeTokenHandler) execute(ctx context.Context, event RevokeTokenMessage) (*RevokeResult, error) {
	if err := event.Validate(); err != nil {
		return &RevokeResult{MutationResult: failureResult(err)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.repo.RefreshTokens().Resolve(ctx, event.RefreshToken)
	if err != nil && !errors.Is(err, ErrTokenExpired) {
		// an expired but unrevoked token is still worth revoking
		return &RevokeResult{MutationResult: failureResult(err)}, nil
	}

	if err := h.repo.RefreshTokens().Revoke(ctx, event.RefreshToken); err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenRevoked) {
			return &RevokeResult{MutationResult: failureResult(err)}, nil
		}
		h.logger.Error("failed to revoke refresh token: %v", err)
		return &RevokeResult{MutationResult: failureResult(goerrors.New("could not revoke token", goerrors.CategoryInternal))}, nil
	}

	h.recordActivity(ctx, record)

	return &RevokeResult{
		MutationResult: successResult(),
		Payload:        &RevokePayload{Revoked: true},
	}, nil
}

func (h *RevokeTokenHandler) recordActivity(ctx context.Context, record *RefreshToken) {
	if record == nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventTokenRevoked,
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
		h.logger.Warn("activity sink error during revocation: %v", err)
	}
}
