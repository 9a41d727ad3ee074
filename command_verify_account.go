package auth

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type VerifyAccountMessage struct {
	Token string `json:"token" doc:"Scoped verification token sent to the account email"`
}

func (m VerifyAccountMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required),
	)
}

// VerifyAccountHandler confirms an account using a scoped verification token.
// The token must carry the account verification scope; a plain access token
// will not do.
type VerifyAccountHandler struct {
	repo     RepositoryManager
	tokens   TokenValidator
	activity ActivitySink
	logger   Logger
}

func NewVerifyAccountHandler(repo RepositoryManager, tokens TokenValidator) *VerifyAccountHandler {
	return &VerifyAccountHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit verification events.
func (h *VerifyAccountHandler) WithActivitySink(sink ActivitySink) *VerifyAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyAccountHandler) WithLogger(logger Logger) *VerifyAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) (*VerifyResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) (*VerifyResult, error) {
	if err := event.Validate(); err != nil {
		return &VerifyResult{MutationResult: failureResult(err)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	claims, err := h.tokens.Validate(event.Token)
	if err != nil {
		if IsTokenExpiredError(err) {
			return &VerifyResult{MutationResult: failureResult(ErrTokenExpired)}, nil
		}
		return &VerifyResult{MutationResult: failureResult(ErrTokenMalformed)}, nil
	}

	if claims.Type() != TokenTypeScoped || !claims.HasScope(ScopeVerifyAccount) {
		return &VerifyResult{MutationResult: failureResult(ErrTokenMalformed)}, nil
	}

	userID, err := SubjectUUID(claims)
	if err != nil {
		return &VerifyResult{MutationResult: failureResult(ErrTokenMalformed)}, nil
	}

	if err := h.repo.Users().MarkVerified(ctx, userID); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyVerified):
			return &VerifyResult{MutationResult: failureResult(ErrAlreadyVerified)}, nil
		case errors.Is(err, ErrIdentityNotFound):
			return &VerifyResult{MutationResult: failureResult(ErrTokenMalformed)}, nil
		default:
			h.logger.Error("failed to mark account verified: %v", err)
			return &VerifyResult{MutationResult: failureResult(goerrors.New("could not verify account", goerrors.CategoryInternal))}, nil
		}
	}

	h.recordActivity(ctx, userID.String())

	return &VerifyResult{MutationResult: successResult()}, nil
}

func (h *VerifyAccountHandler) recordActivity(ctx context.Context, userID string) {
	event := ActivityEvent{
		EventType: ActivityEventAccountVerified,
		Actor: ActorRef{
			ID:   userID,
			Type: "user",
		},
		UserID:     userID,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during verification: %v", err)
	}
}
