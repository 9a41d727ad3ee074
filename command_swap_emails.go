package auth

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type SwapEmailsMessage struct {
	Password string `json:"password" doc:"Current password, required to confirm the swap"`
}

func (m SwapEmailsMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Password, validation.Required),
	)
}

// SwapEmailsHandler exchanges the primary and secondary email of the
// authenticated account. The caller confirms with their password and must
// have a secondary email on record; the exchange is exact, both addresses
// survive with their roles flipped.
type SwapEmailsHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewSwapEmailsHandler(repo RepositoryManager) *SwapEmailsHandler {
	return &SwapEmailsHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit swap events.
func (h *SwapEmailsHandler) WithActivitySink(sink ActivitySink) *SwapEmailsHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SwapEmailsHandler) WithLogger(logger Logger) *SwapEmailsHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SwapEmailsHandler) Execute(ctx context.Context, event SwapEmailsMessage) (*SwapEmailsResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email swap",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SwapEmailsHandler) execute(ctx context.Context, event SwapEmailsMessage) (*SwapEmailsResult, error) {
	if err := event.Validate(); err != nil {
		return &SwapEmailsResult{MutationResult: failureResult(err)}, nil
	}

	identity, ok := IdentityFromContext(ctx)
	if !ok || identity == nil {
		return &SwapEmailsResult{MutationResult: failureResult(ErrUnauthenticated)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, identity.ID())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return &SwapEmailsResult{MutationResult: failureResult(ErrUnauthenticated)}, nil
		}
		h.logger.Error("failed to load user for email swap: %v", err)
		return &SwapEmailsResult{MutationResult: failureResult(goerrors.New("could not swap emails", goerrors.CategoryInternal))}, nil
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err != nil {
		return &SwapEmailsResult{MutationResult: failureResult(ErrMismatchedHashAndPassword)}, nil
	}

	updated, err := h.repo.Users().SwapEmails(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrSecondaryEmailRequired) {
			return &SwapEmailsResult{MutationResult: failureResult(ErrSecondaryEmailRequired)}, nil
		}
		h.logger.Error("failed to swap emails: %v", err)
		return &SwapEmailsResult{MutationResult: failureResult(goerrors.New("could not swap emails", goerrors.CategoryInternal))}, nil
	}

	h.recordActivity(ctx, updated)

	return &SwapEmailsResult{
		MutationResult: successResult(),
		Payload: &SwapEmailsPayload{
			Email:          updated.Email,
			SecondaryEmail: updated.SecondaryEmail,
		},
	}, nil
}

func (h *SwapEmailsHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventEmailsSwapped,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during email swap: %v", err)
	}
}
