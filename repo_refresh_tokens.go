package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens is the stateful store behind refresh credentials: issuance,
// resolution, revocation, and rotate-on-use chains.
type RefreshTokens interface {
	Issue(ctx context.Context, identity Identity) (*RefreshToken, error)
	IssueTx(ctx context.Context, tx bun.IDB, identity Identity) (*RefreshToken, error)

	// Resolve returns the live record for a token string. Missing, revoked,
	// and expired records fail with ErrTokenNotFound, ErrTokenRevoked, and
	// ErrTokenExpired respectively.
	Resolve(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke marks the record revoked. Revoking an unknown token fails with
	// ErrTokenNotFound; revoking an already-revoked one fails with
	// ErrTokenRevoked. Neither is silently ignored.
	Revoke(ctx context.Context, token string) error

	// Rotate consumes the record and issues a successor chained through
	// RotatedFromID. Exactly one of any set of concurrent rotations of the
	// same token succeeds.
	Rotate(ctx context.Context, token string) (*RefreshToken, error)

	// RevokeAllForSubject revokes every live token for a subject and
	// returns how many records it touched.
	RevokeAllForSubject(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error)

	// ActiveForSubject lists the live, unexpired records for a subject.
	ActiveForSubject(ctx context.Context, userID uuid.UUID) ([]*RefreshToken, error)
}

type refreshTokens struct {
	db     *bun.DB
	tokens TokenIssuer
	cfg    Config
	now    func() time.Time
}

var _ RefreshTokens = (*refreshTokens)(nil)

// RefreshTokensOption customizes the store.
type RefreshTokensOption func(*refreshTokens)

// WithRefreshTokensClock injects a custom clock (useful for tests).
func WithRefreshTokensClock(clock func() time.Time) RefreshTokensOption {
	return func(r *refreshTokens) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewRefreshTokensRepository wires the store to its database and the token
// issuer that mints the credential strings it persists.
func NewRefreshTokensRepository(db *bun.DB, tokens TokenIssuer, cfg Config, opts ...RefreshTokensOption) RefreshTokens {
	repo := &refreshTokens{
		db:     db,
		tokens: tokens,
		cfg:    cfg.Normalize(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

func (r *refreshTokens) Issue(ctx context.Context, identity Identity) (*RefreshToken, error) {
	var record *RefreshToken
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, err = r.IssueTx(ctx, tx, identity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *refreshTokens) IssueTx(ctx context.Context, tx bun.IDB, identity Identity) (*RefreshToken, error) {
	if identity == nil {
		return nil, errors.New("identity is required", errors.CategoryBadInput)
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "identity has no usable subject reference")
	}

	if !r.cfg.LongRunningRefresh {
		if _, err := r.RevokeAllForSubject(ctx, tx, userID); err != nil {
			return nil, err
		}
	}

	token, expiresAt, err := r.tokens.Mint(TokenTypeRefresh, identity)
	if err != nil {
		return nil, err
	}

	record := &RefreshToken{
		ID:        recordIDForToken(token),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return record, nil
}

func (r *refreshTokens) Resolve(ctx context.Context, token string) (*RefreshToken, error) {
	return r.resolve(ctx, r.db, token)
}

func (r *refreshTokens) resolve(ctx context.Context, tx bun.IDB, token string) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up refresh token")
	}

	if record.Revoked {
		return nil, ErrTokenRevoked
	}

	if record.IsExpired(r.now()) {
		return nil, ErrTokenExpired
	}

	return record, nil
}

func (r *refreshTokens) Revoke(ctx context.Context, token string) error {
	res, err := r.db.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked = ?", true).
		Where("token = ?", token).
		Where("revoked = ?", false).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke refresh token")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read revoke result")
	}
	if rows > 0 {
		return nil
	}

	// Nothing flipped: either the record does not exist or it was already
	// revoked. Both are reported failures.
	exists, err := r.db.NewSelect().
		Model((*RefreshToken)(nil)).
		Where("token = ?", token).
		Exists(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to classify revoke failure")
	}
	if exists {
		return ErrTokenRevoked
	}
	return ErrTokenNotFound
}

func (r *refreshTokens) Rotate(ctx context.Context, token string) (*RefreshToken, error) {
	var successor *RefreshToken
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := r.resolve(ctx, tx, token)
		if err != nil {
			return err
		}

		// Compare-and-swap on the revoked flag decides the winner between
		// concurrent rotations of the same token.
		res, err := tx.NewUpdate().
			Model((*RefreshToken)(nil)).
			Set("revoked = ?", true).
			Where("id = ?", record.ID).
			Where("revoked = ?", false).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to consume refresh token")
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read rotation result")
		}
		if rows == 0 {
			return ErrTokenRevoked
		}

		identity := r.subjectIdentity(record)
		next, expiresAt, err := r.tokens.Mint(TokenTypeRefresh, identity)
		if err != nil {
			return err
		}

		predecessorID := record.ID
		successor = &RefreshToken{
			ID:            recordIDForToken(next),
			Token:         next,
			UserID:        record.UserID,
			RotatedFromID: &predecessorID,
			ExpiresAt:     expiresAt,
		}

		if _, err := tx.NewInsert().Model(successor).Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to persist rotated refresh token")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

func (r *refreshTokens) RevokeAllForSubject(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = r.db
	}

	res, err := tx.NewUpdate().
		Model((*RefreshToken)(nil)).
		Set("revoked = ?", true).
		Where("user_id = ?", userID).
		Where("revoked = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to revoke subject tokens")
	}

	return res.RowsAffected()
}

func (r *refreshTokens) ActiveForSubject(ctx context.Context, userID uuid.UUID) ([]*RefreshToken, error) {
	var records []*RefreshToken
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.revoked = ?", false).
		Where("?TableAlias.expires_at > ?", r.now()).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list subject tokens")
	}
	return records, nil
}

// subjectIdentity builds the minimal identity rotation needs to mint a
// successor when the full user row is or is not loaded alongside the record.
func (r *refreshTokens) subjectIdentity(record *RefreshToken) Identity {
	if record.User != nil {
		return NewIdentityFromUser(record.User)
	}
	return subjectRef{id: record.UserID.String()}
}

type subjectRef struct {
	id string
}

func (s subjectRef) ID() string                { return s.id }
func (s subjectRef) Username() string          { return "" }
func (s subjectRef) Email() string             { return "" }
func (s subjectRef) Verified() bool            { return false }
func (s subjectRef) HasPermission(string) bool { return false }
