package auth

import (
	"github.com/google/uuid"

	"github.com/goliatone/hashid/pkg/hashid"
)

func newTokenID() string {
	return uuid.New().String()
}

// recordIDForToken derives a deterministic record ID from the raw token
// string, so re-inserting the same token can never create a second row.
func recordIDForToken(token string) uuid.UUID {
	if id, err := hashid.NewUUID(token); err == nil {
		return id
	}
	return uuid.New()
}

// SubjectUUID parses the subject reference carried by token claims.
func SubjectUUID(claims AuthClaims) (uuid.UUID, error) {
	if claims == nil {
		return uuid.Nil, ErrIdentityNotFound
	}
	return uuid.Parse(claims.UserID())
}
