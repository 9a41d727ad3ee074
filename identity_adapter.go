package auth

// UserIdentity adapts a stored User record to the Identity interface the
// directives and token service consume.
type UserIdentity struct {
	user *User
}

func NewIdentityFromUser(user *User) *UserIdentity {
	if user == nil {
		return nil
	}
	return &UserIdentity{user: user}
}

func (u *UserIdentity) ID() string {
	return u.user.ID.String()
}

func (u *UserIdentity) Username() string {
	return u.user.Username
}

func (u *UserIdentity) Email() string {
	return u.user.Email
}

func (u *UserIdentity) Verified() bool {
	return u.user.IsVerified
}

func (u *UserIdentity) HasPermission(permission string) bool {
	return u.user.HasPermission(permission)
}

// User exposes the underlying record for handlers that need the full row,
// e.g. to read the secondary email during a swap.
func (u *UserIdentity) User() *User {
	return u.user
}
