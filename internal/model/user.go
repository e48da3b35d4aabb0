// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the local identity anchor for one GitHub account.
//
// ProviderID is GitHub's numeric user id rendered as a decimal string. It is
// unique across the store and never changes; Username and AvatarURL are
// refreshed on every login, and ProviderAccessToken is rotated on every login.
//
// ProviderAccessToken holds the (possibly sealed) GitHub OAuth token. The `json:"-"`
// tag keeps it out of any serialised form; handlers return UserView instead.
type User struct {
	ID                  string    `json:"id"         db:"id"`
	ProviderID          string    `json:"providerId" db:"provider_id"`
	Username            string    `json:"username"   db:"username"`
	AvatarURL           string    `json:"avatarUrl"  db:"avatar_url"`
	ProviderAccessToken string    `json:"-"          db:"access_token"`
	CreatedAt           time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt"  db:"updated_at"`
}

// UserView is the client-facing projection of a User. It has no token field,
// so no code path can serialise the provider token by accident.
type UserView struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"providerId"`
	Username   string    `json:"username"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// View returns the token-free projection of u.
func (u *User) View() *UserView {
	return &UserView{
		ID:         u.ID,
		ProviderID: u.ProviderID,
		Username:   u.Username,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
