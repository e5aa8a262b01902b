package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // never serialize
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile is a row in the profiles table; its ID equals the user ID.
type Profile struct {
	ID          string    `json:"id"`
	FullName    *string   `json:"full_name"`
	PhoneNumber *string   `json:"phone_number"`
	City        *string   `json:"city"`
	UserType    *string   `json:"user_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Account is a user joined with its profile, as shown on the account page.
type Account struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	Phone       *string   `json:"phone"`
	City        *string   `json:"city"`
	UserType    *string   `json:"user_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAccount merges u and p. p may be nil when the profile row is missing.
func NewAccount(u *User, p *Profile) *Account {
	a := &Account{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if p != nil {
		a.DisplayName = p.FullName
		a.Phone = p.PhoneNumber
		a.City = p.City
		a.UserType = p.UserType
	}
	return a
}

// SignUpRequest is the JSON body for POST /api/auth/signup.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone_number,omitempty"`
}

// SignInRequest is the JSON body for POST /api/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResponse is returned by sign-up. Session is empty when the account
// still needs email confirmation.
type SignUpResponse struct {
	User              *User  `json:"user"`
	NeedsConfirmation bool   `json:"needs_confirmation"`
	AccessToken       string `json:"access_token,omitempty"`
}

// SessionResponse is returned by sign-in and by the current-session lookup.
type SessionResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token,omitempty"`
}
