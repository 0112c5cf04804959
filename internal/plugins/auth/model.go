// Package auth handles operator sign-in and session management for the
// console. There is a single configured operator account (OPERATOR_EMAIL /
// OPERATOR_PASSWORD_HASH); passwords are verified with argon2id and
// sessions live in Redis under an opaque cookie token.
//
// This is a CORE plugin -- every other page sits behind RequireAuth.
package auth

import "time"

// Operator is an account allowed to use the console.
type Operator struct {
	Email        string
	Name         string
	PasswordHash string
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// LoginInput is the validated input for authenticating an operator.
type LoginInput struct {
	Email    string
	Password string
}

// Session represents an authenticated operator session stored in Redis.
// The cookie token is the key; ID is a separate stable identifier that is
// safe to use as an owner key elsewhere (flash notices, wizard drafts).
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
