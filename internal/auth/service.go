package auth

import (
	"context"
	"fmt"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// CreateUser registers a new account: validates the email format,
// normalises the email, hashes the password and stores the user.
// A duplicate email (case-insensitive) fails with ErrEmailExists.
func CreateUser(ctx context.Context, repo UserRepository, email, password, fullName string) (*User, error) {
	email = NormalizeEmail(email)
	if !IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// VerifyCredentials checks an email/password pair and returns the user
// on success.
//
// Unknown email, wrong password and inactive account all fail with the
// identical ErrInvalidCredentials so a caller cannot probe which
// emails are registered.
func VerifyCredentials(ctx context.Context, repo UserRepository, email, password string) (*User, error) {
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		// Burn a hash to keep unknown-email timing close to the
		// wrong-password path.
		_, _ = VerifyPassword(password, dummyHash) //nolint:errcheck // result intentionally discarded
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// dummyHash is a well-formed argon2id PHC string that matches no
// password, used to equalise timing when the email is unknown.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$ml2DC3Cn3bS/sqg3RPf4Xyk6OU9DBlO/bz3dBnqhE9M"
