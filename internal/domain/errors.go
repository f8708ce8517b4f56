package domain

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUserExists is returned when inserting a username that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a failed login. The message never
	// distinguishes an unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUpload indicates a missing or disallowed upload file.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrInvalidQuery is returned by the query console for anything that
	// is not a SELECT statement.
	ErrInvalidQuery = errors.New("only SELECT queries are allowed")
)
