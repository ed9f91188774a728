package domain

// ErrorKind classifies a failure so callers can branch without parsing messages.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindAuthentication ErrorKind = "authentication"
	KindNotFound       ErrorKind = "not_found"
	KindInternal       ErrorKind = "internal"
)

// Error is a domain failure carrying a client-safe message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmailTaken          = &Error{Kind: KindConflict, Message: "Email already registered"}
	ErrAlreadyVendor       = &Error{Kind: KindConflict, Message: "User is already a vendor"}
	ErrVendorExists        = &Error{Kind: KindConflict, Message: "Vendor information already exists for this user"}
	ErrInvalidCredentials  = &Error{Kind: KindAuthentication, Message: "Invalid credentials"}
	ErrInvalidRefreshToken = &Error{Kind: KindAuthentication, Message: "Invalid refresh token"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrVendorNotFound      = &Error{Kind: KindNotFound, Message: "Vendor not found"}
)

// NewValidationError builds a validation failure with a custom message.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
