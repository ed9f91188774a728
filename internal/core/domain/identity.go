package domain

// Identity is what a verified access token proves about its bearer.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}
