package domain

import "errors"

const (
	RoleAdmin = "admin"
	RoleUser  = "usuario"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient role")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrTokenExpired       = errors.New("session token expired")
)

// Principal is the authenticated user carried by a session token.
type Principal struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	// ExpiresAtEpochMillis is the token expiry in Unix milliseconds.
	ExpiresAtEpochMillis int64 `json:"expiresAtEpochMillis"`
}

func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// User is a mock account. Passwords are plain text: these are demo fixtures.
type User struct {
	ID          int
	Username    string
	Password    string
	DisplayName string
	Role        string
}

var MockUsers = []User{
	{ID: 1, Username: "admin", Password: "admin123", DisplayName: "Administrador", Role: RoleAdmin},
	{ID: 2, Username: "usuario", Password: "usuario123", DisplayName: "Usuario Demo", Role: RoleUser},
}
