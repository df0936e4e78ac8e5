package domain

// UserInfo is the identity snapshot the backend returns at login time and
// the gateway caches for shell rendering before session hydration.
type UserInfo struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	IsActive    bool     `json:"isActive"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// DisplayName returns the user's full name, falling back to the email when
// no name fields are set.
func (u *UserInfo) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}
