package models

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the login response body.
type AuthResponse struct {
	SuccessMessage  string     `json:"successMessage"`
	StatusCode      int        `json:"status_code"`
	Access          string     `json:"access"`
	Refresh         string     `json:"refresh"`
	UserShortDetail UserDetail `json:"user_short_detail"`
}
