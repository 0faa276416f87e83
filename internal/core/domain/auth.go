// Package domain defines the core domain models for the account portal.
package domain

// Default field limits used until a registration challenge supplies real ones.
const (
	DefaultMaxEmailLength    = 20
	DefaultMaxUsernameLength = 16
	DefaultMaxPasswordLength = 128
)

// LoginChallenge carries the CAPTCHA id for a single login attempt.
type LoginChallenge struct {
	ErrorMessage string `json:"error_message,omitempty"`
	CaptchaID    string `json:"captcha_id,omitempty"`
}

// LoginRequest is submitted to log in.
type LoginRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	CaptchaID       string `json:"captcha_id,omitempty"`
	CaptchaSolution string `json:"captcha_solution,omitempty"`
}

// LoginResponse returns the web token on success.
type LoginResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
	WebToken     string `json:"web_token,omitempty"`
}

// RegistrationChallenge carries the CAPTCHA id and field limits for a
// single registration attempt.
type RegistrationChallenge struct {
	ErrorMessage      string `json:"error_message,omitempty"`
	EmailRequired     bool   `json:"email_required,omitempty"`
	MaxEmailLength    int    `json:"max_email_length,omitempty"`
	MaxUsernameLength int    `json:"max_username_length,omitempty"`
	MaxPasswordLength int    `json:"max_password_length,omitempty"`
	CaptchaID         string `json:"captcha_id,omitempty"`
}

// Limits returns the challenge limits with defaults applied for missing values.
func (c *RegistrationChallenge) Limits() (email, username, password int) {
	email, username, password = DefaultMaxEmailLength, DefaultMaxUsernameLength, DefaultMaxPasswordLength
	if c == nil {
		return
	}
	if c.MaxEmailLength > 0 {
		email = c.MaxEmailLength
	}
	if c.MaxUsernameLength > 0 {
		username = c.MaxUsernameLength
	}
	if c.MaxPasswordLength > 0 {
		password = c.MaxPasswordLength
	}
	return
}

// RegistrationRequest is submitted to create an account.
type RegistrationRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	CaptchaID       string `json:"captcha_id,omitempty"`
	CaptchaSolution string `json:"captcha_solution,omitempty"`
}

// RegistrationResponse is returned by a registration attempt.
type RegistrationResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
	WebToken     string `json:"web_token,omitempty"`
}

// LogoutResponse is returned by a logout request.
type LogoutResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
}
