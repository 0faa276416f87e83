// Package validate checks registration and login input before anything is
// sent to the server, using the limits of the current challenge.
package validate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// Limits are the field constraints of a registration challenge.
type Limits struct {
	EmailRequired     bool
	MaxEmailLength    int
	MaxUsernameLength int
	MaxPasswordLength int
}

// LimitsFrom extracts limits from a challenge, applying defaults for
// missing values. A nil challenge yields the defaults.
func LimitsFrom(c *domain.RegistrationChallenge) Limits {
	email, username, password := c.Limits()
	l := Limits{
		MaxEmailLength:    email,
		MaxUsernameLength: username,
		MaxPasswordLength: password,
	}
	if c != nil {
		l.EmailRequired = c.EmailRequired
	}
	return l
}

// Validator wraps go-playground/validator with portal field messages.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Email returns a message describing what is wrong with email, or "".
// An empty email is accepted unless the challenge requires one.
func (v *Validator) Email(email string, l Limits) string {
	if email == "" {
		if l.EmailRequired {
			return "email is required"
		}
		return ""
	}
	return v.check("email", email,
		rule{"max=" + strconv.Itoa(l.MaxEmailLength), fmt.Sprintf("email exceeds maximum length: %d", l.MaxEmailLength)},
		rule{"email", "not a valid email address"},
	)
}

// AccountName returns a message describing what is wrong with name, or "".
func (v *Validator) AccountName(name string, l Limits) string {
	return v.check("account name", name,
		rule{"required", "account name is required"},
		rule{"max=" + strconv.Itoa(l.MaxUsernameLength), fmt.Sprintf("account name exceeds maximum length: %d", l.MaxUsernameLength)},
		rule{"alphanum", "account name cannot have any whitespace or non-alphanumeric characters"},
	)
}

// Password returns a message describing what is wrong with password, or "".
func (v *Validator) Password(password string, l Limits) string {
	return v.check("password", password,
		rule{"required", "password is required"},
		rule{"max=" + strconv.Itoa(l.MaxPasswordLength), fmt.Sprintf("password exceeds maximum length: %d", l.MaxPasswordLength)},
	)
}

// Registration checks every field in form order and returns the first
// failure as a validation error.
func (v *Validator) Registration(req domain.RegistrationRequest, l Limits) error {
	for _, msg := range []string{
		v.Email(req.Email, l),
		v.AccountName(req.Username, l),
		v.Password(req.Password, l),
	} {
		if msg != "" {
			return domain.ValidationError(msg)
		}
	}
	return nil
}

// Login checks that both login fields are filled in.
func (v *Validator) Login(req domain.LoginRequest) error {
	if msg := v.check("account name", req.Username, rule{"required", "account name is required"}); msg != "" {
		return domain.ValidationError(msg)
	}
	if msg := v.check("password", req.Password, rule{"required", "password is required"}); msg != "" {
		return domain.ValidationError(msg)
	}
	return nil
}

// rule pairs a validator tag with the message shown when it fails.
type rule struct {
	tag     string
	message string
}

// check applies rules in order and returns the message of the first one
// that fails.
func (v *Validator) check(field, value string, rules ...rule) string {
	for _, r := range rules {
		err := v.v.Var(value, r.tag)
		if err == nil {
			continue
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return r.message
		}
		return fmt.Sprintf("%s failed validation (%s)", field, r.tag)
	}
	return ""
}
