// Package domain defines the core domain models for the account portal.
package domain

import (
	"strings"
)

// CredentialKey is the fixed storage key holding the persisted credential.
const CredentialKey = "credential"

// Credential is the persisted username and token pair.
//
// It is created on successful login, read on every outgoing request and
// deleted on logout or when the server reports the token logged out.
type Credential struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// CredentialStatus is the server's answer to a credential check.
//
// Newer servers report Status; older ones only report CredentialIsValid.
type CredentialStatus struct {
	ErrorMessage      string `json:"error_message,omitempty"`
	Status            string `json:"status,omitempty"`
	CredentialIsValid *bool  `json:"credential_is_valid,omitempty"`
}

// CredentialCondition is the normalised outcome of a credential check.
type CredentialCondition int

const (
	// CredentialUnknown covers every other non-authenticated status, e.g. a
	// pending second factor. The credential is kept.
	CredentialUnknown CredentialCondition = iota
	// CredentialAuthenticated means the token is valid.
	CredentialAuthenticated
	// CredentialLoggedOut means the token is no longer valid and must be dropped.
	CredentialLoggedOut
)

// Condition normalises Status, falling back to CredentialIsValid.
func (s *CredentialStatus) Condition() CredentialCondition {
	if s.Status != "" {
		switch normaliseStatus(s.Status) {
		case "authenticated":
			return CredentialAuthenticated
		case "logged out":
			return CredentialLoggedOut
		default:
			return CredentialUnknown
		}
	}

	if s.CredentialIsValid != nil {
		if *s.CredentialIsValid {
			return CredentialAuthenticated
		}
		return CredentialLoggedOut
	}

	return CredentialUnknown
}

func normaliseStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	status = strings.NewReplacer("_", " ", "-", " ").Replace(status)
	return strings.Join(strings.Fields(status), " ")
}
