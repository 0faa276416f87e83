// Package domain defines the core domain models for the account portal.
package domain

// AccountTier is the authorization tier of a primary account.
type AccountTier string

// Known account tiers.
const (
	TierNormal     AccountTier = "NORMAL"
	TierPrivileged AccountTier = "PRIVILEGED"
	TierGameMaster AccountTier = "GAME_MASTER"
	TierModerator  AccountTier = "MODERATOR"
	TierAdmin      AccountTier = "ADMIN"
)

var tierNames = map[AccountTier]string{
	TierNormal:     "normal",
	TierPrivileged: "privileged",
	TierGameMaster: "game master",
	TierModerator:  "moderator",
	TierAdmin:      "administrator",
}

// DisplayName returns a human readable tier name.
// Unknown tiers are returned unchanged.
func (t AccountTier) DisplayName() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return string(t)
}

// AccountStatus describes the primary account and its game accounts.
type AccountStatus struct {
	ErrorMessage string              `json:"error_message,omitempty"`
	Username     string              `json:"username,omitempty"`
	AccountID    string              `json:"account_id,omitempty"`
	Email        string              `json:"email,omitempty"`
	AccountTier  AccountTier         `json:"account_tier,omitempty"`
	CreationDate string              `json:"creation_date,omitempty"` // Unix seconds
	GameAccounts []GameAccountStatus `json:"game_accounts,omitempty"`
}

// Title returns the "username#id" label of the account.
func (a *AccountStatus) Title() string {
	return a.Username + "#" + a.AccountID
}

// ActiveGameAccount returns the active game account, if any.
func (a *AccountStatus) ActiveGameAccount() (GameAccountStatus, bool) {
	for _, ga := range a.GameAccounts {
		if ga.Active {
			return ga, true
		}
	}
	return GameAccountStatus{}, false
}

// GameAccountStatus describes a single game account.
type GameAccountStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Label returns the "name#id" label of the game account.
func (g GameAccountStatus) Label() string {
	return g.Name + "#" + g.ID
}

// NewGameAccountRequest creates a game account.
type NewGameAccountRequest struct {
	Name string `json:"name"`
}

// NewGameAccountResponse is returned after creating a game account.
type NewGameAccountResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
	ID           string `json:"id,omitempty"`
}

// RenameGameAccountRequest renames a game account.
type RenameGameAccountRequest struct {
	Name string `json:"name"`
}

// GameAccountResponse is returned by activate, rename and delete.
type GameAccountResponse struct {
	ErrorMessage string `json:"error_message,omitempty"`
}
