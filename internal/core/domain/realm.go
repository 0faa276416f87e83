// Package domain defines the core domain models for the account portal.
package domain

// RealmStatusList is the list of realms reported by the server.
type RealmStatusList struct {
	ErrorMessage string        `json:"error_message,omitempty"`
	Realms       []RealmStatus `json:"realms,omitempty"`
}

// RealmStatus describes one realm.
type RealmStatus struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Online      bool   `json:"online"`
	Build       string `json:"build"`
	Expansion   int    `json:"expansion"`
	Description string `json:"description,omitempty"`
}

// Label returns the "name#id" label of the realm.
func (r RealmStatus) Label() string {
	return r.Name + "#" + r.ID
}

// ServiceAddresses maps service names (e.g. "grunt") to host:port addresses.
type ServiceAddresses struct {
	ErrorMessage string            `json:"error_message,omitempty"`
	Addresses    map[string]string `json:"addresses,omitempty"`
}

// VersionInfo is the server's version and brand information.
type VersionInfo struct {
	ErrorMessage string `json:"error_message,omitempty"`
	CoreVersion  string `json:"core_version"`
	Brand        string `json:"brand"`
	ProjectURL   string `json:"project_url"`
}
