package integration

import "time"

// CredentialType identifies the authentication scheme of a credential
type CredentialType string

const (
	// CredentialTypeAPIKey is a static API key credential
	CredentialTypeAPIKey CredentialType = "api_key"
	// CredentialTypeOAuth is an OAuth access token credential
	CredentialTypeOAuth CredentialType = "oauth"
	// CredentialTypeBasic is a username/password credential
	CredentialTypeBasic CredentialType = "basic"
)

// IsValid returns true if the credential type is valid
func (t CredentialType) IsValid() bool {
	switch t {
	case CredentialTypeAPIKey, CredentialTypeOAuth, CredentialTypeBasic:
		return true
	default:
		return false
	}
}

// String returns the string representation of CredentialType
func (t CredentialType) String() string {
	return string(t)
}

// DefaultRefreshLead is how long before expiry a credential is
// considered due for refresh.
const DefaultRefreshLead = 7 * 24 * time.Hour

// Credential is a value object describing how an integration authenticates.
// The secret itself lives in an external vault; only an opaque reference
// is held here.
type Credential struct {
	Type      CredentialType `json:"type"`
	SecretRef string         `json:"secret_ref"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// IsExpired returns true if the credential has passed its expiry
func (c Credential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// NeedsRefresh returns true if the credential expires within the lead window
func (c Credential) NeedsRefresh(now time.Time, lead time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return now.Add(lead).After(*c.ExpiresAt)
}
