package integration

// IntegrationType identifies the kind of external system an integration
// connects to
type IntegrationType string

const (
	// IntegrationTypeRESTAPI is a generic REST API connector
	IntegrationTypeRESTAPI IntegrationType = "rest_api"
	// IntegrationTypeWebhook is an outbound webhook connector
	IntegrationTypeWebhook IntegrationType = "webhook"
	// IntegrationTypeDatabase is an external database connector
	IntegrationTypeDatabase IntegrationType = "database"
	// IntegrationTypeFileFeed is a file-based import/export feed
	IntegrationTypeFileFeed IntegrationType = "file_feed"
)

// IsValid returns true if the integration type is valid
func (t IntegrationType) IsValid() bool {
	switch t {
	case IntegrationTypeRESTAPI, IntegrationTypeWebhook, IntegrationTypeDatabase, IntegrationTypeFileFeed:
		return true
	default:
		return false
	}
}

// String returns the string representation of IntegrationType
func (t IntegrationType) String() string {
	return string(t)
}

// AllIntegrationTypes returns every supported integration type
func AllIntegrationTypes() []IntegrationType {
	return []IntegrationType{
		IntegrationTypeRESTAPI,
		IntegrationTypeWebhook,
		IntegrationTypeDatabase,
		IntegrationTypeFileFeed,
	}
}

// Endpoint describes one callable endpoint of an integration.
// Order matters: the first endpoint is the default execution target.
type Endpoint struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
}

// RateLimits caps the request rate for an integration
type RateLimits struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	BurstSize         int `json:"burst_size"`
}

// Config holds the connector configuration of an Integration
type Config struct {
	Type       IntegrationType `json:"type"`
	Endpoints  []Endpoint      `json:"endpoints"`
	Auth       Credential      `json:"auth"`
	RateLimits *RateLimits     `json:"rate_limits,omitempty"`
}

// DefaultEndpoint returns the first configured endpoint
func (c Config) DefaultEndpoint() (Endpoint, bool) {
	if len(c.Endpoints) == 0 {
		return Endpoint{}, false
	}
	return c.Endpoints[0], true
}

// EndpointByName returns the named endpoint
func (c Config) EndpointByName(name string) (Endpoint, bool) {
	for _, ep := range c.Endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}
