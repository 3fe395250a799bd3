package integration

// Template is a preconfigured starting point for a new integration
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        IntegrationType `json:"type"`
	Category    string          `json:"category"`
	Endpoints   []Endpoint      `json:"endpoints"`
	AuthType    CredentialType  `json:"auth_type"`
	Tags        []string        `json:"tags"`
}

// builtinTemplates is the static template catalog.
// Templates are starting points only; the creating user still owns and
// edits the resulting configuration.
var builtinTemplates = []Template{
	{
		ID:          "rest-crm-sync",
		Name:        "CRM Contact Sync",
		Description: "Pull and push contacts against a REST CRM API",
		Type:        IntegrationTypeRESTAPI,
		Category:    "crm",
		Endpoints: []Endpoint{
			{Name: "contacts", URL: "https://api.example-crm.com/v1/contacts", Method: "GET"},
			{Name: "upsert", URL: "https://api.example-crm.com/v1/contacts", Method: "POST"},
		},
		AuthType: CredentialTypeAPIKey,
		Tags:     []string{"crm", "contacts"},
	},
	{
		ID:          "webhook-notify",
		Name:        "Outbound Webhook",
		Description: "Deliver event payloads to a webhook receiver",
		Type:        IntegrationTypeWebhook,
		Category:    "notifications",
		Endpoints: []Endpoint{
			{Name: "deliver", URL: "https://hooks.example.com/ingest", Method: "POST"},
		},
		AuthType: CredentialTypeAPIKey,
		Tags:     []string{"webhook", "events"},
	},
	{
		ID:          "rest-ecommerce-orders",
		Name:        "E-commerce Order Feed",
		Description: "Pull orders from an e-commerce storefront API",
		Type:        IntegrationTypeRESTAPI,
		Category:    "ecommerce",
		Endpoints: []Endpoint{
			{Name: "orders", URL: "https://shop.example.com/api/orders", Method: "GET"},
		},
		AuthType: CredentialTypeOAuth,
		Tags:     []string{"ecommerce", "orders"},
	},
	{
		ID:          "db-warehouse-export",
		Name:        "Warehouse Export",
		Description: "Push normalized records into an analytics warehouse",
		Type:        IntegrationTypeDatabase,
		Category:    "analytics",
		Endpoints: []Endpoint{
			{Name: "load", URL: "https://warehouse.example.com/load", Method: "POST"},
		},
		AuthType: CredentialTypeBasic,
		Tags:     []string{"analytics", "warehouse"},
	},
	{
		ID:          "file-feed-import",
		Name:        "File Feed Import",
		Description: "Fetch a periodically published data file",
		Type:        IntegrationTypeFileFeed,
		Category:    "import",
		Endpoints: []Endpoint{
			{Name: "fetch", URL: "https://feeds.example.com/daily.json", Method: "GET"},
		},
		AuthType: CredentialTypeBasic,
		Tags:     []string{"import", "feed"},
	},
}

// Templates returns the template catalog filtered by type and category.
// Empty filters match everything.
func Templates(typ *IntegrationType, category string) []Template {
	out := make([]Template, 0, len(builtinTemplates))
	for _, tpl := range builtinTemplates {
		if typ != nil && tpl.Type != *typ {
			continue
		}
		if category != "" && tpl.Category != category {
			continue
		}
		out = append(out, tpl)
	}
	return out
}
