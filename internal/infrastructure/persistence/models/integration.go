package models

import (
	"encoding/json"
	"time"

	"github.com/flowcreate/backend/internal/domain/integration"
)

// IntegrationModel is the persistence model for the Integration aggregate.
// Tags and the connector configuration are stored as JSON columns since
// they are only ever read and written as part of the whole aggregate.
type IntegrationModel struct {
	OwnedAggregateModel
	Name                  string                      `gorm:"type:varchar(100);not null;index"`
	Description           string                      `gorm:"type:text"`
	TagsJSON              string                      `gorm:"type:jsonb;column:tags"`
	ConfigJSON            string                      `gorm:"type:jsonb;column:config"`
	Type                  integration.IntegrationType `gorm:"type:varchar(20);not null;index"`
	Status                integration.Status          `gorm:"type:varchar(20);not null;index"`
	TotalRequests         int64                       `gorm:"not null;default:0"`
	SuccessfulRequests    int64                       `gorm:"not null;default:0"`
	AverageResponseTimeMs float64                     `gorm:"not null;default:0"`
	LastExecutedAt        *time.Time                  `gorm:"index"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration aggregate
func (m *IntegrationModel) ToDomain() *integration.Integration {
	i := &integration.Integration{
		Name:        m.Name,
		Description: m.Description,
		Tags:        []string{},
		Status:      m.Status,
		Metrics: integration.Metrics{
			TotalRequests:         m.TotalRequests,
			SuccessfulRequests:    m.SuccessfulRequests,
			AverageResponseTimeMs: m.AverageResponseTimeMs,
			LastExecutedAt:        m.LastExecutedAt,
		},
	}
	m.PopulateOwnedAggregateRoot(&i.OwnedAggregateRoot)

	if m.TagsJSON != "" {
		var tags []string
		if err := json.Unmarshal([]byte(m.TagsJSON), &tags); err == nil {
			i.Tags = tags
		}
	}
	if m.ConfigJSON != "" {
		var cfg integration.Config
		if err := json.Unmarshal([]byte(m.ConfigJSON), &cfg); err == nil {
			i.Config = cfg
		}
	}

	return i
}

// FromDomain populates the persistence model from a domain Integration aggregate
func (m *IntegrationModel) FromDomain(i *integration.Integration) {
	m.FromDomainOwnedAggregateRoot(i.OwnedAggregateRoot)
	m.Name = i.Name
	m.Description = i.Description
	m.Type = i.Config.Type
	m.Status = i.Status
	m.TotalRequests = i.Metrics.TotalRequests
	m.SuccessfulRequests = i.Metrics.SuccessfulRequests
	m.AverageResponseTimeMs = i.Metrics.AverageResponseTimeMs
	m.LastExecutedAt = i.Metrics.LastExecutedAt

	if len(i.Tags) > 0 {
		if data, err := json.Marshal(i.Tags); err == nil {
			m.TagsJSON = string(data)
		}
	} else {
		m.TagsJSON = "[]"
	}
	if data, err := json.Marshal(i.Config); err == nil {
		m.ConfigJSON = string(data)
	}
}

// IntegrationModelFromDomain builds a persistence model from a domain aggregate
func IntegrationModelFromDomain(i *integration.Integration) *IntegrationModel {
	m := &IntegrationModel{}
	m.FromDomain(i)
	return m
}
