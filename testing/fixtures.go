// Package testing provides test utilities and database setup for testing the delivery engine
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestTemplate creates a template with placeholder-rich content
func (tf *TestFixtures) CreateTestTemplate(name string) (*models.EmailTemplate, error) {
	template := &models.EmailTemplate{
		Name:        name,
		Subject:     "Hi {{contact.first_name}}, news from {{campaign.name}}",
		HTMLContent: "<p>Hello {{contact.display_name}} at {{organisation.name}}.</p><p><a href=\"{{system.unsubscribe_url}}\">Unsubscribe</a></p>",
	}

	if err := tf.DB.DB.Create(template).Error; err != nil {
		return nil, fmt.Errorf("failed to create test template: %w", err)
	}

	return template, nil
}

// CreateTestCampaign creates a campaign with a default template and a single
// step with no delay and no variant restriction
func (tf *TestFixtures) CreateTestCampaign(provider models.CampaignProvider) (*models.Campaign, error) {
	template, err := tf.CreateTestTemplate(fmt.Sprintf("template-%d", rand.Intn(1000000)))
	if err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		UUID:              uuid.New(),
		Name:              fmt.Sprintf("Test Campaign %d", rand.Intn(1000000)),
		Provider:          provider,
		FromEmail:         "news@example.com",
		FromName:          "Example News",
		ScheduleType:      models.ScheduleTypeManual,
		ABSplitPercentage: 50,
		TrackOpens:        true,
		TrackClicks:       true,
		DefaultTemplateID: &template.ID,
		Status:            models.CampaignStatusDraft,
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	step := &models.CampaignStep{
		CampaignID: campaign.ID,
		StepOrder:  0,
		DelayHours: 0,
	}
	if err := tf.DB.DB.Create(step).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign step: %w", err)
	}
	campaign.Steps = []models.CampaignStep{*step}

	return campaign, nil
}

// CreateTestABCampaign creates an A/B campaign with a shared first step and a
// variant-B-only follow-up step delayed by the given hours
func (tf *TestFixtures) CreateTestABCampaign(splitPercentage, followUpDelayHours int) (*models.Campaign, error) {
	campaign, err := tf.CreateTestCampaign(models.CampaignProviderSendGrid)
	if err != nil {
		return nil, err
	}

	campaign.IsABTest = true
	campaign.ABSplitPercentage = splitPercentage
	if err := tf.DB.DB.Model(campaign).Updates(map[string]interface{}{
		"is_ab_test":          true,
		"ab_split_percentage": splitPercentage,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark campaign as A/B test: %w", err)
	}

	variantB := models.VariantB
	followUp := &models.CampaignStep{
		CampaignID: campaign.ID,
		StepOrder:  1,
		Variant:    &variantB,
		DelayHours: followUpDelayHours,
	}
	if err := tf.DB.DB.Create(followUp).Error; err != nil {
		return nil, fmt.Errorf("failed to create follow-up step: %w", err)
	}
	campaign.Steps = append(campaign.Steps, *followUp)

	return campaign, nil
}

// CreateTestOrganisation creates an organisation record
func (tf *TestFixtures) CreateTestOrganisation(name string) (*models.Organisation, error) {
	org := &models.Organisation{
		Name:   name,
		Domain: utils.ToPtr(fmt.Sprintf("%d.example.com", rand.Intn(1000000))),
	}
	if err := tf.DB.DB.Create(org).Error; err != nil {
		return nil, fmt.Errorf("failed to create test organisation: %w", err)
	}
	return org, nil
}

// CreateTestContact creates a contact optionally linked to an organisation
func (tf *TestFixtures) CreateTestContact(organisationID *uint) (*models.Contact, error) {
	n := rand.Intn(1000000)
	contact := &models.Contact{
		Email:          fmt.Sprintf("jane.doe.%d@example.com", n),
		FirstName:      utils.ToPtr("Jane"),
		LastName:       utils.ToPtr("Doe"),
		DisplayName:    "Jane Doe",
		OrganisationID: organisationID,
		CustomData:     models.JSONMap{},
	}
	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}
	return contact, nil
}

// CreateTestSend creates a send in the given status for a campaign's first step
func (tf *TestFixtures) CreateTestSend(campaign *models.Campaign, email string, status models.SendStatus) (*models.CampaignSend, error) {
	if len(campaign.Steps) == 0 {
		return nil, fmt.Errorf("campaign %d has no steps", campaign.ID)
	}

	send := &models.CampaignSend{
		UUID:           uuid.New(),
		CampaignID:     campaign.ID,
		StepID:         campaign.Steps[0].ID,
		RecipientEmail: email,
		RecipientName:  "Jane Doe",
		Status:         status,
		ScheduledAt:    utils.UTCNow(),
		Metadata: models.JSONMap{
			"contact": map[string]any{
				"email":        email,
				"display_name": "Jane Doe",
			},
		},
	}
	if err := tf.DB.DB.Create(send).Error; err != nil {
		return nil, fmt.Errorf("failed to create test send: %w", err)
	}
	return send, nil
}

// CreateTestEvent creates an event attached to a send
func (tf *TestFixtures) CreateTestEvent(sendID uint, eventType models.EventType, occurredAt time.Time) (*models.EmailEvent, error) {
	event := &models.EmailEvent{
		SendID:          sendID,
		Type:            eventType,
		OccurredAt:      occurredAt,
		ProviderEventID: utils.ToPtr(fmt.Sprintf("evt-%d", rand.Intn(100000000))),
	}
	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test event: %w", err)
	}
	return event, nil
}
