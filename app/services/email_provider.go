// Package services provides external service integrations and technical concerns like email transport and tokens
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
)

// ProviderErrorKind distinguishes configuration failures from transport
// failures so the dispatcher can record a meaningful error message.
type ProviderErrorKind string

const (
	ProviderErrorConfig    ProviderErrorKind = "config"
	ProviderErrorTransport ProviderErrorKind = "transport"
)

// ProviderError is the error type every adapter returns
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderConfigError reports missing or invalid adapter credentials
func NewProviderConfigError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderErrorConfig, Message: message}
}

// NewProviderTransportError reports a network or non-2xx failure
func NewProviderTransportError(provider, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ProviderErrorTransport, Message: message, Err: err}
}

// OutboundMessage is the provider-agnostic message handed to adapters
type OutboundMessage struct {
	FromEmail   string
	FromName    string
	ToEmail     string
	ToName      string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	TrackOpens  bool
	TrackClicks bool
	// CustomArgs are echoed back by the provider in webhook events and
	// carry campaign_id and send_id for event resolution.
	CustomArgs map[string]string
}

// EmailProvider is the adapter port: one implementation per email provider.
// Implementations must return *ProviderError for all failures.
type EmailProvider interface {
	Name() string
	Send(ctx context.Context, msg OutboundMessage) (providerMessageID string, err error)
}

// ProviderRegistry maps a campaign's provider selection to its adapter
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[models.CampaignProvider]EmailProvider
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[models.CampaignProvider]EmailProvider),
	}
}

// Register binds an adapter to a provider selection
func (r *ProviderRegistry) Register(provider models.CampaignProvider, adapter EmailProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider] = adapter
}

// Resolve returns the adapter for a provider selection
func (r *ProviderRegistry) Resolve(provider models.CampaignProvider) (EmailProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.providers[provider]
	if !ok {
		return nil, NewProviderConfigError(provider.String(), "no adapter registered for provider")
	}
	return adapter, nil
}

// MockEmailProvider implements EmailProvider for testing
type MockEmailProvider struct {
	ProviderName string
	SentMessages []MockSentMessage
	// NextMessageID is returned by the next Send; empty means a generated one
	NextMessageID string
	// FailWith makes every Send return this error without recording the message
	FailWith error
}

// MockSentMessage represents a message captured by the mock
type MockSentMessage struct {
	Message OutboundMessage
	SentAt  string
}

// NewMockEmailProvider creates a new mock email provider
func NewMockEmailProvider(name string) *MockEmailProvider {
	return &MockEmailProvider{
		ProviderName: name,
		SentMessages: make([]MockSentMessage, 0),
	}
}

// Name returns the mock provider name
func (m *MockEmailProvider) Name() string {
	return m.ProviderName
}

// Send records the message and returns a message ID
func (m *MockEmailProvider) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}

	m.SentMessages = append(m.SentMessages, MockSentMessage{
		Message: msg,
		SentAt:  utils.UTCNow().Format("2006-01-02T15:04:05Z07:00"),
	})

	if m.NextMessageID != "" {
		return m.NextMessageID, nil
	}
	return fmt.Sprintf("mock-%d", len(m.SentMessages)), nil
}

// ClearSentMessages clears the captured messages
func (m *MockEmailProvider) ClearSentMessages() {
	m.SentMessages = make([]MockSentMessage, 0)
}
