// Package businessflow contains the core business logic and use cases for campaign delivery workflows
package businessflow

import (
	"errors"
	"fmt"
)

// ErrorKind tags a BusinessError so callers can branch on the failure class
// without string-matching messages.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindProvider   ErrorKind = "provider"
	KindIngestion  ErrorKind = "ingestion"
	KindInternal   ErrorKind = "internal"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrCampaignHasNoSteps      = errors.New("campaign has no steps")
	ErrNoRecipients            = errors.New("recipient list is empty")
	ErrRecipientEmailRequired  = errors.New("recipient email is required")
	ErrCampaignUUIDRequired    = errors.New("campaign UUID is required")
	ErrInvalidSplitPercentage  = errors.New("split percentage must be between 0 and 100")
	ErrCampaignNotSchedulable  = errors.New("campaign status does not allow scheduling")
	ErrCampaignAlreadyReleased = errors.New("campaign already has sends; clear them before re-scheduling")

	// Send/dispatch errors
	ErrSendNotFound            = errors.New("send not found")
	ErrSendUUIDRequired        = errors.New("send UUID is required")
	ErrTemplateNotResolvable   = errors.New("no template resolvable for send")
	ErrTemplateNotFound        = errors.New("template not found")
	ErrDispatchClaimLost       = errors.New("send is already being dispatched")
	ErrUnknownProvider         = errors.New("unknown email provider")
	ErrProviderSendFailed      = errors.New("provider send failed")
	ErrProviderNotConfigured   = errors.New("provider credentials are not configured")
	ErrDispatchLockUnavailable = errors.New("dispatch lock unavailable")

	// Ingestion errors
	ErrEventUnresolvable    = errors.New("event does not resolve to any send")
	ErrUnknownEventType     = errors.New("unknown event type")
	ErrEmptyWebhookBatch    = errors.New("webhook batch is empty")
	ErrIngestionCommit      = errors.New("ingestion batch commit failed")
	ErrUnsupportedProvider  = errors.New("unsupported webhook provider")
	ErrWebhookSecretInvalid = errors.New("webhook secret is invalid")
)

type BusinessError struct {
	Code    string
	Message string
	Kind    ErrorKind
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, kind ErrorKind, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Kind:    kind,
		Err:     err,
	}
}

func NewValidationError(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, KindValidation, err)
}

func NewNotFoundError(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, KindNotFound, err)
}

func NewProviderError(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, KindProvider, err)
}

func NewIngestionError(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, KindIngestion, err)
}

// ErrorKindOf extracts the kind from a BusinessError chain, KindInternal for
// anything else.
func ErrorKindOf(err error) ErrorKind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignHasNoSteps(err error) bool {
	return errors.Is(err, ErrCampaignHasNoSteps)
}

func IsNoRecipients(err error) bool {
	return errors.Is(err, ErrNoRecipients)
}

func IsSendNotFound(err error) bool {
	return errors.Is(err, ErrSendNotFound)
}

func IsTemplateNotResolvable(err error) bool {
	return errors.Is(err, ErrTemplateNotResolvable)
}

func IsDispatchClaimLost(err error) bool {
	return errors.Is(err, ErrDispatchClaimLost)
}

func IsUnknownProvider(err error) bool {
	return errors.Is(err, ErrUnknownProvider)
}

func IsEventUnresolvable(err error) bool {
	return errors.Is(err, ErrEventUnresolvable)
}

func IsIngestionCommit(err error) bool {
	return errors.Is(err, ErrIngestionCommit)
}
