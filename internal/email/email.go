package email

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// TemplateKind selects which message body a send uses.
type TemplateKind string

const (
	TemplateThankYou TemplateKind = "thank_you"
	TemplateFollowUp TemplateKind = "follow_up"
	TemplateAlert    TemplateKind = "alert"
)

// Params carries the values a template may reference. Unused fields are
// ignored by templates that do not need them.
type Params struct {
	CustomerName string
	BusinessName string
	FeedbackLink string
	Subject      string
	Body         string
}

// Deliverer sends one message per call. Failures are classified: a
// transient error is retry-eligible on a later run, a permanent one is
// not. Every returned error is one or the other.
type Deliverer interface {
	Send(ctx context.Context, recipient string, kind TemplateKind, params Params) error
}

var addressValidator = validator.New()

// ValidAddress reports whether recipient is a plausible email address.
// Records failing this never reach a send attempt.
func ValidAddress(recipient string) bool {
	if recipient == "" {
		return false
	}
	return addressValidator.Var(recipient, "email") == nil
}
