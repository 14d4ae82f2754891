package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderThankYou(t *testing.T) {
	subject, htmlBody, plainBody, err := Render(TemplateThankYou, Params{
		CustomerName: "Dana",
		BusinessName: "Polished Nail Studio",
	})
	require.NoError(t, err)

	assert.Equal(t, thankYouSubject, subject)
	assert.Contains(t, htmlBody, "Dear Dana,")
	assert.Contains(t, htmlBody, "Polished Nail Studio")
	assert.Contains(t, plainBody, "Dear Dana,")
	assert.NotContains(t, plainBody, "<html>")
}

func TestRenderFollowUpEmbedsFeedbackLink(t *testing.T) {
	link := "https://example.test/feedback?token=abc"
	_, htmlBody, plainBody, err := Render(TemplateFollowUp, Params{
		CustomerName: "Dana",
		BusinessName: "Polished Nail Studio",
		FeedbackLink: link,
	})
	require.NoError(t, err)

	assert.Contains(t, htmlBody, `href="`+link+`"`)
	assert.Contains(t, plainBody, link)
}

func TestRenderDefaultsCustomerName(t *testing.T) {
	_, htmlBody, _, err := Render(TemplateThankYou, Params{BusinessName: "Polished Nail Studio"})
	require.NoError(t, err)
	assert.Contains(t, htmlBody, "Dear Valued Customer,")
}

func TestRenderAlertUsesCallerSubject(t *testing.T) {
	subject, htmlBody, plainBody, err := Render(TemplateAlert, Params{
		Subject: "[CRITICAL] same_day notification run",
		Body:    "Attempted: 0\nOutcome: aborted",
	})
	require.NoError(t, err)

	assert.Equal(t, "[CRITICAL] same_day notification run", subject)
	assert.Contains(t, htmlBody, "aborted")
	assert.Equal(t, "Attempted: 0\nOutcome: aborted", plainBody)
}

func TestRenderUnknownKind(t *testing.T) {
	_, _, _, err := Render(TemplateKind("newsletter"), Params{})
	assert.Error(t, err)
}

func TestRenderHTMLEscapesCustomerName(t *testing.T) {
	_, htmlBody, _, err := Render(TemplateThankYou, Params{
		CustomerName: "<script>alert(1)</script>",
		BusinessName: "Polished Nail Studio",
	})
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "<script>")
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("dana@example.com"))
	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("not-an-address"))
	assert.False(t, ValidAddress("missing@domain@example.com"))
}
