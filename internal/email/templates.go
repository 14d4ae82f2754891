package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

const (
	thankYouSubject = "Thank You for Your Visit!"
	followUpSubject = "How did your visit go? We'd love to know!"
)

var thankYouHTML = template.Must(template.New("thank_you_html").Parse(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #d946a6;">Thank You for Your Visit!</h2>
    <p>Dear {{.CustomerName}},</p>
    <p>Thank you for choosing us today! We hope you love your new look.</p>
    <p>If you have any questions or concerns, feel free to reach out anytime.</p>
    <br>
    <p>Best regards,<br><strong>{{.BusinessName}}</strong></p>
  </div>
</body>
</html>`))

var thankYouPlain = texttemplate.Must(texttemplate.New("thank_you_plain").Parse(`Dear {{.CustomerName}},

Thank you for choosing us today! We hope you love your new look.

If you have any questions or concerns, feel free to reach out anytime.

Best regards,
{{.BusinessName}}
`))

var followUpHTML = template.Must(template.New("follow_up_html").Parse(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #d946a6;">How did your visit go?</h2>
    <p>Dear {{.CustomerName}},</p>
    <p>It's been a week since your last visit! We hope you are still enjoying the results.</p>
    <p>Could you let us know how everything held up? Your feedback helps us improve our services.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.FeedbackLink}}" style="background-color: #d946a6; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">
        Share Your Feedback
      </a>
    </div>
    <p>Thank you for being a valued customer!</p>
    <br>
    <p>Best regards,<br><strong>{{.BusinessName}}</strong></p>
  </div>
</body>
</html>`))

var followUpPlain = texttemplate.Must(texttemplate.New("follow_up_plain").Parse(`Dear {{.CustomerName}},

It's been a week since your last visit! We hope you are still enjoying the results.

Could you let us know how everything held up? Your feedback helps us improve our services.

Feedback: {{.FeedbackLink}}

Thank you for being a valued customer!

Best regards,
{{.BusinessName}}
`))

var alertHTML = template.Must(template.New("alert_html").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 2px solid #ff6b6b; border-radius: 5px;">
    <h2 style="color: #ff6b6b;">Alert</h2>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <hr>
    <pre style="background-color: #f5f5f5; padding: 10px; border-radius: 3px; overflow-x: auto;">{{.Body}}</pre>
    <hr>
    <p style="color: #666; font-size: 12px;">Automated alert from the visit notification service.</p>
  </div>
</body>
</html>`))

// Render produces the subject, HTML body and plain-text alternative for
// a template kind.
func Render(kind TemplateKind, params Params) (subject, htmlBody, plainBody string, err error) {
	if params.CustomerName == "" {
		params.CustomerName = "Valued Customer"
	}

	var html, plain bytes.Buffer
	switch kind {
	case TemplateThankYou:
		subject = thankYouSubject
		if err = thankYouHTML.Execute(&html, params); err == nil {
			err = thankYouPlain.Execute(&plain, params)
		}
	case TemplateFollowUp:
		subject = followUpSubject
		if err = followUpHTML.Execute(&html, params); err == nil {
			err = followUpPlain.Execute(&plain, params)
		}
	case TemplateAlert:
		subject = params.Subject
		plain.WriteString(params.Body)
		err = alertHTML.Execute(&html, params)
	default:
		err = fmt.Errorf("unknown template kind: %s", kind)
	}
	if err != nil {
		return "", "", "", fmt.Errorf("failed to render %s template: %w", kind, err)
	}
	return subject, html.String(), plain.String(), nil
}
