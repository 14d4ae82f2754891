package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"

	"gopkg.in/gomail.v2"

	"github.com/salonloop/notifier/internal/config"
	apperrors "github.com/salonloop/notifier/pkg/errors"
	"github.com/salonloop/notifier/pkg/logger"
)

type smtpSender struct {
	dialer       *gomail.Dialer
	senderEmail  string
	senderName   string
	businessName string
	logger       *logger.Logger
}

// NewSMTPSender builds the production deliverer. The password comes from
// the environment, never the config file.
func NewSMTPSender(cfg config.SMTPConfig, password, businessName string, logger *logger.Logger) Deliverer {
	return &smtpSender{
		dialer:       gomail.NewDialer(cfg.Host, cfg.Port, cfg.SenderEmail, password),
		senderEmail:  cfg.SenderEmail,
		senderName:   cfg.SenderName,
		businessName: businessName,
		logger:       logger,
	}
}

func (s *smtpSender) Send(ctx context.Context, recipient string, kind TemplateKind, params Params) error {
	if !ValidAddress(recipient) {
		return apperrors.DeliveryPermanent(fmt.Errorf("malformed recipient address %q", recipient))
	}
	if params.BusinessName == "" {
		params.BusinessName = s.businessName
	}

	subject, htmlBody, plainBody, err := Render(kind, params)
	if err != nil {
		return apperrors.DeliveryPermanent(err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	// gomail has no context support; honor cancellation before dialing.
	select {
	case <-ctx.Done():
		return apperrors.DeliveryTransient(ctx.Err())
	default:
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error(err, "smtp send failed", "recipient", recipient, "template", string(kind))
		return classify(err)
	}

	s.logger.Debug("email sent", "recipient", recipient, "template", string(kind))
	return nil
}

// classify maps SMTP failures onto the retry taxonomy: 4xx replies and
// network errors are transient, 5xx replies are permanent. Anything
// unrecognized defaults to transient so the attempt budget bounds it.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if protoErr.Code >= 500 {
			return apperrors.DeliveryPermanent(err)
		}
		return apperrors.DeliveryTransient(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.DeliveryTransient(err)
	}

	return apperrors.DeliveryTransient(err)
}
