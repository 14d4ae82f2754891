package email

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/salonloop/notifier/internal/config"
	apperrors "github.com/salonloop/notifier/pkg/errors"
	"github.com/salonloop/notifier/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{
			name:      "5xx reply is permanent",
			err:       &textproto.Error{Code: 550, Msg: "no such user"},
			permanent: true,
		},
		{
			name:      "4xx reply is transient",
			err:       &textproto.Error{Code: 451, Msg: "try again later"},
			permanent: false,
		},
		{
			name:      "network error is transient",
			err:       &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			permanent: false,
		},
		{
			name:      "unrecognized error defaults to transient",
			err:       errors.New("something odd"),
			permanent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classify(tt.err)
			assert.Equal(t, tt.permanent, apperrors.IsPermanentDelivery(classified))
			assert.Equal(t, !tt.permanent, apperrors.IsTransientDelivery(classified))
		})
	}
}

func TestSendRejectsMalformedRecipient(t *testing.T) {
	sender := NewSMTPSender(config.SMTPConfig{Host: "localhost", Port: 2525}, "", "Polished Nail Studio", testLogger())

	err := sender.Send(context.Background(), "not-an-address", TemplateThankYou, Params{})
	assert.True(t, apperrors.IsPermanentDelivery(err))
}

func TestSendHonorsCancelledContext(t *testing.T) {
	sender := NewSMTPSender(config.SMTPConfig{Host: "localhost", Port: 2525}, "", "Polished Nail Studio", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, "dana@example.com", TemplateThankYou, Params{})
	assert.True(t, apperrors.IsTransientDelivery(err))
	assert.False(t, apperrors.IsPermanentDelivery(err))
}
