package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/omnilodge/concierge/domain/entities"
)

// Composer produces the body of a confirmation email. GeminiComposer is
// the real implementation; tests substitute a canned one.
type Composer interface {
	Compose(ctx context.Context, booking *entities.Booking) string
}

// templateComposer always uses the canned template.
type templateComposer struct{}

func (templateComposer) Compose(_ context.Context, booking *entities.Booking) string {
	return fallbackBody(booking)
}

// NewTemplateComposer returns a composer that skips generation and uses
// the canned template, for running without a Gemini key.
func NewTemplateComposer() Composer {
	return templateComposer{}
}

// EmailNotifier implements repositories.Notifier. The appliance has no
// outbound SMTP relay; composed messages are written to the structured
// log, where the ops mail forwarder picks them up.
type EmailNotifier struct {
	composer Composer
	logger   *zap.Logger
}

// NewEmailNotifier wires the notifier.
func NewEmailNotifier(composer Composer, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		composer: composer,
		logger:   logger,
	}
}

// NotifyConfirmation composes and emits the confirmation message.
func (n *EmailNotifier) NotifyConfirmation(ctx context.Context, email string, booking *entities.Booking) error {
	body := n.composer.Compose(ctx, booking)

	n.logger.Info("Booking confirmation email",
		zap.String("to", email),
		zap.String("code", booking.ConfirmationCode),
		zap.String("body", body))
	return nil
}
