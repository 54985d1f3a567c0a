// Package adapters holds outbound integrations that are not part of the
// engine's correctness, only of its user experience.
package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
	"github.com/tmb8080/nova-sub001/internal/infrastructure/config"
)

// Notifier sends user-facing notifications about review outcomes.
// Failures are logged and swallowed by callers; notification delivery
// never gates a ledger write.
type Notifier interface {
	NotifyDepositConfirmed(ctx context.Context, email string, amount decimal.Decimal, network entities.Network) error
	NotifyDepositRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error
	NotifyWithdrawalApproved(ctx context.Context, email string, netAmount decimal.Decimal, address string) error
	NotifyWithdrawalRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error
}

// EmailNotifier sends notifications through SendGrid
type EmailNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewEmailNotifier creates a SendGrid-backed notifier, or a no-op one
// when the provider is not configured.
func NewEmailNotifier(cfg config.EmailConfig, logger *zap.Logger) (Notifier, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", "noop":
		return &NoopNotifier{logger: logger}, nil
	case "sendgrid":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("sendgrid api key is required")
		}
		if strings.TrimSpace(cfg.FromEmail) == "" {
			return nil, fmt.Errorf("email from address is required")
		}
		return &EmailNotifier{
			client:    sendgrid.NewSendClient(cfg.APIKey),
			fromEmail: cfg.FromEmail,
			fromName:  cfg.FromName,
			logger:    logger,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// NotifyDepositConfirmed notifies a user their deposit was credited
func (n *EmailNotifier) NotifyDepositConfirmed(ctx context.Context, email string, amount decimal.Decimal, network entities.Network) error {
	subject := "Deposit confirmed"
	body := fmt.Sprintf("Your deposit of %s USDT on %s has been confirmed and credited to your balance.",
		amount.StringFixed(2), network)
	return n.send(ctx, email, subject, body)
}

// NotifyDepositRejected notifies a user their deposit was rejected
func (n *EmailNotifier) NotifyDepositRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error {
	subject := "Deposit rejected"
	body := fmt.Sprintf("Your deposit of %s USDT could not be confirmed: %s", amount.StringFixed(2), reason)
	return n.send(ctx, email, subject, body)
}

// NotifyWithdrawalApproved notifies a user their withdrawal is being paid out
func (n *EmailNotifier) NotifyWithdrawalApproved(ctx context.Context, email string, netAmount decimal.Decimal, address string) error {
	subject := "Withdrawal approved"
	body := fmt.Sprintf("Your withdrawal has been approved. %s USDT will be sent to %s.",
		netAmount.StringFixed(2), address)
	return n.send(ctx, email, subject, body)
}

// NotifyWithdrawalRejected notifies a user their withdrawal was rejected and refunded
func (n *EmailNotifier) NotifyWithdrawalRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error {
	subject := "Withdrawal rejected"
	body := fmt.Sprintf("Your withdrawal of %s USDT was rejected and refunded to your balance: %s",
		amount.StringFixed(2), reason)
	return n.send(ctx, email, subject, body)
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, body)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d, body: %s", resp.StatusCode, resp.Body)
	}

	n.logger.Debug("notification email sent",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// NoopNotifier drops all notifications. Used in development and tests.
type NoopNotifier struct {
	logger *zap.Logger
}

func (n *NoopNotifier) NotifyDepositConfirmed(ctx context.Context, email string, amount decimal.Decimal, network entities.Network) error {
	n.logger.Debug("noop notifier: deposit confirmed", zap.String("email", email))
	return nil
}

func (n *NoopNotifier) NotifyDepositRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error {
	n.logger.Debug("noop notifier: deposit rejected", zap.String("email", email))
	return nil
}

func (n *NoopNotifier) NotifyWithdrawalApproved(ctx context.Context, email string, netAmount decimal.Decimal, address string) error {
	n.logger.Debug("noop notifier: withdrawal approved", zap.String("email", email))
	return nil
}

func (n *NoopNotifier) NotifyWithdrawalRejected(ctx context.Context, email string, amount decimal.Decimal, reason string) error {
	n.logger.Debug("noop notifier: withdrawal rejected", zap.String("email", email))
	return nil
}
