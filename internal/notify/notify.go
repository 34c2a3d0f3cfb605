// Package notify delivers short operational messages: settled payments,
// fraud alerts and fee reminders.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/format"
	"github.com/rs/zerolog"
)

// Message is one notification.
type Message struct {
	Title string
	Body  string
}

// String renders the message as plain text.
func (m Message) String() string {
	if m.Title == "" {
		return m.Body
	}
	return fmt.Sprintf("**%s**\n%s", m.Title, m.Body)
}

// Notifier sends messages somewhere a human will see them.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// channelSender is the part of discordgo.Session used for posting.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts to one Discord channel through the REST API.
type DiscordNotifier struct {
	sender    channelSender
	channelID string
}

// NewDiscordNotifier authenticates as a bot.
func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("NewDiscordNotifier: %w", err)
	}
	return &DiscordNotifier{sender: session, channelID: channelID}, nil
}

// Notify implements Notifier.
func (d *DiscordNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.sender.ChannelMessageSend(d.channelID, msg.String(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("Notify: discord: %w", err)
	}
	return nil
}

// LogNotifier writes messages to the log.
type LogNotifier struct {
	Log zerolog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(_ context.Context, msg Message) error {
	l.Log.Info().Str("title", msg.Title).Msg(msg.Body)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PaymentSettled describes a completed payment.
func PaymentSettled(result domain.PaymentResult, studentName, feeTitle string) Message {
	who := studentName
	if who == "" {
		who = "A student"
	}
	what := feeTitle
	if what == "" {
		what = "fees"
	}
	return Message{
		Title: "Payment Successful",
		Body: fmt.Sprintf("%s paid %s for %s using %s (%s)",
			who, format.FormatCurrency(result.Amount), what, result.MethodLabel, result.TransactionID),
	}
}

// FraudAlert describes a raised alert.
func FraudAlert(a domain.FraudAlert) Message {
	return Message{
		Title: fmt.Sprintf("Fraud alert (%s)", a.Severity),
		Body:  fmt.Sprintf("%s: %s, amount %s", a.ID, a.Reason, format.FormatCurrency(a.Amount)),
	}
}

// FeeReminder is the overdue-fee reminder sent to a student.
func FeeReminder(studentName string, due int64, delayDays int) Message {
	return Message{
		Title: "Reminder",
		Body: fmt.Sprintf("Dear %s, you have an outstanding fee of %s. You are overdue by %d days. Please pay at the earliest to avoid penalties.",
			studentName, format.FormatCurrency(due), delayDays),
	}
}

var (
	_ Notifier = (*DiscordNotifier)(nil)
	_ Notifier = LogNotifier{}
	_ Notifier = Multi(nil)
)
