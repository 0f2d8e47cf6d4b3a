package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"3nt3/datamakeover/config"
)

const mailSubject = "New File Upload Notification"

// Mailer sends the upload notification to the administrator over SMTP.
type Mailer struct {
	cfg  config.Mail
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewMailer(cfg config.Mail) *Mailer {
	m := &Mailer{cfg: cfg}
	m.send = m.dialAndSend
	return m
}

func (m *Mailer) Name() string {
	return "email"
}

// Message builds the notification for u without sending it.
func (m *Mailer) Message(u Upload) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.cfg.Admin); err != nil {
		return nil, fmt.Errorf("invalid admin address: %w", err)
	}
	msg.Subject(mailSubject)
	msg.SetBodyString(mail.TypeTextPlain, body(u))
	return msg, nil
}

func (m *Mailer) Notify(ctx context.Context, u Upload) error {
	msg, err := m.Message(u)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Sender),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("unable to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("unable to send mail via %s: %w", m.cfg.Host, err)
	}
	return nil
}
