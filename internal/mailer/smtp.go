package mailer

import (
	"context"
	"errors"

	gomail "github.com/wneessen/go-mail"

	"github.com/institutomariaclaro/doacoes/internal/config"
)

// SMTP envia mensagens via servidor SMTP autenticado.
type SMTP struct {
	client      *gomail.Client
	fromAddress string
	fromName    string
}

// NewSMTP cria o mailer a partir da configuração.
func NewSMTP(cfg config.SMTPConfig) (*SMTP, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mailer: smtp não configurado")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}

	return &SMTP{client: client, fromAddress: cfg.FromAddress, fromName: cfg.FromName}, nil
}

// Send monta e entrega a mensagem.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromAddress); err != nil {
		return err
	}
	if err := m.AddToFormat(msg.ParaNome, msg.ParaEndereco); err != nil {
		return err
	}
	m.Subject(msg.Assunto)
	m.SetBodyString(gomail.TypeTextPlain, msg.Texto)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}

	return s.client.DialAndSendWithContext(ctx, m)
}
