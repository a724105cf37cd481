package mailer

import "context"

// Message descreve um e-mail com corpo em texto e HTML.
type Message struct {
	ParaEndereco string
	ParaNome     string
	Assunto      string
	Texto        string
	HTML         string
}

// Mailer envia e-mails transacionais. O chamador trata envio como
// fire-and-forget: falhas são logadas, nunca propagadas para o fluxo
// de negócio.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Noop descarta mensagens. Usado quando o SMTP não está configurado.
type Noop struct{}

// Send ignora a mensagem.
func (Noop) Send(ctx context.Context, msg Message) error {
	return nil
}
