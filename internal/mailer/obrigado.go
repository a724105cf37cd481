package mailer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AssuntoObrigado é o assunto do e-mail de agradecimento.
const AssuntoObrigado = "Obrigado pela sua doação!"

// MensagemObrigado monta o e-mail de agradecimento enviado quando uma
// doação é aprovada.
func MensagemObrigado(endereco, nome string, valor decimal.Decimal) Message {
	valorFmt := "R$ " + valor.StringFixed(2)

	texto := fmt.Sprintf(
		"Olá, %s!\n\nRecebemos a sua doação de %s. Sua contribuição ajuda a manter os projetos do Instituto Maria Claro.\n\nCom gratidão,\nInstituto Maria Claro",
		nome, valorFmt,
	)

	html := fmt.Sprintf(
		"<p>Olá, <strong>%s</strong>!</p><p>Recebemos a sua doação de <strong>%s</strong>. Sua contribuição ajuda a manter os projetos do Instituto Maria Claro.</p><p>Com gratidão,<br>Instituto Maria Claro</p>",
		nome, valorFmt,
	)

	return Message{
		ParaEndereco: endereco,
		ParaNome:     nome,
		Assunto:      AssuntoObrigado,
		Texto:        texto,
		HTML:         html,
	}
}
