package mailer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMensagemObrigado(t *testing.T) {
	msg := MensagemObrigado("maria@example.com", "Maria", decimal.NewFromFloat(50.5))

	if msg.ParaEndereco != "maria@example.com" || msg.ParaNome != "Maria" {
		t.Fatalf("destinatário inesperado: %+v", msg)
	}
	if msg.Assunto != AssuntoObrigado {
		t.Fatalf("assunto inesperado: %s", msg.Assunto)
	}
	if !strings.Contains(msg.Texto, "R$ 50.50") {
		t.Fatalf("texto deveria conter o valor formatado: %s", msg.Texto)
	}
	if !strings.Contains(msg.HTML, "<strong>Maria</strong>") {
		t.Fatalf("html deveria destacar o nome: %s", msg.HTML)
	}
	if !strings.Contains(msg.Texto, "Maria") {
		t.Fatalf("texto deveria saudar o doador: %s", msg.Texto)
	}
}
