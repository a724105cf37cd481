package pagamento

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status do pagamento é o vocabulário do gateway tratado como string aberta:
// novos valores do Mercado Pago não exigem migração. Apenas "approved" tem
// comportamento associado (e-mail, relatório, guarda de idempotência).
const (
	StatusPending  = "PENDING"
	StatusApproved = "approved"
)

// Pagamento registra uma doação e seu ciclo de vida. A linha nunca é
// removida: é registro financeiro de auditoria.
type Pagamento struct {
	ID                        int64
	Valor                     decimal.Decimal
	Status                    string
	ExternalReference         string
	PreferenceID              *string
	MercadoPagoPaymentID      *int64
	ValorLiquido              *decimal.Decimal
	MetodoPagamento           *string
	PayerIdentificationType   *string
	PayerIdentificationNumber *string
	DoadorID                  *int64
	DataCriacao               time.Time
	DataAtualizacao           *time.Time
}

// Notification é o corpo do webhook do Mercado Pago. Somente topic
// "payment" dispara processamento.
type Notification struct {
	Resource string `json:"resource"`
	Topic    string `json:"topic"`
}

// Preferencia é o retorno da criação da preferência no gateway.
type Preferencia struct {
	ID        string
	InitPoint string
}

// PagamentoGateway é a visão do recurso de pagamento buscado no gateway.
type PagamentoGateway struct {
	ID                        int64
	Status                    string
	ExternalReference         string
	ValorLiquido              *decimal.Decimal
	MetodoPagamento           string
	PayerIdentificationType   string
	PayerIdentificationNumber string
}

// RelatorioArrecadacao resume as doações aprovadas de um período.
type RelatorioArrecadacao struct {
	TotalArrecadado       decimal.Decimal `json:"totalArrecadado"`
	TotalLiquido          decimal.Decimal `json:"totalLiquido"`
	TotalDoacoesAprovadas int             `json:"totalDoacoesAprovadas"`
}

// Resumo é a projeção pública de um pagamento.
type Resumo struct {
	ID              int64            `json:"id"`
	Valor           decimal.Decimal  `json:"valor"`
	ValorLiquido    *decimal.Decimal `json:"valorLiquido,omitempty"`
	Status          string           `json:"status"`
	MetodoPagamento *string          `json:"metodoPagamento,omitempty"`
	DataCriacao     time.Time        `json:"dataCriacao"`
	DataAtualizacao *time.Time       `json:"dataAtualizacao,omitempty"`
}

// NewResumo converte a entidade para a projeção pública.
func NewResumo(p Pagamento) Resumo {
	return Resumo{
		ID:              p.ID,
		Valor:           p.Valor,
		ValorLiquido:    p.ValorLiquido,
		Status:          p.Status,
		MetodoPagamento: p.MetodoPagamento,
		DataCriacao:     p.DataCriacao,
		DataAtualizacao: p.DataAtualizacao,
	}
}
