package pagamento

import (
	"context"

	"github.com/shopspring/decimal"
)

// CriarPreferenciaInput são os dados enviados ao gateway na criação da
// intenção de pagamento.
type CriarPreferenciaInput struct {
	Valor             decimal.Decimal
	ExternalReference string
}

// Gateway abstrai o provedor de pagamento. A implementação real vive em
// internal/mercadopago; os testes usam um stub.
type Gateway interface {
	CriarPreferencia(ctx context.Context, input CriarPreferenciaInput) (*Preferencia, error)
	BuscarPagamento(ctx context.Context, id int64) (*PagamentoGateway, error)
}
