package mercadopago

import (
	"context"
	"errors"
	"fmt"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	"github.com/institutomariaclaro/doacoes/internal/config"
	"github.com/institutomariaclaro/doacoes/internal/pagamento"
)

const (
	itemTitle       = "Doação para o Instituto Maria Claro"
	itemDescription = "Sua contribuição ajuda a manter nossos projetos."
	currencyBRL     = "BRL"
)

// Client implementa pagamento.Gateway sobre o SDK oficial do Mercado Pago.
// É construído uma vez por processo com o access token da configuração e
// injetado em quem precisar: nada de estado global.
type Client struct {
	preferences preference.Client
	payments    payment.Client

	notificationURL string
	backURLSuccess  string
	backURLFailure  string
}

// New cria o cliente a partir da configuração.
func New(cfg config.MercadoPagoConfig) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("mercadopago: access token obrigatório")
	}

	sdkCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: %w", err)
	}

	return &Client{
		preferences:     preference.NewClient(sdkCfg),
		payments:        payment.NewClient(sdkCfg),
		notificationURL: cfg.NotificationURL,
		backURLSuccess:  cfg.BackURLSuccess,
		backURLFailure:  cfg.BackURLFailure,
	}, nil
}

// CriarPreferencia cria a intenção de pagamento e devolve o init point para
// redirecionar o doador.
func (c *Client) CriarPreferencia(ctx context.Context, input pagamento.CriarPreferenciaInput) (*pagamento.Preferencia, error) {
	req := preference.Request{
		ExternalReference: input.ExternalReference,
		NotificationURL:   c.notificationURL,
		Items: []preference.ItemRequest{
			{
				Title:       itemTitle,
				Description: itemDescription,
				Quantity:    1,
				CurrencyID:  currencyBRL,
				UnitPrice:   input.Valor.InexactFloat64(),
			},
		},
		BackURLs: &preference.BackURLsRequest{
			Success: c.backURLSuccess,
			Failure: c.backURLFailure,
		},
	}

	resp, err := c.preferences.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: criar preferência: %w", err)
	}

	return &pagamento.Preferencia{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

// BuscarPagamento consulta o recurso de pagamento pelo id do gateway.
func (c *Client) BuscarPagamento(ctx context.Context, id int64) (*pagamento.PagamentoGateway, error) {
	resp, err := c.payments.Get(ctx, int(id))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: buscar pagamento %d: %w", id, err)
	}

	result := &pagamento.PagamentoGateway{
		ID:                        int64(resp.ID),
		Status:                    resp.Status,
		ExternalReference:         resp.ExternalReference,
		MetodoPagamento:           resp.PaymentMethodID,
		PayerIdentificationType:   resp.Payer.Identification.Type,
		PayerIdentificationNumber: resp.Payer.Identification.Number,
	}

	if net := resp.TransactionDetails.NetReceivedAmount; net > 0 {
		liquido := decimal.NewFromFloat(net)
		result.ValorLiquido = &liquido
	}

	return result, nil
}
