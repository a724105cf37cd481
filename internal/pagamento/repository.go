package pagamento

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound é retornado quando nenhum pagamento é encontrado.
var ErrNotFound = errors.New("pagamento não encontrado")

const colunas = `id, valor, status, external_reference, preference_id, mp_payment_id,
        valor_liquido, metodo_pagamento, payer_identification_type, payer_identification_number,
        doador_id, data_criacao, data_atualizacao`

// Repository provê acesso à tabela pagamentos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere a doação pendente e devolve a linha persistida.
func (r *Repository) Create(ctx context.Context, p Pagamento) (*Pagamento, error) {
	const query = `
        INSERT INTO pagamentos (valor, status, external_reference, preference_id, doador_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + colunas

	row := r.pool.QueryRow(ctx, query, p.Valor, p.Status, p.ExternalReference, p.PreferenceID, p.DoadorID)
	return scanPagamento(row)
}

// GetByExternalReference localiza o pagamento pela referência de correlação.
func (r *Repository) GetByExternalReference(ctx context.Context, ref string) (*Pagamento, error) {
	const query = `SELECT ` + colunas + ` FROM pagamentos WHERE external_reference = $1`
	return scanPagamento(r.pool.QueryRow(ctx, query, ref))
}

// ListByDoador devolve as doações de um doador, mais recentes primeiro.
func (r *Repository) ListByDoador(ctx context.Context, doadorID int64) ([]Pagamento, error) {
	const query = `SELECT ` + colunas + ` FROM pagamentos WHERE doador_id = $1 ORDER BY data_criacao DESC`

	rows, err := r.pool.Query(ctx, query, doadorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pagamentos []Pagamento
	for rows.Next() {
		p, err := scanPagamento(rows)
		if err != nil {
			return nil, err
		}
		pagamentos = append(pagamentos, *p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return pagamentos, nil
}

// NotificationUpdate são os campos copiados do recurso do gateway para a
// linha local durante a reconciliação.
type NotificationUpdate struct {
	ExternalReference         string
	Status                    string
	MercadoPagoPaymentID      int64
	ValorLiquido              *decimal.Decimal
	MetodoPagamento           *string
	PayerIdentificationType   *string
	PayerIdentificationNumber *string
}

// ApplyNotification aplica a atualização condicionada a status <> 'approved':
// a leitura-então-escrita de callbacks concorrentes é serializada no banco e
// um duplicado de "approved" vira no-op. Retorna o pagamento atualizado e se
// a mutação foi aplicada.
func (r *Repository) ApplyNotification(ctx context.Context, upd NotificationUpdate) (*Pagamento, bool, error) {
	const query = `
        UPDATE pagamentos
        SET status = $1, mp_payment_id = $2, valor_liquido = $3, metodo_pagamento = $4,
            payer_identification_type = $5, payer_identification_number = $6,
            data_atualizacao = now()
        WHERE external_reference = $7 AND status <> 'approved'
        RETURNING ` + colunas

	row := r.pool.QueryRow(ctx, query,
		upd.Status,
		upd.MercadoPagoPaymentID,
		upd.ValorLiquido,
		upd.MetodoPagamento,
		upd.PayerIdentificationType,
		upd.PayerIdentificationNumber,
		upd.ExternalReference,
	)

	p, err := scanPagamento(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

// SumAprovadosPorPeriodo soma bruto, líquido (nulo conta como zero) e a
// quantidade de doações aprovadas criadas dentro de [inicio, fim).
func (r *Repository) SumAprovadosPorPeriodo(ctx context.Context, inicio, fim time.Time) (*RelatorioArrecadacao, error) {
	const query = `
        SELECT COALESCE(SUM(valor), 0), COALESCE(SUM(COALESCE(valor_liquido, 0)), 0), COUNT(*)
        FROM pagamentos
        WHERE status = 'approved' AND data_criacao >= $1 AND data_criacao < $2`

	var rel RelatorioArrecadacao
	if err := r.pool.QueryRow(ctx, query, inicio, fim).Scan(&rel.TotalArrecadado, &rel.TotalLiquido, &rel.TotalDoacoesAprovadas); err != nil {
		return nil, err
	}
	return &rel, nil
}

// AnosDisponiveis lista os anos com doações aprovadas, mais recente primeiro.
func (r *Repository) AnosDisponiveis(ctx context.Context) ([]int, error) {
	const query = `
        SELECT DISTINCT EXTRACT(YEAR FROM data_criacao)::int AS ano
        FROM pagamentos
        WHERE status = 'approved'
        ORDER BY ano DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var anos []int
	for rows.Next() {
		var ano int
		if err := rows.Scan(&ano); err != nil {
			return nil, err
		}
		anos = append(anos, ano)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return anos, nil
}

func scanPagamento(row pgx.Row) (*Pagamento, error) {
	var p Pagamento
	err := row.Scan(
		&p.ID, &p.Valor, &p.Status, &p.ExternalReference, &p.PreferenceID, &p.MercadoPagoPaymentID,
		&p.ValorLiquido, &p.MetodoPagamento, &p.PayerIdentificationType, &p.PayerIdentificationNumber,
		&p.DoadorID, &p.DataCriacao, &p.DataAtualizacao,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
