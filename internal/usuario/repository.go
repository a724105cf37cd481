package usuario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound é retornado quando nenhum usuário é encontrado.
	ErrNotFound = errors.New("usuário não encontrado")
	// ErrEmailEmUso indica violação do índice único de email.
	ErrEmailEmUso = errors.New("o email informado já está cadastrado")
)

const colunas = "id, nome, email, senha_hash, tipo_usuario, tipo_pessoa, documento, criado_em"

// Repository provê acesso à tabela usuarios.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere um novo usuário e devolve a linha persistida.
func (r *Repository) Create(ctx context.Context, u Usuario) (*Usuario, error) {
	const query = `
        INSERT INTO usuarios (nome, email, senha_hash, tipo_usuario, tipo_pessoa, documento)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + colunas

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(u.Nome),
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.SenhaHash,
		string(u.TipoUsuario),
		tipoPessoaParam(u.TipoPessoa),
		u.Documento,
	)

	created, err := scanUsuario(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailEmUso
		}
		return nil, err
	}
	return created, nil
}

// GetByID busca usuário pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Usuario, error) {
	const query = `SELECT ` + colunas + ` FROM usuarios WHERE id = $1`
	return scanUsuario(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail busca usuário por email, sem diferenciar maiúsculas.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Usuario, error) {
	const query = `SELECT ` + colunas + ` FROM usuarios WHERE lower(email) = lower($1)`
	return scanUsuario(r.pool.QueryRow(ctx, query, strings.TrimSpace(email)))
}

// List devolve usuários aplicando filtros simples.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Usuario, error) {
	base := `SELECT ` + colunas + ` FROM usuarios`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.TipoUsuario != nil {
		clauses = append(clauses, fmt.Sprintf("tipo_usuario = $%d", idx))
		args = append(args, string(*filter.TipoUsuario))
		idx++
	}

	if filter.TipoPessoa != nil {
		clauses = append(clauses, fmt.Sprintf("tipo_pessoa = $%d", idx))
		args = append(args, string(*filter.TipoPessoa))
		idx++
	}

	if busca := strings.TrimSpace(filter.Busca); busca != "" {
		clauses = append(clauses, fmt.Sprintf("(nome ILIKE $%d OR email ILIKE $%d)", idx, idx))
		args = append(args, "%"+busca+"%")
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY nome ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, *u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return usuarios, nil
}

// Update grava nome, email, tipo de pessoa e documento.
func (r *Repository) Update(ctx context.Context, u Usuario) (*Usuario, error) {
	const query = `
        UPDATE usuarios
        SET nome = $1, email = $2, tipo_pessoa = $3, documento = $4
        WHERE id = $5
        RETURNING ` + colunas

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(u.Nome),
		strings.ToLower(strings.TrimSpace(u.Email)),
		tipoPessoaParam(u.TipoPessoa),
		u.Documento,
		u.ID,
	)

	updated, err := scanUsuario(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailEmUso
		}
		return nil, err
	}
	return updated, nil
}

// UpdateTipoUsuario altera somente o papel do usuário.
func (r *Repository) UpdateTipoUsuario(ctx context.Context, id int64, tipo TipoUsuario) error {
	const query = `UPDATE usuarios SET tipo_usuario = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, string(tipo), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertAdministrador cria ou atualiza a conta administradora de bootstrap.
// Conflito no email reaproveita a linha existente, promovendo o papel e
// trocando a senha.
func (r *Repository) UpsertAdministrador(ctx context.Context, nome, email, senhaHash string) (*Usuario, error) {
	const query = `
        INSERT INTO usuarios (nome, email, senha_hash, tipo_usuario)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (lower(email)) DO UPDATE
        SET nome = EXCLUDED.nome, senha_hash = EXCLUDED.senha_hash, tipo_usuario = EXCLUDED.tipo_usuario
        RETURNING ` + colunas

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(nome),
		strings.ToLower(strings.TrimSpace(email)),
		senhaHash,
		string(TipoAdministrador),
	)
	return scanUsuario(row)
}

// Delete remove o usuário.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUsuario(row pgx.Row) (*Usuario, error) {
	var (
		u          Usuario
		tipo       string
		tipoPessoa *string
	)
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &tipo, &tipoPessoa, &u.Documento, &u.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.TipoUsuario = TipoUsuario(tipo)
	if tipoPessoa != nil {
		tp := TipoPessoa(*tipoPessoa)
		u.TipoPessoa = &tp
	}
	return &u, nil
}

func tipoPessoaParam(tp *TipoPessoa) *string {
	if tp == nil {
		return nil
	}
	s := string(*tp)
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
