package usuario

import (
	"context"
	"errors"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/institutomariaclaro/doacoes/internal/auth"
	"github.com/institutomariaclaro/doacoes/internal/util"
)

var (
	// ErrCredenciaisInvalidas cobre tanto email desconhecido quanto senha
	// incorreta: o chamador recebe sempre a mesma resposta.
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	// ErrDocumentoInvalido indica CPF/CNPJ com tamanho incompatível.
	ErrDocumentoInvalido = util.NewValidationError("documento inválido para o tipo de pessoa informado")
)

// verifyDecoy é substituível em teste.
var verifyDecoy = auth.VerifyDecoy

var naoDigitos = regexp.MustCompile(`[^\d]`)

type repository interface {
	Create(ctx context.Context, u Usuario) (*Usuario, error)
	GetByID(ctx context.Context, id int64) (*Usuario, error)
	GetByEmail(ctx context.Context, email string) (*Usuario, error)
	List(ctx context.Context, filter ListFilter) ([]Usuario, error)
	Update(ctx context.Context, u Usuario) (*Usuario, error)
	UpdateTipoUsuario(ctx context.Context, id int64, tipo TipoUsuario) error
	Delete(ctx context.Context, id int64) error
}

// Service concentra as regras de cadastro e credenciais.
type Service struct {
	repo repository
}

// NewService cria novo serviço.
func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput agrupa os dados de auto-cadastro.
type RegisterInput struct {
	Nome       string
	Email      string
	Senha      string
	TipoPessoa *TipoPessoa
	Documento  string
}

// Register cria um novo usuário. Todo auto-cadastro entra como Doador,
// independente do que o chamador informe.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Usuario, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return nil, err
	}

	documento, err := normalizeDocumento(input.TipoPessoa, input.Documento)
	if err != nil {
		return nil, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, err
	}

	novo := Usuario{
		Nome:        input.Nome,
		Email:       input.Email,
		SenhaHash:   hash,
		TipoUsuario: TipoDoador,
		TipoPessoa:  input.TipoPessoa,
		Documento:   documento,
	}

	return s.repo.Create(ctx, novo)
}

// VerifyCredentials valida email e senha. Os dois caminhos de falha viram o
// mesmo erro para o chamador; o log interno distingue.
func (s *Service) VerifyCredentials(ctx context.Context, email, senha string) (*Usuario, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Paga o mesmo custo de hash de uma senha errada para que o
			// tempo de resposta não revele se o email está cadastrado.
			verifyDecoy(senha)
			log.Warn().Msg("login: email não cadastrado")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: falha ao verificar hash")
		return nil, ErrCredenciaisInvalidas
	}
	if !ok {
		log.Warn().Msg("login: senha incorreta")
		return nil, ErrCredenciaisInvalidas
	}

	return user, nil
}

// UpdateProfileInput agrupa os campos editáveis pelo próprio usuário.
type UpdateProfileInput struct {
	Nome       string
	Email      string
	TipoPessoa *TipoPessoa
	Documento  string
}

// UpdateProfile atualiza dados cadastrais, reaplicando as regras de documento.
// Documento vazio limpa o campo.
func (s *Service) UpdateProfile(ctx context.Context, id int64, input UpdateProfileInput) (*Usuario, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	atual, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	documento, err := normalizeDocumento(input.TipoPessoa, input.Documento)
	if err != nil {
		return nil, err
	}

	atual.Nome = input.Nome
	atual.Email = input.Email
	atual.TipoPessoa = input.TipoPessoa
	atual.Documento = documento

	return s.repo.Update(ctx, *atual)
}

// UpdateRole altera o papel do usuário. Restrito a administradores na camada HTTP.
func (s *Service) UpdateRole(ctx context.Context, id int64, tipo TipoUsuario) error {
	return s.repo.UpdateTipoUsuario(ctx, id, tipo)
}

// Delete remove o cadastro do usuário.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// GetByID busca usuário pelo identificador.
func (s *Service) GetByID(ctx context.Context, id int64) (*Usuario, error) {
	return s.repo.GetByID(ctx, id)
}

// List devolve usuários aplicando o filtro informado.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Usuario, error) {
	return s.repo.List(ctx, filter)
}

// normalizeDocumento remove não-dígitos e confere o tamanho: CPF com 11
// dígitos para pessoa física, CNPJ com 14 para jurídica. Documento vazio é
// aceito (campo opcional) e vira nil.
func normalizeDocumento(tipoPessoa *TipoPessoa, documento string) (*string, error) {
	limpo := naoDigitos.ReplaceAllString(documento, "")
	if limpo == "" {
		return nil, nil
	}

	if tipoPessoa != nil {
		switch *tipoPessoa {
		case PessoaFisica:
			if len(limpo) != 11 {
				return nil, ErrDocumentoInvalido
			}
		case PessoaJuridica:
			if len(limpo) != 14 {
				return nil, ErrDocumentoInvalido
			}
		}
	}

	return &limpo, nil
}
