package usuario

import (
	"strings"
	"time"

	"github.com/institutomariaclaro/doacoes/internal/util"
)

// TipoUsuario enumera os papéis reconhecidos pela plataforma.
type TipoUsuario string

const (
	TipoDoador        TipoUsuario = "Doador"
	TipoColaborador   TipoUsuario = "Colaborador"
	TipoAdministrador TipoUsuario = "Administrador"
)

// ParseTipoUsuario aceita o papel sem diferenciar maiúsculas.
func ParseTipoUsuario(value string) (TipoUsuario, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "doador":
		return TipoDoador, nil
	case "colaborador":
		return TipoColaborador, nil
	case "administrador":
		return TipoAdministrador, nil
	}
	return "", util.NewValidationError("tipo de usuário inválido: valores aceitos: Doador, Colaborador, Administrador")
}

// TipoPessoa indica se o cadastro é de pessoa física ou jurídica.
type TipoPessoa string

const (
	PessoaFisica   TipoPessoa = "Fisica"
	PessoaJuridica TipoPessoa = "Juridica"
)

// ParseTipoPessoa aceita o tipo de pessoa sem diferenciar maiúsculas.
func ParseTipoPessoa(value string) (TipoPessoa, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fisica", "física":
		return PessoaFisica, nil
	case "juridica", "jurídica":
		return PessoaJuridica, nil
	}
	return "", util.NewValidationError("tipo de pessoa inválido: valores aceitos: Fisica, Juridica")
}

// Usuario representa um cadastro da plataforma. SenhaHash guarda o hash
// Argon2id codificado; a senha em claro nunca é persistida.
type Usuario struct {
	ID          int64
	Nome        string
	Email       string
	SenhaHash   string
	TipoUsuario TipoUsuario
	TipoPessoa  *TipoPessoa
	Documento   *string
	CriadoEm    time.Time
}

// Profile é a projeção pública do usuário (sem credenciais).
type Profile struct {
	ID          int64   `json:"id"`
	Nome        string  `json:"nome"`
	Email       string  `json:"email"`
	TipoUsuario string  `json:"tipoUsuario"`
	TipoPessoa  *string `json:"tipoPessoa,omitempty"`
	Documento   *string `json:"documento,omitempty"`
}

// NewProfile converte a entidade para a projeção pública.
func NewProfile(u Usuario) Profile {
	p := Profile{
		ID:          u.ID,
		Nome:        u.Nome,
		Email:       u.Email,
		TipoUsuario: string(u.TipoUsuario),
		Documento:   u.Documento,
	}
	if u.TipoPessoa != nil {
		tp := string(*u.TipoPessoa)
		p.TipoPessoa = &tp
	}
	return p
}

// ListFilter restringe a listagem de usuários.
type ListFilter struct {
	TipoUsuario *TipoUsuario
	TipoPessoa  *TipoPessoa
	Busca       string
}
