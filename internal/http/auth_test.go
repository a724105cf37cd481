package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/institutomariaclaro/doacoes/internal/auth"
	"github.com/institutomariaclaro/doacoes/internal/usuario"
)

// repoIndisponivel simula falhas de infraestrutura do repositório de usuários.
type repoIndisponivel struct {
	err error
}

func (s *repoIndisponivel) Create(ctx context.Context, u usuario.Usuario) (*usuario.Usuario, error) {
	return nil, s.err
}

func (s *repoIndisponivel) GetByID(ctx context.Context, id int64) (*usuario.Usuario, error) {
	return nil, s.err
}

func (s *repoIndisponivel) GetByEmail(ctx context.Context, email string) (*usuario.Usuario, error) {
	return nil, usuario.ErrNotFound
}

func (s *repoIndisponivel) List(ctx context.Context, filter usuario.ListFilter) ([]usuario.Usuario, error) {
	return nil, s.err
}

func (s *repoIndisponivel) Update(ctx context.Context, u usuario.Usuario) (*usuario.Usuario, error) {
	return nil, s.err
}

func (s *repoIndisponivel) UpdateTipoUsuario(ctx context.Context, id int64, tipo usuario.TipoUsuario) error {
	return s.err
}

func (s *repoIndisponivel) Delete(ctx context.Context, id int64) error {
	return s.err
}

func newAuthTestRouter(repoErr error) http.Handler {
	svc := usuario.NewService(&repoIndisponivel{err: repoErr})
	jwtManager := auth.NewJWTManager(strings.Repeat("s", 32), time.Hour)
	handler := NewAuthHandler(svc, jwtManager)

	r := chi.NewRouter()
	r.Post("/auth/register", handler.Register)
	r.Post("/auth/login", handler.Login)
	return r
}

func decodeAuthError(t *testing.T, body *bytes.Buffer) ErrorBody {
	t.Helper()
	var envelope struct {
		Error *ErrorBody `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error == nil {
		t.Fatal("resposta sem corpo de erro")
	}
	return *envelope.Error
}

func TestRegisterFalhaDeRepositorioNaoVazaDetalhe(t *testing.T) {
	router := newAuthTestRouter(errors.New("failed to connect to `host=db.internal user=postgres`"))

	corpo := `{"nome":"Maria","email":"maria@example.com","senha":"senhaforte1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(corpo))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("falha de banco: esperava 500, veio %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "db.internal") {
		t.Fatalf("detalhe interno vazou na resposta: %s", rec.Body.String())
	}

	errBody := decodeAuthError(t, rec.Body)
	if errBody.Code != CodeInternal || errBody.Message != "erro interno" {
		t.Fatalf("esperava INTERNAL genérico, veio %+v", errBody)
	}
}

func TestRegisterEmailInvalido(t *testing.T) {
	router := newAuthTestRouter(nil)

	corpo := `{"nome":"Maria","email":"nao-e-email","senha":"senhaforte1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(corpo))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("email inválido: esperava 400, veio %d", rec.Code)
	}
	errBody := decodeAuthError(t, rec.Body)
	if errBody.Code != CodeValidation || errBody.Message != "email inválido" {
		t.Fatalf("esperava VALIDATION com mensagem de email, veio %+v", errBody)
	}
}

func TestLoginEmailDesconhecido(t *testing.T) {
	router := newAuthTestRouter(nil)

	corpo := `{"email":"ninguem@example.com","senha":"senhaforte1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(corpo))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login desconhecido: esperava 401, veio %d: %s", rec.Code, rec.Body.String())
	}
	errBody := decodeAuthError(t, rec.Body)
	if errBody.Code != CodeAuth || errBody.Message != "credenciais inválidas" {
		t.Fatalf("esperava AUTH genérico, veio %+v", errBody)
	}
}
