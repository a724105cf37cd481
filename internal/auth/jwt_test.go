package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("a", 32), time.Minute)

	signed, jti, err := mgr.GenerateAccessToken("42", "Maria Silva", "Doador")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if jti == "" {
		t.Fatal("jti vazio")
	}

	claims, err := mgr.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.Subject != "42" {
		t.Fatalf("subject esperado 42, veio %s", claims.Subject)
	}
	if claims.Nome != "Maria Silva" || claims.Role != "Doador" {
		t.Fatalf("claims inesperadas: %+v", claims)
	}
	if claims.ID != jti {
		t.Fatalf("jti do token (%s) difere do retornado (%s)", claims.ID, jti)
	}
}

func TestParseRejeitaTokenExpirado(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("a", 32), -time.Minute)

	signed, _, err := mgr.GenerateAccessToken("42", "Maria", "Doador")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := mgr.ParseAndValidate(signed); err == nil {
		t.Fatal("token expirado deveria ser rejeitado")
	}
}

func TestParseRejeitaSegredoErrado(t *testing.T) {
	emissor := NewJWTManager(strings.Repeat("a", 32), time.Minute)
	verificador := NewJWTManager(strings.Repeat("b", 32), time.Minute)

	signed, _, err := emissor.GenerateAccessToken("42", "Maria", "Doador")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verificador.ParseAndValidate(signed); err == nil {
		t.Fatal("assinatura com outro segredo deveria ser rejeitada")
	}
}

func TestParseRejeitaTokenAdulterado(t *testing.T) {
	mgr := NewJWTManager(strings.Repeat("a", 32), time.Minute)

	signed, _, err := mgr.GenerateAccessToken("42", "Maria", "Doador")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	adulterado := signed[:len(signed)-2] + "xx"
	if _, err := mgr.ParseAndValidate(adulterado); err == nil {
		t.Fatal("token adulterado deveria ser rejeitado")
	}
}

func TestHashEVerify(t *testing.T) {
	hash, err := Hash("senhaforte1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "senhaforte1" {
		t.Fatal("hash não pode ser a senha em claro")
	}

	ok, err := Verify("senhaforte1", hash)
	if err != nil || !ok {
		t.Fatalf("senha correta deveria verificar: ok=%v err=%v", ok, err)
	}

	ok, err = Verify("outrasenha", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("senha errada não pode verificar")
	}
}
