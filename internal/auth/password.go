package auth

import (
	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id. O salt é sorteado por chamada e fica embutido
// no próprio hash codificado, junto com os parâmetros.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash Argon2id (lendo salt e parâmetros do hash).
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}

// hashDecoy é um hash sintático válido que não corresponde a senha alguma.
// Carrega os mesmos parâmetros de Hash para que a comparação custe igual.
const hashDecoy = "$argon2id$v=19$m=65536,t=3,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// VerifyDecoy compara a senha contra o hash fictício. Usado no login quando o
// email não está cadastrado, igualando o tempo ao de uma senha incorreta.
func VerifyDecoy(password string) {
	_, _ = argon2id.ComparePasswordAndHash(password, hashDecoy)
}
