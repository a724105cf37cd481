package auth

import "testing"

func TestHashDecoyDecodificavel(t *testing.T) {
	ok, err := Verify("qualquer-senha", hashDecoy)
	if err != nil {
		t.Fatalf("hash fictício deveria ser decodificável: %v", err)
	}
	if ok {
		t.Fatal("hash fictício não pode corresponder a senha alguma")
	}
}
