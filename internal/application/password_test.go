package application

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// testArgon2Params keeps hashing fast in tests.
var testArgon2Params = Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("s3cret-pass", testArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding: %s", hash)
	}

	if err := VerifyPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	other, err := CreatePasswordHash("s3cret-pass", testArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if other == hash {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword failed: %v", err)
	}

	if err := VerifyPassword(string(hash), "legacy-pass"); err != nil {
		t.Fatalf("expected bcrypt hash to verify, got %v", err)
	}
	if err := VerifyPassword(string(hash), "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPassword_MalformedHashes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
		want error
	}{
		{name: "empty", hash: "", want: ErrInvalidPasswordHash},
		{name: "plain text", hash: "password", want: ErrInvalidPasswordHash},
		{name: "wrong algorithm", hash: "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", want: ErrInvalidPasswordHash},
		{name: "wrong version", hash: "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA", want: ErrIncompatiblePasswordVersion},
		{name: "bad salt", hash: "$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA", want: ErrInvalidPasswordHash},
		{name: "truncated bcrypt", hash: "$2a$10$short", want: ErrInvalidPasswordHash},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := VerifyPassword(tc.hash, "anything"); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSecurityAnswers(t *testing.T) {
	t.Parallel()

	if got := NormalizeSecurityAnswer("  Blue   WHALE "); got != "blue whale" {
		t.Fatalf("unexpected normalisation: %q", got)
	}

	hash, err := HashSecurityAnswer("Rex")
	if err != nil {
		t.Fatalf("HashSecurityAnswer failed: %v", err)
	}
	if strings.Contains(hash, "rex") {
		t.Fatalf("hash must not contain the answer: %s", hash)
	}
	if err := VerifySecurityAnswer(hash, " rex "); err != nil {
		t.Fatalf("expected normalised answer to verify, got %v", err)
	}
	if err := VerifySecurityAnswer(hash, "fido"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
