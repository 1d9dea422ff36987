package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/tasktrackr/internal/model"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPasswordCost("starplatinum", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordCost failed: %v", err)
	}
	if hash == "starplatinum" {
		t.Fatal("hash equals the plain password")
	}
	if !CheckPasswordHash("starplatinum", hash) {
		t.Error("expected password to match its hash")
	}
	if CheckPasswordHash("theworld", hash) {
		t.Error("expected a different password not to match")
	}
}

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	user := model.User{ID: "u1", Email: "jotaro@jojo.com"}

	session, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if session.User.ID != "u1" || session.AccessToken == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	claims, err := issuer.Parse(session.AccessToken)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "jotaro@jojo.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	session, _ := issuer.Issue(model.User{ID: "u1"})

	other := NewIssuer([]byte("other-secret"), time.Hour)
	if _, err := other.Parse(session.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	if _, err := issuer.Parse("mock_jwt_1_1700000000"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}

	expired := NewIssuer([]byte("secret"), time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Parse(session.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		username string
		want     error
	}{
		{"valid", "jotaro@jojo.com", "starplatinum", "Jotaro", nil},
		{"bad email", "jotaro", "starplatinum", "Jotaro", ErrInvalidEmail},
		{"display name email", "Jotaro <jotaro@jojo.com>", "starplatinum", "Jotaro", ErrInvalidEmail},
		{"short password", "jotaro@jojo.com", "ora", "Jotaro", ErrPasswordTooShort},
		{"short username", "jotaro@jojo.com", "starplatinum", " J ", ErrUsernameTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateSignup(tt.email, tt.password, tt.username); !errors.Is(err, tt.want) {
				t.Errorf("ValidateSignup() = %v, want %v", err, tt.want)
			}
		})
	}

	if err := ValidateLogin("dio@jojo.com", "theworld"); err != nil {
		t.Errorf("ValidateLogin() = %v", err)
	}
}

func TestRandomAvatar(t *testing.T) {
	for i := 0; i < 20; i++ {
		a := RandomAvatar()
		if a.Emoji == "" || a.Stand == "" {
			t.Fatalf("incomplete avatar: %+v", a)
		}
	}

	var u model.User
	Avatars[1].Apply(&u)
	if u.StandName != "The World" || u.AvatarEmoji == "" || u.AvatarURL == "" {
		t.Errorf("avatar not applied: %+v", u)
	}
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "jwt.key")

	first, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSecret failed: %v", err)
	}
	if len(first) != secretBytes*2 {
		t.Errorf("unexpected secret length %d", len(first))
	}

	second, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSecret failed: %v", err)
	}
	if string(first) != string(second) {
		t.Error("secret changed between loads")
	}
}
