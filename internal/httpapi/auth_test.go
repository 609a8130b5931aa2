package httpapi

import (
	"testing"
	"time"

	"placescout/backend/internal/domain"
	"placescout/backend/internal/store/memory"
)

func TestLoginAndParseToken(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a token")
	}
	if resp.Role != "admin" {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatal("expected wrong password to fail")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "admin123"}); err == nil {
		t.Fatal("expected unknown user to fail")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)
	other := NewAuthManager("a-different-secret", time.Hour, repo)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestCreateAccountValidation(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	cases := []struct {
		name     string
		username string
		password string
		role     string
	}{
		{"short username", "ab", "secret99", "viewer"},
		{"spaces in username", "a user", "secret99", "viewer"},
		{"short password", "botsvc", "123", "viewer"},
		{"unknown role", "botsvc", "secret99", "root"},
		{"duplicate", "admin", "secret99", "viewer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.CreateAccount(domain.LoginRequest{Username: tc.username, Password: tc.password}, tc.role)
			if err == nil {
				t.Fatalf("expected %s to be rejected", tc.name)
			}
		})
	}

	account, err := auth.CreateAccount(domain.LoginRequest{Username: "botsvc", Password: "bot-secret"}, "viewer")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if account.Password != "" {
		t.Fatal("returned account must not carry the password hash")
	}

	// The fresh account can log in.
	if _, err := auth.Login(domain.LoginRequest{Username: "botsvc", Password: "bot-secret"}); err != nil {
		t.Fatalf("login with new account: %v", err)
	}
}

func TestListAccountsSortedWithoutHashes(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	if _, err := auth.CreateAccount(domain.LoginRequest{Username: "zebra", Password: "secret99"}, "viewer"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	accounts := auth.ListAccounts()
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Username != "admin" || accounts[1].Username != "zebra" {
		t.Fatalf("expected sorted usernames, got %+v", accounts)
	}
	for _, account := range accounts {
		if account.Password != "" {
			t.Fatalf("account %s leaks its password hash", account.Username)
		}
	}
}
