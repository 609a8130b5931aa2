package httpapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"placescout/backend/internal/domain"
)

// AuthManager issues and validates the bearer tokens used by the bot frontend
// and the admin dashboard. Credentials live in the account store; a small
// in-memory cache avoids a store round-trip per token parse.
type AuthManager struct {
	mu           sync.RWMutex
	secret       []byte
	tokenTTL     time.Duration
	accountStore AccountStore
	accounts     map[string]credential
}

type AccountStore interface {
	GetAdminAccount(ctx context.Context, username string) (*domain.AdminAccount, error)
	ListAdminAccounts(ctx context.Context) ([]domain.AdminAccount, error)
	CreateAdminAccount(ctx context.Context, account domain.AdminAccount) error
}

type credential struct {
	password string
	role     string
	active   bool
	created  time.Time
}

type apiClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, accountStore AccountStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	manager := &AuthManager{
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		accountStore: accountStore,
		accounts:     make(map[string]credential),
	}
	// Startup load, no request context exists yet.
	manager.bootstrapAccounts(context.Background())
	return manager
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	a.mu.RLock()
	cred, ok := a.accounts[username]
	a.mu.RUnlock()
	if !ok {
		// Cache miss: the account may have been provisioned by another
		// process after startup, so check the store directly.
		cred, ok = a.lookupAccount(context.Background(), username)
	}
	if !ok {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !verifyPassword(cred.password, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !cred.active {
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &apiClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := apiClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "placescout",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// CreateAccount provisions a dashboard account. Only reachable through
// admin-guarded routes.
func (a *AuthManager) CreateAccount(req domain.LoginRequest, role string) (domain.AdminAccount, error) {
	a.bootstrapAccounts(context.Background())
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 {
		return domain.AdminAccount{}, fmt.Errorf("username must be at least 4 characters")
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return domain.AdminAccount{}, fmt.Errorf("username must not contain spaces")
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		return domain.AdminAccount{}, fmt.Errorf("password must be at least 6 characters")
	}
	if role != "admin" && role != "viewer" {
		return domain.AdminAccount{}, fmt.Errorf("unknown role %q", role)
	}

	a.mu.RLock()
	_, exists := a.accounts[username]
	a.mu.RUnlock()
	if exists {
		return domain.AdminAccount{}, fmt.Errorf("username already exists")
	}

	now := time.Now().UTC()
	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.AdminAccount{}, fmt.Errorf("failed to hash password")
	}

	account := domain.AdminAccount{
		Username:  username,
		Password:  passwordHash,
		Role:      role,
		Active:    true,
		CreatedAt: now,
	}
	if a.accountStore != nil {
		if err := a.accountStore.CreateAdminAccount(context.Background(), account); err != nil {
			return domain.AdminAccount{}, err
		}
	}

	a.mu.Lock()
	a.accounts[username] = credential{
		password: passwordHash,
		role:     role,
		active:   true,
		created:  now,
	}
	a.mu.Unlock()

	account.Password = ""
	return account, nil
}

// ListAccounts returns the known dashboard accounts without password hashes.
func (a *AuthManager) ListAccounts() []domain.AdminAccount {
	a.bootstrapAccounts(context.Background())

	a.mu.RLock()
	result := make([]domain.AdminAccount, 0, len(a.accounts))
	for username, cred := range a.accounts {
		result = append(result, domain.AdminAccount{
			Username:  username,
			Role:      cred.role,
			Active:    cred.active,
			CreatedAt: cred.created,
		})
	}
	a.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result
}

func (a *AuthManager) lookupAccount(ctx context.Context, username string) (credential, bool) {
	if a.accountStore == nil {
		return credential{}, false
	}
	account, err := a.accountStore.GetAdminAccount(ctx, username)
	if err != nil {
		return credential{}, false
	}

	cred := credential{
		password: account.Password,
		role:     account.Role,
		active:   account.Active,
		created:  account.CreatedAt,
	}
	a.mu.Lock()
	a.accounts[username] = cred
	a.mu.Unlock()
	return cred, true
}

func (a *AuthManager) bootstrapAccounts(ctx context.Context) {
	if a.accountStore == nil {
		return
	}

	accounts, err := a.accountStore.ListAdminAccounts(ctx)
	if err != nil || len(accounts) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, account := range accounts {
		username := strings.ToLower(strings.TrimSpace(account.Username))
		if username == "" {
			continue
		}
		a.accounts[username] = credential{
			password: account.Password,
			role:     account.Role,
			active:   account.Active,
			created:  account.CreatedAt,
		}
	}
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
