package httpapi

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/henry1266/pharmacy-pos-sub010/internal/domain"
)

const (
	userStoreTimeout  = 3 * time.Second
	tokenIssuer       = "pharmacy-pos"
	minUsernameLength = 4
	minPasswordLength = 6
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInactiveAccount    = errors.New("account is inactive")
	errInvalidToken       = errors.New("invalid or expired token")
)

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// AuthManager signs HS256 access tokens for admin and staff accounts. Accounts
// live in the user store; a copy is cached here and refreshed on every login.
type AuthManager struct {
	mu        sync.RWMutex
	secret    []byte
	tokenTTL  time.Duration
	userStore UserStore
	accounts  map[string]account
}

type account struct {
	passwordHash string
	role         string
	active       bool
	createdAt    time.Time
}

type accessClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, userStore UserStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	manager := &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		userStore: userStore,
		accounts:  make(map[string]account),
	}
	ctx, cancel := context.WithTimeout(context.Background(), userStoreTimeout)
	defer cancel()
	manager.reloadAccounts(ctx)
	return manager
}

// Login refreshes the account cache first so accounts created by another
// instance can sign in without a restart.
func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	reloadCtx, cancel := context.WithTimeout(ctx, userStoreTimeout)
	a.reloadAccounts(reloadCtx)
	cancel()

	username := canonicalUsername(req.Username)
	acct, ok := a.lookup(username)
	if !ok || !passwordMatches(acct.passwordHash, req.Password) {
		return domain.LoginResponse{}, errInvalidCredentials
	}
	if !acct.active {
		return domain.LoginResponse{}, errInactiveAccount
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.issueToken(username, acct.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        acct.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(raw string) (domain.Actor, error) {
	claims := &accessClaims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (interface{}, error) {
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return domain.Actor{}, errInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: subject, Role: claims.Role}, nil
}

func (a *AuthManager) issueToken(username, role string, expiresAt time.Time) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
}

// CreateStaff adds a read-only account that may view the overtime overview.
func (a *AuthManager) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (domain.StaffUser, error) {
	a.reloadAccounts(ctx)

	username := canonicalUsername(req.Username)
	if err := validateStaffRequest(username, req.Password); err != nil {
		return domain.StaffUser{}, err
	}
	if _, exists := a.lookup(username); exists {
		return domain.StaffUser{}, errors.New("username already exists")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return domain.StaffUser{}, errors.New("failed to hash password")
	}

	user := domain.UserAccount{
		Username:  username,
		Password:  hash,
		Role:      domain.RoleStaff,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if a.userStore != nil {
		if err := a.userStore.CreateUser(ctx, user); err != nil {
			return domain.StaffUser{}, err
		}
	}
	a.remember(user)

	return domain.StaffUser{
		Username:  user.Username,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (a *AuthManager) ListStaff(ctx context.Context) []domain.StaffUser {
	a.reloadAccounts(ctx)

	a.mu.RLock()
	staff := make([]domain.StaffUser, 0, len(a.accounts))
	for username, acct := range a.accounts {
		if acct.role != domain.RoleStaff {
			continue
		}
		staff = append(staff, domain.StaffUser{
			Username:  username,
			Role:      acct.role,
			Active:    acct.active,
			CreatedAt: acct.createdAt,
		})
	}
	a.mu.RUnlock()

	sort.Slice(staff, func(i, j int) bool {
		return staff[i].Username < staff[j].Username
	})
	return staff
}

func validateStaffRequest(username, password string) error {
	switch {
	case len(username) < minUsernameLength:
		return errors.New("username must be at least 4 characters")
	case strings.ContainsAny(username, " \t\r\n"):
		return errors.New("username must not contain spaces")
	case len(strings.TrimSpace(password)) < minPasswordLength:
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

func (a *AuthManager) lookup(username string) (account, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acct, ok := a.accounts[username]
	return acct, ok
}

// remember caches user under its canonical username.
func (a *AuthManager) remember(user domain.UserAccount) {
	username := canonicalUsername(user.Username)
	if username == "" {
		return
	}
	a.mu.Lock()
	a.accounts[username] = account{
		passwordHash: user.Password,
		role:         user.Role,
		active:       user.Active,
		createdAt:    user.CreatedAt,
	}
	a.mu.Unlock()
}

// reloadAccounts copies the user store into the cache. Plain-text passwords
// left by older deployments are rewritten as bcrypt hashes on the way.
func (a *AuthManager) reloadAccounts(ctx context.Context) {
	if a.userStore == nil {
		return
	}

	users, err := a.userStore.ListUsers(ctx)
	if err != nil {
		log.Printf("[auth] WARN: could not load accounts: %v", err)
		return
	}

	for _, user := range users {
		if !isBcryptHash(user.Password) {
			hash, err := hashPassword(user.Password)
			if err != nil {
				log.Printf("[auth] WARN: could not hash legacy password for %s: %v", user.Username, err)
				continue
			}
			if err := a.userStore.UpdateUserPassword(ctx, canonicalUsername(user.Username), hash); err != nil {
				log.Printf("[auth] WARN: could not upgrade password for %s: %v", user.Username, err)
			}
			user.Password = hash
		}
		a.remember(user)
	}
}

func canonicalUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func passwordMatches(hash string, input string) bool {
	if strings.TrimSpace(input) == "" || !isBcryptHash(hash) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(value string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
