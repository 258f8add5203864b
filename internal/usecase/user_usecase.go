package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/gowallet/internal/domain"
)

// UserConfig configures registration and login.
type UserConfig struct {
	AdminUsers []string
	BcryptCost int
}

// UserUseCase handles registration and login. It creates the wallet account
// alongside the credentials.
type UserUseCase struct {
	directory AccountDirectory
	creds     CredentialStore
	tokens    TokenIssuer
	metrics   LedgerMetrics
	admins    map[string]bool
	cost      int
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(
	directory AccountDirectory,
	creds CredentialStore,
	tokens TokenIssuer,
	metrics LedgerMetrics,
	cfg UserConfig,
) *UserUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	admins := make(map[string]bool, len(cfg.AdminUsers))
	for _, u := range cfg.AdminUsers {
		admins[u] = true
	}
	return &UserUseCase{
		directory: directory,
		creds:     creds,
		tokens:    tokens,
		metrics:   metrics,
		admins:    admins,
		cost:      cost,
	}
}

// RegisterInput represents input for registering a user
type RegisterInput struct {
	Username string
	Password string
}

// Register validates the credentials, opens an empty wallet and stores the
// password hash.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(input.Password, uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := uc.directory.Create(ctx, input.Username)
	uc.metrics.ObserveOperation(OpRegister, err)
	if err != nil {
		return nil, err
	}
	uc.metrics.ObserveRegistration()

	if err := uc.creds.Save(ctx, &domain.Credentials{
		Username:     input.Username,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	return account, nil
}

// LoginInput represents login input
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the issued access token.
type LoginResult struct {
	Token string
	Role  domain.Role
}

// Login verifies the password and issues a token. Deactivated accounts
// cannot log in.
func (uc *UserUseCase) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	creds, err := uc.creds.Get(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := verifyPassword(creds.PasswordHash, input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := uc.directory.Get(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if account.IsDeleted() {
		return nil, domain.ErrAccountInactive
	}

	role := domain.RoleUser
	if uc.admins[input.Username] {
		role = domain.RoleAdmin
	}

	token, err := uc.tokens.Generate(input.Username, role, account.Generation())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{Token: token, Role: role}, nil
}

// ValidateSession checks that a token issued for username still refers to
// the same account. A token minted before the account was deleted and
// re-registered carries an older generation and is rejected.
func (uc *UserUseCase) ValidateSession(ctx context.Context, username string, generation int64) error {
	account, err := uc.directory.Get(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}
	if account.Generation() != generation {
		return domain.ErrInvalidToken
	}
	return nil
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword verifies a password against a hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
