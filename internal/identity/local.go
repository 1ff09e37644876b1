package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/stylinx-storefront/internal/users"
	"github.com/angelmondragon/stylinx-storefront/pkg/auth"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	"github.com/angelmondragon/stylinx-storefront/pkg/db"
	"github.com/angelmondragon/stylinx-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/angelmondragon/stylinx-storefront/pkg/security"
	"gorm.io/gorm"
)

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// LocalParams configures the database backed provider.
type LocalParams struct {
	DB       *gorm.DB
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
	// Initial is the restored user. It is checked against the table and dropped when the
	// account no longer exists.
	Initial *User
	Now     func() time.Time
}

// LocalProvider keeps accounts in the identity_users table and issues HS256 ID tokens.
type LocalProvider struct {
	users     userRepository
	jwtCfg    config.JWTConfig
	pwCfg     config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
	observers *observers

	mu      sync.Mutex
	idToken string
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider validates params and returns a provider.
func NewLocalProvider(ctx context.Context, p LocalParams) (*LocalProvider, error) {
	if p.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if strings.TrimSpace(p.JWT.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	repo := users.NewRepository(p.DB)
	initial, err := restoreUser(ctx, repo, logg, p.Initial)
	if err != nil {
		return nil, err
	}
	return &LocalProvider{
		users:     repo,
		jwtCfg:    p.JWT,
		pwCfg:     p.Password,
		logg:      logg,
		now:       now,
		observers: newObservers(initial),
	}, nil
}

// restoreUser reloads the restored account so the session reflects the current row.
func restoreUser(ctx context.Context, repo userRepository, logg *logger.Logger, restored *User) (*User, error) {
	if restored == nil || strings.TrimSpace(restored.ID) == "" {
		return nil, nil
	}
	ctx = logg.WithUserID(ctx, restored.ID)
	record, err := repo.FindByID(ctx, restored.ID)
	if err != nil {
		if db.IsNotFound(err) {
			logg.Warn(ctx, "restored user no longer exists")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore user")
	}
	return &User{
		ID:       record.ID,
		Email:    record.Email,
		FullName: DisplayName(record.FullName, record.Email),
	}, nil
}

// Login checks the password against the stored hash.
func (l *LocalProvider) Login(ctx context.Context, email, password string) (*User, error) {
	record, err := l.users.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, unauthorized(loginFailedMessage, "EMAIL_NOT_FOUND")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	ok, err := security.VerifyPassword(password, record.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, unauthorized(loginFailedMessage, "INVALID_PASSWORD")
	}
	return l.signIn(ctx, record)
}

// Signup creates the account. A short password or a taken email is refused like the
// hosted provider refuses them.
func (l *LocalProvider) Signup(ctx context.Context, fullName, email, password string) (*User, error) {
	if err := security.CheckPasswordPolicy(password); err != nil {
		return nil, unauthorized(signupFailedMessage, "WEAK_PASSWORD")
	}
	hash, err := security.HashPassword(password, l.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	record, err := l.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, unauthorized(signupFailedMessage, "EMAIL_EXISTS")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return l.signIn(ctx, record)
}

// Logout drops the issued token.
func (l *LocalProvider) Logout(ctx context.Context) error {
	l.mu.Lock()
	l.idToken = ""
	l.mu.Unlock()
	l.observers.publish(nil)
	return nil
}

// ObserveSession registers fn for session changes.
func (l *LocalProvider) ObserveSession(fn func(*User)) func() {
	return l.observers.subscribe(fn)
}

// IDToken returns the token of the current session, empty when signed out.
func (l *LocalProvider) IDToken() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idToken
}

// signIn mints a token and derives the user from its claims, the same path a remote
// provider's token takes.
func (l *LocalProvider) signIn(ctx context.Context, record *models.User) (*User, error) {
	token, err := auth.MintIDToken(l.jwtCfg, l.now(), auth.IDTokenPayload{
		UserID:   record.ID,
		Email:    record.Email,
		FullName: record.FullName,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint id token")
	}
	claims, err := auth.ParseIDToken(l.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse id token")
	}
	user := &User{
		ID:       claims.UID(),
		Email:    claims.Email,
		FullName: DisplayName(claims.Name, claims.Email),
	}

	l.mu.Lock()
	l.idToken = token
	l.mu.Unlock()

	l.logg.Info(l.logg.WithUserID(ctx, user.ID), "local identity signed in")
	l.observers.publish(user)
	return user.Clone(), nil
}

func unauthorized(message, reason string) error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, message).
		WithDetails(map[string]any{"reason": reason})
}
