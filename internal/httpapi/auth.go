package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
)

// EmployeeStore is the slice of the repository the auth layer needs.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error)
}

type AuthManager struct {
	secret    []byte
	tokenTTL  time.Duration
	employees EmployeeStore
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
	Nome string `json:"nome,omitempty"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, employees EmployeeStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	return &AuthManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		employees: employees,
	}
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	employee, err := a.employees.GetEmployeeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResponse{}, errors.New("invalid credentials")
		}
		return domain.LoginResponse{}, err
	}

	if !verifyPassword(employee.PasswordHash, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	switch employee.Status {
	case domain.EmployeeAtivo:
	case domain.EmployeePendente:
		return domain.LoginResponse{}, errors.New("account pending approval")
	default:
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(employee, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		EmployeeID:  employee.ID,
		Role:        employee.Role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

// Signup registers a pending vendedor account. The account cannot log in
// until an admin activates it.
func (a *AuthManager) Signup(ctx context.Context, req domain.SignupRequest) (domain.Employee, error) {
	nome := strings.TrimSpace(req.NomeCompleto)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if nome == "" {
		return domain.Employee{}, fmt.Errorf("nome_completo is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return domain.Employee{}, fmt.Errorf("valid email is required")
	}
	if strings.TrimSpace(req.Password) == "" || len(req.Password) < 6 {
		return domain.Employee{}, fmt.Errorf("password must be at least 6 characters")
	}

	if _, err := a.employees.GetEmployeeByEmail(ctx, email); err == nil {
		return domain.Employee{}, fmt.Errorf("email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Employee{}, err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to hash password")
	}

	created, err := a.employees.CreateEmployee(ctx, domain.Employee{
		NomeCompleto: nome,
		Email:        email,
		Role:         domain.RoleVendedor,
		Status:       domain.EmployeePendente,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return domain.Employee{}, err
	}
	return *created, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
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
	return domain.Actor{EmployeeID: sub, Nome: claims.Nome, Role: claims.Role}, nil
}

func (a *AuthManager) sign(employee *domain.Employee, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   employee.ID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "lojapos",
		},
		Role: employee.Role,
		Nome: employee.NomeCompleto,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
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
