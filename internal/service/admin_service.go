package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor used when hashing the admin password
	BcryptCost = 10

	// RoleAdmin is the only role the console knows
	RoleAdmin = "admin"

	// DefaultTokenExpiration applies when no expiry is configured
	DefaultTokenExpiration = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid telegram id or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// AdminService authenticates the single store administrator
type AdminService interface {
	Login(ctx context.Context, telegramID int64, password string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims
type Claims struct {
	TelegramID int64  `json:"telegram_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

type adminService struct {
	adminTelegramID int64
	passwordHash    []byte
	jwtSecret       string
	tokenTTL        time.Duration
	now             func() time.Time
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(adminTelegramID int64, passwordHash, jwtSecret string, tokenTTL time.Duration) AdminService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenExpiration
	}
	return &adminService{
		adminTelegramID: adminTelegramID,
		passwordHash:    []byte(passwordHash),
		jwtSecret:       jwtSecret,
		tokenTTL:        tokenTTL,
		now:             time.Now,
	}
}

// Login checks the configured admin id and bcrypt hash and issues an access token
func (s *adminService) Login(ctx context.Context, telegramID int64, password string) (string, time.Time, error) {
	if s.adminTelegramID == 0 || telegramID != s.adminTelegramID {
		// Spend the same bcrypt time for unknown ids
		_ = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
		return "", time.Time{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.tokenTTL)
	claims := &Claims{
		TelegramID: telegramID,
		Role:       RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(telegramID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *adminService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != RoleAdmin || claims.TelegramID != s.adminTelegramID {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// HashPassword produces the bcrypt hash stored in ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}
