package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidCoachID = errors.New("invalid coach id")
	ErrDevAuthOff     = errors.New("dev auth is disabled")
)

// DefaultUserID владеет всеми данными, когда AUTH_MODE=none
const DefaultUserID = "default"

const (
	devCoachID = "dev-coach"
	devTTL     = 30 * 24 * time.Hour
)

var coachIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// Service: выпуск и проверка JWT для тренеров
type Service struct {
	config *config.Config
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg, now: time.Now}
}

// SignInDev: dev-авторизация, выдает JWT на 30 дней
func (s *Service) SignInDev(ctx context.Context, req DevAuthRequest) (*DevAuthResponse, error) {
	_ = ctx

	if s.config.AuthMode != config.AuthModeDev {
		return nil, ErrDevAuthOff
	}

	coachID := strings.TrimSpace(req.CoachID)
	if coachID == "" {
		coachID = devCoachID
	}
	if !coachIDPattern.MatchString(coachID) {
		return nil, ErrInvalidCoachID
	}

	accessToken, err := s.GenerateJWT(coachID, devTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(devTTL.Seconds()),
		CoachID:     coachID,
	}, nil
}

// GenerateJWT подписывает HS256 токен; ttl <= 0 берётся из JWT_TTL_MINUTES
func (s *Service) GenerateJWT(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Duration(s.config.JWTTTLMinutes) * time.Minute
	}
	now := s.now()

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": s.config.JWTIssuer,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT: проверка JWT токена, возвращает subject
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}
