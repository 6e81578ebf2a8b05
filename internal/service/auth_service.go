package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/junes231/funnel-editor/internal/config"
	"github.com/junes231/funnel-editor/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles editor authentication
type AuthService struct {
	username  string
	password  string
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		username:  cfg.Username,
		password:  cfg.Password,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
	}
}

// Login validates credentials and returns a signed token. A zero TTL issues
// a token without expiry.
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	editorID := EditorIDFor(s.username)
	now := time.Now()
	claims := &model.EditorClaims{
		EditorID: editorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:    tokenString,
		EditorID: editorID,
	}, nil
}

// EditorIDFor derives the editor id from the account name so funnels stay
// owned across logins
func EditorIDFor(username string) string {
	return "editor_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)).String()[:8]
}

// ValidateEditorToken validates an editor JWT and returns claims
func (s *AuthService) ValidateEditorToken(tokenString string) (*model.EditorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.EditorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.EditorClaims)
	if !ok || !token.Valid || claims.EditorID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
