package auth

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/georgemunganga/shopfront-api/internal/modules/user"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = apperr.New(apperr.KindUnauthenticated, "token_expired", "token expired")
	ErrTokenInvalid = apperr.New(apperr.KindUnauthenticated, "token_invalid", "invalid token")
)

// Claims is the payload carried by a session token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// TokenIssuer mints and verifies HS256 session tokens with a single process-wide
// secret. There is no rotation or revocation: changing the secret invalidates every
// outstanding token.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of t that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// Issue encodes the user's id and email with an expiry of now + ttl.
func (t *TokenIssuer) Issue(u *user.User) (string, error) {
	issuedAt := t.now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Add(t.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. A token is expired once now >= exp.
func (t *TokenIssuer) Verify(tokenString string) (*Identity, error) {
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID <= 0 || claims.ExpiresAt == 0 {
		return nil, ErrTokenInvalid
	}
	if t.now().Unix() >= claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}
