package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager signs and verifies HS256 tokens. User access tokens and
// quotation share tokens use the same signing key and mechanism but
// distinct audiences and claim shapes, so one can never pass as the other.
type TokenManager struct {
	secret  []byte
	issuer  string
	userTTL time.Duration
}

const (
	audienceUser  = "cotizo/user"
	audienceShare = "cotizo/share"
)

func NewTokenManager(secret string, issuer string, userTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, userTTL: userTTL}
}

type userClaims struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type shareClaims struct {
	QuotationID int64 `json:"quotation_id"`
	jwt.RegisteredClaims
}

// IssueAccessToken creates a session token for an authenticated user.
func (m *TokenManager) IssueAccessToken(user *User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.userTTL)
	claims := userClaims{
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			Audience:  jwt.ClaimStrings{audienceUser},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyAccessToken validates a user token and returns its claims.
func (m *TokenManager) VerifyAccessToken(token string) (userID int64, email, fullName, role string, err error) {
	var claims userClaims
	if err := m.parse(token, &claims, audienceUser); err != nil {
		return 0, "", "", "", err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", "", "", errors.New("malformed subject claim")
	}
	return id, claims.Email, claims.FullName, claims.Role, nil
}

// IssueShareToken creates a read-only share credential bound to one
// quotation. It cannot be revoked individually; re-issuing replaces it.
func (m *TokenManager) IssueShareToken(quotationID int64, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := shareClaims{
		QuotationID: quotationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{audienceShare},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign share token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyShareToken validates a share token and returns the quotation it
// grants access to. Expired or user-audience tokens are rejected.
func (m *TokenManager) VerifyShareToken(token string) (int64, error) {
	var claims shareClaims
	if err := m.parse(token, &claims, audienceShare); err != nil {
		return 0, err
	}
	if claims.QuotationID <= 0 {
		return 0, errors.New("missing quotation claim")
	}
	return claims.QuotationID, nil
}

func (m *TokenManager) parse(token string, claims jwt.Claims, audience string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}
