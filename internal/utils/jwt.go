package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shoplistapp/auth-service/internal/domain"
)

// Token codec failure classes. Signature is always checked before any claim
// is trusted; Malformed covers structurally invalid or empty input and
// ErrTokenInvalid is the catch-all for any other parse failure.
var (
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalid          = errors.New("token is invalid")
)

// JWTManager issues and validates signed access tokens
type JWTManager struct {
	secret            []byte
	issuer            string
	accessTokenExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer string, accessTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:            []byte(secret),
		issuer:            issuer,
		accessTokenExpiry: accessTokenExpiry,
	}
}

// Issue builds a signed access token for the user embedding identity and
// role claims
func (j *JWTManager) Issue(user *domain.User) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"provider": string(user.Provider),
		"roles":    user.RoleNames(),
		"iss":      j.issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(j.accessTokenExpiry).Unix(),
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies the signature and expiry of an access token and returns
// its claims
func (j *JWTManager) Validate(tokenString string) (*domain.AccessClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return j.claimsFromMap(claims)
}

func (j *JWTManager) claimsFromMap(claims jwt.MapClaims) (*domain.AccessClaims, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenInvalid)
	}

	email, ok := claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing email claim", ErrTokenInvalid)
	}

	name, ok := claims["name"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing name claim", ErrTokenInvalid)
	}

	provider, ok := claims["provider"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing provider claim", ErrTokenInvalid)
	}

	issuer, ok := claims["iss"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing iss claim", ErrTokenInvalid)
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing exp claim", ErrTokenInvalid)
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing iat claim", ErrTokenInvalid)
	}

	var roles []string
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			role, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string role claim", ErrTokenInvalid)
			}
			roles = append(roles, role)
		}
	}

	return &domain.AccessClaims{
		UserID:   sub,
		Email:    email,
		Name:     name,
		Provider: domain.Provider(provider),
		Roles:    roles,
		Issuer:   issuer,
		Exp:      int64(exp),
		Iat:      int64(iat),
	}, nil
}

// ExtractSubject validates the token and returns the subject claim
func (j *JWTManager) ExtractSubject(tokenString string) (string, error) {
	claims, err := j.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ExtractEmail validates the token and returns the email claim
func (j *JWTManager) ExtractEmail(tokenString string) (string, error) {
	claims, err := j.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// ExtractName validates the token and returns the name claim
func (j *JWTManager) ExtractName(tokenString string) (string, error) {
	claims, err := j.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Name, nil
}

// ExtractRoles validates the token and returns the roles claim
func (j *JWTManager) ExtractRoles(tokenString string) ([]string, error) {
	claims, err := j.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Roles, nil
}

// GetAccessTokenExpiry returns the access token expiry duration in seconds
func (j *JWTManager) GetAccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}
