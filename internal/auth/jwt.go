package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "kubemedic"
	defaultTTL = 72 * time.Hour
)

var (
	jwtSecret string
	tokenTTL  = defaultTTL
)

// InitJWTSecret loads the signing secret and optional token lifetime from the
// environment. Must be called before any token is issued or verified.
func InitJWTSecret() error {
	jwtSecret = os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	if ttlStr := os.Getenv("JWT_TTL_HOURS"); ttlStr != "" {
		hours, err := strconv.Atoi(ttlStr)
		if err != nil || hours < 1 {
			return fmt.Errorf("invalid JWT_TTL_HOURS value %q", ttlStr)
		}
		tokenTTL = time.Duration(hours) * time.Hour
	}

	return nil
}

func GenerateJWT(userID uint, email string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":     issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
		"user_id": userID,
		"email":   email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return token, nil
}
