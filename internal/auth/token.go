// Local admin tokens. Destructive kiosk-API routes (queue wipe, failed
// reset) require a short-lived bearer token minted after PIN verification.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
)

var tokenSignatureAlg = jwt.SigningMethodHS256

// AdminClaim authorizes local administrative actions on one station.
type AdminClaim struct {
	StationID string `json:"station_id"`
	jwt.RegisteredClaims
}

func NewAdminClaim(stationID string, ttl time.Duration) AdminClaim {
	now := time.Now().UTC()
	return AdminClaim{
		StationID: stationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// GenerateJWT signs the given claims with the station secret.
func GenerateJWT(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(tokenSignatureAlg, claims)
	return token.SignedString([]byte(secret))
}

func decodeJWT[T jwt.Claims](tokenString string, claimsType T, secret string) (T, error) {
	var zero T

	parsedToken, err := jwt.ParseWithClaims(tokenString, claimsType, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))

	if err != nil {
		return zero, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}

// DecodeAdminJWT validates a local admin token.
func DecodeAdminJWT(tokenString, secret string) (*AdminClaim, error) {
	return decodeJWT(tokenString, &AdminClaim{}, secret)
}
