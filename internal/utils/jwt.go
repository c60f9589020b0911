package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleStaff marks tokens allowed to drive administrative order transitions.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

type jwtCustomClaims struct {
	CustomerID uint   `json:"customer_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	CustomerID uint
	Role       string
}

// GenerateToken creates a signed JWT for the provided customer. Production
// tokens come from the identity service; cmd/devtoken uses this for local runs.
func GenerateToken(secret string, customerID uint, role string, ttl time.Duration) (string, error) {
	if role == "" {
		role = RoleCustomer
	}
	claims := &jwtCustomClaims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(customerID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded identity.
func ParseToken(secret, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	if claims.CustomerID == 0 {
		return Identity{}, errors.New("token carries no customer id")
	}
	return Identity{CustomerID: claims.CustomerID, Role: claims.Role}, nil
}
