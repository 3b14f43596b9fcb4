package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vibez/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// ErrTokenRevoked is returned for tokens whose jti has been blacklisted.
var ErrTokenRevoked = errors.New("token has been revoked")

// IdentityProvider resolves a bearer token to a stable user ID.
type IdentityProvider interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// JWTIdentity validates HS256 tokens issued by the account service.
type JWTIdentity struct {
	secret   []byte
	issuer   string
	audience string
	redis    *redis.Client
}

// NewJWTIdentity builds a JWT identity provider. rdb may be nil, in which case
// revocation is not checked.
func NewJWTIdentity(secret, issuer, audience string, rdb *redis.Client) *JWTIdentity {
	return &JWTIdentity{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		redis:    rdb,
	}
}

// Authenticate parses the token and returns the user ID in its subject claim.
func (j *JWTIdentity) Authenticate(ctx context.Context, tokenString string) (uint, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return 0, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.New("missing subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid user ID in token")
	}

	if jti, ok := claims["jti"].(string); ok && jti != "" && j.redis != nil {
		n, err := j.redis.Exists(ctx, "blacklist:"+jti).Result()
		if err == nil && n > 0 {
			return 0, ErrTokenRevoked
		}
	}

	return uint(userID), nil
}

// AuthRequired rejects requests without a valid bearer token and stores the
// resolved user ID in c.Locals("userID").
func AuthRequired(identity IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := identity.Authenticate(c.UserContext(), token)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, ErrTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		c.Locals("userID", userID)
		c.SetUserContext(WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
