package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nzhukovskiy/fundlink-api/models"
)

const (
	RoleStartup  = "STARTUP"
	RoleInvestor = "INVESTOR"
)

type contextKey string

const UserIDKey = contextKey("userID")
const UserRoleKey = contextKey("userRole")
const TokenIDKey = contextKey("tokenID")
const TokenExpiryKey = contextKey("tokenExpiry")
const RequestIDKey = contextKey("requestID")

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrInvalidToken = errors.New("invalid token")
)

// Revocation is where logged-out token ids are kept. Redis is preferred; the
// revoked_tokens table is used when Redis is not configured.
type Revocation struct {
	Redis *redis.Client
	DB    *gorm.DB
}

// Revoked is the process-wide revocation store, set up by main.
var Revoked = &Revocation{}

// Claims is what the API reads from an access token.
type Claims struct {
	UserID    uint
	Role      string
	ID        string
	ExpiresAt time.Time
}

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return []byte(secret), nil
}

// GenerateAccessToken issues an access token for a startup or an investor.
func GenerateAccessToken(userID uint, role string) (string, error) {
	return GenerateAccessTokenWithExpiry(userID, role, 24*time.Hour)
}

func GenerateAccessTokenWithExpiry(userID uint, role string, expiry time.Duration) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}
	jti, err := generateJTI(16)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   userID,
		"role": role,
		"exp":  now.Add(expiry).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  jti,
	}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		claims["aud"] = aud
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		claims["iss"] = iss
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateAccessToken checks signature, registered claims and revocation.
func ValidateAccessToken(ctx context.Context, tokenStr string) (*Claims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	out := &Claims{}
	out.UserID, err = uintClaim(claims["id"])
	if err != nil || out.UserID == 0 {
		return nil, ErrInvalidToken
	}
	out.Role, _ = claims["role"].(string)
	if out.Role != RoleStartup && out.Role != RoleInvestor {
		return nil, ErrInvalidToken
	}
	out.ID, _ = claims["jti"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	if out.ID != "" && Revoked.IsRevoked(ctx, out.ID) {
		return nil, ErrTokenRevoked
	}
	return out, nil
}

func uintClaim(v interface{}) (uint, error) {
	switch n := v.(type) {
	case float64:
		return uint(n), nil
	case int:
		return uint(n), nil
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return uint(u), err
	default:
		return 0, fmt.Errorf("unexpected claim type %T", v)
	}
}

// IsRevoked reports whether jti was logged out. Store outages do not fail
// authentication.
func (r *Revocation) IsRevoked(ctx context.Context, jti string) bool {
	if r.Redis != nil {
		res, err := r.Redis.Get(ctx, "jwt:blacklist:"+jti).Result()
		return err == nil && res == "1"
	}
	if r.DB != nil {
		var rec models.RevokedToken
		err := r.DB.WithContext(ctx).Where("id = ?", jti).First(&rec).Error
		return err == nil
	}
	return false
}

// Revoke blacklists jti for ttl.
func (r *Revocation) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("empty jti")
	}
	if r.Redis != nil {
		return r.Redis.Set(ctx, "jwt:blacklist:"+jti, "1", ttl).Err()
	}
	if r.DB != nil {
		rec := models.RevokedToken{ID: jti, RevokedAt: time.Now()}
		return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"revoked_at"}),
		}).Create(&rec).Error
	}
	return errors.New("no revocation store configured")
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return tok, tok != ""
}

// WithClaims stores the authenticated caller in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, c.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, c.Role)
	ctx = context.WithValue(ctx, TokenIDKey, c.ID)
	return context.WithValue(ctx, TokenExpiryKey, c.ExpiresAt)
}

func GetUserID(r *http.Request) (uint, bool) {
	id, ok := r.Context().Value(UserIDKey).(uint)
	return id, ok
}

func GetUserRole(r *http.Request) string {
	role, _ := r.Context().Value(UserRoleKey).(string)
	return role
}

// GetTokenID returns the jti and expiry of the caller's token.
func GetTokenID(r *http.Request) (string, time.Time) {
	jti, _ := r.Context().Value(TokenIDKey).(string)
	exp, _ := r.Context().Value(TokenExpiryKey).(time.Time)
	return jti, exp
}

func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
