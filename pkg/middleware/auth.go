package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/portfolioservice/pkg/config"
	"github.com/wyfcoding/portfolioservice/pkg/logger"
)

const (
	userIDKey      = "auth_user_id"
	bearerTokenKey = "auth_bearer_token"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errNoSubject    = errors.New("token has no user")
)

// Claims 访问令牌声明，user_id 缺失时回退到 sub
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal 返回令牌代表的用户
func (c *Claims) Principal() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// TokenVerifier 校验 HS256 令牌
type TokenVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewTokenVerifier 创建校验器，issuer 为空时不校验签发方
func NewTokenVerifier(cfg config.AuthConfig) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenVerifier{secret: []byte(cfg.JWTSecret), opts: opts}
}

// Verify 解析并校验令牌
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, err
	}
	if claims.Principal() == "" {
		return nil, errNoSubject
	}
	return claims, nil
}

// Sign 签发令牌，测试与运维工具使用
func (v *TokenVerifier) Sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// AuthMiddleware 校验 Authorization: Bearer 令牌，并写入用户与原始令牌
func AuthMiddleware(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *Claims
			if claims, err = v.Verify(raw); err == nil {
				c.Set(userIDKey, claims.Principal())
				c.Set(bearerTokenKey, raw)
				c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), claims.Principal()))
				c.Next()
				return
			}
		}

		logger.Warn(c.Request.Context(), "authentication failed", "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "unauthorized",
			"request_id": RequestID(c),
		})
	}
}

// UserIDFrom 当前已认证用户
func UserIDFrom(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// BearerTokenFrom 当前请求的原始令牌，转发给下游服务
func BearerTokenFrom(c *gin.Context) string {
	return c.GetString(bearerTokenKey)
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}
