package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// serviceIssuer はサービストークンの発行者。
	serviceIssuer = "taskbot-runner"
	// serviceAudience はサービストークンの受け手。
	serviceAudience = "taskbot-resolver"
	// ServiceTokenTTL はサービストークンの既定の有効期間。
	ServiceTokenTTL = 2 * time.Minute
)

// ServiceClaims はランナーが解決サービスを呼び出す際のJWTクレーム。
type ServiceClaims struct {
	jwt.RegisteredClaims
	// RunID はトークンを発行したパイプライン実行のID。
	RunID string `json:"run_id,omitempty"`
}

// GenerateServiceToken は共有シークレットで署名した短命のサービストークンを生成する。
// ランナーがチャンクごとの一括解決リクエストに付与する。
func GenerateServiceToken(secret, runID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    serviceIssuer,
			Audience:  jwt.ClaimStrings{serviceAudience},
		},
		RunID: runID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("サービストークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ServiceAuth はサービストークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "run_id" を設定する。
func ServiceAuth(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(serviceIssuer),
		jwt.WithAudience(serviceAudience),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &ServiceClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set("run_id", claims.RunID)
		c.Next()
	}
}

// GetRunID はGinコンテキストからサービストークンの実行IDを取得する。
// ServiceAuthミドルウェアが事前に適用されている必要がある。
func GetRunID(c *gin.Context) string {
	runID, _ := c.Get("run_id")
	if id, ok := runID.(string); ok {
		return id
	}
	return ""
}
