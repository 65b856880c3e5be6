package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderSecretToken は起動リクエストに付与する共有シークレットのヘッダーキー。
const HeaderSecretToken = "X-Custom-Token"

// SecretToken は共有シークレットヘッダーを検証するGinミドルウェアを返す。
// ヘッダーの値が設定済みトークンと一致しない場合は401を返し、後続のハンドラを実行しない。
// トークンが未設定の場合はすべてのリクエストを拒否する。
func SecretToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderSecretToken)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid Auth",
			})
			return
		}
		c.Next()
	}
}
