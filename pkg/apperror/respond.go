package apperror

import (
	"github.com/gin-gonic/gin"
)

// contentTypeText はエラーレスポンスのContent-Type。
const contentTypeText = "text/plain; charset=utf-8"

// Respond はエラーをHTTPレスポンスに変換してリクエストを中断する。
// ステータスコードはそのまま使い、原因文字列をボディとして返す。
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	_ = c.Error(appErr)
	c.Data(appErr.StatusCode(), contentTypeText, []byte(appErr.Cause()))
	c.Abort()
}
