// Package middleware はゲートウェイで使用するGinミドルウェアを提供する。
//
// 認証トークンの検証とユーザーIDの付与、リクエストIDの採番、アクセスログ、
// メトリクス、パニックリカバリ、CORS設定を含む。
// エラーレスポンスはすべてapperror.Respondで返す。
package middleware
