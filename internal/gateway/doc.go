// Package gateway はゲートウェイのHTTPサーバーを組み立てる。
//
// 設定の読み込み、バックエンドクライアントの生成、ルーティングを担当する。
// 外部からアクセス可能な唯一のサービスであり、認証の境界線として機能する。
// /apis 配下は認証必須で、検証済みのユーザーIDをX-User-IDとして内部サービスに転送する。
//
// 明示的に登録していないパスは、パスの接頭辞で既定のバックエンドへ転送する。
package gateway
