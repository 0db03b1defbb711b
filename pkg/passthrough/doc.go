// Package passthrough はリクエストをバックエンドサービスへそのまま転送するGinハンドラを提供する。
//
// メソッド・ヘッダー・クエリ文字列・ボディを転送し、バックエンドのレスポンスを返す。
// リクエストとレスポンスのボディはProcessorで変換できる。変換のためボディは
// 一度メモリに読み込まれるため、大きなファイルの転送には使わないこと。
//
// レスポンスのステータスの扱いはStatusPolicyでルートごとに選択する。
package passthrough
