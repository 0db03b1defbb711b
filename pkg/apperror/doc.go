// Package apperror はゲートウェイ全体で共通のエラー型を提供する。
//
// バックエンド呼び出し、リクエストの解析、業務ルールのいずれで発生した失敗も
// HTTPステータスコードと原因文字列を持つ *Error に変換され、
// HTTPレスポンスへの変換は境界（Respond）で一度だけ行われる。
package apperror
