package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error はHTTPステータスコードと人間が読める原因を持つエラー。
// フィールドは非公開で、生成後に変更できない。
type Error struct {
	// statusCode はクライアントに返すHTTPステータスコード。
	statusCode int
	// cause はレスポンスボディとして返す原因文字列。
	cause string
	// err は元になったエラー。ログ出力とerrors.Unwrapのためだけに保持する。
	err error
}

// New は指定したステータスコードと原因を持つエラーを生成する。
func New(statusCode int, cause string) *Error {
	return &Error{statusCode: statusCode, cause: cause}
}

// Newf はフォーマット文字列から原因を組み立ててエラーを生成する。
func Newf(statusCode int, format string, args ...any) *Error {
	return New(statusCode, fmt.Sprintf(format, args...))
}

// Wrap は元のエラーを保持したままエラーを生成する。
func Wrap(statusCode int, cause string, err error) *Error {
	return &Error{statusCode: statusCode, cause: cause, err: err}
}

// StatusCode はクライアントに返すHTTPステータスコードを返す。
func (e *Error) StatusCode() int {
	return e.statusCode
}

// Cause はレスポンスボディとして返す原因文字列を返す。
func (e *Error) Cause() string {
	return e.cause
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.cause, e.err)
	}
	return e.cause
}

// Unwrap は元になったエラーを返す。
func (e *Error) Unwrap() error {
	return e.err
}

// NetworkFailure はバックエンドに到達できなかった（DNS、接続、タイムアウト）ことを表す。
func NetworkFailure(err error) *Error {
	return Wrap(http.StatusInternalServerError, "network failure", err)
}

// BackendRejected はバックエンドが非成功ステータスを返したことを表す。
// ステータスコードとボディの内容をそのまま引き継ぐ。
func BackendRejected(statusCode int, body string) *Error {
	return New(statusCode, body)
}

// InvalidRequest は呼び出し元の入力が不正であることを表す。
func InvalidRequest(cause string) *Error {
	return New(http.StatusBadRequest, cause)
}

// Unauthorized は認証トークンが存在しない、または無効であることを表す。
func Unauthorized(cause string) *Error {
	return New(http.StatusUnauthorized, cause)
}

// Forbidden は認証済みだがリソースの所有者ではないことを表す。
func Forbidden(cause string) *Error {
	return New(http.StatusForbidden, cause)
}

// NotFound はリソースが存在しないことを表す。
func NotFound(cause string) *Error {
	return New(http.StatusNotFound, cause)
}

// MethodNotAllowed は転送できないHTTPメソッドであることを表す。
func MethodNotAllowed(method string) *Error {
	return Newf(http.StatusMethodNotAllowed, "method %s is not allowed", method)
}

// Internal はゲートウェイ内部のシリアライズや処理の失敗を表す。
func Internal(err error) *Error {
	return Wrap(http.StatusInternalServerError, "internal error", err)
}

// From は任意のエラーを *Error に変換する。
// すでに *Error であればそのまま返し、二重にラップしない。
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// StatusCode はエラーに対応するHTTPステータスコードを返す。
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return From(err).StatusCode()
}
