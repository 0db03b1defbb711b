package passthrough

import (
	"net/http"
)

// Processor はリクエストまたはレスポンスのボディを変換する関数。
// rは受信したリクエストで、コンテキストやヘッダーの参照に使う。
// 返したエラーはそのままクライアントへのレスポンスになる。
type Processor func(r *http.Request, body []byte) ([]byte, error)

// NoOp はボディを変更しないProcessor。
func NoOp(_ *http.Request, body []byte) ([]byte, error) {
	return body, nil
}

// Chain は複数のProcessorを順番に適用するProcessorを返す。
// 途中でエラーが発生した場合は以降のProcessorを実行しない。
func Chain(processors ...Processor) Processor {
	return func(r *http.Request, body []byte) ([]byte, error) {
		var err error
		for _, p := range processors {
			if p == nil {
				continue
			}
			if body, err = p(r, body); err != nil {
				return nil, err
			}
		}
		return body, nil
	}
}
