// Package bytestream はリクエスト/レスポンスボディを表す一度きりのバイトストリームを提供する。
//
// ボディは必要になるまでバッファリングされない。読み取り中の失敗は
// apperror.Error に変換され、一度エラーを返したストリームは以降の読み取りでも
// 同じエラーを返し続ける（終端状態）。
package bytestream

import (
	"bytes"
	"errors"
	"io"

	"github.com/nao1215/littlewalk/pkg/apperror"
)

// Stream は遅延評価される、再開不可能なバイトストリーム。
// 読み取りは一度だけ行える。
type Stream struct {
	// rc は元になるリーダー。
	rc io.ReadCloser
	// err は終端状態のエラー。io.EOFを含む。
	err error
	// contentType は送信元が申告したContent-Type。不明な場合は空。
	contentType string
}

// New はio.ReadCloserをStreamでラップする。
// rcがすでに*Streamであればそのまま返す。
func New(rc io.ReadCloser) *Stream {
	if s, ok := rc.(*Stream); ok {
		return s
	}
	return &Stream{rc: rc}
}

// FromBytes はバイト列から終端までの長さが確定したStreamを生成する。
func FromBytes(b []byte) *Stream {
	return &Stream{rc: io.NopCloser(bytes.NewReader(b))}
}

// Empty は空のStreamを返す。
func Empty() *Stream {
	return FromBytes(nil)
}

// WithContentType はContent-Typeを設定したStreamを返す。
func (s *Stream) WithContentType(contentType string) *Stream {
	s.contentType = contentType
	return s
}

// ContentType は送信元が申告したContent-Typeを返す。未設定の場合はfallbackを返す。
func (s *Stream) ContentType(fallback string) string {
	if s.contentType == "" {
		return fallback
	}
	return s.contentType
}

// Read はio.Readerを実装する。
// 下位のリーダーが返したエラーは一度だけapperror.Errorに変換され、以後は同じエラーを返す。
func (s *Stream) Read(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.rc.Read(p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.err = io.EOF
		} else {
			s.err = toAppError(err)
		}
		return n, s.err
	}
	return n, nil
}

// Close は下位のリーダーを閉じる。
func (s *Stream) Close() error {
	return s.rc.Close()
}

// toAppError は読み取りエラーをネットワーク障害として変換する。
func toAppError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NetworkFailure(err)
}

// ToBytes はストリームを最後まで読み取り、一つのバッファにまとめる。
// 最初のエラーで読み取りを止め、そのエラーを返す。
// rcがio.Closerであれば読み取り後に閉じる。
func ToBytes(r io.Reader) ([]byte, error) {
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, toAppError(err)
	}
	return b, nil
}
