package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/littlewalk/internal/entity"
	"github.com/nao1215/littlewalk/pkg/bytestream"
)

// fakeAuthClient はテスト用のAuthClient。
type fakeAuthClient struct {
	mu sync.Mutex
	// exists はExistsUserが返す値。
	exists bool
	// userID はVerifyTokenが返すユーザーID。
	userID string
	// err は全ての操作が返すエラー。
	err error
	// calls は呼び出された操作名の履歴。
	calls []string
}

func (f *fakeAuthClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAuthClient) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAuthClient) SignUp(_ context.Context, phone, _ string) (*bytestream.Stream, error) {
	f.record("SignUp")
	if f.err != nil {
		return nil, f.err
	}
	return bytestream.FromBytes([]byte(`{"phone":"` + phone + `"}`)), nil
}

func (f *fakeAuthClient) Login(_ context.Context, _, _ string) (*bytestream.Stream, error) {
	f.record("Login")
	if f.err != nil {
		return nil, f.err
	}
	return bytestream.FromBytes([]byte(`{"token":"login-token"}`)), nil
}

func (f *fakeAuthClient) VerifyToken(_ context.Context, _ string) (string, error) {
	f.record("VerifyToken")
	return f.userID, f.err
}

func (f *fakeAuthClient) ExistsUser(_ context.Context, _ string) (bool, error) {
	f.record("ExistsUser")
	return f.exists, f.err
}

func (f *fakeAuthClient) GenerateToken(_ context.Context, _ string) (*bytestream.Stream, error) {
	f.record("GenerateToken")
	if f.err != nil {
		return nil, f.err
	}
	return bytestream.FromBytes([]byte(`{"token":"sms-token"}`)), nil
}

// fakeSMSClient はテスト用のSMSVerificationCodeClient。
type fakeSMSClient struct {
	// ok はVerifyCodeが返す値。
	ok bool
	// err は全ての操作が返すエラー。
	err error
}

func (f *fakeSMSClient) SendCode(_ context.Context, _ string) (*bytestream.Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return bytestream.FromBytes([]byte(`{}`)), nil
}

func (f *fakeSMSClient) VerifyCode(_ context.Context, _, _ string) (bool, error) {
	return f.ok, f.err
}

// fakeDogClient はテスト用のDogClient。
// 複数のgoroutineから同時に呼び出される。
type fakeDogClient struct {
	mu sync.Mutex
	// dogs はIDから犬への対応。
	dogs map[string]entity.Dog
	// owners は犬IDから飼い主IDへの対応。
	owners map[string]string
	// failOn はこのIDを含む検索でエラーを返す。
	failOn map[string]error
	// delays はこのIDを含む検索の応答を遅らせる。
	delays map[string]time.Duration
	// queries は受け取った検索条件。
	queries []entity.DogQuery
	// updates はUpdateDogとUpdateDogPortraitの呼び出し回数。
	updates int
	// lastBody はUpdateDogに渡されたボディ。
	lastBody []byte
}

func (f *fakeDogClient) QueryDogs(ctx context.Context, q entity.DogQuery) ([]entity.Dog, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	for _, id := range q.IDIn {
		if d, ok := f.delays[id]; ok {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err, ok := f.failOn[id]; ok {
			return nil, err
		}
	}

	var out []entity.Dog
	for _, id := range q.IDIn {
		if d, ok := f.dogs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDogClient) IsOwnerOfTheDog(_ context.Context, ownerID, dogID string) (bool, error) {
	return f.owners[dogID] == ownerID, nil
}

func (f *fakeDogClient) UpdateDog(_ context.Context, _ string, body []byte) (*bytestream.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.lastBody = body
	return bytestream.FromBytes(body), nil
}

func (f *fakeDogClient) UpdateDogPortrait(_ context.Context, dogID, portraitID string) (*bytestream.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return bytestream.FromBytes([]byte(`{"id":"` + dogID + `","portrait_id":"` + portraitID + `"}`)), nil
}

func (f *fakeDogClient) QueryBreeds(_ context.Context, category string) (*bytestream.Stream, error) {
	return bytestream.FromBytes([]byte(`[{"category":"` + category + `"}]`)), nil
}

func (f *fakeDogClient) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

// fakeUploadClient はテスト用のUploadClient。
type fakeUploadClient struct {
	// contentType, userID, sizeLimit, body は最後のUploadの引数。
	contentType string
	userID      string
	sizeLimit   int64
	body        string
}

func (f *fakeUploadClient) Upload(_ context.Context, contentType, userID string, sizeLimit int64, body io.Reader) (*bytestream.Stream, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.contentType, f.userID, f.sizeLimit, f.body = contentType, userID, sizeLimit, string(b)
	return bytestream.FromBytes([]byte(`{"id":"file-1"}`)), nil
}

func (f *fakeUploadClient) Download(_ context.Context, id string) (*bytestream.Stream, error) {
	return bytestream.New(io.NopCloser(strings.NewReader("content of " + id))), nil
}

// fakeWalkRequestClient はテスト用のWalkRequestClient。
type fakeWalkRequestClient struct {
	// requests はQueryWalkRequestsが返す散歩リクエスト。
	requests []entity.UpstreamWalkRequest
	// err はQueryWalkRequestsが返すエラー。
	err error
	// lastQuery は最後に受け取った検索条件。
	lastQuery entity.WalkRequestQuery
}

func (f *fakeWalkRequestClient) QueryWalkRequests(_ context.Context, q entity.WalkRequestQuery) ([]entity.UpstreamWalkRequest, error) {
	f.lastQuery = q
	return f.requests, f.err
}

// dog はテスト用の犬を生成する。
func dog(id string) entity.Dog {
	return entity.Dog{ID: id, Name: "dog-" + id, OwnerID: "owner", Tags: []string{}}
}
