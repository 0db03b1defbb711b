package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/littlewalk/internal/entity"
	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
	"github.com/nao1215/littlewalk/pkg/middleware"
)

const (
	// contentTypeJSON はJSONレスポンスのContent-Type。
	contentTypeJSON = "application/json"
	// contentTypeOctetStream はContent-Typeが不明なファイルのContent-Type。
	contentTypeOctetStream = "application/octet-stream"
)

// respondStream はストリームをバッファリングせずにレスポンスとして返す。
// ストリームにContent-Typeが無ければcontentTypeを使う。
func respondStream(c *gin.Context, stream *bytestream.Stream, contentType string) {
	defer stream.Close()
	c.DataFromReader(http.StatusOK, -1, stream.ContentType(contentType), stream, nil)
}

// bindJSON はリクエストボディをJSONとしてdstにバインドする。
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apperror.Respond(c, apperror.InvalidRequest(err.Error()))
		return false
	}
	return true
}

// signUpRequest はサインアップのリクエストボディ。
type signUpRequest struct {
	Phone            string `json:"phone" binding:"required"`
	Password         string `json:"password" binding:"required"`
	VerificationCode string `json:"verification_code" binding:"required"`
}

// loginRequest はパスワードによるログインのリクエストボディ。
type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// smsLoginRequest はSMS認証コードによるログインのリクエストボディ。
type smsLoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// portraitRequest はポートレート更新のリクエストボディ。
type portraitRequest struct {
	PortraitID string `json:"portrait_id" binding:"required"`
}

// nearbyRequestsParams は近くの散歩リクエストの検索パラメータ。
type nearbyRequestsParams struct {
	Latitude  *float64 `form:"latitude" binding:"required"`
	Longitude *float64 `form:"longitude" binding:"required"`
	Page      *int     `form:"page" binding:"required"`
	Size      *int     `form:"size" binding:"required"`
}

// handleSignUp は認証コードを確認してアカウントを作成するハンドラを返す。
func (s *Server) handleSignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signUpRequest
		if !bindJSON(c, &req) {
			return
		}
		stream, err := s.service.SignUp(c.Request.Context(), req.Phone, req.Password, req.VerificationCode)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleLogin は電話番号とパスワードでログインするハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}
		stream, err := s.service.LoginByPassword(c.Request.Context(), req.Phone, req.Password)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleLoginBySMSVerificationCode はSMS認証コードでログインするハンドラを返す。
func (s *Server) handleLoginBySMSVerificationCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req smsLoginRequest
		if !bindJSON(c, &req) {
			return
		}
		stream, err := s.service.LoginBySMSVerificationCode(c.Request.Context(), req.Phone, req.Code)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleSendVerificationCode は認証コードを送信するハンドラを返す。
func (s *Server) handleSendVerificationCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		stream, err := s.service.SendVerificationCode(c.Request.Context(), c.Param("phone"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleVerifyToken はトークンを検証してユーザーIDを返すハンドラを返す。
func (s *Server) handleVerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := s.service.VerifyToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}

// handleUpdateDog は飼い主であることを確認してから犬の情報を更新するハンドラを返す。
func (s *Server) handleUpdateDog() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := bytestream.ToBytes(c.Request.Body)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		stream, err := s.service.UpdateDog(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), body)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleUpdateDogPortrait は飼い主であることを確認してから犬のポートレートを更新するハンドラを返す。
func (s *Server) handleUpdateDogPortrait() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req portraitRequest
		if !bindJSON(c, &req) {
			return
		}
		stream, err := s.service.UpdateDogPortrait(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.PortraitID)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// dogsPathPrefix は犬のリソースのパス。
const dogsPathPrefix = "/apis/dogs"

// guardDogMutation は既定の転送先へ送る犬の変更リクエストについて、飼い主であることを確認するハンドラを返す。
// GETなど変更を伴わないメソッドは確認しない。犬IDを含まないパスへの変更は405を返す。
func (s *Server) guardDogMutation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			return
		}
		dogID := dogIDFromPath(c.Request.URL.Path)
		if dogID == "" {
			apperror.Respond(c, apperror.MethodNotAllowed(c.Request.Method))
			return
		}
		if err := s.service.EnsureOwner(c.Request.Context(), middleware.GetUserID(c), dogID); err != nil {
			apperror.Respond(c, err)
		}
	}
}

// isSafeMethod はリソースを変更しないHTTPメソッドかを返す。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// dogIDFromPath は /apis/dogs/{id}[/...] から犬IDを取り出す。犬IDを含まなければ空文字列を返す。
func dogIDFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, dogsPathPrefix+"/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

// handleQueryBreeds はカテゴリに属する犬種を返すハンドラを返す。
func (s *Server) handleQueryBreeds() gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Query("category_eq")
		if category == "" {
			apperror.Respond(c, apperror.InvalidRequest("category_eq is required"))
			return
		}
		stream, err := s.service.QueryBreeds(c.Request.Context(), category)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleUpload はリクエストボディをバッファリングせずにアップロードサービスへ転送するハンドラを返す。
func (s *Server) handleUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		stream, err := s.service.Upload(c.Request.Context(), c.GetHeader("Content-Type"), middleware.GetUserID(c), c.Request.Body)
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeJSON)
	}
}

// handleDownload はファイルの内容をストリームとして返すハンドラを返す。
func (s *Server) handleDownload() gin.HandlerFunc {
	return func(c *gin.Context) {
		stream, err := s.service.Download(c.Request.Context(), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		respondStream(c, stream, contentTypeOctetStream)
	}
}

// handleNearbyRequests は近くの散歩リクエストを犬の情報と合わせて返すハンドラを返す。
func (s *Server) handleNearbyRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		var params nearbyRequestsParams
		if err := c.ShouldBindQuery(&params); err != nil {
			apperror.Respond(c, apperror.InvalidRequest(err.Error()))
			return
		}
		requests, err := s.service.NearbyRequests(c.Request.Context(), *params.Latitude, *params.Longitude,
			entity.Pagination{Page: *params.Page, Size: *params.Size})
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, requests)
	}
}
