package service

import (
	"context"

	"github.com/nao1215/littlewalk/pkg/apperror"
	"github.com/nao1215/littlewalk/pkg/bytestream"
)

// SignUp は認証コードを確認してからアカウントを作成する。
// 認証コードが正しくない場合、認証サービスは呼び出さない。
func (s *Service) SignUp(ctx context.Context, phone, password, verificationCode string) (*bytestream.Stream, error) {
	ok, err := s.sms.VerifyCode(ctx, phone, verificationCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Unauthorized("invalid verification code")
	}
	return s.auth.SignUp(ctx, phone, password)
}

// LoginByPassword は電話番号とパスワードでログインする。
func (s *Service) LoginByPassword(ctx context.Context, phone, password string) (*bytestream.Stream, error) {
	return s.auth.Login(ctx, phone, password)
}

// LoginBySMSVerificationCode はユーザーの存在と認証コードを確認してトークンを発行する。
func (s *Service) LoginBySMSVerificationCode(ctx context.Context, phone, code string) (*bytestream.Stream, error) {
	exists, err := s.auth.ExistsUser(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound("user not exists")
	}
	ok, err := s.sms.VerifyCode(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Unauthorized("invalid verification code")
	}
	return s.auth.GenerateToken(ctx, phone)
}

// SendVerificationCode は電話番号に認証コードを送信する。
func (s *Service) SendVerificationCode(ctx context.Context, phone string) (*bytestream.Stream, error) {
	return s.sms.SendCode(ctx, phone)
}

// VerifyToken はトークンを検証してユーザーIDを返す。
// 認証ミドルウェアのTokenVerifierとしても使用する。
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	return s.auth.VerifyToken(ctx, token)
}
