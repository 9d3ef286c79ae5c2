package service

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"formar_portal/pkg/session"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type AuthService struct {
	Navigator *Navigator
}

func NewAuthService(navigator *Navigator) *AuthService {
	return &AuthService{Navigator: navigator}
}

// Check 询问上游当前会话是否已登录。上游结果是唯一可信来源，会话中的角色只做缓存
func (s *AuthService) Check(ctx context.Context, api apiclient.API, sess *session.Session) (model.Auth, error) {
	var resp model.CheckResponse
	if err := api.Get(ctx, "/auth/check", &resp); err != nil {
		if apiclient.IsUnauthorized(err) && sess != nil {
			sess.SetRole("")
		}
		return model.Auth{}, errors.Wrap(err, "auth check")
	}

	auth := model.Auth{IsAuthenticated: true, Role: resp.User.Role}
	if sess != nil {
		sess.SetRole(string(resp.User.Role))
	}
	return auth, nil
}

type LoginResult struct {
	Auth     model.Auth `json:"auth"`
	Redirect string     `json:"redirect"`
}

func (s *AuthService) Login(ctx context.Context, api apiclient.SessionClient, sess *session.Session, req model.LoginRequest) (*LoginResult, error) {
	var resp model.LoginResponse
	err := api.Post(ctx, "/auth/login", model.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}, &resp)
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusUnauthorized {
			return nil, util.WrapUserError(http.StatusUnauthorized, apiclient.MessageOr(err, util.MsgLoginFailed), err)
		}
		return nil, userFacing(err, util.MsgLoginFailed)
	}

	// 角色不可识别时丢弃上游在登录响应里下发的 cookie，会话保持未登录
	if !resp.Role.Valid() {
		logger.Log.Warn("login returned unknown role", zap.String("role", string(resp.Role)))
		api.ClearCredentials()
		return nil, util.NewUserError(http.StatusForbidden, util.MsgUnknownRole)
	}

	if resp.Token != "" && api.Mode() == config.AuthModeBearer {
		api.SetToken(resp.Token)
	}

	sess.SetUser(resp.User)
	sess.SetRole(string(resp.Role))

	auth := model.Auth{IsAuthenticated: true, Role: resp.Role}
	return &LoginResult{Auth: auth, Redirect: s.Navigator.HomeFor(auth)}, nil
}

// Logout 通知上游后清空整个会话，上游失败不阻止本地登出
func (s *AuthService) Logout(ctx context.Context, api apiclient.SessionClient, sess *session.Session) string {
	if err := api.Post(ctx, "/auth/logout", struct{}{}, nil); err != nil {
		logger.Log.Warn("upstream logout failed", zap.Error(err))
	}
	api.ClearCredentials()
	sess.Clear()
	return RouteLogin
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, api apiclient.API, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", util.BadInput(util.MsgResetEmailRequired)
	}

	if err := api.Post(ctx, "/auth/request-password-reset", model.PasswordResetRequest{Email: email}, nil); err != nil {
		return "", util.WrapUserError(statusOr(err, http.StatusBadGateway),
			apiclient.MessageOr(err, "Erro ao enviar email de recuperação."), err)
	}
	return "Email de recuperação enviado! Verifique a sua caixa de entrada.", nil
}

func (s *AuthService) RegisterFormador(ctx context.Context, api apiclient.API, req model.RegisterFormadorRequest) error {
	req.Nome = strings.TrimSpace(req.Nome)
	req.Email = strings.TrimSpace(req.Email)
	if err := api.Post(ctx, "/auth/register-formador", req, nil); err != nil {
		return userFacing(err, "Erro ao registar formador.")
	}
	return nil
}

func statusOr(err error, fallback int) int {
	if st := apiclient.StatusOf(err); st >= 400 {
		return st
	}
	return fallback
}
