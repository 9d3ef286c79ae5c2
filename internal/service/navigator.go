package service

import (
	"formar_portal/internal/model"
	"strings"
)

const (
	RouteLogin           = "/login"
	RouteFormandoHome    = "/formando/dashboard"
	RouteGestorHome      = "/gestor/dashboard"
	RouteFormadorHome    = "/formador/dashboard"
	RouteSearch          = "/search"
	RouteGerirCategorias = "/gestor/gerircategorias"
)

// Navigator 根据角色决定落地页与路由访问权限
type Navigator struct{}

func NewNavigator() *Navigator { return &Navigator{} }

func (n *Navigator) HomeFor(auth model.Auth) string {
	switch auth.EffectiveRole() {
	case model.RoleFormando:
		return RouteFormandoHome
	case model.RoleGestor:
		return RouteGestorHome
	case model.RoleFormador:
		return RouteFormadorHome
	}
	return RouteLogin
}

// RequiredRole 返回访问 path 所需的角色，空表示任意已登录用户
func (n *Navigator) RequiredRole(path string) model.Role {
	for _, role := range []model.Role{model.RoleFormando, model.RoleGestor, model.RoleFormador} {
		prefix := "/" + string(role)
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return role
		}
	}
	return ""
}

// Allowed 判断当前认证状态能否访问 path
func (n *Navigator) Allowed(auth model.Auth, path string) bool {
	if !auth.IsAuthenticated {
		return false
	}
	required := n.RequiredRole(path)
	return required == "" || auth.Role == required
}
