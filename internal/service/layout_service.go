package service

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"net/url"
	"strings"
)

type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon,omitempty"`
}

type LayoutView struct {
	ShowNavbar bool       `json:"showNavbar"`
	Role       model.Role `json:"role,omitempty"`
	Home       string     `json:"home"`
	Menu       []MenuItem `json:"menu"`
}

// 不显示导航栏与侧边栏的路由
var hiddenNavbarRoutes = map[string]bool{
	"/login":          true,
	"/register":       true,
	"/reset-password": true,
}

var menus = map[model.Role][]MenuItem{
	model.RoleFormando: {
		{Label: "Dashboard", Path: RouteFormandoHome, Icon: "home"},
		{Label: "Fórum", Path: "/forum", Icon: "comments"},
		{Label: "Perfil", Path: "/perfil", Icon: "user"},
	},
	model.RoleGestor: {
		{Label: "Dashboard", Path: RouteGestorHome, Icon: "home"},
		{Label: "Criar Curso", Path: "/gestor/criar-curso", Icon: "plus"},
		{Label: "Gerir Categorias", Path: RouteGerirCategorias, Icon: "folder"},
		{Label: "Gerir Utilizadores", Path: "/gestor/gerir-utilizadores", Icon: "users"},
		{Label: "Fórum", Path: "/forum", Icon: "comments"},
	},
	model.RoleFormador: {
		{Label: "Dashboard", Path: RouteFormadorHome, Icon: "home"},
		{Label: "Fórum", Path: "/forum", Icon: "comments"},
		{Label: "Perfil", Path: "/perfil", Icon: "user"},
	},
}

type LayoutService struct {
	Navigator *Navigator
}

func NewLayoutService(navigator *Navigator) *LayoutService {
	return &LayoutService{Navigator: navigator}
}

func HideNavbar(path string) bool {
	return hiddenNavbarRoutes[path]
}

// MenuFor 返回角色对应的侧边栏，未知角色没有菜单
func MenuFor(role model.Role) []MenuItem {
	items := menus[role]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}

// Layout 计算当前路径的外壳。角色取自会话缓存，只影响菜单
func (s *LayoutService) Layout(auth model.Auth, path string) LayoutView {
	role := auth.EffectiveRole()
	return LayoutView{
		ShowNavbar: !HideNavbar(path),
		Role:       role,
		Home:       s.Navigator.HomeFor(auth),
		Menu:       MenuFor(role),
	}
}

// Suggest 搜索框联想，少于两个字符不查询
func (s *LayoutService) Suggest(ctx context.Context, api apiclient.API, term string) ([]model.Curso, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < util.MinSearchTermLength {
		return []model.Curso{}, nil
	}
	var cursos []model.Curso
	if err := api.Get(ctx, "/cursos/search", &cursos, apiclient.WithQuery("query", term)); err != nil {
		return nil, userFacing(err, "Erro na pesquisa. Tente novamente.")
	}
	if cursos == nil {
		cursos = []model.Curso{}
	}
	return cursos, nil
}

// SearchSubmitRoute 有联想结果时进入第一个课程，否则进入搜索页。空白返回空串
func SearchSubmitRoute(term string, results []model.Curso) string {
	if strings.TrimSpace(term) == "" {
		return ""
	}
	if len(results) > 0 {
		return CourseRoute(results[0].Key(), false)
	}
	return RouteSearch + "?q=" + url.QueryEscape(term)
}
