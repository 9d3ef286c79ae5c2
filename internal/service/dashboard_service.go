package service

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	FanoutLimit int
}

func NewDashboardService(fanoutLimit int) *DashboardService {
	return &DashboardService{FanoutLimit: fanoutLimit}
}

type FormandoDashboardView struct {
	model.FormandoDashboard
	QuizCounts map[int]int `json:"quizCounts"`
}

// Formando 加载学员仪表盘，并为报名与推荐课程并发查询测验数量
func (s *DashboardService) Formando(ctx context.Context, api apiclient.API) (*FormandoDashboardView, error) {
	var dash model.FormandoDashboard
	if err := api.Get(ctx, "/formando/dashboard", &dash); err != nil {
		return nil, userFacing(err, "Erro ao carregar o dashboard.")
	}

	ids := distinctIDs(dash.CursosInscritos, dash.CursosRecomendados)
	return &FormandoDashboardView{
		FormandoDashboard: dash,
		QuizCounts:        quizCounts(ctx, api, s.FanoutLimit, ids),
	}, nil
}

type GestorDashboardView struct {
	Stats          model.GestorStats  `json:"stats"`
	Cursos         []model.Curso      `json:"cursos"`
	TotalCursos    int                `json:"totalCursos"`
	Filtro         string             `json:"filtro"`
	ShowSyncFields bool               `json:"showSyncFields"`
	Chart          []model.ChartPoint `json:"chart"`
}

// Gestor 并行加载统计与课程列表，按课程类型过滤
func (s *DashboardService) Gestor(ctx context.Context, api apiclient.API, tipo string) (*GestorDashboardView, error) {
	var (
		stats  model.GestorStats
		cursos []model.Curso
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.Get(gctx, "/gestor/dashboard", &stats) })
	g.Go(func() error { return api.Get(gctx, "/gestor/cursos", &cursos) })
	if err := g.Wait(); err != nil {
		return nil, userFacing(err, "Erro ao carregar dados do dashboard.")
	}

	if tipo == "" {
		tipo = util.FiltroTodos
	}
	filtered := FilterByTipo(cursos, tipo)

	total := len(cursos)
	if stats.TotalCursos != nil {
		total = *stats.TotalCursos
	}

	return &GestorDashboardView{
		Stats:          stats,
		Cursos:         filtered,
		TotalCursos:    total,
		Filtro:         tipo,
		ShowSyncFields: anySincrono(filtered),
		Chart:          UserChart(stats),
	}, nil
}

// FilterByTipo todos 表示不过滤，否则忽略大小写匹配类型
func FilterByTipo(cursos []model.Curso, tipo string) []model.Curso {
	if tipo == "" || tipo == util.FiltroTodos {
		return cursos
	}
	out := make([]model.Curso, 0, len(cursos))
	for _, c := range cursos {
		if strings.EqualFold(c.Tipo, tipo) {
			out = append(out, c)
		}
	}
	return out
}

func anySincrono(cursos []model.Curso) bool {
	for _, c := range cursos {
		if util.IsSincrono(c.Tipo) {
			return true
		}
	}
	return false
}

// UserChart 用户统计柱状图
func UserChart(stats model.GestorStats) []model.ChartPoint {
	return []model.ChartPoint{
		{Nome: "Total", Valor: stats.TotalUtilizadores},
		{Nome: "Novos este mês", Valor: stats.NovosUtilizadores},
		{Nome: "Ativos", Valor: stats.UtilizadoresAtivos},
	}
}

// FormadorFiltro 级联筛选：分类 -> 区域 -> 主题，空值表示不限
type FormadorFiltro struct {
	Categoria string `form:"categoria" json:"categoria"`
	Area      string `form:"area" json:"area"`
	Topico    string `form:"topico" json:"topico"`
}

type FormadorCurso struct {
	model.Curso
	Sincrono bool `json:"sincrono"`
}

type FormadorDashboardView struct {
	Cursos     []FormadorCurso `json:"cursos"`
	QuizCounts map[int]int     `json:"quizCounts"`
	Filtro     FormadorFiltro  `json:"filtro"`
	Categorias []string        `json:"categorias"`
	Areas      []string        `json:"areas"`
	Topicos    []string        `json:"topicos"`
}

func (s *DashboardService) Formador(ctx context.Context, api apiclient.API, filtro FormadorFiltro) (*FormadorDashboardView, error) {
	var dash model.FormadorDashboard
	if err := api.Get(ctx, "/formador/dashboard", &dash); err != nil {
		return nil, userFacing(err, "Erro ao carregar os cursos do formador.")
	}

	view := ApplyFormadorFiltro(dash.CursosDoFormador, filtro)
	view.QuizCounts = quizCounts(ctx, api, s.FanoutLimit, distinctIDs(dash.CursosDoFormador))
	return view, nil
}

// ApplyFormadorFiltro 计算筛选结果及各级可选项。下级选项只来自上级已选中的课程
func ApplyFormadorFiltro(cursos []model.Curso, f FormadorFiltro) *FormadorDashboardView {
	if f.Categoria == "" {
		f.Area = ""
	}
	if f.Area == "" {
		f.Topico = ""
	}

	byCategoria := filterCursos(cursos, func(c model.Curso) bool {
		return f.Categoria == "" || c.Categoria == f.Categoria
	})
	byArea := filterCursos(byCategoria, func(c model.Curso) bool {
		return f.Area == "" || c.Area == f.Area
	})
	byTopico := filterCursos(byArea, func(c model.Curso) bool {
		return f.Topico == "" || c.Topico == f.Topico
	})

	view := &FormadorDashboardView{
		Filtro:     f,
		Categorias: uniqueValues(cursos, func(c model.Curso) string { return c.Categoria }),
		Areas:      []string{},
		Topicos:    []string{},
		Cursos:     make([]FormadorCurso, 0, len(byTopico)),
	}
	if f.Categoria != "" {
		view.Areas = uniqueValues(byCategoria, func(c model.Curso) string { return c.Area })
	}
	if f.Area != "" {
		view.Topicos = uniqueValues(byArea, func(c model.Curso) string { return c.Topico })
	}
	for _, c := range byTopico {
		view.Cursos = append(view.Cursos, FormadorCurso{Curso: c, Sincrono: util.IsSincrono(c.Tipo)})
	}
	return view
}

func filterCursos(cursos []model.Curso, keep func(model.Curso) bool) []model.Curso {
	out := make([]model.Curso, 0, len(cursos))
	for _, c := range cursos {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func uniqueValues(cursos []model.Curso, field func(model.Curso) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range cursos {
		v := strings.TrimSpace(field(c))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
