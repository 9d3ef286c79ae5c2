package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const topicoDesconhecido = "Tópico Desconhecido"

type CourseService struct {
	FileBaseURL string
}

func NewCourseService(fileBaseURL string) *CourseService {
	return &CourseService{FileBaseURL: strings.TrimRight(fileBaseURL, "/")}
}

type ConteudoView struct {
	model.Conteudo
	Kind string `json:"kind"`
	Link string `json:"link"`
}

type AulaView struct {
	ID        int            `json:"ID_Aula"`
	Titulo    string         `json:"Titulo"`
	Descricao string         `json:"Descricao,omitempty"`
	Anexos    []ConteudoView `json:"anexos"`
}

type ModuloView struct {
	ID     int        `json:"ID_Modulo"`
	Titulo string     `json:"Titulo"`
	Aulas  []AulaView `json:"aulas"`
}

type CursoDetailView struct {
	Curso       model.Curso  `json:"curso"`
	Formador    string       `json:"formador"`
	Inscrito    bool         `json:"inscrito"`
	DuracaoDias int          `json:"duracaoDias"`
	Modulos     []ModuloView `json:"modulos"`
	Rota        string       `json:"rota"`
}

// Detail 课程详情。学员会额外通过仪表盘确认是否已报名，查询失败视为未报名
func (s *CourseService) Detail(ctx context.Context, api apiclient.API, auth model.Auth, id int) (*CursoDetailView, error) {
	var curso model.Curso
	if err := api.Get(ctx, fmt.Sprintf("/cursos/%d", id), &curso); err != nil {
		return nil, userFacing(err, "Erro ao carregar curso.")
	}

	inscrito := curso.Inscrito
	if auth.EffectiveRole() == model.RoleFormando && !inscrito {
		var dash model.FormandoDashboard
		if err := api.Get(ctx, "/formando/dashboard", &dash); err != nil {
			logger.Log.Warn("enrollment check failed", zap.Int("cursoId", id), zap.Error(err))
		} else {
			inscrito = dash.Enrolled(id)
		}
	}

	return s.detailView(curso, id, inscrito), nil
}

// Enrolled 已报名课程页，只读取课程本身
func (s *CourseService) Enrolled(ctx context.Context, api apiclient.API, id int) (*CursoDetailView, error) {
	var curso model.Curso
	if err := api.Get(ctx, fmt.Sprintf("/cursos/%d", id), &curso); err != nil {
		return nil, userFacing(err, "Erro ao carregar curso.")
	}
	return s.detailView(curso, id, true), nil
}

func (s *CourseService) detailView(curso model.Curso, id int, inscrito bool) *CursoDetailView {
	formador := curso.Formador.Nome
	if formador == "" {
		formador = "Não especificado"
	}
	return &CursoDetailView{
		Curso:       curso,
		Formador:    formador,
		Inscrito:    inscrito,
		DuracaoDias: util.DurationDays(curso.DataInicio, curso.DataFim),
		Modulos:     s.moduloViews(curso.Modulos),
		Rota:        CourseRoute(id, inscrito),
	}
}

func (s *CourseService) moduloViews(modulos []model.Modulo) []ModuloView {
	out := make([]ModuloView, 0, len(modulos))
	for _, m := range modulos {
		mv := ModuloView{ID: m.ID, Titulo: m.DisplayTitle(), Aulas: make([]AulaView, 0, len(m.Aulas))}
		for _, a := range m.Aulas {
			av := AulaView{ID: a.ID, Titulo: a.Titulo, Descricao: a.Descricao, Anexos: make([]ConteudoView, 0, len(a.Conteudos))}
			for _, c := range a.Conteudos {
				av.Anexos = append(av.Anexos, ConteudoView{
					Conteudo: c,
					Kind:     util.FileKind(c.Tipo, c.NomeOriginal),
					Link:     s.fileLink(c.URL),
				})
			}
			mv.Aulas = append(mv.Aulas, av)
		}
		out = append(out, mv)
	}
	return out
}

func (s *CourseService) fileLink(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return s.FileBaseURL + u
}

// CourseRoute 已报名进入学习页，否则进入详情页
func CourseRoute(id int, inscrito bool) string {
	if inscrito {
		return "/cursosInscritos/" + strconv.Itoa(id)
	}
	return "/cursos/" + strconv.Itoa(id)
}

// Enroll 报名课程，成功后跳转到学习页
func (s *CourseService) Enroll(ctx context.Context, api apiclient.API, id int) (string, error) {
	body := map[string]int{"ID_Curso": id}
	if err := api.Post(ctx, "/inscricoes", body, nil); err != nil {
		return "", userFacing(err, "Erro ao inscrever no curso.")
	}
	return CourseRoute(id, true), nil
}

type RatingView struct {
	Avaliacoes []model.Avaliacao `json:"avaliacoes"`
	Media      float64           `json:"media"`
	MinhaNota  *model.OwnRating  `json:"minhaAvaliacao"`
}

// Ratings 读取评分列表，失败时退回课程自带的平均分
func (s *CourseService) Ratings(ctx context.Context, api apiclient.API, id int, fallback float64, own *model.OwnRating) RatingView {
	list, err := s.fetchRatings(ctx, api, id)
	if err != nil {
		logger.Log.Debug("ratings unavailable", zap.Int("cursoId", id), zap.Error(err))
	}
	return RatingView{Avaliacoes: list, Media: AverageRating(list, fallback), MinhaNota: own}
}

func (s *CourseService) fetchRatings(ctx context.Context, api apiclient.API, id int) ([]model.Avaliacao, error) {
	var resp model.AvaliacoesResponse
	if err := api.Get(ctx, fmt.Sprintf("/api/cursos/%d/avaliacoes", id), &resp); err != nil {
		return []model.Avaliacao{}, err
	}
	if resp.Avaliacoes == nil {
		return []model.Avaliacao{}, nil
	}
	return resp.Avaliacoes, nil
}

// lastAggregate 课程最近一次已知的平均分：优先调用方提供的值，否则读取课程本身
func (s *CourseService) lastAggregate(ctx context.Context, api apiclient.API, id int, known *float64) float64 {
	if known != nil {
		return *known
	}
	var curso model.Curso
	if err := api.Get(ctx, fmt.Sprintf("/cursos/%d", id), &curso); err != nil {
		logger.Log.Debug("course aggregate unavailable", zap.Int("cursoId", id), zap.Error(err))
		return 0
	}
	return curso.Rating
}

func AverageRating(list []model.Avaliacao, fallback float64) float64 {
	if len(list) == 0 {
		return fallback
	}
	var sum float64
	for _, a := range list {
		sum += a.Nota
	}
	return sum / float64(len(list))
}

// MergeOwnRating 用自己的评分替换列表中同一用户的记录，不存在则追加
func MergeOwnRating(list []model.Avaliacao, own *model.OwnRating) []model.Avaliacao {
	if own == nil {
		return list
	}
	out := make([]model.Avaliacao, 0, len(list)+1)
	found := false
	for _, a := range list {
		if a.IDUser == own.IDUser {
			a.Nota = float64(own.Nota)
			found = true
		}
		out = append(out, a)
	}
	if !found {
		out = append(out, model.Avaliacao{IDUser: own.IDUser, Nota: float64(own.Nota)})
	}
	return out
}

// NextNota 再次点击当前星级表示取消评分，发送 0
func NextNota(current *int, clicked int) int {
	if current != nil && *current == clicked {
		return 0
	}
	return clicked
}

type RateRequest struct {
	Nota   int      `json:"nota" binding:"min=1,max=5"`
	Atual  *int     `json:"atual"`
	Rating *float64 `json:"rating" binding:"omitempty,min=0,max=5"` // 页面上显示的课程平均分
}

// Rate 提交评分并返回合并后的评分视图
func (s *CourseService) Rate(ctx context.Context, api apiclient.API, id int, req RateRequest) (*RatingView, error) {
	if req.Nota < 1 || req.Nota > 5 {
		return nil, util.BadInput("A avaliação deve estar entre 1 e 5.")
	}

	nota := NextNota(req.Atual, req.Nota)
	var resp model.RateResponse
	if err := api.Post(ctx, fmt.Sprintf("/api/cursos/%d/avaliar", id), map[string]int{"nota": nota}, &resp); err != nil {
		return nil, util.WrapUserError(statusOr(err, http.StatusBadGateway), "Não foi possível enviar a avaliação.", err)
	}

	list, err := s.fetchRatings(ctx, api, id)
	view := RatingView{Avaliacoes: MergeOwnRating(list, resp.MinhaAvaliacao), MinhaNota: resp.MinhaAvaliacao}
	// 列表取不到时只剩自己的评分，平均分沿用课程已知的值
	if err != nil || len(view.Avaliacoes) == 0 {
		if err != nil {
			logger.Log.Debug("ratings unavailable after rating", zap.Int("cursoId", id), zap.Error(err))
		}
		view.Media = s.lastAggregate(ctx, api, id, req.Rating)
		return &view, nil
	}
	view.Media = AverageRating(view.Avaliacoes, 0)
	return &view, nil
}

type CourseQuery struct {
	Q      string `form:"q"`
	Tipo   string `form:"tipo"`
	Estado string `form:"estado"`
	Ordem  string `form:"order"`
}

type CursoResumo struct {
	model.Curso
	DuracaoDias int    `json:"duracaoDias"`
	Rota        string `json:"rota"`
}

type CourseListView struct {
	Titulo string        `json:"titulo,omitempty"`
	Query  CourseQuery   `json:"query"`
	Cursos []CursoResumo `json:"cursos"`
	Total  int           `json:"total"`
}

// Search 按关键字搜索课程，再在本地过滤排序
func (s *CourseService) Search(ctx context.Context, api apiclient.API, q CourseQuery) (*CourseListView, error) {
	q.Q = strings.TrimSpace(q.Q)
	if q.Q == "" {
		return listView("", q, nil), nil
	}

	var cursos []model.Curso
	if err := api.Get(ctx, "/cursos/search", &cursos, apiclient.WithQuery("query", q.Q)); err != nil {
		return nil, userFacing(err, "Erro na pesquisa. Tente novamente.")
	}
	return listView("", q, cursos), nil
}

// TopicCourses 主题下的课程列表，主题名来自 /topicos
func (s *CourseService) TopicCourses(ctx context.Context, api apiclient.API, topicoID int, q CourseQuery) (*CourseListView, error) {
	var cursos []model.Curso
	if err := api.Get(ctx, fmt.Sprintf("/topicos/%d/cursos", topicoID), &cursos); err != nil {
		return nil, userFacing(err, "Erro ao carregar dados.")
	}

	titulo := topicoDesconhecido
	var topicos []model.Topico
	if err := api.Get(ctx, "/topicos", &topicos); err != nil {
		logger.Log.Debug("topic lookup failed", zap.Int("topicoId", topicoID), zap.Error(err))
	}
	for _, t := range topicos {
		if t.ID != nil && *t.ID == topicoID {
			titulo = t.Nome
			break
		}
	}
	return listView(titulo, q, cursos), nil
}

func listView(titulo string, q CourseQuery, cursos []model.Curso) *CourseListView {
	filtered := FilterCourses(cursos, q.Tipo, q.Estado)
	SortCourses(filtered, q.Ordem)

	out := make([]CursoResumo, 0, len(filtered))
	for _, c := range filtered {
		out = append(out, CursoResumo{
			Curso:       c,
			DuracaoDias: util.DurationDays(c.DataInicio, c.DataFim),
			Rota:        CourseRoute(c.Key(), c.Inscrito),
		})
	}
	return &CourseListView{Titulo: titulo, Query: q, Cursos: out, Total: len(out)}
}

// FilterCourses 按类型与状态精确过滤，todos 或空值不限
func FilterCourses(cursos []model.Curso, tipo, estado string) []model.Curso {
	out := make([]model.Curso, 0, len(cursos))
	for _, c := range cursos {
		if tipo != "" && tipo != util.FiltroTodos && c.Tipo != tipo {
			continue
		}
		if estado != "" && estado != util.FiltroTodos && c.Estado != estado {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SortCourses relevancia 保持上游顺序
func SortCourses(cursos []model.Curso, ordem string) {
	switch ordem {
	case util.OrdemNome:
		sort.SliceStable(cursos, func(i, j int) bool {
			return util.Fold(cursos[i].Nome) < util.Fold(cursos[j].Nome)
		})
	case util.OrdemData:
		sort.SliceStable(cursos, func(i, j int) bool {
			a, _ := util.ParseDate(cursos[i].DataInicio)
			b, _ := util.ParseDate(cursos[j].DataInicio)
			return a.After(b)
		})
	case util.OrdemRating:
		sort.SliceStable(cursos, func(i, j int) bool {
			return cursos[i].Rating > cursos[j].Rating
		})
	}
}
