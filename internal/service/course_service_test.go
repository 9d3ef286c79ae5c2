package service

import (
	"context"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseService_RateTwiceSendsZero(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodPost, "/api/cursos/5/avaliar", map[string]interface{}{
			"Minha_Avaliacao": map[string]interface{}{"idUser": 3, "nota": 0},
		}).
		on(http.MethodGet, "/api/cursos/5/avaliacoes", map[string]interface{}{
			"avaliacoes": []map[string]interface{}{
				{"idUser": 3, "nota": 4},
				{"idUser": 8, "nota": 2},
			},
		})

	view, err := NewCourseService("").Rate(context.Background(), api, 5, RateRequest{Nota: 4, Atual: util.IntPtr(4)})
	require.NoError(t, err)

	calls := api.callsTo(http.MethodPost, "/api/cursos/5/avaliar")
	require.Len(t, calls, 1)
	assert.Equal(t, float64(0), bodyMap(calls[0].Body)["nota"])
	assert.Equal(t, float64(0), view.Avaliacoes[0].Nota)
	assert.InDelta(t, 1.0, view.Media, 0.001)
}

func TestCourseService_RateNewValue(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodPost, "/api/cursos/5/avaliar", map[string]interface{}{"Minha_Avaliacao": 5}).
		on(http.MethodGet, "/api/cursos/5/avaliacoes", statusErr(http.StatusInternalServerError, ""))

	known := 3.8
	view, err := NewCourseService("").Rate(context.Background(), api, 5, RateRequest{Nota: 5, Atual: util.IntPtr(2), Rating: &known})
	require.NoError(t, err)
	assert.Equal(t, float64(5), bodyMap(api.callsTo(http.MethodPost, "/api/cursos/5/avaliar")[0].Body)["nota"])
	require.Len(t, view.Avaliacoes, 1)
	assert.InDelta(t, 3.8, view.Media, 0.001, "refetch failed, keep the known average")
	assert.Empty(t, api.callsTo(http.MethodGet, "/cursos/5"))
}

func TestCourseService_RateRefetchFailsUsesCourseAggregate(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodPost, "/api/cursos/5/avaliar", map[string]interface{}{"Minha_Avaliacao": 1}).
		on(http.MethodGet, "/api/cursos/5/avaliacoes", statusErr(http.StatusInternalServerError, "")).
		on(http.MethodGet, "/cursos/5", map[string]interface{}{"id": 5, "Rating": 4.4})

	view, err := NewCourseService("").Rate(context.Background(), api, 5, RateRequest{Nota: 1})
	require.NoError(t, err)
	assert.InDelta(t, 4.4, view.Media, 0.001)
	require.Len(t, view.Avaliacoes, 1)
	assert.Equal(t, float64(1), view.Avaliacoes[0].Nota)
}

func TestCourseService_RateRefetchAndCourseFail(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodPost, "/api/cursos/5/avaliar", map[string]interface{}{"Minha_Avaliacao": 2}).
		on(http.MethodGet, "/api/cursos/5/avaliacoes", statusErr(http.StatusBadGateway, ""))

	view, err := NewCourseService("").Rate(context.Background(), api, 5, RateRequest{Nota: 2})
	require.NoError(t, err)
	assert.Zero(t, view.Media)
}

func TestCourseService_RateRejectsOutOfRange(t *testing.T) {
	_, err := NewCourseService("").Rate(context.Background(), newFakeAPI(), 5, RateRequest{Nota: 6})
	ue, ok := util.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ue.Status)
}

func TestNextNota(t *testing.T) {
	assert.Equal(t, 3, NextNota(nil, 3))
	assert.Equal(t, 0, NextNota(util.IntPtr(3), 3))
	assert.Equal(t, 2, NextNota(util.IntPtr(3), 2))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 4.2, AverageRating(nil, 4.2))
	assert.InDelta(t, 3.5, AverageRating([]model.Avaliacao{{Nota: 3}, {Nota: 4}}, 0), 0.001)
}

func TestFilterCourses_Estado(t *testing.T) {
	cursos := []model.Curso{
		{ID: 1, Estado: model.EstadoAtivo, Tipo: model.TipoSincrono},
		{ID: 2, Estado: model.EstadoEmCurso, Tipo: model.TipoAssincrono},
		{ID: 3, Estado: model.EstadoAtivo, Tipo: model.TipoAssincrono},
	}

	got := FilterCourses(cursos, "", model.EstadoAtivo)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)

	assert.Len(t, FilterCourses(cursos, util.FiltroTodos, util.FiltroTodos), 3)
	assert.Len(t, FilterCourses(cursos, model.TipoAssincrono, model.EstadoAtivo), 1)
}

func TestSortCourses(t *testing.T) {
	cursos := []model.Curso{
		{ID: 1, Nome: "Python", DataInicio: "2024-01-10", Rating: 3},
		{ID: 2, Nome: "Álgebra", DataInicio: "2024-03-01", Rating: 5},
		{ID: 3, Nome: "java", DataInicio: "2023-12-01", Rating: 4},
	}

	byName := append([]model.Curso(nil), cursos...)
	SortCourses(byName, util.OrdemNome)
	assert.Equal(t, []int{2, 3, 1}, courseIDs(byName))

	byDate := append([]model.Curso(nil), cursos...)
	SortCourses(byDate, util.OrdemData)
	assert.Equal(t, []int{2, 1, 3}, courseIDs(byDate))

	byRating := append([]model.Curso(nil), cursos...)
	SortCourses(byRating, util.OrdemRating)
	assert.Equal(t, []int{2, 3, 1}, courseIDs(byRating))

	relevance := append([]model.Curso(nil), cursos...)
	SortCourses(relevance, util.OrdemRelevancia)
	assert.Equal(t, []int{1, 2, 3}, courseIDs(relevance))
}

func courseIDs(cursos []model.Curso) []int {
	out := make([]int, 0, len(cursos))
	for _, c := range cursos {
		out = append(out, c.Key())
	}
	return out
}

func TestCourseService_SearchFiltersLocally(t *testing.T) {
	api := newFakeAPI().on(http.MethodGet, "/cursos/search", []map[string]interface{}{
		{"id": 1, "Nome_Curso": "Go", "Estado_Curso": "ativo", "Tipo_Curso": "síncrono"},
		{"id": 2, "Nome_Curso": "Go avançado", "Estado_Curso": "em curso", "Tipo_Curso": "síncrono"},
	})

	view, err := NewCourseService("").Search(context.Background(), api, CourseQuery{Q: " go ", Estado: "ativo"})
	require.NoError(t, err)
	require.Equal(t, 1, view.Total)
	assert.Equal(t, "/cursos/1", view.Cursos[0].Rota)
	assert.Equal(t, "go", api.callsTo(http.MethodGet, "/cursos/search")[0].Query["query"])
}

func TestCourseService_SearchBlankSkipsUpstream(t *testing.T) {
	api := newFakeAPI()
	view, err := NewCourseService("").Search(context.Background(), api, CourseQuery{Q: "   "})
	require.NoError(t, err)
	assert.Equal(t, 0, view.Total)
	assert.Empty(t, api.callsTo(http.MethodGet, "/cursos/search"))
}

func TestCourseService_TopicCoursesUnknownTopic(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodGet, "/topicos/9/cursos", []map[string]interface{}{}).
		on(http.MethodGet, "/topicos", []map[string]interface{}{{"ID_Topico": 1, "Nome": "Redes"}})

	view, err := NewCourseService("").TopicCourses(context.Background(), api, 9, CourseQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Tópico Desconhecido", view.Titulo)
}

func TestCourseService_DetailChecksEnrollmentForFormando(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodGet, "/cursos/4", map[string]interface{}{
			"ID_Curso":    4,
			"Nome_Curso":  "Go",
			"Data_Inicio": "2024-01-01",
			"Data_Fim":    "2024-01-11",
			"modulos": []map[string]interface{}{{
				"ID_Modulo": 1, "Titulo": "M1",
				"aulas": []map[string]interface{}{{
					"ID_Aula": 2, "Titulo": "A1",
					"conteudos": []map[string]interface{}{{"ID_Conteudo": 3, "Nome_Original": "slides.pdf", "URL": "uploads/slides.pdf"}},
				}},
			}},
		}).
		on(http.MethodGet, "/formando/dashboard", map[string]interface{}{
			"cursosInscritos": []map[string]interface{}{{"ID_Curso": 4}},
		})

	svc := NewCourseService("https://files.example/")
	view, err := svc.Detail(context.Background(), api, model.Auth{IsAuthenticated: true, Role: model.RoleFormando}, 4)
	require.NoError(t, err)
	assert.True(t, view.Inscrito)
	assert.Equal(t, "/cursosInscritos/4", view.Rota)
	assert.Equal(t, 10, view.DuracaoDias)
	assert.Equal(t, "Não especificado", view.Formador)
	require.Len(t, view.Modulos, 1)
	assert.Equal(t, "https://files.example/uploads/slides.pdf", view.Modulos[0].Aulas[0].Anexos[0].Link)

	view, err = svc.Detail(context.Background(), api, model.Auth{IsAuthenticated: true, Role: model.RoleGestor}, 4)
	require.NoError(t, err)
	assert.False(t, view.Inscrito)
	assert.Len(t, api.callsTo(http.MethodGet, "/formando/dashboard"), 1)
}

func TestCourseService_DetailUnauthorized(t *testing.T) {
	api := newFakeAPI().on(http.MethodGet, "/cursos/4", statusErr(http.StatusUnauthorized, ""))
	_, err := NewCourseService("").Detail(context.Background(), api, model.Auth{}, 4)
	ue, ok := util.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, ue.Status)
	assert.Equal(t, util.MsgSessionExpired, ue.Message)
}
