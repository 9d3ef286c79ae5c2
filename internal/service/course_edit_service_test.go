package service

import (
	"context"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() model.CursoDraft {
	return model.CursoDraft{
		ID:         4,
		Nome:       "Go",
		Tipo:       model.TipoAssincrono,
		DataInicio: "2024-01-01",
		DataFim:    "2024-02-01",
		Objetivos:  []string{"a", "b"},
		Includes:   []string{},
		Modulos: []model.ModuloDraft{
			{ID: util.IntPtr(10), Titulo: "M1", Aulas: []model.AulaDraft{
				{ID: util.IntPtr(20), Titulo: "A1", Files: []model.FicheiroDraft{
					{ID: util.IntPtr(30), Name: "a.pdf"},
					{Name: "novo.pdf"},
				}},
				{Titulo: "A2"},
			}},
			{Titulo: "M2"},
		},
	}
}

func TestApplyDraftOp_RemoveUnsavedModuloDrops(t *testing.T) {
	d := sampleDraft()
	res, err := ApplyDraftOp(d, DraftModeGestor, DraftOp{Op: DraftOpRemoveModulo, Modulo: 1})
	require.NoError(t, err)
	assert.Len(t, res.Draft.Modulos, 1)
	assert.Empty(t, res.Draft.RemoverModulos)
	assert.Len(t, d.Modulos, 2)
}

func TestApplyDraftOp_RemoveSavedModuloByMode(t *testing.T) {
	res, err := ApplyDraftOp(sampleDraft(), DraftModeGestor, DraftOp{Op: DraftOpRemoveModulo, Modulo: 0})
	require.NoError(t, err)
	assert.Equal(t, []int{10}, res.Draft.RemoverModulos)
	assert.Len(t, res.Draft.Modulos, 1)

	res, err = ApplyDraftOp(sampleDraft(), DraftModeFormador, DraftOp{Op: DraftOpRemoveModulo, Modulo: 0})
	require.NoError(t, err)
	assert.Empty(t, res.Draft.RemoverModulos)
	require.Len(t, res.Draft.Modulos, 2)
	assert.True(t, res.Draft.Modulos[0].ToDelete)
}

func TestApplyDraftOp_RemoveAula(t *testing.T) {
	res, err := ApplyDraftOp(sampleDraft(), DraftModeGestor, DraftOp{Op: DraftOpRemoveAula, Modulo: 0, Aula: 0})
	require.NoError(t, err)
	assert.Equal(t, []int{20}, res.Draft.RemoverAulas)
	require.Len(t, res.Draft.Modulos[0].Aulas, 1)
	assert.Equal(t, "A2", res.Draft.Modulos[0].Aulas[0].Titulo)

	res, err = ApplyDraftOp(sampleDraft(), DraftModeFormador, DraftOp{Op: DraftOpRemoveAula, Modulo: 0, Aula: 0})
	require.NoError(t, err)
	assert.True(t, res.Draft.Modulos[0].Aulas[0].ToDelete)
}

func TestApplyDraftOp_RemoveFile(t *testing.T) {
	d := sampleDraft()
	res, err := ApplyDraftOp(d, DraftModeGestor, DraftOp{Op: DraftOpRemoveFile, Modulo: 0, Aula: 0, File: 0})
	require.NoError(t, err)
	assert.True(t, res.Draft.Modulos[0].Aulas[0].Files[0].ToDelete)
	assert.False(t, d.Modulos[0].Aulas[0].Files[0].ToDelete)

	res, err = ApplyDraftOp(d, DraftModeGestor, DraftOp{Op: DraftOpRemoveFile, Modulo: 0, Aula: 0, File: 1})
	require.NoError(t, err)
	assert.Len(t, res.Draft.Modulos[0].Aulas[0].Files, 1)

	payload := ModulosPayloadFrom(4, mustApply(t, d, DraftOp{Op: DraftOpRemoveFile, Modulo: 0, Aula: 0, File: 0}))
	assert.Equal(t, []int{30}, payload.RemoverFicheiros)
}

func mustApply(t *testing.T, d model.CursoDraft, op DraftOp) model.CursoDraft {
	t.Helper()
	res, err := ApplyDraftOp(d, DraftModeGestor, op)
	require.NoError(t, err)
	return res.Draft
}

func TestApplyDraftOp_Dates(t *testing.T) {
	res, err := ApplyDraftOp(sampleDraft(), DraftModeGestor, DraftOp{Op: DraftOpSetDataInicio, Value: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, util.MsgStartAfterEnd, res.ErroDatas)

	res, err = ApplyDraftOp(sampleDraft(), DraftModeGestor, DraftOp{Op: DraftOpSetDataFim, Value: "2023-12-01"})
	require.NoError(t, err)
	assert.Equal(t, util.MsgEndBeforeStart, res.ErroDatas)

	res, err = ApplyDraftOp(sampleDraft(), DraftModeGestor, DraftOp{Op: DraftOpSetDataFim, Value: "2024-01-01"})
	require.NoError(t, err)
	assert.Empty(t, res.ErroDatas)
}

func TestApplyDraftOp_Lists(t *testing.T) {
	d := mustApply(t, sampleDraft(), DraftOp{Op: DraftOpAddObjetivo, Value: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, d.Objetivos)
	d = mustApply(t, d, DraftOp{Op: DraftOpRemoveObjetivo, Index: 0})
	assert.Equal(t, []string{"b", "c"}, d.Objetivos)
	d = mustApply(t, d, DraftOp{Op: DraftOpAddInclude, Value: "certificado"})
	assert.Equal(t, []string{"certificado"}, d.Includes)

	_, err := ApplyDraftOp(d, DraftModeGestor, DraftOp{Op: DraftOpRemoveInclude, Index: 3})
	assert.ErrorIs(t, err, util.ErrIndexOutOfRange)
	_, err = ApplyDraftOp(d, DraftModeGestor, DraftOp{Op: "explode"})
	assert.ErrorIs(t, err, util.ErrInvalidDraftOp)
}

func TestApplyDraftOp_AddModuloHasOneAula(t *testing.T) {
	d := mustApply(t, sampleDraft(), DraftOp{Op: DraftOpAddModulo})
	require.Len(t, d.Modulos, 3)
	assert.Len(t, d.Modulos[2].Aulas, 1)
	d = mustApply(t, d, DraftOp{Op: DraftOpAddAula, Modulo: 2})
	assert.Len(t, d.Modulos[2].Aulas, 2)
}

func TestCursoPayloadFrom_SyncOnlyFields(t *testing.T) {
	d := sampleDraft()
	d.Vagas = util.IntPtr(20)
	d.IDFormador = util.IntPtr(3)
	p := CursoPayloadFrom(d)
	assert.Nil(t, p.Vagas)
	assert.Nil(t, p.IDFormador)

	d.Tipo = model.TipoSincrono
	p = CursoPayloadFrom(d)
	assert.Equal(t, 20, *p.Vagas)
	assert.Equal(t, 3, *p.IDFormador)
}

func TestCourseEditService_SaveGestorAsync(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodPut, "/gestor/cursos/4", nil).
		on(http.MethodPut, "/gestor/cursos/4/modulos", map[string]interface{}{
			"Modulos": []map[string]interface{}{{"ID_Modulo": 10, "Titulo": "M1"}, {"ID_Modulo": 11, "Titulo": "M2"}},
		})
	d := mustApply(t, sampleDraft(), DraftOp{Op: DraftOpRemoveAula, Modulo: 0, Aula: 0})

	res, err := NewCourseEditService().SaveGestor(context.Background(), api, 4, d)
	require.NoError(t, err)
	assert.Equal(t, RouteGestorHome, res.Redirect)
	assert.Empty(t, res.Draft.RemoverAulas)
	assert.Equal(t, 11, *res.Draft.Modulos[1].ID)

	body := bodyMap(api.callsTo(http.MethodPut, "/gestor/cursos/4/modulos")[0].Body)
	assert.Equal(t, []interface{}{float64(20)}, body["RemoverAulas"])
}

func TestCourseEditService_SaveGestorRejectsBadDates(t *testing.T) {
	d := sampleDraft()
	d.DataInicio = "2025-01-01"
	api := newFakeAPI()
	_, err := NewCourseEditService().SaveGestor(context.Background(), api, 4, d)
	ue, ok := util.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, util.MsgStartAfterEnd, ue.Message)
	assert.Empty(t, api.callsTo(http.MethodPut, "/gestor/cursos/4"))
}

func TestCourseEditService_CreateSyncVagas(t *testing.T) {
	base := model.NovoCurso{
		Nome:       "Go",
		Tipo:       model.TipoSincrono,
		DataInicio: "2024-01-01",
		DataFim:    "2024-02-01",
		IDTopico:   util.IntPtr(1),
		Vagas:      util.IntPtr(301),
	}
	api := newFakeAPI().on(http.MethodPost, "/gestor/cursos", map[string]int{"ID_Curso": 99})
	svc := NewCourseEditService()

	_, err := svc.Create(context.Background(), api, NewQuizService(NewAttemptTracker()), CreateCourseRequest{Curso: base})
	ue, ok := util.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, util.MsgVagasRange, ue.Message)

	base.Vagas = util.IntPtr(30)
	res, err := svc.Create(context.Background(), api, NewQuizService(NewAttemptTracker()), CreateCourseRequest{Curso: base})
	require.NoError(t, err)
	assert.Equal(t, RouteGestorHome, res.Redirect)
	assert.Equal(t, 99, res.ID)
}

func TestCourseEditService_CreateAsyncWithQuiz(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodPost, "/gestor/cursos", map[string]int{"ID_Curso": 99}).
		on(http.MethodPost, "/api/gestor/cursos/99/quizzes", map[string]int{"ID_Quiz": 5}).
		on(http.MethodPost, "/api/gestor/quizzes/5/perguntas", nil)

	req := CreateCourseRequest{
		Curso: model.NovoCurso{
			Nome:       " Go ",
			Tipo:       model.TipoAssincrono,
			DataInicio: "2024-01-01",
			DataFim:    "2024-02-01",
			IDTopico:   util.IntPtr(1),
			Vagas:      util.IntPtr(10),
			Objetivos:  []string{"x", " "},
		},
		Quiz: &model.QuizDraft{Titulo: "Q", Perguntas: []model.PerguntaDraft{
			{Texto: "P", Respostas: []model.RespostaDraft{{Texto: "a"}, {Texto: "b"}}},
		}},
	}
	res, err := NewCourseEditService().Create(context.Background(), api, NewQuizService(NewAttemptTracker()), req)
	require.NoError(t, err)
	assert.Equal(t, "/gestor/cursos/99/modulos", res.Redirect)
	assert.Equal(t, 5, res.QuizID)

	body := bodyMap(api.callsTo(http.MethodPost, "/gestor/cursos")[0].Body)
	assert.Equal(t, "Go", body["Nome_Curso"])
	assert.Nil(t, body["Vagas"])
	assert.Equal(t, []interface{}{"x"}, body["Objetivos"])
}

func TestFormadorPayloadFrom(t *testing.T) {
	d := mustApplyMode(t, sampleDraft(), DraftModeFormador, DraftOp{Op: DraftOpRemoveFile, Modulo: 0, Aula: 0, File: 0})
	p := FormadorPayloadFrom(d)
	require.Len(t, p.Modulos, 2)
	aula := p.Modulos[0].Aulas[0]
	assert.Equal(t, []model.ConteudoExistente{{ID: 30, ToDelete: true}}, aula.ConteudosExistentes)
	assert.Equal(t, 1, p.Modulos[0].Aulas[1].TempID)

	assert.Equal(t, "files_10_20", FormadorFileKey(d, 0, 0))
	assert.Equal(t, "files_10_1", FormadorFileKey(d, 0, 1))
	assert.Equal(t, "files_5_0", FormadorFileKey(d, 5, 0))
}

func mustApplyMode(t *testing.T, d model.CursoDraft, mode DraftMode, op DraftOp) model.CursoDraft {
	t.Helper()
	res, err := ApplyDraftOp(d, mode, op)
	require.NoError(t, err)
	return res.Draft
}

func TestCourseEditService_SaveFormadorSendsJSONField(t *testing.T) {
	api := newFakeAPI().on(http.MethodPut, "/formador/editar-curso/4/", nil)
	route, err := NewCourseEditService().SaveFormador(context.Background(), api, 4, sampleDraft(), map[string][]UploadFile{
		"files_10_20": {{Name: "x.pdf", Reader: strings.NewReader("pdf")}},
	})
	require.NoError(t, err)
	assert.Equal(t, RouteFormadorHome, route)

	call := api.callsTo(http.MethodPut, "/formador/editar-curso/4/")[0]
	assert.Nil(t, call.Body)
	assert.Contains(t, call.Form["curso"], `"Objetivos":["a","b"]`)
}

func TestCourseEditService_UploadLessonFiles(t *testing.T) {
	api := newFakeAPI().on(http.MethodPost, "/gestor/upload", map[string]interface{}{
		"anexos": []map[string]interface{}{{"ID_Conteudo": 7, "Nome_Original": "a.pdf", "URL": "/u/a.pdf"}},
	})
	anexos, err := NewCourseEditService().UploadLessonFiles(context.Background(), api, 20, []UploadFile{{Name: "a.pdf", Reader: strings.NewReader("x")}})
	require.NoError(t, err)
	require.Len(t, anexos, 1)
	assert.Equal(t, "20", api.callsTo(http.MethodPost, "/gestor/upload")[0].Form["ID_Aula"])
}

func TestDraftFromCurso(t *testing.T) {
	d := DraftFromCurso(model.Curso{
		ID:         4,
		Nome:       "Go",
		DataInicio: "2024-01-01T00:00:00Z",
		Modulos: []model.Modulo{{ID: 1, Nome: "Mod", Aulas: []model.Aula{{ID: 2, Titulo: "A", Conteudos: []model.Conteudo{{ID: 3, NomeOriginal: "f.pdf"}}}}}},
	})
	assert.Equal(t, "2024-01-01", d.DataInicio)
	assert.Equal(t, "Mod", d.Modulos[0].Titulo)
	assert.Equal(t, 3, *d.Modulos[0].Aulas[0].Files[0].ID)
	assert.NotNil(t, d.Objetivos)
}
