package service

import (
	"context"
	"encoding/json"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DraftMode 决定删除已保存的模块和课时时是记录 id 还是打上 toDelete 标记
type DraftMode string

const (
	DraftModeGestor   DraftMode = "gestor"
	DraftModeFormador DraftMode = "formador"
)

const (
	DraftOpAddModulo      = "addModulo"
	DraftOpRemoveModulo   = "removeModulo"
	DraftOpAddAula        = "addAula"
	DraftOpRemoveAula     = "removeAula"
	DraftOpRemoveFile     = "removeFile"
	DraftOpSetDataInicio  = "setDataInicio"
	DraftOpSetDataFim     = "setDataFim"
	DraftOpAddObjetivo    = "addObjetivo"
	DraftOpRemoveObjetivo = "removeObjetivo"
	DraftOpAddInclude     = "addInclude"
	DraftOpRemoveInclude  = "removeInclude"
)

type DraftOp struct {
	Op     string `json:"op" binding:"required"`
	Modulo int    `json:"modulo"`
	Aula   int    `json:"aula"`
	File   int    `json:"file"`
	Index  int    `json:"index"`
	Value  string `json:"value"`
}

type DraftResult struct {
	Draft     model.CursoDraft `json:"draft"`
	ErroDatas string           `json:"erroDatas,omitempty"`
}

type UploadFile struct {
	Name   string
	Reader io.Reader
}

type CourseEditView struct {
	Draft      model.CursoDraft      `json:"draft"`
	Formadores []model.FormadorOpcao `json:"formadores"`
}

type CourseEditService struct{}

func NewCourseEditService() *CourseEditService {
	return &CourseEditService{}
}

// DraftFromCurso 把上游课程转换为编辑表单
func DraftFromCurso(c model.Curso) model.CursoDraft {
	d := model.CursoDraft{
		ID:         c.Key(),
		Nome:       c.Nome,
		Tipo:       c.Tipo,
		Estado:     c.Estado,
		DataInicio: dateOnly(c.DataInicio),
		DataFim:    dateOnly(c.DataFim),
		Imagem:     c.Imagem,
		IDTopico:   c.IDTopico,
		Objetivos:  nonNil(c.Objetivos),
		Includes:   nonNil(c.Includes),
		Vagas:      c.Vagas,
		IDFormador: c.IDFormador,
		Modulos:    []model.ModuloDraft{},
	}
	for _, m := range c.Modulos {
		md := model.ModuloDraft{ID: util.IntPtr(m.ID), Titulo: m.DisplayTitle(), Aulas: []model.AulaDraft{}}
		for _, a := range m.Aulas {
			ad := model.AulaDraft{ID: util.IntPtr(a.ID), Titulo: a.Titulo, Descricao: a.Descricao, Files: []model.FicheiroDraft{}}
			for _, f := range a.Conteudos {
				ad.Files = append(ad.Files, model.FicheiroDraft{
					ID:   util.IntPtr(f.ID),
					Name: f.NomeOriginal,
					URL:  f.URL,
					Tipo: f.Tipo,
				})
			}
			md.Aulas = append(md.Aulas, ad)
		}
		d.Modulos = append(d.Modulos, md)
	}
	return d
}

func dateOnly(s string) string {
	if t, ok := util.ParseDate(s); ok {
		return t.Format(util.DateFormat)
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// LoadGestor 并行读取课程与讲师列表，讲师列表失败不影响编辑
func (s *CourseEditService) LoadGestor(ctx context.Context, api apiclient.API, id int) (*CourseEditView, error) {
	var (
		curso      model.Curso
		formadores []model.FormadorOpcao
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Get(gctx, fmt.Sprintf("/gestor/cursos/%d", id), &curso)
	})
	g.Go(func() error {
		if err := api.Get(gctx, "/gestor/formadores", &formadores); err != nil {
			logger.Log.Warn("trainers list failed", zap.Error(err))
			formadores = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, userFacing(err, "Erro ao carregar curso.")
	}

	if formadores == nil {
		formadores = []model.FormadorOpcao{}
	}
	draft := DraftFromCurso(curso)
	if draft.ID == 0 {
		draft.ID = id
	}
	return &CourseEditView{Draft: draft, Formadores: formadores}, nil
}

func (s *CourseEditService) Formadores(ctx context.Context, api apiclient.API) ([]model.FormadorOpcao, error) {
	var formadores []model.FormadorOpcao
	if err := api.Get(ctx, "/gestor/formadores", &formadores); err != nil {
		return nil, userFacing(err, "Erro ao carregar formadores.")
	}
	return formadores, nil
}

func (s *CourseEditService) LoadFormador(ctx context.Context, api apiclient.API, id int) (*CourseEditView, error) {
	var curso model.Curso
	if err := api.Get(ctx, fmt.Sprintf("/formador/editar-curso/%d", id), &curso); err != nil {
		return nil, userFacing(err, "Erro ao carregar curso.")
	}
	draft := DraftFromCurso(curso)
	if draft.ID == 0 {
		draft.ID = id
	}
	return &CourseEditView{Draft: draft, Formadores: []model.FormadorOpcao{}}, nil
}

// DateError 修改开始日期或结束日期后的校验消息，合法时为空
func DateError(changed, inicio, fim string) string {
	if inicio == "" || fim == "" {
		return ""
	}
	if compareDates(inicio, fim) <= 0 {
		return ""
	}
	if changed == DraftOpSetDataFim {
		return util.MsgEndBeforeStart
	}
	return util.MsgStartAfterEnd
}

func compareDates(a, b string) int {
	ta, okA := util.ParseDate(a)
	tb, okB := util.ParseDate(b)
	if okA && okB {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

// ApplyDraftOp 在表单上执行一次本地编辑。新建未保存的行直接删除，已保存的行按 mode 记录
func ApplyDraftOp(d model.CursoDraft, mode DraftMode, op DraftOp) (DraftResult, error) {
	d = cloneDraft(d)

	inModulo := op.Modulo >= 0 && op.Modulo < len(d.Modulos)
	inAula := inModulo && op.Aula >= 0 && op.Aula < len(d.Modulos[op.Modulo].Aulas)

	switch op.Op {
	case DraftOpAddModulo:
		d.Modulos = append(d.Modulos, model.ModuloDraft{Aulas: []model.AulaDraft{{Files: []model.FicheiroDraft{}}}})

	case DraftOpRemoveModulo:
		if !inModulo {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		m := d.Modulos[op.Modulo]
		switch {
		case m.ID == nil:
			d.Modulos = append(d.Modulos[:op.Modulo], d.Modulos[op.Modulo+1:]...)
		case mode == DraftModeFormador:
			d.Modulos[op.Modulo].ToDelete = true
		default:
			d.RemoverModulos = append(d.RemoverModulos, *m.ID)
			d.Modulos = append(d.Modulos[:op.Modulo], d.Modulos[op.Modulo+1:]...)
		}

	case DraftOpAddAula:
		if !inModulo {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		d.Modulos[op.Modulo].Aulas = append(d.Modulos[op.Modulo].Aulas, model.AulaDraft{Files: []model.FicheiroDraft{}})

	case DraftOpRemoveAula:
		if !inAula {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		aulas := d.Modulos[op.Modulo].Aulas
		a := aulas[op.Aula]
		switch {
		case a.ID == nil:
			d.Modulos[op.Modulo].Aulas = append(aulas[:op.Aula], aulas[op.Aula+1:]...)
		case mode == DraftModeFormador:
			aulas[op.Aula].ToDelete = true
		default:
			d.RemoverAulas = append(d.RemoverAulas, *a.ID)
			d.Modulos[op.Modulo].Aulas = append(aulas[:op.Aula], aulas[op.Aula+1:]...)
		}

	case DraftOpRemoveFile:
		if !inAula {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		files := d.Modulos[op.Modulo].Aulas[op.Aula].Files
		if op.File < 0 || op.File >= len(files) {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		if files[op.File].ID == nil {
			d.Modulos[op.Modulo].Aulas[op.Aula].Files = append(files[:op.File], files[op.File+1:]...)
		} else {
			files[op.File].ToDelete = true
		}

	case DraftOpSetDataInicio:
		d.DataInicio = op.Value
		return DraftResult{Draft: d, ErroDatas: DateError(op.Op, d.DataInicio, d.DataFim)}, nil

	case DraftOpSetDataFim:
		d.DataFim = op.Value
		return DraftResult{Draft: d, ErroDatas: DateError(op.Op, d.DataInicio, d.DataFim)}, nil

	case DraftOpAddObjetivo:
		d.Objetivos = append(d.Objetivos, op.Value)
	case DraftOpRemoveObjetivo:
		if op.Index < 0 || op.Index >= len(d.Objetivos) {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		d.Objetivos = append(d.Objetivos[:op.Index], d.Objetivos[op.Index+1:]...)
	case DraftOpAddInclude:
		d.Includes = append(d.Includes, op.Value)
	case DraftOpRemoveInclude:
		if op.Index < 0 || op.Index >= len(d.Includes) {
			return DraftResult{Draft: d}, util.ErrIndexOutOfRange
		}
		d.Includes = append(d.Includes[:op.Index], d.Includes[op.Index+1:]...)

	default:
		return DraftResult{Draft: d}, util.ErrInvalidDraftOp
	}

	return DraftResult{Draft: d}, nil
}

// cloneDraft 深拷贝，避免修改调用方持有的切片
func cloneDraft(d model.CursoDraft) model.CursoDraft {
	d.Objetivos = append([]string{}, d.Objetivos...)
	d.Includes = append([]string{}, d.Includes...)
	d.RemoverModulos = append([]int(nil), d.RemoverModulos...)
	d.RemoverAulas = append([]int(nil), d.RemoverAulas...)
	modulos := make([]model.ModuloDraft, len(d.Modulos))
	for i, m := range d.Modulos {
		aulas := make([]model.AulaDraft, len(m.Aulas))
		for j, a := range m.Aulas {
			a.Files = append([]model.FicheiroDraft{}, a.Files...)
			aulas[j] = a
		}
		m.Aulas = aulas
		modulos[i] = m
	}
	d.Modulos = modulos
	return d
}

// CursoPayloadFrom 同步课程才带 Vagas 与 ID_Formador
func CursoPayloadFrom(d model.CursoDraft) model.CursoPayload {
	p := model.CursoPayload{
		Nome:       d.Nome,
		Tipo:       d.Tipo,
		DataInicio: d.DataInicio,
		DataFim:    d.DataFim,
		Imagem:     d.Imagem,
		IDTopico:   d.IDTopico,
		Objetivos:  nonNil(d.Objetivos),
		Includes:   nonNil(d.Includes),
	}
	if d.IsSincrono() {
		p.Vagas = d.Vagas
		p.IDFormador = d.IDFormador
	}
	return p
}

// ModulosPayloadFrom 完整模块树加上三组删除 id
func ModulosPayloadFrom(cursoID int, d model.CursoDraft) model.ModulosPayload {
	p := model.ModulosPayload{
		IDCurso:          cursoID,
		Modulos:          make([]model.ModuloPayload, 0, len(d.Modulos)),
		RemoverFicheiros: []int{},
		RemoverAulas:     append([]int{}, d.RemoverAulas...),
		RemoverModulos:   append([]int{}, d.RemoverModulos...),
	}
	for _, m := range d.Modulos {
		mp := model.ModuloPayload{ID: m.ID, Titulo: m.Titulo, IDCurso: cursoID, Aulas: make([]model.AulaPayload, 0, len(m.Aulas))}
		for _, a := range m.Aulas {
			files := make([]model.FicheiroDraft, 0, len(a.Files))
			for _, f := range a.Files {
				if f.ID != nil && f.ToDelete {
					p.RemoverFicheiros = append(p.RemoverFicheiros, *f.ID)
				}
				files = append(files, f)
			}
			mp.Aulas = append(mp.Aulas, model.AulaPayload{ID: a.ID, Titulo: a.Titulo, Descricao: a.Descricao, Files: files})
		}
		p.Modulos = append(p.Modulos, mp)
	}
	return p
}

type SaveCourseResult struct {
	Draft    model.CursoDraft `json:"draft"`
	Redirect string           `json:"redirect"`
}

// SaveGestor 先更新课程，异步课程再批量更新模块树
func (s *CourseEditService) SaveGestor(ctx context.Context, api apiclient.API, id int, d model.CursoDraft) (*SaveCourseResult, error) {
	if msg := DateError(DraftOpSetDataInicio, d.DataInicio, d.DataFim); msg != "" {
		return nil, util.BadInput(msg)
	}
	if err := validateDraft(d, util.MsgFillAllFields); err != nil {
		return nil, err
	}

	if err := api.Put(ctx, fmt.Sprintf("/gestor/cursos/%d", id), CursoPayloadFrom(d), nil); err != nil {
		return nil, userFacing(err, "Erro ao atualizar curso.")
	}

	if !d.IsSincrono() {
		var resp model.ModulosResponse
		if err := api.Put(ctx, fmt.Sprintf("/gestor/cursos/%d/modulos", id), ModulosPayloadFrom(id, d), &resp); err != nil {
			return nil, userFacing(err, "Erro ao atualizar curso.")
		}
		d = applySavedModulos(d, resp.Modulos)
	}

	return &SaveCourseResult{Draft: d, Redirect: RouteGestorHome}, nil
}

// applySavedModulos 用上游返回的 id 更新表单并清空删除列表
func applySavedModulos(d model.CursoDraft, saved []model.ModuloPayload) model.CursoDraft {
	d.RemoverAulas = nil
	d.RemoverModulos = nil
	if len(saved) == 0 {
		return d
	}
	modulos := make([]model.ModuloDraft, 0, len(saved))
	for _, m := range saved {
		md := model.ModuloDraft{ID: m.ID, Titulo: m.Titulo, Aulas: make([]model.AulaDraft, 0, len(m.Aulas))}
		for _, a := range m.Aulas {
			files := make([]model.FicheiroDraft, 0, len(a.Files))
			for _, f := range a.Files {
				if !f.ToDelete {
					files = append(files, f)
				}
			}
			md.Aulas = append(md.Aulas, model.AulaDraft{ID: a.ID, Titulo: a.Titulo, Descricao: a.Descricao, Files: files})
		}
		modulos = append(modulos, md)
	}
	d.Modulos = modulos
	return d
}

// UploadLessonFiles 上传课时附件，返回上游保存后的附件
func (s *CourseEditService) UploadLessonFiles(ctx context.Context, api apiclient.API, aulaID int, files []UploadFile) ([]model.Conteudo, error) {
	if len(files) == 0 {
		return []model.Conteudo{}, nil
	}
	opts := []apiclient.Option{apiclient.WithMultipartFields(map[string]string{"ID_Aula": strconv.Itoa(aulaID)})}
	for _, f := range files {
		opts = append(opts, apiclient.WithFile("files", f.Name, f.Reader))
	}

	var resp model.UploadResponse
	if err := api.Post(ctx, "/gestor/upload", nil, &resp, opts...); err != nil {
		return nil, userFacing(err, "Erro ao fazer upload dos ficheiros")
	}
	return resp.Anexos, nil
}

// FormadorPayloadFrom 讲师保存使用 toDelete 标记，附件只列出已存在的
func FormadorPayloadFrom(d model.CursoDraft) model.FormadorConteudoPayload {
	p := model.FormadorConteudoPayload{
		Objetivos: nonNil(d.Objetivos),
		Includes:  nonNil(d.Includes),
		Modulos:   make([]model.FormadorModuloPayload, 0, len(d.Modulos)),
	}
	for _, m := range d.Modulos {
		mp := model.FormadorModuloPayload{ID: m.ID, Titulo: m.Titulo, ToDelete: m.ToDelete, Aulas: make([]model.FormadorAulaPayload, 0, len(m.Aulas))}
		for j, a := range m.Aulas {
			ap := model.FormadorAulaPayload{
				ID:                  a.ID,
				TempID:              j,
				Titulo:              a.Titulo,
				Descricao:           a.Descricao,
				ToDelete:            a.ToDelete,
				ConteudosExistentes: []model.ConteudoExistente{},
			}
			for _, f := range a.Files {
				if f.ID != nil {
					ap.ConteudosExistentes = append(ap.ConteudosExistentes, model.ConteudoExistente{ID: *f.ID, ToDelete: f.ToDelete})
				}
			}
			mp.Aulas = append(mp.Aulas, ap)
		}
		p.Modulos = append(p.Modulos, mp)
	}
	return p
}

// FormadorFileKey 新附件的表单字段名，按模块与课时区分
func FormadorFileKey(d model.CursoDraft, modIdx, aulaIdx int) string {
	m := strconv.Itoa(modIdx)
	a := strconv.Itoa(aulaIdx)
	if modIdx >= 0 && modIdx < len(d.Modulos) {
		mod := d.Modulos[modIdx]
		if mod.ID != nil {
			m = strconv.Itoa(*mod.ID)
		}
		if aulaIdx >= 0 && aulaIdx < len(mod.Aulas) && mod.Aulas[aulaIdx].ID != nil {
			a = strconv.Itoa(*mod.Aulas[aulaIdx].ID)
		}
	}
	return "files_" + m + "_" + a
}

// SaveFormador multipart PUT，curso 字段是 JSON，新附件以 files_<模块>_<课时> 为字段名
func (s *CourseEditService) SaveFormador(ctx context.Context, api apiclient.API, id int, d model.CursoDraft, files map[string][]UploadFile) (string, error) {
	body, err := json.Marshal(FormadorPayloadFrom(d))
	if err != nil {
		return "", errors.Wrap(err, "encode formador payload")
	}

	opts := []apiclient.Option{apiclient.WithMultipartFields(map[string]string{"curso": string(body)})}
	for key, list := range files {
		for _, f := range list {
			opts = append(opts, apiclient.WithFile(key, f.Name, f.Reader))
		}
	}

	if err := api.Put(ctx, fmt.Sprintf("/formador/editar-curso/%d/", id), nil, nil, opts...); err != nil {
		return "", userFacing(err, "Erro ao atualizar curso")
	}
	return RouteFormadorHome, nil
}

type CreateCourseRequest struct {
	Curso model.NovoCurso  `json:"curso"`
	Quiz  *model.QuizDraft `json:"quiz,omitempty"`
}

type CreateCourseResult struct {
	ID       int    `json:"ID_Curso"`
	QuizID   int    `json:"quizId,omitempty"`
	Redirect string `json:"redirect"`
}

// CleanNovoCurso 同步课程不带目标和包含项，异步课程不带名额和讲师
func CleanNovoCurso(nc model.NovoCurso) model.NovoCurso {
	nc.Nome = strings.TrimSpace(nc.Nome)
	if util.IsSincrono(nc.Tipo) {
		nc.Objetivos = nil
		nc.Includes = nil
		return nc
	}
	nc.Vagas = nil
	nc.IDFormador = nil
	nc.Objetivos = nonEmpty(nc.Objetivos)
	nc.Includes = nonEmpty(nc.Includes)
	return nc
}

func nonEmpty(list []string) []string {
	out := []string{}
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Create 创建课程。异步课程可同时创建一个测验，成功后进入模块编辑
func (s *CourseEditService) Create(ctx context.Context, api apiclient.API, quizzes *QuizService, req CreateCourseRequest) (*CreateCourseResult, error) {
	nc := CleanNovoCurso(req.Curso)
	if msg := DateError(DraftOpSetDataInicio, nc.DataInicio, nc.DataFim); msg != "" {
		return nil, util.BadInput(msg)
	}
	if err := validateDraft(nc, util.MsgFillAllFields); err != nil {
		return nil, err
	}
	sincrono := util.IsSincrono(nc.Tipo)
	if sincrono && (nc.Vagas == nil || *nc.Vagas < util.MinVagas || *nc.Vagas > util.MaxVagas) {
		return nil, util.BadInput(util.MsgVagasRange)
	}

	var quiz *model.QuizDraft
	if !sincrono && req.Quiz != nil {
		quiz = req.Quiz
		if strings.TrimSpace(quiz.Titulo) == "" {
			return nil, util.BadInput(util.MsgQuizTitleRequired)
		}
		if len(Sanitize(quiz.Perguntas)) == 0 {
			return nil, util.BadInput(util.MsgQuizQuestions)
		}
	}

	var created model.CreatedCurso
	if err := api.Post(ctx, "/gestor/cursos", nc, &created); err != nil {
		return nil, util.WrapUserError(statusOr(err, http.StatusBadGateway), "Erro ao criar curso.", err)
	}

	res := &CreateCourseResult{ID: created.ID, Redirect: RouteGestorHome}
	if quiz != nil {
		qr, err := quizzes.Create(ctx, api, model.RoleGestor, created.ID, *quiz)
		if err != nil {
			return nil, err
		}
		res.QuizID = qr.QuizID
	}
	if !sincrono {
		res.Redirect = fmt.Sprintf("/gestor/cursos/%d/modulos", created.ID)
	}
	return res, nil
}

// CreateModules 新建异步课程的模块与课时
func (s *CourseEditService) CreateModules(ctx context.Context, api apiclient.API, cursoID int, modulos []model.ModuloDraft) (string, error) {
	payload := struct {
		Modulos []model.ModuloDraft `json:"Modulos"`
	}{Modulos: modulos}
	for _, m := range modulos {
		if strings.TrimSpace(m.Titulo) == "" {
			return "", util.BadInput(util.MsgFillAllFields)
		}
		for _, a := range m.Aulas {
			if strings.TrimSpace(a.Titulo) == "" {
				return "", util.BadInput(util.MsgFillAllFields)
			}
		}
	}
	if err := api.Post(ctx, fmt.Sprintf("/gestor/cursos/%d/modulos", cursoID), payload, nil); err != nil {
		return "", userFacing(err, "Erro ao criar módulos e aulas.")
	}
	return RouteGestorHome, nil
}

func (s *CourseEditService) Delete(ctx context.Context, api apiclient.API, id int) error {
	if err := api.Delete(ctx, fmt.Sprintf("/gestor/cursos/%d", id), nil); err != nil {
		return userFacing(err, "Erro ao eliminar curso.")
	}
	return nil
}
