package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type QuizService struct {
	Attempts *AttemptTracker
}

func NewQuizService(attempts *AttemptTracker) *QuizService {
	return &QuizService{Attempts: attempts}
}

// List 测验列表及进度。未登录或无权限时退回不含进度的简单列表
func (s *QuizService) List(ctx context.Context, api apiclient.API, sessionID string, cursoID int) (*model.QuizProgress, error) {
	s.Attempts.Reset(sessionID)

	var progress model.QuizProgress
	err := api.Get(ctx, fmt.Sprintf("/api/curso/%d/quizzes/progresso", cursoID), &progress)
	if err == nil {
		if progress.Quizzes == nil {
			progress.Quizzes = []model.QuizProgressItem{}
		}
		return &progress, nil
	}

	if !apiclient.IsUnauthorized(err) && !apiclient.IsForbidden(err) {
		return nil, util.WrapUserError(statusOr(err, http.StatusBadGateway), util.MsgQuizListFailed, err)
	}

	var base []model.Quiz
	if err := api.Get(ctx, fmt.Sprintf("/api/curso/%d/quizzes", cursoID), &base); err != nil {
		return nil, util.WrapUserError(statusOr(err, http.StatusBadGateway), util.MsgQuizListFailed, err)
	}
	return FallbackProgress(base), nil
}

// FallbackProgress 所有测验标记为未完成
func FallbackProgress(base []model.Quiz) *model.QuizProgress {
	items := make([]model.QuizProgressItem, 0, len(base))
	for _, q := range base {
		items = append(items, model.QuizProgressItem{ID: q.ID, Titulo: q.Titulo})
	}
	return &model.QuizProgress{Quizzes: items, Total: len(base)}
}

// Open 读取测验并开始一次作答
func (s *QuizService) Open(ctx context.Context, api apiclient.API, sessionID string, quizID int) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := api.Get(ctx, fmt.Sprintf("/api/quizzes/%d", quizID), &quiz); err != nil {
		if apiclient.IsUnauthorized(err) {
			return nil, util.WrapUserError(http.StatusUnauthorized, util.MsgSessionExpired, err)
		}
		return nil, util.WrapUserError(statusOr(err, http.StatusBadGateway), util.MsgQuizLoadFailed, err)
	}
	s.Attempts.Open(sessionID, quizID, quiz.IDCurso)
	return &quiz, nil
}

type SubmitResult struct {
	Result   model.QuizResult `json:"result"`
	Redirect string           `json:"redirect"`
}

// Submit 提交答案。失败时不返回跳转地址
func (s *QuizService) Submit(ctx context.Context, api apiclient.API, sessionID string, quizID int, sub model.QuizSubmission) (*SubmitResult, error) {
	cursoID, err := s.Attempts.BeginSubmit(sessionID, quizID)
	if err != nil {
		return nil, util.WrapUserError(http.StatusConflict, util.MsgQuizAlreadySent, err)
	}

	if sub.Respostas == nil {
		sub.Respostas = map[string]int{}
	}

	var result model.QuizResult
	if err := api.Post(ctx, fmt.Sprintf("/api/quizzes/%d/resolver", quizID), sub, &result); err != nil {
		s.Attempts.Finish(sessionID, quizID, false)
		return nil, submitError(err)
	}
	s.Attempts.Finish(sessionID, quizID, true)

	if cursoID == 0 {
		var quiz model.Quiz
		if err := api.Get(ctx, fmt.Sprintf("/api/quizzes/%d", quizID), &quiz); err != nil {
			logger.Log.Warn("quiz course lookup failed", zap.Int("quizId", quizID), zap.Error(err))
		}
		cursoID = quiz.IDCurso
	}

	res := &SubmitResult{Result: result}
	if cursoID != 0 {
		res.Redirect = fmt.Sprintf("/quiz/curso/%d", cursoID)
	}
	return res, nil
}

func submitError(err error) error {
	switch apiclient.StatusOf(err) {
	case http.StatusUnauthorized:
		return util.WrapUserError(http.StatusUnauthorized, util.MsgSessionExpired, err)
	case http.StatusForbidden:
		return util.WrapUserError(http.StatusForbidden, util.MsgNotEnrolled, err)
	case http.StatusNotFound:
		return util.WrapUserError(http.StatusNotFound, util.MsgQuizMissing, err)
	}
	return util.WrapUserError(http.StatusBadGateway, util.MsgQuizSubmitFailed, err)
}

// NewQuizDraft 新测验表单，默认一道题两个选项，第一个为正确答案
func NewQuizDraft() model.QuizDraft {
	return model.QuizDraft{Perguntas: []model.PerguntaDraft{NewPerguntaDraft()}}
}

func NewPerguntaDraft() model.PerguntaDraft {
	return model.PerguntaDraft{Respostas: []model.RespostaDraft{{Correta: true}, {}}}
}

// MarkCorrect 单选语义：只有第 i 个选项为正确答案
func MarkCorrect(p model.PerguntaDraft, i int) (model.PerguntaDraft, error) {
	if i < 0 || i >= len(p.Respostas) {
		return p, util.ErrIndexOutOfRange
	}
	respostas := make([]model.RespostaDraft, len(p.Respostas))
	for j, r := range p.Respostas {
		r.Correta = j == i
		respostas[j] = r
	}
	p.Respostas = respostas
	return p, nil
}

// Sanitize 去掉空白，丢弃无文本的题目与选项以及不足两个选项的题目；没有正确答案时第一个选项为正确
func Sanitize(perguntas []model.PerguntaDraft) []model.PerguntaDraft {
	out := make([]model.PerguntaDraft, 0, len(perguntas))
	for _, p := range perguntas {
		texto := strings.TrimSpace(p.Texto)
		if texto == "" {
			continue
		}
		respostas := make([]model.RespostaDraft, 0, len(p.Respostas))
		anyCorrect := false
		for _, r := range p.Respostas {
			t := strings.TrimSpace(r.Texto)
			if t == "" {
				continue
			}
			respostas = append(respostas, model.RespostaDraft{Texto: t, Correta: r.Correta})
			anyCorrect = anyCorrect || r.Correta
		}
		if len(respostas) < 2 {
			continue
		}
		if !anyCorrect {
			respostas[0].Correta = true
		}
		out = append(out, model.PerguntaDraft{Texto: texto, Respostas: respostas})
	}
	return out
}

type CreateQuizResult struct {
	QuizID   int    `json:"quizId"`
	Redirect string `json:"redirect"`
}

// Create 先创建测验再批量添加题目，完成后回到各自的仪表盘
func (s *QuizService) Create(ctx context.Context, api apiclient.API, role model.Role, cursoID int, draft model.QuizDraft) (*CreateQuizResult, error) {
	if role != model.RoleGestor && role != model.RoleFormador {
		return nil, util.WrapUserError(http.StatusForbidden, "Sem permissão para criar quizzes.", util.ErrPermissionDenied)
	}

	titulo := strings.TrimSpace(draft.Titulo)
	if titulo == "" {
		return nil, util.BadInput(util.MsgQuizTitleRequired)
	}
	perguntas := Sanitize(draft.Perguntas)
	if len(perguntas) == 0 {
		return nil, util.BadInput(util.MsgQuizQuestions)
	}

	base := "/api/" + string(role)

	var created model.CreatedQuiz
	if err := api.Post(ctx, fmt.Sprintf("%s/cursos/%d/quizzes", base, cursoID), map[string]string{"Titulo": titulo}, &created); err != nil {
		return nil, userFacing(err, "Erro ao guardar quiz.")
	}
	quizID := created.QuizID()
	if quizID == 0 {
		logger.Log.Error("unexpected quiz create response", zap.Int("cursoId", cursoID))
		return nil, util.NewUserError(http.StatusBadGateway, util.MsgQuizIDMissing)
	}

	if err := api.Post(ctx, fmt.Sprintf("%s/quizzes/%d/perguntas", base, quizID), perguntas, nil); err != nil {
		msg := apiclient.MessageOr(err, fmt.Sprintf("%d", apiclient.StatusOf(err)))
		return nil, util.WrapUserError(statusOr(err, http.StatusBadGateway), "Erro ao adicionar perguntas: "+msg, errors.Wrapf(err, "quiz %d", quizID))
	}

	home := RouteGestorHome
	if role == model.RoleFormador {
		home = RouteFormadorHome
	}
	return &CreateQuizResult{QuizID: quizID, Redirect: home}, nil
}

// IsAttemptInFlight 判断错误是否为重复提交
func IsAttemptInFlight(err error) bool {
	return errors.Is(err, util.ErrAttemptInFlight)
}
