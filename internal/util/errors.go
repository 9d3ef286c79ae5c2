package util

import (
	"errors"
	"net/http"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAttemptInFlight  = errors.New("quiz attempt already submitted")
	ErrInvalidDraftOp   = errors.New("invalid draft operation")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

const (
	MsgSessionExpired     = "Sessão expirada. Inicie sessão."
	MsgNotEnrolled        = "Precisa estar inscrito no curso deste quiz para o responder."
	MsgQuizMissing        = "Quiz sem perguntas ou inexistente."
	MsgQuizSubmitFailed   = "Erro ao submeter respostas."
	MsgQuizLoadFailed     = "Erro ao obter quiz."
	MsgQuizListFailed     = "Erro ao obter lista de quizzes."
	MsgQuizTitleRequired  = "Indica o título do quiz."
	MsgQuizQuestions      = "Cada pergunta precisa de texto e pelo menos 2 respostas com texto."
	MsgQuizIDMissing      = "Não foi possível obter o ID do quiz criado."
	MsgQuizAlreadySent    = "As respostas deste quiz já foram submetidas."
	MsgStartAfterEnd      = "A data de início não pode ser posterior à data de fim."
	MsgEndBeforeStart     = "A data de fim não pode ser anterior à data de início."
	MsgResetEmailRequired = "Por favor, insira seu email para recuperar a palavra-passe."
	MsgEmailUnavailable   = "Email não disponível"
	MsgFillAllFields      = "Preenche todos os campos antes de submeter."
	MsgVagasRange         = "Insira um número de vagas entre 1 e 300."
	MsgLoginFailed        = "Falha no login."
	MsgUnknownRole        = "Tipo de utilizador desconhecido."
)

// UserError 面向用户的错误，Status 为返回给调用方的 HTTP 状态
type UserError struct {
	Status  int
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

func NewUserError(status int, message string) *UserError {
	return &UserError{Status: status, Message: message}
}

// WrapUserError 保留底层错误，便于日志与状态判断
func WrapUserError(status int, message string, err error) *UserError {
	return &UserError{Status: status, Message: message, Err: err}
}

func BadInput(message string) *UserError {
	return NewUserError(http.StatusBadRequest, message)
}

// AsUserError 在错误链中查找 UserError
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
