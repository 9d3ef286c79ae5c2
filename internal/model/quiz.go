package model

type Quiz struct {
	ID        int        `json:"ID_Quiz"`
	Titulo    string     `json:"Titulo"`
	IDCurso   int        `json:"ID_Curso"`
	Perguntas []Pergunta `json:"perguntas,omitempty"`
}

type Pergunta struct {
	ID        int        `json:"ID_Pergunta"`
	Texto     string     `json:"Texto"`
	Respostas []Resposta `json:"respostas,omitempty"`
}

type Resposta struct {
	ID    int    `json:"ID_Resposta"`
	Texto string `json:"Texto"`
}

// QuizProgressItem 一行测验进度
type QuizProgressItem struct {
	ID            int      `json:"ID_Quiz"`
	Titulo        string   `json:"Titulo"`
	Feito         bool     `json:"feito"`
	UltimaPercent *float64 `json:"ultimaPercent"`
	UltimaData    *string  `json:"ultimaData"`
}

type QuizProgressMeta struct {
	MediaPercent *float64 `json:"mediaPercent"`
	Respondidos  int      `json:"respondidos"`
	Total        int      `json:"total"`
}

type QuizProgress struct {
	Quizzes      []QuizProgressItem `json:"quizzes"`
	MediaPercent *float64           `json:"mediaPercent"`
	Respondidos  int                `json:"respondidos"`
	Total        int                `json:"total"`
}

type QuizCount struct {
	Total int `json:"total"`
}

type QuizSubmission struct {
	Respostas map[string]int `json:"respostas"`
}

type QuizResult struct {
	Corretas int     `json:"corretas"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// QuizDraft 新建测验的表单
type QuizDraft struct {
	Titulo    string          `json:"titulo"`
	Perguntas []PerguntaDraft `json:"perguntas"`
}

type PerguntaDraft struct {
	Texto     string          `json:"texto"`
	Respostas []RespostaDraft `json:"respostas"`
}

type RespostaDraft struct {
	Texto   string `json:"texto"`
	Correta bool   `json:"correta"`
}

// CreatedQuiz 兼容 {quiz:{ID_Quiz}}、{ID_Quiz} 与 {id} 三种返回
type CreatedQuiz struct {
	Quiz *struct {
		ID int `json:"ID_Quiz"`
	} `json:"quiz,omitempty"`
	IDQuiz int `json:"ID_Quiz,omitempty"`
	ID     int `json:"id,omitempty"`
}

func (c CreatedQuiz) QuizID() int {
	if c.Quiz != nil && c.Quiz.ID != 0 {
		return c.Quiz.ID
	}
	if c.IDQuiz != 0 {
		return c.IDQuiz
	}
	return c.ID
}
