package model

// CursoDraft 课程编辑表单，保存前在本地累积删除列表
type CursoDraft struct {
	ID         int           `json:"ID_Curso"`
	Nome       string        `json:"Nome_Curso" validate:"required"`
	Tipo       string        `json:"Tipo_Curso" validate:"required,oneof=síncrono assíncrono"`
	Estado     string        `json:"Estado_Curso,omitempty"`
	DataInicio string        `json:"Data_Inicio" validate:"required"`
	DataFim    string        `json:"Data_Fim" validate:"required"`
	Imagem     string        `json:"Imagem,omitempty"`
	IDTopico   *int          `json:"ID_Topico,omitempty"`
	Objetivos  []string      `json:"Objetivos"`
	Includes   []string      `json:"Includes"`
	Vagas      *int          `json:"Vagas"`
	IDFormador *int          `json:"ID_Formador"`
	Modulos    []ModuloDraft `json:"Modulos" validate:"dive"`

	RemoverModulos []int `json:"RemoverModulos"`
	RemoverAulas   []int `json:"RemoverAulas"`
}

func (d CursoDraft) IsSincrono() bool { return d.Tipo == TipoSincrono }

type ModuloDraft struct {
	ID       *int        `json:"ID_Modulo,omitempty"`
	Titulo   string      `json:"Titulo"`
	ToDelete bool        `json:"toDelete,omitempty"`
	Aulas    []AulaDraft `json:"Aulas" validate:"dive"`
}

type AulaDraft struct {
	ID        *int            `json:"ID_Aula,omitempty"`
	Titulo    string          `json:"Titulo"`
	Descricao string          `json:"Descricao"`
	ToDelete  bool            `json:"toDelete,omitempty"`
	Files     []FicheiroDraft `json:"Files"`
}

type FicheiroDraft struct {
	ID       *int   `json:"id,omitempty"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Tipo     string `json:"tipo,omitempty"`
	ToDelete bool   `json:"toDelete"`
}

// CursoPayload PUT /gestor/cursos/:id 请求体，同步课程才带 Vagas/ID_Formador
type CursoPayload struct {
	Nome       string   `json:"Nome_Curso"`
	Tipo       string   `json:"Tipo_Curso"`
	DataInicio string   `json:"Data_Inicio"`
	DataFim    string   `json:"Data_Fim"`
	Imagem     string   `json:"Imagem,omitempty"`
	IDTopico   *int     `json:"ID_Topico,omitempty"`
	Objetivos  []string `json:"Objetivos"`
	Includes   []string `json:"Includes"`
	Vagas      *int     `json:"Vagas,omitempty"`
	IDFormador *int     `json:"ID_Formador,omitempty"`
}

// ModulosPayload PUT /gestor/cursos/:id/modulos 批量请求体
type ModulosPayload struct {
	IDCurso          int             `json:"ID_Curso"`
	Modulos          []ModuloPayload `json:"Modulos"`
	RemoverFicheiros []int           `json:"RemoverFicheiros"`
	RemoverAulas     []int           `json:"RemoverAulas"`
	RemoverModulos   []int           `json:"RemoverModulos"`
}

type ModuloPayload struct {
	ID      *int          `json:"ID_Modulo,omitempty"`
	Titulo  string        `json:"Titulo"`
	IDCurso int           `json:"ID_Curso"`
	Aulas   []AulaPayload `json:"Aulas"`
}

type AulaPayload struct {
	ID        *int            `json:"ID_Aula,omitempty"`
	Titulo    string          `json:"Titulo"`
	Descricao string          `json:"Descricao"`
	Files     []FicheiroDraft `json:"Files"`
}

type ModulosResponse struct {
	Modulos []ModuloPayload `json:"Modulos"`
}

// FormadorConteudoPayload 讲师编辑课程时 multipart 中 curso 字段的内容
type FormadorConteudoPayload struct {
	Objetivos []string                `json:"Objetivos"`
	Includes  []string                `json:"Includes"`
	Modulos   []FormadorModuloPayload `json:"Modulos"`
}

type FormadorModuloPayload struct {
	ID       *int                  `json:"ID_Modulo,omitempty"`
	Titulo   string                `json:"Titulo"`
	ToDelete bool                  `json:"toDelete"`
	Aulas    []FormadorAulaPayload `json:"Aulas"`
}

type FormadorAulaPayload struct {
	ID                  *int                `json:"ID_Aula,omitempty"`
	TempID              int                 `json:"tempId"`
	Titulo              string              `json:"Titulo"`
	Descricao           string              `json:"Descricao"`
	ToDelete            bool                `json:"toDelete"`
	ConteudosExistentes []ConteudoExistente `json:"conteudosExistentes"`
}

type ConteudoExistente struct {
	ID       int  `json:"ID_Conteudo"`
	ToDelete bool `json:"toDelete"`
}

// NovoCurso POST /gestor/cursos 请求体
type NovoCurso struct {
	Nome       string   `json:"Nome_Curso" validate:"required"`
	Tipo       string   `json:"Tipo_Curso" validate:"required,oneof=síncrono assíncrono"`
	Descricao  string   `json:"Descricao,omitempty"`
	DataInicio string   `json:"Data_Inicio" validate:"required"`
	DataFim    string   `json:"Data_Fim" validate:"required"`
	Imagem     string   `json:"Imagem,omitempty"`
	IDTopico   *int     `json:"ID_Topico" validate:"required"`
	Objetivos  []string `json:"Objetivos"`
	Includes   []string `json:"Includes"`
	Vagas      *int     `json:"Vagas"`
	IDFormador *int     `json:"ID_Formador"`
}

type CreatedCurso struct {
	ID int `json:"ID_Curso"`
}

// UploadResponse POST /gestor/upload 的返回
type UploadResponse struct {
	Anexos []Conteudo `json:"anexos"`
}
