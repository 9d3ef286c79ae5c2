package model

import (
	"bytes"
	"encoding/json"
)

const (
	TipoSincrono   = "síncrono"
	TipoAssincrono = "assíncrono"

	EstadoAtivo   = "ativo"
	EstadoEmCurso = "em curso"
)

// Curso 上游课程记录，字段名与上游保持一致
type Curso struct {
	ID            int        `json:"ID_Curso"`
	AltID         int        `json:"id,omitempty"`
	Nome          string     `json:"Nome_Curso"`
	Tipo          string     `json:"Tipo_Curso"`
	Estado        string     `json:"Estado_Curso,omitempty"`
	DataInicio    string     `json:"Data_Inicio,omitempty"`
	DataFim       string     `json:"Data_Fim,omitempty"`
	Imagem        string     `json:"Imagem,omitempty"`
	IDTopico      *int       `json:"ID_Topico,omitempty"`
	Categoria     string     `json:"Categoria,omitempty"`
	Area          string     `json:"Area,omitempty"`
	Topico        string     `json:"Topico,omitempty"`
	Objetivos     []string   `json:"Objetivos,omitempty"`
	Includes      []string   `json:"Includes,omitempty"`
	Rating        float64    `json:"Rating,omitempty"`
	NumAvaliacoes int        `json:"Numero_Avaliacoes,omitempty"`
	MinhaNota     *OwnRating `json:"Minha_Avaliacao,omitempty"`
	Vagas         *int       `json:"Vagas,omitempty"`
	IDFormador    *int       `json:"ID_Formador,omitempty"`
	Formador      Formador   `json:"Formador,omitempty"`
	NumQuizzes    *int       `json:"Num_Quizzes,omitempty"`
	Inscrito      bool       `json:"inscrito,omitempty"`
	Category      string     `json:"category,omitempty"`
	Modulos       []Modulo   `json:"modulos,omitempty"`
}

// Key 返回课程 id，搜索接口只带 id 字段
func (c Curso) Key() int {
	if c.ID != 0 {
		return c.ID
	}
	return c.AltID
}

func (c Curso) IsSincrono() bool {
	return c.Tipo == TipoSincrono
}

// Formador 上游可能返回字符串或 {Nome} 对象
type Formador struct {
	Nome string `json:"Nome,omitempty"`
}

func (f *Formador) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &f.Nome)
	}
	type plain Formador
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = Formador(p)
	return nil
}

func (f Formador) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Nome)
}

// OwnRating 当前用户对课程的评分。上游有时只给数字，有时给 {idUser, nota}
type OwnRating struct {
	IDUser int `json:"idUser,omitempty"`
	Nota   int `json:"nota"`
}

func (r *OwnRating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		r.Nota = int(n)
		return nil
	}
	type plain OwnRating
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = OwnRating(p)
	return nil
}

type Modulo struct {
	ID     int    `json:"ID_Modulo"`
	Titulo string `json:"Titulo,omitempty"`
	Nome   string `json:"Nome,omitempty"`
	Aulas  []Aula `json:"aulas,omitempty"`
}

func (m Modulo) DisplayTitle() string {
	if m.Nome != "" {
		return m.Nome
	}
	return m.Titulo
}

type Aula struct {
	ID        int        `json:"ID_Aula"`
	Titulo    string     `json:"Titulo"`
	Descricao string     `json:"Descricao,omitempty"`
	Conteudos []Conteudo `json:"conteudos,omitempty"`
}

// Conteudo 课时附件
type Conteudo struct {
	ID           int    `json:"ID_Conteudo"`
	NomeOriginal string `json:"Nome_Original"`
	URL          string `json:"URL"`
	Tipo         string `json:"Tipo,omitempty"`
}

type Avaliacao struct {
	IDUser int     `json:"idUser"`
	Nota   float64 `json:"nota"`
	Nome   string  `json:"nome,omitempty"`
}

type AvaliacoesResponse struct {
	Avaliacoes []Avaliacao `json:"avaliacoes"`
}

type RateResponse struct {
	MinhaAvaliacao *OwnRating `json:"Minha_Avaliacao"`
}
