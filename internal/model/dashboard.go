package model

import "encoding/json"

type FormandoDashboard struct {
	CursosInscritos    []Curso           `json:"cursosInscritos"`
	CursosRecomendados []Curso           `json:"cursosRecomendados"`
	Forum              []json.RawMessage `json:"forum"`
	PercursoFormativo  []Curso           `json:"percursoFormativo"`
	Email              string            `json:"Email,omitempty"`
	HoursTrained       float64           `json:"hoursTrained"`
}

// Enrolled 判断是否已报名该课程
func (d FormandoDashboard) Enrolled(cursoID int) bool {
	for _, c := range d.CursosInscritos {
		if c.Key() == cursoID {
			return true
		}
	}
	return false
}

type CategoriaTotal struct {
	Categoria string `json:"categoria"`
	Total     int    `json:"total"`
}

type GestorStats struct {
	TotalUtilizadores  int              `json:"totalUtilizadores"`
	TotalCursos        *int             `json:"totalCursos,omitempty"`
	NovosUtilizadores  int              `json:"novosUtilizadores"`
	UtilizadoresAtivos int              `json:"utilizadoresAtivos"`
	CursosPorCategoria []CategoriaTotal `json:"cursosPorCategoria"`
}

type FormadorDashboard struct {
	CursosDoFormador []Curso `json:"cursosDoFormador"`
}

// ChartPoint 图表数据点
type ChartPoint struct {
	Nome  string `json:"nome"`
	Valor int    `json:"valor"`
}
