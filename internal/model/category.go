package model

// Categoria -> Area -> Topico 固定三级结构。新建的子项在保存前没有 id
type Categoria struct {
	ID    int    `json:"ID_Categoria"`
	Nome  string `json:"Nome" validate:"required"`
	Areas []Area `json:"Areas,omitempty" validate:"dive"`
}

type Area struct {
	ID          *int     `json:"ID_Area,omitempty"`
	Nome        string   `json:"Nome" validate:"required"`
	IDCategoria int      `json:"ID_Categoria,omitempty"`
	Topicos     []Topico `json:"Topicos" validate:"dive"`
}

type Topico struct {
	ID     *int   `json:"ID_Topico,omitempty"`
	Nome   string `json:"Nome" validate:"required"`
	IDArea int    `json:"ID_Area,omitempty"`
}

// NovaCategoria 创建分类的请求体
type NovaCategoria struct {
	Nome  string     `json:"nome" validate:"required"`
	Areas []NovaArea `json:"areas" validate:"min=1,dive"`
}

type NovaArea struct {
	Nome    string   `json:"nome" validate:"required"`
	Topicos []string `json:"topicos" validate:"min=1,dive,required"`
}
