package model

const (
	EstadoUtilizadorAtivo    = "ativo"
	EstadoUtilizadorInativo  = "inativo"
	EstadoUtilizadorPendente = "pendente"
)

type Utilizador struct {
	ID          int    `json:"id"`
	Nome        string `json:"nome"`
	Email       string `json:"email"`
	Tipo        Role   `json:"tipo"`
	Estado      string `json:"estado"`
	DataRegisto string `json:"dataRegisto,omitempty"`
}

type PedidoRegisto struct {
	ID         int    `json:"id"`
	Nome       string `json:"nome"`
	Email      string `json:"email"`
	Tipo       Role   `json:"tipo"`
	DataPedido string `json:"dataPedido,omitempty"`
}

type PedidoDecisao struct {
	Tipo Role `json:"tipo"`
}

type EstadoUtilizadorRequest struct {
	Estado string `json:"estado" binding:"required,oneof=ativo inativo pendente bloqueado"`
	Tipo   Role   `json:"tipo" binding:"required"`
}

// FormadorOpcao 供同步课程选择讲师
type FormadorOpcao struct {
	ID   int    `json:"ID_Formador"`
	Nome string `json:"Nome"`
}
