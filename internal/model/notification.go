package model

import "time"

const (
	PrioridadeAlta  = "alta"
	PrioridadeMedia = "media"
	PrioridadeBaixa = "baixa"
)

type Notificacao struct {
	ID          int        `json:"ID_Notificacao"`
	Titulo      string     `json:"Titulo"`
	Mensagem    string     `json:"Mensagem"`
	Lida        bool       `json:"Lida"`
	DataLeitura *time.Time `json:"Data_Leitura,omitempty"`
	Prioridade  string     `json:"Prioridade,omitempty"`
	LinkAcao    string     `json:"Link_Acão,omitempty"`
	DataCriacao time.Time  `json:"Data_Criacao"`
}

type UnreadCount struct {
	Count int `json:"count"`
}

type MessageResponse struct {
	Message string `json:"message,omitempty"`
}
