package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"

	"golang.org/x/sync/errgroup"
)

type UserAdminView struct {
	Filtro       string                `json:"filtro"`
	Utilizadores []model.Utilizador    `json:"utilizadores"`
	Pedidos      []model.PedidoRegisto `json:"pedidos"`
	Total        int                   `json:"total"`
}

type UserAdminService struct{}

func NewUserAdminService() *UserAdminService {
	return &UserAdminService{}
}

// Load 并行读取用户与注册申请
func (s *UserAdminService) Load(ctx context.Context, api apiclient.API, filtro string) (*UserAdminView, error) {
	var (
		users   []model.Utilizador
		pedidos []model.PedidoRegisto
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.Get(gctx, "/gestor/utilizadores", &users) })
	g.Go(func() error { return api.Get(gctx, "/gestor/pedidos-registo", &pedidos) })
	if err := g.Wait(); err != nil {
		return nil, userFacing(err, "Erro ao carregar dados")
	}

	if filtro == "" {
		filtro = util.FiltroTodos
	}
	if pedidos == nil {
		pedidos = []model.PedidoRegisto{}
	}
	return &UserAdminView{
		Filtro:       filtro,
		Utilizadores: FilterUsers(users, filtro),
		Pedidos:      pedidos,
		Total:        len(users),
	}, nil
}

// FilterUsers todos 返回全部，否则按状态精确匹配
func FilterUsers(users []model.Utilizador, estado string) []model.Utilizador {
	out := make([]model.Utilizador, 0, len(users))
	for _, u := range users {
		if estado == "" || estado == util.FiltroTodos || u.Estado == estado {
			out = append(out, u)
		}
	}
	return out
}

// Accept 与 Reject 处理注册申请后重新加载两张列表
func (s *UserAdminService) Accept(ctx context.Context, api apiclient.API, pedidoID int, tipo model.Role, filtro string) (*UserAdminView, error) {
	if err := api.Put(ctx, fmt.Sprintf("/gestor/pedidos-registo/%d/aceitar", pedidoID), model.PedidoDecisao{Tipo: tipo}, nil); err != nil {
		return nil, userFacing(err, "Erro ao aceitar pedido de registo")
	}
	return s.Load(ctx, api, filtro)
}

func (s *UserAdminService) Reject(ctx context.Context, api apiclient.API, pedidoID int, tipo model.Role, filtro string) (*UserAdminView, error) {
	if err := api.Put(ctx, fmt.Sprintf("/gestor/pedidos-registo/%d/rejeitar", pedidoID), model.PedidoDecisao{Tipo: tipo}, nil); err != nil {
		return nil, userFacing(err, "Erro ao rejeitar pedido de registo")
	}
	return s.Load(ctx, api, filtro)
}

// ChangeState 修改状态后只修补本地列表中的那一行
func (s *UserAdminService) ChangeState(ctx context.Context, api apiclient.API, userID int, req model.EstadoUtilizadorRequest, users []model.Utilizador) ([]model.Utilizador, error) {
	if err := api.Put(ctx, fmt.Sprintf("/gestor/utilizadores/%d", userID), req, nil); err != nil {
		return nil, userFacing(err, "Erro ao alterar estado do utilizador")
	}
	return PatchUserState(users, userID, req.Estado), nil
}

func PatchUserState(users []model.Utilizador, userID int, estado string) []model.Utilizador {
	out := make([]model.Utilizador, len(users))
	for i, u := range users {
		if u.ID == userID {
			u.Estado = estado
		}
		out[i] = u
	}
	return out
}
