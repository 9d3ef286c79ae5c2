package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type CategoryService struct {
	FanoutLimit int
}

func NewCategoryService(fanoutLimit int) *CategoryService {
	return &CategoryService{FanoutLimit: fanoutLimit}
}

// List 读取全部分类并并发补齐区域与主题
func (s *CategoryService) List(ctx context.Context, api apiclient.API) ([]model.Categoria, error) {
	var categorias []model.Categoria
	if err := api.Get(ctx, "/categorias", &categorias); err != nil {
		return nil, userFacing(err, "Erro ao carregar dados.")
	}

	ids := make([]int, len(categorias))
	index := make(map[int]int, len(categorias))
	for i, c := range categorias {
		ids[i] = c.ID
		index[c.ID] = i
	}

	var mu sync.Mutex
	err := fanout(ctx, s.FanoutLimit, ids, func(ctx context.Context, id int) error {
		areas, err := s.areasWithTopicos(ctx, api, id)
		if err != nil {
			return err
		}
		mu.Lock()
		categorias[index[id]].Areas = areas
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, userFacing(err, "Erro ao carregar dados.")
	}
	return categorias, nil
}

// Load 读取单个分类及其完整树
func (s *CategoryService) Load(ctx context.Context, api apiclient.API, id int) (*model.Categoria, error) {
	var cat model.Categoria
	if err := api.Get(ctx, fmt.Sprintf("/categorias/%d", id), &cat); err != nil {
		return nil, userFacing(err, "Erro ao carregar categoria, áreas ou tópicos")
	}
	areas, err := s.areasWithTopicos(ctx, api, id)
	if err != nil {
		return nil, userFacing(err, "Erro ao carregar categoria, áreas ou tópicos")
	}
	cat.Areas = areas
	return &cat, nil
}

func (s *CategoryService) areasWithTopicos(ctx context.Context, api apiclient.API, categoriaID int) ([]model.Area, error) {
	var areas []model.Area
	if err := api.Get(ctx, "/areas", &areas, apiclient.WithQuery("categoriaId", strconv.Itoa(categoriaID))); err != nil {
		return nil, errors.Wrapf(err, "areas of categoria %d", categoriaID)
	}

	ids := make([]int, 0, len(areas))
	index := map[int]int{}
	for i, a := range areas {
		if areas[i].Topicos == nil {
			areas[i].Topicos = []model.Topico{}
		}
		if a.ID == nil {
			continue
		}
		ids = append(ids, *a.ID)
		index[*a.ID] = i
	}

	var mu sync.Mutex
	err := fanout(ctx, s.FanoutLimit, ids, func(ctx context.Context, areaID int) error {
		var topicos []model.Topico
		if err := api.Get(ctx, "/topicos", &topicos, apiclient.WithQuery("areaId", strconv.Itoa(areaID))); err != nil {
			return errors.Wrapf(err, "topicos of area %d", areaID)
		}
		if topicos == nil {
			topicos = []model.Topico{}
		}
		mu.Lock()
		areas[index[areaID]].Topicos = topicos
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return areas, nil
}

// Areas 与 Topicos 供课程表单的级联选择使用
func (s *CategoryService) Areas(ctx context.Context, api apiclient.API, categoriaID int) ([]model.Area, error) {
	var areas []model.Area
	if err := api.Get(ctx, "/areas", &areas, apiclient.WithQuery("categoriaId", strconv.Itoa(categoriaID))); err != nil {
		return nil, userFacing(err, "Erro ao obter áreas")
	}
	return areas, nil
}

func (s *CategoryService) Topicos(ctx context.Context, api apiclient.API, areaID int) ([]model.Topico, error) {
	var topicos []model.Topico
	if err := api.Get(ctx, "/topicos", &topicos, apiclient.WithQuery("areaId", strconv.Itoa(areaID))); err != nil {
		return nil, userFacing(err, "Erro ao obter tópicos")
	}
	return topicos, nil
}

// CleanNovaCategoria 去掉空白并丢弃空主题
func CleanNovaCategoria(nc model.NovaCategoria) model.NovaCategoria {
	out := model.NovaCategoria{Nome: strings.TrimSpace(nc.Nome), Areas: make([]model.NovaArea, 0, len(nc.Areas))}
	for _, a := range nc.Areas {
		area := model.NovaArea{Nome: strings.TrimSpace(a.Nome), Topicos: []string{}}
		for _, t := range a.Topicos {
			if t = strings.TrimSpace(t); t != "" {
				area.Topicos = append(area.Topicos, t)
			}
		}
		out.Areas = append(out.Areas, area)
	}
	return out
}

func (s *CategoryService) Create(ctx context.Context, api apiclient.API, nc model.NovaCategoria) (string, error) {
	nc = CleanNovaCategoria(nc)
	if err := validateDraft(nc, util.MsgFillAllFields); err != nil {
		return "", err
	}
	if err := api.Post(ctx, "/gestor/categorias", nc, nil); err != nil {
		return "", userFacing(err, "Erro na comunicação com o servidor.")
	}
	return RouteGestorHome, nil
}

// Save 提交完整的分类树，已保存的子项带上 id
func (s *CategoryService) Save(ctx context.Context, api apiclient.API, id int, cat model.Categoria) (string, error) {
	cat.Nome = strings.TrimSpace(cat.Nome)
	for i := range cat.Areas {
		cat.Areas[i].Nome = strings.TrimSpace(cat.Areas[i].Nome)
		cat.Areas[i].IDCategoria = 0
		if cat.Areas[i].Topicos == nil {
			cat.Areas[i].Topicos = []model.Topico{}
		}
		for j := range cat.Areas[i].Topicos {
			cat.Areas[i].Topicos[j].Nome = strings.TrimSpace(cat.Areas[i].Topicos[j].Nome)
			cat.Areas[i].Topicos[j].IDArea = 0
		}
	}
	if err := validateDraft(cat, util.MsgFillAllFields); err != nil {
		return "", err
	}

	payload := struct {
		Nome  string       `json:"Nome"`
		Areas []model.Area `json:"Areas"`
	}{Nome: cat.Nome, Areas: cat.Areas}
	if payload.Areas == nil {
		payload.Areas = []model.Area{}
	}

	if err := api.Put(ctx, fmt.Sprintf("/gestor/categorias/%d", id), payload, nil); err != nil {
		return "", userFacing(err, "Erro ao atualizar categoria")
	}
	return RouteGerirCategorias, nil
}

func (s *CategoryService) Delete(ctx context.Context, api apiclient.API, id int) error {
	if err := api.Delete(ctx, fmt.Sprintf("/gestor/categorias/%d", id), nil); err != nil {
		return userFacing(err, "Erro ao eliminar categoria.")
	}
	return nil
}

const (
	CategoryOpAddArea      = "addArea"
	CategoryOpRemoveArea   = "removeArea"
	CategoryOpAddTopico    = "addTopico"
	CategoryOpRemoveTopico = "removeTopico"
)

type CategoryOp struct {
	Op     string `json:"op" binding:"required"`
	Area   int    `json:"area"`
	Topico int    `json:"topico"`
}

// ApplyCategoryOp 本地编辑：新增的区域和主题没有 id
func ApplyCategoryOp(cat model.Categoria, op CategoryOp) (model.Categoria, error) {
	areas := append([]model.Area(nil), cat.Areas...)
	inArea := op.Area >= 0 && op.Area < len(areas)

	switch op.Op {
	case CategoryOpAddArea:
		areas = append(areas, model.Area{Topicos: []model.Topico{}})
	case CategoryOpRemoveArea:
		if !inArea {
			return cat, util.ErrIndexOutOfRange
		}
		areas = append(areas[:op.Area], areas[op.Area+1:]...)
	case CategoryOpAddTopico:
		if !inArea {
			return cat, util.ErrIndexOutOfRange
		}
		a := areas[op.Area]
		a.Topicos = append(append([]model.Topico(nil), a.Topicos...), model.Topico{})
		areas[op.Area] = a
	case CategoryOpRemoveTopico:
		if !inArea {
			return cat, util.ErrIndexOutOfRange
		}
		a := areas[op.Area]
		if op.Topico < 0 || op.Topico >= len(a.Topicos) {
			return cat, util.ErrIndexOutOfRange
		}
		topicos := append([]model.Topico(nil), a.Topicos[:op.Topico]...)
		a.Topicos = append(topicos, a.Topicos[op.Topico+1:]...)
		areas[op.Area] = a
	default:
		return cat, util.ErrInvalidDraftOp
	}

	cat.Areas = areas
	return cat, nil
}
