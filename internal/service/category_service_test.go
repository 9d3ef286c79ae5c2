package service

import (
	"context"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_ListBuildsTree(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodGet, "/categorias", []map[string]interface{}{
			{"ID_Categoria": 1, "Nome": "TI"},
			{"ID_Categoria": 2, "Nome": "Gestão"},
		}).
		on(http.MethodGet, "/areas?categoriaId=1", []map[string]interface{}{{"ID_Area": 11, "Nome": "Redes"}}).
		on(http.MethodGet, "/areas?categoriaId=2", []map[string]interface{}{{"ID_Area": 21, "Nome": "RH"}}).
		on(http.MethodGet, "/topicos?areaId=11", []map[string]interface{}{{"ID_Topico": 111, "Nome": "TCP"}}).
		on(http.MethodGet, "/topicos?areaId=21", []map[string]interface{}{})

	cats, err := NewCategoryService(2).List(context.Background(), api)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Redes", cats[0].Areas[0].Nome)
	assert.Equal(t, "TCP", cats[0].Areas[0].Topicos[0].Nome)
	assert.Equal(t, "RH", cats[1].Areas[0].Nome)
	assert.NotNil(t, cats[1].Areas[0].Topicos)
	assert.Empty(t, cats[1].Areas[0].Topicos)
}

func TestCategoryService_ListFailsWhenAreaFails(t *testing.T) {
	api := newFakeAPI().
		on(http.MethodGet, "/categorias", []map[string]interface{}{{"ID_Categoria": 1, "Nome": "TI"}}).
		on(http.MethodGet, "/areas", statusErr(http.StatusInternalServerError, ""))

	_, err := NewCategoryService(2).List(context.Background(), api)
	ue, ok := util.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ue.Status)
}

func TestCategoryService_CreateValidates(t *testing.T) {
	api := newFakeAPI().on(http.MethodPost, "/gestor/categorias", nil)
	svc := NewCategoryService(2)

	_, err := svc.Create(context.Background(), api, model.NovaCategoria{
		Nome:  "TI",
		Areas: []model.NovaArea{{Nome: "Redes", Topicos: []string{" ", ""}}},
	})
	ue, ok := util.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, util.MsgFillAllFields, ue.Message)
	assert.Empty(t, api.callsTo(http.MethodPost, "/gestor/categorias"))

	route, err := svc.Create(context.Background(), api, model.NovaCategoria{
		Nome:  " TI ",
		Areas: []model.NovaArea{{Nome: "Redes", Topicos: []string{"TCP", " "}}},
	})
	require.NoError(t, err)
	assert.Equal(t, RouteGestorHome, route)
	body := bodyMap(api.callsTo(http.MethodPost, "/gestor/categorias")[0].Body)
	assert.Equal(t, "TI", body["nome"])
}

func TestCategoryService_SaveSendsIDsOnlyForSaved(t *testing.T) {
	api := newFakeAPI().on(http.MethodPut, "/gestor/categorias/1", nil)
	cat := model.Categoria{ID: 1, Nome: "TI", Areas: []model.Area{
		{ID: util.IntPtr(11), Nome: "Redes", IDCategoria: 1, Topicos: []model.Topico{{ID: util.IntPtr(111), Nome: "TCP"}, {Nome: " UDP "}}},
		{Nome: "Nova"},
	}}

	route, err := NewCategoryService(2).Save(context.Background(), api, 1, cat)
	require.NoError(t, err)
	assert.Equal(t, RouteGerirCategorias, route)

	body := bodyMap(api.callsTo(http.MethodPut, "/gestor/categorias/1")[0].Body)
	areas := body["Areas"].([]interface{})
	first := areas[0].(map[string]interface{})
	second := areas[1].(map[string]interface{})
	assert.Equal(t, float64(11), first["ID_Area"])
	assert.NotContains(t, first, "ID_Categoria")
	assert.NotContains(t, second, "ID_Area")
	topicos := first["Topicos"].([]interface{})
	assert.Equal(t, "UDP", topicos[1].(map[string]interface{})["Nome"])
	assert.NotContains(t, topicos[1].(map[string]interface{}), "ID_Topico")
}

func TestApplyCategoryOp(t *testing.T) {
	cat := model.Categoria{Nome: "TI", Areas: []model.Area{{ID: util.IntPtr(1), Nome: "Redes", Topicos: []model.Topico{{Nome: "TCP"}}}}}

	got, err := ApplyCategoryOp(cat, CategoryOp{Op: CategoryOpAddArea})
	require.NoError(t, err)
	assert.Len(t, got.Areas, 2)
	assert.Len(t, cat.Areas, 1)

	got, err = ApplyCategoryOp(got, CategoryOp{Op: CategoryOpAddTopico, Area: 0})
	require.NoError(t, err)
	assert.Len(t, got.Areas[0].Topicos, 2)
	assert.Len(t, cat.Areas[0].Topicos, 1)

	got, err = ApplyCategoryOp(got, CategoryOp{Op: CategoryOpRemoveTopico, Area: 0, Topico: 0})
	require.NoError(t, err)
	require.Len(t, got.Areas[0].Topicos, 1)
	assert.Equal(t, "", got.Areas[0].Topicos[0].Nome)

	got, err = ApplyCategoryOp(got, CategoryOp{Op: CategoryOpRemoveArea, Area: 0})
	require.NoError(t, err)
	assert.Len(t, got.Areas, 1)

	_, err = ApplyCategoryOp(got, CategoryOp{Op: CategoryOpRemoveArea, Area: 5})
	assert.ErrorIs(t, err, util.ErrIndexOutOfRange)
	_, err = ApplyCategoryOp(got, CategoryOp{Op: "rename"})
	assert.ErrorIs(t, err, util.ErrInvalidDraftOp)
}
