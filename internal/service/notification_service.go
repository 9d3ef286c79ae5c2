package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"strconv"
	"sync"
	"time"
)

type NotificationItem struct {
	model.Notificacao
	Quando string `json:"quando"`
	Icone  string `json:"icone"`
}

type NotificationView struct {
	Items  []NotificationItem `json:"items"`
	Unread int                `json:"naoLidas"`
}

// NotificationPanel 通知下拉框的本地状态，未读计数不会小于 0
type NotificationPanel struct {
	mu     sync.Mutex
	items  []model.Notificacao
	unread int
}

func NewNotificationPanel() *NotificationPanel {
	return &NotificationPanel{}
}

// Replace 用上游最新数据覆盖本地状态
func (p *NotificationPanel) Replace(items []model.Notificacao, unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append([]model.Notificacao(nil), items...)
	p.unread = max(unread, 0)
}

func (p *NotificationPanel) decrement() {
	if p.unread > 0 {
		p.unread--
	}
}

// MarkRead 只有未读项才减少计数
func (p *NotificationPanel) MarkRead(id int, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].ID != id {
			continue
		}
		if !p.items[i].Lida {
			p.items[i].Lida = true
			t := now
			p.items[i].DataLeitura = &t
			p.decrement()
		}
		return
	}
	// 不在当前列表中的通知同样计为一次已读
	p.decrement()
}

func (p *NotificationPanel) MarkAllRead(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if !p.items[i].Lida {
			t := now
			p.items[i].Lida = true
			p.items[i].DataLeitura = &t
		}
	}
	p.unread = 0
}

func (p *NotificationPanel) Remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.items {
		if n.ID == id {
			if !n.Lida {
				p.decrement()
			}
			p.items = append(p.items[:i:i], p.items[i+1:]...)
			return
		}
	}
}

func (p *NotificationPanel) RemoveAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
	p.unread = 0
}

func (p *NotificationPanel) RemoveRead() {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.items[:0:0]
	for _, n := range p.items {
		if !n.Lida {
			kept = append(kept, n)
		}
	}
	p.items = kept
}

func (p *NotificationPanel) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

func (p *NotificationPanel) Find(id int) (model.Notificacao, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notificacao{}, false
}

func (p *NotificationPanel) View(now time.Time) NotificationView {
	p.mu.Lock()
	defer p.mu.Unlock()
	view := NotificationView{Items: make([]NotificationItem, 0, len(p.items)), Unread: p.unread}
	for _, n := range p.items {
		view.Items = append(view.Items, NotificationItem{
			Notificacao: n,
			Quando:      util.NotificationTimeLabel(now, n.DataCriacao),
			Icone:       util.PriorityIcon(n.Prioridade),
		})
	}
	return view
}

type NotificationService struct {
	FanoutLimit int
	now         func() time.Time
}

func NewNotificationService(fanoutLimit int) *NotificationService {
	return &NotificationService{FanoutLimit: fanoutLimit, now: time.Now}
}

// Load 读取最近 10 条通知与未读数量并写入 panel
func (s *NotificationService) Load(ctx context.Context, api apiclient.API, panel *NotificationPanel) error {
	var items []model.Notificacao
	if err := api.Get(ctx, "/notificacoes", &items, apiclient.WithQuery("limit", strconv.Itoa(util.NotificationLimit))); err != nil {
		panel.Replace(nil, 0)
		return userFacing(err, "Erro ao carregar notificações")
	}
	var count model.UnreadCount
	if err := api.Get(ctx, "/notificacoes/nao-lidas", &count); err != nil {
		panel.Replace(nil, 0)
		return userFacing(err, "Erro ao carregar notificações")
	}
	panel.Replace(items, count.Count)
	return nil
}

func (s *NotificationService) MarkRead(ctx context.Context, api apiclient.API, panel *NotificationPanel, id int) error {
	if err := api.Put(ctx, fmt.Sprintf("/notificacoes/%d/ler", id), nil, nil); err != nil {
		return userFacing(err, "Erro ao marcar como lida.")
	}
	panel.MarkRead(id, s.now())
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, api apiclient.API, panel *NotificationPanel) error {
	if err := api.Put(ctx, "/notificacoes/ler-todas", nil, nil); err != nil {
		return userFacing(err, "Erro ao marcar todas como lidas.")
	}
	panel.MarkAllRead(s.now())
	return nil
}

func (s *NotificationService) Remove(ctx context.Context, api apiclient.API, panel *NotificationPanel, id int) error {
	if err := api.Delete(ctx, fmt.Sprintf("/notificacoes/%d", id), nil); err != nil {
		return userFacing(err, "Erro ao remover notificação. Por favor, tente novamente.")
	}
	panel.Remove(id)
	return nil
}

func (s *NotificationService) RemoveAll(ctx context.Context, api apiclient.API, panel *NotificationPanel) error {
	if err := api.Delete(ctx, "/notificacoes/todas", nil); err != nil {
		return userFacing(err, "Erro ao remover notificações. Por favor, tente novamente.")
	}
	panel.RemoveAll()
	return nil
}

// RemoveRead 返回上游的提示消息
func (s *NotificationService) RemoveRead(ctx context.Context, api apiclient.API, panel *NotificationPanel) (string, error) {
	var resp model.MessageResponse
	if err := api.Delete(ctx, "/notificacoes/lidas", &resp); err != nil {
		return "", userFacing(err, "Erro ao remover notificações")
	}
	panel.RemoveRead()
	if resp.Message == "" {
		resp.Message = "Notificações lidas removidas com sucesso!"
	}
	return resp.Message, nil
}

// RemoveMany 并发删除一组通知，已成功删除的项会从 panel 中移除
func (s *NotificationService) RemoveMany(ctx context.Context, api apiclient.API, panel *NotificationPanel, ids []int) error {
	err := fanout(ctx, s.FanoutLimit, ids, func(ctx context.Context, id int) error {
		if err := api.Delete(ctx, fmt.Sprintf("/notificacoes/%d", id), nil); err != nil {
			return err
		}
		panel.Remove(id)
		return nil
	})
	if err != nil {
		return userFacing(err, "Erro ao remover notificações. Por favor, tente novamente.")
	}
	return nil
}

// Open 点击通知：未读则标记已读，返回需要跳转的链接
func (s *NotificationService) Open(ctx context.Context, api apiclient.API, panel *NotificationPanel, id int) (string, error) {
	n, found := panel.Find(id)
	if !found || !n.Lida {
		if err := s.MarkRead(ctx, api, panel, id); err != nil {
			return "", err
		}
	}
	return n.LinkAcao, nil
}

// Snapshot HTTP 请求没有长连接状态，每次从上游重新加载
func (s *NotificationService) Snapshot(ctx context.Context, api apiclient.API) (NotificationView, error) {
	panel := NewNotificationPanel()
	if err := s.Load(ctx, api, panel); err != nil {
		return NotificationView{}, err
	}
	return panel.View(s.now()), nil
}

func (s *NotificationService) Now() time.Time { return s.now() }
