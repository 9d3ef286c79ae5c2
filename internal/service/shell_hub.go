package service

import (
	"context"
	"encoding/json"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"formar_portal/pkg/monitoring"
	"hash/fnv"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
	shellChannel   = "shell_channel"
)

// 上行消息类型
const (
	MsgTypeSearch          = "SEARCH"
	MsgTypeSearchSubmit    = "SEARCH_SUBMIT"
	MsgTypeSelectCourse    = "SELECT_COURSE"
	MsgTypeNotifRefresh    = "NOTIF_REFRESH"
	MsgTypeNotifRead       = "NOTIF_READ"
	MsgTypeNotifReadAll    = "NOTIF_READ_ALL"
	MsgTypeNotifRemove     = "NOTIF_REMOVE"
	MsgTypeNotifRemoveAll  = "NOTIF_REMOVE_ALL"
	MsgTypeNotifRemoveRead = "NOTIF_REMOVE_READ"
	MsgTypeNotifOpen       = "NOTIF_OPEN"
)

// 下行消息类型
const (
	MsgTypeNotifications  = "NOTIFICATIONS"
	MsgTypeNotifStale     = "NOTIFICATIONS_STALE"
	MsgTypeSearchResults  = "SEARCH_RESULTS"
	MsgTypeNavigate       = "NAVIGATE"
	MsgTypeInfo           = "INFO"
	MsgTypeError          = "ERROR"
	MsgTypeSessionExpired = "SESSION_EXPIRED"
)

var (
	messagePool = sync.Pool{
		New: func() interface{} {
			return &ShellMessage{}
		},
	}
)


// ShellMessage 上行消息，Data 按 Type 延迟解析
type ShellMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ShellEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type searchPayload struct {
	Term string `json:"term"`
}

type selectPayload struct {
	ID       int  `json:"id"`
	Inscrito bool `json:"inscrito"`
}

type idPayload struct {
	ID int `json:"id"`
}

type SearchResults struct {
	Term   string        `json:"term"`
	Cursos []model.Curso `json:"cursos"`
}

// ShellClient 一个浏览器标签页的外壳连接：通知面板 + 搜索框
type ShellClient struct {
	Hub       *ShellHub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	API       apiclient.API
	Panel     *NotificationPanel
	Search    *Debouncer
	Limiter   *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	term    string
	results []model.Curso
}

func newShellClient(hub *ShellHub, conn *websocket.Conn, sessionID string, api apiclient.API) *ShellClient {
	ctx, cancel := context.WithCancel(hub.ctx)
	return &ShellClient{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sessionID,
		API:       api,
		Panel:     NewNotificationPanel(),
		Search:    NewDebouncer(hub.SearchDebounce()),
		Limiter:   rate.NewLimiter(rate.Limit(30), 50), // 每秒30条，允许突发50条
		ctx:       ctx,
		cancel:    cancel,
	}
}

// push 连接关闭后静默丢弃；缓冲区满时丢弃
func (c *ShellClient) push(ev ShellEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Log.Error("shell event marshal failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if c.pushRaw(payload) {
		monitoring.ShellMessageCounter.WithLabelValues(ev.Type, "out").Inc()
	}
}

func (c *ShellClient) pushRaw(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *ShellClient) close() {
	c.cancel()
	c.Search.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *ShellClient) pushError(err error) {
	if apiclient.IsUnauthorized(err) {
		c.push(ShellEvent{Type: MsgTypeSessionExpired, Data: map[string]string{"redirect": RouteLogin}})
		return
	}
	message := "Erro inesperado."
	if ue, ok := util.AsUserError(err); ok {
		message = ue.Message
	}
	c.push(ShellEvent{Type: MsgTypeError, Data: map[string]string{"message": message}})
}

func (c *ShellClient) pushNotifications() {
	c.push(ShellEvent{Type: MsgTypeNotifications, Data: c.Panel.View(c.Hub.Notifications.Now())})
}

func (c *ShellClient) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.ctx.Done():
			c.close()
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("sessionId", c.SessionID))
			}
			break
		}

		if !c.Limiter.Allow() {
			continue
		}

		msg := messagePool.Get().(*ShellMessage)
		msg.Type, msg.Data = "", nil
		if err := json.Unmarshal(message, msg); err != nil {
			messagePool.Put(msg)
			continue
		}
		monitoring.ShellMessageCounter.WithLabelValues(msg.Type, "in").Inc()

		c.handle(msg.Type, msg.Data)
		messagePool.Put(msg)
	}
}

func (c *ShellClient) handle(msgType string, data json.RawMessage) {
	notifications := c.Hub.Notifications
	ctx := c.ctx

	switch msgType {
	case MsgTypeSearch:
		var p searchPayload
		if json.Unmarshal(data, &p) != nil {
			return
		}
		c.search(p.Term)

	case MsgTypeSearchSubmit:
		var p searchPayload
		if json.Unmarshal(data, &p) != nil {
			return
		}
		c.mu.Lock()
		results := c.results
		if c.term != strings.TrimSpace(p.Term) {
			results = nil
		}
		c.mu.Unlock()
		if route := SearchSubmitRoute(p.Term, results); route != "" {
			c.Search.Cancel()
			c.push(ShellEvent{Type: MsgTypeNavigate, Data: map[string]string{"to": route}})
		}

	case MsgTypeSelectCourse:
		var p selectPayload
		if json.Unmarshal(data, &p) != nil || p.ID <= 0 {
			return
		}
		c.Search.Cancel()
		c.push(ShellEvent{Type: MsgTypeNavigate, Data: map[string]string{"to": CourseRoute(p.ID, p.Inscrito)}})

	case MsgTypeNotifRefresh:
		c.refresh()

	case MsgTypeNotifRead, MsgTypeNotifRemove, MsgTypeNotifOpen:
		var p idPayload
		if json.Unmarshal(data, &p) != nil || p.ID <= 0 {
			return
		}
		var err error
		switch msgType {
		case MsgTypeNotifRead:
			err = notifications.MarkRead(ctx, c.API, c.Panel, p.ID)
		case MsgTypeNotifRemove:
			err = notifications.Remove(ctx, c.API, c.Panel, p.ID)
		default:
			var link string
			link, err = notifications.Open(ctx, c.API, c.Panel, p.ID)
			if err == nil && link != "" {
				c.push(ShellEvent{Type: MsgTypeNavigate, Data: map[string]string{"to": link}})
			}
		}
		if err != nil {
			c.pushError(err)
			return
		}
		c.pushNotifications()

	case MsgTypeNotifReadAll:
		if err := notifications.MarkAllRead(ctx, c.API, c.Panel); err != nil {
			c.pushError(err)
			return
		}
		c.pushNotifications()

	case MsgTypeNotifRemoveAll:
		if err := notifications.RemoveAll(ctx, c.API, c.Panel); err != nil {
			c.pushError(err)
			return
		}
		c.pushNotifications()

	case MsgTypeNotifRemoveRead:
		message, err := notifications.RemoveRead(ctx, c.API, c.Panel)
		if err != nil {
			c.pushError(err)
			return
		}
		c.push(ShellEvent{Type: MsgTypeInfo, Data: map[string]string{"message": message}})
		c.pushNotifications()
	}
}

// search 少于两个字符立即清空结果，其余防抖后查询，过期的响应直接丢弃
func (c *ShellClient) search(term string) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < util.MinSearchTermLength {
		c.Search.Cancel()
		c.mu.Lock()
		c.term, c.results = term, nil
		c.mu.Unlock()
		c.push(ShellEvent{Type: MsgTypeSearchResults, Data: SearchResults{Term: term, Cursos: []model.Curso{}}})
		return
	}

	c.Search.SetDelay(c.Hub.SearchDebounce())
	c.Search.Trigger(func(gen uint64) {
		cursos, err := c.Hub.Layout.Suggest(c.ctx, c.API, term)
		if !c.Search.IsCurrent(gen) {
			return
		}
		if err != nil {
			c.pushError(err)
			return
		}
		c.mu.Lock()
		c.term, c.results = term, cursos
		c.mu.Unlock()
		c.push(ShellEvent{Type: MsgTypeSearchResults, Data: SearchResults{Term: term, Cursos: cursos}})
	})
}

func (c *ShellClient) refresh() {
	if err := c.Hub.Notifications.Load(c.ctx, c.API, c.Panel); err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.pushError(err)
	}
	c.pushNotifications()
}

// pollNotifications 连接建立时立即加载一次，之后按间隔轮询
func (c *ShellClient) pollNotifications() {
	c.refresh()

	interval := c.Hub.NotificationPoll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
			if next := c.Hub.NotificationPoll(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (c *ShellClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[string]map[*ShellClient]bool
	mu      sync.RWMutex
}

// ShellHub 管理所有外壳连接。同一会话可以有多个标签页
type ShellHub struct {
	shards        [shardCount]*shard
	register      chan *ShellClient
	unregister    chan *ShellClient
	Redis         *redis.Client
	Notifications *NotificationService
	Layout        *LayoutService

	mu             sync.RWMutex
	pollInterval   time.Duration
	searchDebounce time.Duration
	allowedOrigins map[string]bool

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// NewShellHub rdb 可以为 nil，此时只推送到本实例的连接
func NewShellHub(rdb *redis.Client, notifications *NotificationService, layout *LayoutService, poll, debounce time.Duration) *ShellHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &ShellHub{
		register:       make(chan *ShellClient),
		unregister:     make(chan *ShellClient),
		Redis:          rdb,
		Notifications:  notifications,
		Layout:         layout,
		pollInterval:   poll,
		searchDebounce: debounce,
		allowedOrigins: map[string]bool{},
		ctx:            ctx,
		cancel:         cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[string]map[*ShellClient]bool),
		}
	}
	return h
}

func (h *ShellHub) getShard(sessionID string) *shard {
	f := fnv.New32a()
	f.Write([]byte(sessionID))
	return h.shards[f.Sum32()%shardCount]
}

func (h *ShellHub) NotificationPoll() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pollInterval
}

func (h *ShellHub) SearchDebounce() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.searchDebounce
}

// SetIntervals 配置热加载时调用，已有连接在下一次 tick 生效
func (h *ShellHub) SetIntervals(poll, debounce time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if poll > 0 {
		h.pollInterval = poll
	}
	if debounce > 0 {
		h.searchDebounce = debounce
	}
}

// SetAllowedOrigins 设置可以建立外壳连接的跨域 Origin 白名单，与 CORS 配置一致
func (h *ShellHub) SetAllowedOrigins(origins []string) {
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		set[strings.TrimRight(o, "/")] = true
	}
	h.mu.Lock()
	h.allowedOrigins = set
	h.mu.Unlock()
}

// originAllowed 仅凭会话 cookie 鉴权，必须拒绝白名单以外的跨站握手。
// 没有 Origin 的非浏览器客户端与同源页面放行
func (h *ShellHub) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.allowedOrigins[strings.TrimRight(origin, "/")]
}

type PubSubMessage struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

func (h *ShellHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(h.ctx, shellChannel)
		defer pubsub.Close()
		go func() {
			ch := pubsub.Channel()
			for msg := range ch {
				var psMsg PubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushToLocalSession(psMsg.SessionID, psMsg.Payload)
			}
		}()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			s := h.getShard(client.SessionID)
			s.mu.Lock()
			if s.clients[client.SessionID] == nil {
				s.clients[client.SessionID] = make(map[*ShellClient]bool)
			}
			s.clients[client.SessionID][client] = true
			s.mu.Unlock()
			monitoring.ShellConnections.Inc()

		case client := <-h.unregister:
			s := h.getShard(client.SessionID)
			s.mu.Lock()
			if tabs, ok := s.clients[client.SessionID]; ok && tabs[client] {
				delete(tabs, client)
				if len(tabs) == 0 {
					delete(s.clients, client.SessionID)
				}
				client.close()
				monitoring.ShellConnections.Dec()
			}
			s.mu.Unlock()
		}
	}
}

// PushToSession 推送到某个会话的全部标签页，多实例部署时经 Redis 转发
func (h *ShellHub) PushToSession(sessionID string, ev ShellEvent) {
	msgBytes, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if h.Redis == nil {
		h.pushToLocalSession(sessionID, msgBytes)
		return
	}
	payload, _ := json.Marshal(PubSubMessage{SessionID: sessionID, Payload: msgBytes})
	if err := h.Redis.Publish(h.ctx, shellChannel, payload).Err(); err != nil {
		logger.Log.Warn("shell publish failed, delivering locally", zap.Error(err))
		h.pushToLocalSession(sessionID, msgBytes)
	}
}

// NotifyStale 通知 HTTP 端修改了通知，让在线面板重新加载
func (h *ShellHub) NotifyStale(sessionID string) {
	h.PushToSession(sessionID, ShellEvent{Type: MsgTypeNotifStale})
}

// pushToLocalSession 收到过期通知的连接会自行刷新
func (h *ShellHub) pushToLocalSession(sessionID string, payload []byte) {
	s := h.getShard(sessionID)
	s.mu.RLock()
	tabs := make([]*ShellClient, 0, len(s.clients[sessionID]))
	for client := range s.clients[sessionID] {
		tabs = append(tabs, client)
	}
	s.mu.RUnlock()

	stale := isStaleEvent(payload)
	for _, client := range tabs {
		if stale {
			go client.refresh()
			continue
		}
		client.pushRaw(payload)
	}
}

func isStaleEvent(payload []byte) bool {
	var ev ShellMessage
	return json.Unmarshal(payload, &ev) == nil && ev.Type == MsgTypeNotifStale
}

func (h *ShellHub) Connections(sessionID string) int {
	s := h.getShard(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[sessionID])
}

// Stop 关闭所有连接
func (h *ShellHub) Stop() {
	logger.Log.Info("ShellHub stopping: closing connections...")
	h.cancel()

	closed := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for sid, tabs := range s.clients {
			for client := range tabs {
				client.close()
				closed++
			}
			delete(s.clients, sid)
		}
		s.mu.Unlock()
	}

	monitoring.ShellConnections.Set(0)
	logger.Log.Info("ShellHub stopped", zap.Int("closedConnections", closed))
}

func ServeShell(hub *ShellHub, w http.ResponseWriter, r *http.Request, sessionID string, api apiclient.API) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.String("origin", r.Header.Get("Origin")), zap.Error(err), zap.String("sessionId", sessionID))
		return
	}
	client := newShellClient(hub, conn, sessionID, api)
	select {
	case hub.register <- client:
	case <-hub.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.pollNotifications()
	go client.readPump()
}
