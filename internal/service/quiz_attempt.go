package service

import (
	"formar_portal/internal/util"
	"sync"
	"time"
)

type AttemptState string

const (
	AttemptOpen      AttemptState = "open"
	AttemptAnswering AttemptState = "answering"
	AttemptSubmitted AttemptState = "submitted"
	AttemptResult    AttemptState = "result"
)

type attemptKey struct {
	sessionID string
	quizID    int
}

type attempt struct {
	state   AttemptState
	cursoID int
	touched time.Time
}

// AttemptTracker 记录每个会话每个测验的答题状态，防止重复提交
type AttemptTracker struct {
	mu       sync.Mutex
	attempts map[attemptKey]*attempt
}

func NewAttemptTracker() *AttemptTracker {
	return &AttemptTracker{attempts: map[attemptKey]*attempt{}}
}

// Open 打开测验，无论之前处于何种状态都重新开始
func (t *AttemptTracker) Open(sessionID string, quizID, cursoID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[attemptKey{sessionID, quizID}] = &attempt{state: AttemptOpen, cursoID: cursoID, touched: time.Now()}
}

// BeginSubmit 进入 submitted 状态。已提交或已出结果时返回 ErrAttemptInFlight
func (t *AttemptTracker) BeginSubmit(sessionID string, quizID int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := attemptKey{sessionID, quizID}
	a, ok := t.attempts[key]
	if !ok {
		a = &attempt{}
		t.attempts[key] = a
	}
	if a.state == AttemptSubmitted || a.state == AttemptResult {
		return a.cursoID, util.ErrAttemptInFlight
	}
	a.state = AttemptSubmitted
	a.touched = time.Now()
	return a.cursoID, nil
}

// Finish 提交成功进入 result，失败退回 answering 以便重试
func (t *AttemptTracker) Finish(sessionID string, quizID int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, found := t.attempts[attemptKey{sessionID, quizID}]
	if !found {
		return
	}
	if ok {
		a.state = AttemptResult
	} else {
		a.state = AttemptAnswering
	}
	a.touched = time.Now()
}

// Reset 回到列表页时清除该会话的答题记录
func (t *AttemptTracker) Reset(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.attempts {
		if k.sessionID == sessionID {
			delete(t.attempts, k)
		}
	}
}

func (t *AttemptTracker) State(sessionID string, quizID int) AttemptState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.attempts[attemptKey{sessionID, quizID}]; ok {
		return a.state
	}
	return ""
}

// Sweep 清理长时间未活动的记录，返回清理数量
func (t *AttemptTracker) Sweep(maxIdle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for k, a := range t.attempts {
		if a.touched.Before(cutoff) {
			delete(t.attempts, k)
			n++
		}
	}
	return n
}
