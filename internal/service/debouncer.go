package service

import (
	"sync"
	"time"
)

// Debouncer 每次 Trigger 都会重置计时器，并使之前的代数失效
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger 延迟 delay 后以本次的代数调用 fn
func (d *Debouncer) Trigger(fn func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.stopped {
		return d.gen
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		if d.IsCurrent(gen) {
			fn(gen)
		}
	})
	return gen
}

// Cancel 取消待执行的调用并使进行中的结果过期
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// IsCurrent 结果返回时用来丢弃过期的请求
func (d *Debouncer) IsCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && gen == d.gen
}

func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
