package composite

import (
	"image"
	"sync"
	"time"
)

// DefaultDebounce 连续选择变化合并为一次重新合成的等待窗口
const DefaultDebounce = 250 * time.Millisecond

// PreviewResult 一次防抖合成的产物
type PreviewResult struct {
	Image *image.NRGBA
	Err   error
}

// Previewer 把交互层的高频选择变化调度成低频的后台合成：
// 每次变化重置防抖计时器，窗口内的一串变化只触发一次 Compose；
// 合成在独立 goroutine 执行，结果送达前若选择又变了则直接丢弃，
// 保证旧输入的结果永远不会覆盖新输入的结果。
//
// Compose 本身无共享状态，Previewer 只串行化选择集和代际计数。
type Previewer struct {
	mu        sync.Mutex
	delay     time.Duration
	opts      Options
	deliver   func(PreviewResult)
	selection map[Category]image.Image
	timer     *time.Timer
	gen       uint64
	closed    bool
}

// NewPreviewer 创建预览调度器，deliver 在合成 goroutine 中被调用
func NewPreviewer(delay time.Duration, opts Options, deliver func(PreviewResult)) *Previewer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Previewer{
		delay:     delay,
		opts:      opts,
		deliver:   deliver,
		selection: make(map[Category]image.Image),
	}
}

// Select 替换某个分类的选择，img 为 nil 表示清空该分类。
// 同一分类永远只有一个图层（替换而非叠加）。
func (p *Previewer) Select(c Category, img image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if img == nil {
		delete(p.selection, c)
	} else {
		p.selection[c] = img
	}
	p.gen++
	p.reschedule(p.delay)
}

// Flush 跳过防抖窗口，立即调度一次合成
func (p *Previewer) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.reschedule(0)
}

// Close 停止调度，已在途的合成结果不再送达
func (p *Previewer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// reschedule 调用方必须持锁
func (p *Previewer) reschedule(d time.Duration) {
	if p.timer != nil {
		p.timer.Stop()
	}
	gen := p.gen
	p.timer = time.AfterFunc(d, func() { p.fire(gen) })
}

func (p *Previewer) fire(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		return
	}
	snapshot := make(map[Category]image.Image, len(p.selection))
	for c, img := range p.selection {
		snapshot[c] = img
	}
	p.mu.Unlock()

	img, err := Compose(snapshot, p.opts)

	// 合成期间选择又变了：丢弃过期结果
	p.mu.Lock()
	stale := p.closed || gen != p.gen
	p.mu.Unlock()
	if stale {
		return
	}

	p.deliver(PreviewResult{Image: img, Err: err})
}
