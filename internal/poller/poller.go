package poller

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"MatchTracker/internal/interfaces"
	"MatchTracker/internal/model"

	"github.com/sirupsen/logrus"
)

// State 轮询器状态机状态
type State string

const (
	StateInitializing State = "INITIALIZING" // 未启动/已停止
	StatePolling      State = "POLLING"      // 正常轮询
	StateBackingOff   State = "BACKING_OFF"  // 失败后退避等待
	StateError        State = "ERROR"        // 本轮失败，尚未进入退避
)

const (
	initialBackoff = 1000 * time.Millisecond
	maxBackoff     = 10000 * time.Millisecond
)

// errStopped 轮询中途收到停止信号
var errStopped = errors.New("poller stopped")

// Poller 端点轮询器：周期性GET配置地址，对响应体做SHA-256变化检测，
// 变化时（含首次成功）按注册顺序串行通知所有监听器。
// 失败按指数退避（翻倍，封顶），一次成功即复位。
type Poller struct {
	url      string
	interval time.Duration // 0 = 连续轮询
	timeout  time.Duration
	client   *http.Client
	logger   *logrus.Logger

	// 退避参数，默认取包级常量；测试可缩短
	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu           sync.Mutex
	listeners    []interfaces.ChangeListener
	state        State
	lastChecksum string
	lastSuccess  int64 // 首次成功前为0
	backoff      time.Duration
	running      bool
	stopCh       chan struct{}
	done         chan struct{}
}

// NewPoller 创建轮询器。interval=0 表示上一轮结束后立即开始下一轮。
func NewPoller(url string, interval, timeout time.Duration, client *http.Client, logger *logrus.Logger) *Poller {
	return &Poller{
		url:            url,
		interval:       interval,
		timeout:        timeout,
		client:         client,
		logger:         logger,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
		state:          StateInitializing,
		backoff:        initialBackoff,
	}
}

// Start 启动轮询。重复调用无效果。
// 停止后再次启动从 INITIALIZING 重新开始：退避与校验和都重置，
// 因此停止前见过的同一份响应体会被再次通知（有意为之）。
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.state = StatePolling
	p.backoff = p.initialBackoff
	p.lastChecksum = ""
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	p.logger.WithField("url", p.url).Infof("Poller: 启动轮询，间隔 %v", p.interval)
	go p.run(ctx, p.stopCh, p.done)
}

// Stop 请求停止并等待轮询协程退出。幂等；会立刻打断任何睡眠，
// 进行中的请求等待其完成或出错。
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()

	<-done

	p.mu.Lock()
	p.state = StateInitializing
	p.mu.Unlock()
	p.logger.Info("Poller: 已停止")
}

// AddListener 注册监听器，下一次通知生效。通知顺序即注册顺序。
func (p *Poller) AddListener(l interfaces.ChangeListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// RemoveListener 移除监听器；不存在时为空操作
func (p *Poller) RemoveListener(l interfaces.ChangeListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// State 当前状态机状态
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentBackoff 当前退避值
func (p *Poller) CurrentBackoff() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backoff
}

// TimeSinceLastSuccessMS 距最近一次成功轮询的毫秒数；首次成功前返回最大哨兵值
func (p *Poller) TimeSinceLastSuccessMS() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastSuccess == 0 {
		return math.MaxInt64
	}
	return time.Now().UnixMilli() - p.lastSuccess
}

// run 轮询主循环。失败路径：ERROR → 退避翻倍 → BACKING_OFF 睡眠 → POLLING 重试。
func (p *Poller) run(ctx context.Context, stopCh chan struct{}, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		err := p.cycle(ctx, stopCh)
		if errors.Is(err, errStopped) {
			return
		}
		if err != nil {
			p.setState(StateError)
			d := p.escalateBackoff()
			p.logger.WithError(err).Errorf("Poller: 本轮轮询失败，%v 后重试", d)
			p.setState(StateBackingOff)
			if !p.sleep(stopCh, d) {
				return
			}
			p.setState(StatePolling)
			continue
		}

		if p.interval > 0 {
			if !p.sleep(stopCh, p.interval) {
				return
			}
		}
	}
}

// cycle 执行一轮：请求 → 变化检测 → 通知 → 记账
func (p *Poller) cycle(ctx context.Context, stopCh chan struct{}) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrFetchFailed, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", model.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", model.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: 数据源返回 %d", model.ErrFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: 读取响应体失败: %v", model.ErrFetchFailed, err)
	}

	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])

	p.mu.Lock()
	changed := checksum != p.lastChecksum
	if changed {
		// 先更新校验和：即使后续监听器失败，同一份响应体下一轮也不会重发
		p.lastChecksum = checksum
	}
	listeners := make([]interfaces.ChangeListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	if changed {
		select {
		case <-stopCh:
			return errStopped
		default:
		}
		payload := string(body)
		for _, l := range listeners {
			if err := l.OnChange(ctx, p.url, payload); err != nil {
				return fmt.Errorf("监听器通知失败: %w", err)
			}
		}
		p.logger.Debugf("Poller: 检测到变化，已通知 %d 个监听器", len(listeners))
	}

	p.mu.Lock()
	p.lastSuccess = time.Now().UnixMilli()
	p.backoff = p.initialBackoff
	p.state = StatePolling
	p.mu.Unlock()
	return nil
}

// escalateBackoff 连续失败时翻倍并封顶，返回本次应睡眠的时长
func (p *Poller) escalateBackoff() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backoff = nextBackoff(p.backoff, p.maxBackoff)
	return p.backoff
}

// nextBackoff 退避翻倍，封顶 limit
func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// sleep 可中断睡眠；返回false表示收到停止信号
func (p *Poller) sleep(stopCh chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stopCh:
		return false
	case <-t.C:
		return true
	}
}
