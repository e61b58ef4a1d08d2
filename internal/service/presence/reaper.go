package presence

import (
	"context"
	"time"

	"tutorlink_chat_server/internal/dao/mysql/repository"

	"go.uber.org/zap"
)

// Reaper 周期性清理遗留在线记录
// 进程异常退出会留下 is_online=true 的脏行，按活跃时间阈值强制下线
type Reaper struct {
	repo       repository.PresenceRepository
	interval   time.Duration
	staleAfter time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewReaper(repo repository.PresenceRepository, interval, staleAfter time.Duration) *Reaper {
	return &Reaper{
		repo:       repo,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Start 启动后台清扫循环，重复调用无效果
func (r *Reaper) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx)
}

// Stop 停止清扫循环并等待当前一轮结束
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

func (r *Reaper) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				zap.L().Error("presence: 清扫失败", zap.Error(err))
			}
		}
	}
}

// Sweep 执行一轮清扫，返回底层存储错误
func (r *Reaper) Sweep(_ context.Context) error {
	cutoff := time.Now().Add(-r.staleAfter)
	n, err := r.repo.ForceOfflineBefore(cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		zap.L().Info("presence: 强制下线滞留用户", zap.Int64("count", n))
	}
	return nil
}
