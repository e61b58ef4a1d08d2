package presence

import (
	"context"
	"strconv"
	"sync"
	"time"

	"tutorlink_chat_server/internal/dao/mysql/repository"
	myredis "tutorlink_chat_server/internal/dao/redis"
	"tutorlink_chat_server/pkg/constants"

	"go.uber.org/zap"
)

const onlineSetKey = "presence_online"

// Tracker 维护用户在线状态
// 同一用户允许多个连接，连接计数归零后进入离线宽限期，
// 宽限期内重连视为从未离线；活跃心跳按节流窗口限频落库
type Tracker struct {
	mu          sync.Mutex
	repo        repository.PresenceRepository
	cache       myredis.AsyncCacheService
	connCount   map[int64]int
	lastSeen    map[int64]time.Time
	lastFlush   map[int64]time.Time
	graceTimers map[int64]*time.Timer

	flushInterval time.Duration
	offlineGrace  time.Duration
	now           func() time.Time
}

func NewTracker(repo repository.PresenceRepository, cache myredis.AsyncCacheService, flushInterval, offlineGrace time.Duration) *Tracker {
	return &Tracker{
		repo:          repo,
		cache:         cache,
		connCount:     make(map[int64]int),
		lastSeen:      make(map[int64]time.Time),
		lastFlush:     make(map[int64]time.Time),
		graceTimers:   make(map[int64]*time.Timer),
		flushInterval: flushInterval,
		offlineGrace:  offlineGrace,
		now:           time.Now,
	}
}

// RecordConnect 登记一条新连接
// 若该用户处于离线宽限期则取消宽限定时器，状态保持在线
func (t *Tracker) RecordConnect(userID int64) {
	now := t.now()
	t.mu.Lock()
	if timer, ok := t.graceTimers[userID]; ok {
		timer.Stop()
		delete(t.graceTimers, userID)
	}
	t.connCount[userID]++
	t.lastSeen[userID] = now
	t.lastFlush[userID] = now
	t.mu.Unlock()

	if err := t.repo.Upsert(userID, true, now); err != nil {
		zap.L().Error("presence: 上线状态写入失败", zap.Int64("user_id", userID), zap.Error(err))
	}
	t.mirrorOnline(userID, true)
}

// RecordActivity 记录用户活跃，节流窗口内只更新内存时间戳
func (t *Tracker) RecordActivity(userID int64) {
	now := t.now()
	t.mu.Lock()
	if t.connCount[userID] <= 0 {
		t.mu.Unlock()
		return
	}
	t.lastSeen[userID] = now
	flush := now.Sub(t.lastFlush[userID]) >= t.flushInterval
	if flush {
		t.lastFlush[userID] = now
	}
	t.mu.Unlock()

	if !flush {
		return
	}
	if err := t.repo.UpdateLastSeen(userID, now); err != nil {
		zap.L().Error("presence: 活跃时间写入失败", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// RecordDisconnect 登记连接断开
// 最后一条连接断开时不立刻下线，而是启动宽限定时器
func (t *Tracker) RecordDisconnect(userID int64) {
	t.mu.Lock()
	t.connCount[userID]--
	if t.connCount[userID] > 0 {
		t.mu.Unlock()
		return
	}
	delete(t.connCount, userID)
	if timer, ok := t.graceTimers[userID]; ok {
		timer.Stop()
	}
	t.graceTimers[userID] = time.AfterFunc(t.offlineGrace, func() {
		t.finalizeOffline(userID)
	})
	t.mu.Unlock()
}

// Online 返回用户当前是否持有活跃连接（含宽限期内视作在线）
func (t *Tracker) Online(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connCount[userID] > 0 {
		return true
	}
	_, graceful := t.graceTimers[userID]
	return graceful
}

// Stop 取消全部宽限定时器，进程退出前调用
func (t *Tracker) Stop() {
	t.mu.Lock()
	for userID, timer := range t.graceTimers {
		timer.Stop()
		delete(t.graceTimers, userID)
	}
	t.mu.Unlock()
}

func (t *Tracker) finalizeOffline(userID int64) {
	now := t.now()
	t.mu.Lock()
	if t.connCount[userID] > 0 {
		t.mu.Unlock()
		return
	}
	delete(t.graceTimers, userID)
	t.mu.Unlock()

	if err := t.repo.SetOffline(userID, now); err != nil {
		zap.L().Error("presence: 下线状态写入失败", zap.Int64("user_id", userID), zap.Error(err))
	}
	t.mirrorOnline(userID, false)
}

// mirrorOnline 把在线集合镜像到 redis，失败只记日志
func (t *Tracker) mirrorOnline(userID int64, online bool) {
	if t.cache == nil {
		return
	}
	member := strconv.FormatInt(userID, 10)
	t.cache.SubmitTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Minute)
		defer cancel()
		var err error
		if online {
			err = t.cache.AddToSet(ctx, onlineSetKey, member)
		} else {
			err = t.cache.RemoveFromSet(ctx, onlineSetKey, member)
		}
		if err != nil {
			zap.L().Warn("presence: redis 在线集合同步失败", zap.Int64("user_id", userID), zap.Error(err))
		}
	})
}
