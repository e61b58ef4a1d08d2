package chat

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Registry 是连接与房间的权威登记表
// 正向索引 rooms（房间 -> 成员）与反向索引 joined（连接 -> 房间）
// 在同一把锁下同步变更，保证两张表始终一致
type Registry struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	rooms  map[string]map[string]*Conn
	joined map[string]map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Conn),
		rooms:  make(map[string]map[string]*Conn),
		joined: make(map[string]map[string]bool),
	}
}

func (r *Registry) AddConn(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
	r.joined[c.ID] = make(map[string]bool)
}

// RemoveConn 将连接从所有已加入的房间移除并注销
// 对未注册的连接是无害空操作
func (r *Registry) RemoveConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.joined[connID] {
		r.leaveLocked(connID, roomID)
	}
	delete(r.joined, connID)
	delete(r.conns, connID)
}

// Join 将连接加入房间，重复加入是空操作
// 未注册的连接直接忽略
func (r *Registry) Join(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Conn)
		r.rooms[roomID] = members
	}
	members[connID] = c
	r.joined[connID][roomID] = true
}

// Leave 将连接移出房间，不在房间内则空操作，成员清空后回收房间
func (r *Registry) Leave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, roomID)
	if set, ok := r.joined[connID]; ok {
		delete(set, roomID)
	}
}

func (r *Registry) leaveLocked(connID, roomID string) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Publish 向房间内除 excludeConnID 外的全部连接广播事件
// 整个投递在锁内完成入队，保证同一房间内事件按调用顺序到达
func (r *Registry) Publish(roomID, event string, payload any, excludeConnID string) {
	data, err := json.Marshal(ServerEnvelope{Event: event, Data: payload})
	if err != nil {
		zap.L().Error("房间事件序列化失败", zap.String("room", roomID), zap.String("event", event), zap.Error(err))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for connID, c := range r.rooms[roomID] {
		if connID == excludeConnID {
			continue
		}
		c.enqueue(data)
	}
}

// RoomSize 返回房间当前成员数，房间不存在时为 0
func (r *Registry) RoomSize(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// InRoom 返回连接是否在指定房间内
func (r *Registry) InRoom(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID][connID]
	return ok
}

// CloseAll 关闭并注销全部连接，服务退出时调用
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[string]*Conn)
	r.rooms = make(map[string]map[string]*Conn)
	r.joined = make(map[string]map[string]bool)
	r.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
