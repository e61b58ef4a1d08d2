package chat

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"tutorlink_chat_server/internal/dto/request"
	"tutorlink_chat_server/internal/dto/respond"
	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/pkg/errorx"
)

// ==== 服务层桩 ====

type fakeMessageService struct {
	delay   time.Duration
	sendErr error
}

func (f *fakeMessageService) SendDirect(senderID int64, senderConnID string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &respond.MessageRespond{Uuid: 12345, ConversationId: 7, SenderId: senderID, Content: req.Content}, nil
}

func (f *fakeMessageService) SendGroup(senderID int64, senderConnID string, req request.SendGroupMessageRequest) (*respond.MessageRespond, error) {
	return &respond.MessageRespond{Uuid: 12346, ConversationId: req.ConversationId, SenderId: senderID}, nil
}

func (f *fakeMessageService) MarkRead(readerID int64, readerConnID string, req request.MarkReadRequest) (*respond.MessageStatusRespond, error) {
	return &respond.MessageStatusRespond{ConversationId: req.ConversationId, ReaderId: readerID}, nil
}

type fakeConversationService struct{}

func (f *fakeConversationService) ResolveSessionChat(sessionID int64) (*model.Conversation, error) {
	if sessionID == 404 {
		return nil, errorx.New(errorx.CodeNotFound, "辅导课不存在")
	}
	conv := &model.Conversation{ID: 77, Kind: model.ConversationKindSessionChat}
	conv.Name.String = "session-4-11"
	conv.Name.Valid = true
	return conv, nil
}

type stubPresence struct {
	mu          sync.Mutex
	connects    int
	activities  int
	disconnects int
}

func (s *stubPresence) RecordConnect(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
}

func (s *stubPresence) RecordActivity(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities++
}

func (s *stubPresence) RecordDisconnect(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
}

func (s *stubPresence) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects, s.activities, s.disconnects
}

func newTestDispatcher(msgs MessageService, ackTimeout time.Duration) (*Dispatcher, *Registry, *stubPresence) {
	registry := NewRegistry()
	presence := &stubPresence{}
	d := NewDispatcher(registry, msgs, &fakeConversationService{}, presence, "zh", ackTimeout)
	return d, registry, presence
}

func frame(t *testing.T, action, ackID string, data any) []byte {
	t.Helper()
	env := map[string]any{"action": action}
	if ackID != "" {
		env["ackId"] = ackID
	}
	if data != nil {
		env["data"] = data
	}
	out, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("构造上行帧失败: %v", err)
	}
	return out
}

func TestDispatchSendMessageAck(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionSendMessage, "ack-1", map[string]any{
		"recipientId": 5,
		"content":     "你好",
	}))

	ack := drainEnvelope(t, c)
	if ack.Event != EventAck || ack.AckID != "ack-1" {
		t.Fatalf("ack 帧异常: event=%s ackId=%s", ack.Event, ack.AckID)
	}
	if ack.Code != errorx.CodeSuccess {
		t.Fatalf("ack 码 = %d, 期望成功", ack.Code)
	}
	data, _ := ack.Data.(map[string]any)
	if data["uuid"].(float64) != 12345 {
		t.Fatalf("ack 应携带持久化消息 ID, data=%v", ack.Data)
	}
}

func TestDispatchAckTimeout(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{delay: 100 * time.Millisecond}, 10*time.Millisecond)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionSendMessage, "ack-2", map[string]any{
		"recipientId": 5,
		"content":     "你好",
	}))

	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeAckTimeout {
		t.Fatalf("ack 码 = %d, 期望 %d", ack.Code, errorx.CodeAckTimeout)
	}
}

func TestDispatchBusinessErrorInAck(t *testing.T) {
	svc := &fakeMessageService{sendErr: errorx.New(errorx.CodeUserNotExist, "接收用户不存在")}
	d, r, _ := newTestDispatcher(svc, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionSendMessage, "ack-3", map[string]any{
		"recipientId": 999,
		"content":     "你好",
	}))

	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeUserNotExist {
		t.Fatalf("ack 码 = %d, 期望 %d", ack.Code, errorx.CodeUserNotExist)
	}
	if ack.Msg == "" {
		t.Fatal("错误 ack 应携带消息")
	}
}

func TestDispatchValidationFailure(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	// 缺少 content
	d.Dispatch(c, frame(t, ActionSendMessage, "ack-4", map[string]any{"recipientId": 5}))

	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeInvalidParam {
		t.Fatalf("ack 码 = %d, 期望 %d", ack.Code, errorx.CodeInvalidParam)
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, "fly", "ack-5", nil))

	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeInvalidParam {
		t.Fatalf("ack 码 = %d, 期望 %d", ack.Code, errorx.CodeInvalidParam)
	}
}

func TestDispatchJoinUserRoomOnlySelf(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionJoinUserRoom, "ack-6", map[string]any{"userId": 5}))
	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeInvalidParam {
		t.Fatalf("冒充他人私有房间应被拒绝, ack 码 = %d", ack.Code)
	}

	d.Dispatch(c, frame(t, ActionJoinUserRoom, "ack-7", map[string]any{"userId": 2}))
	ack = drainEnvelope(t, c)
	if ack.Code != errorx.CodeSuccess {
		t.Fatalf("加入自己的私有房间失败, ack 码 = %d", ack.Code)
	}
	if !r.InRoom(c.ID, model.UserRoomID(2)) {
		t.Fatal("连接应在自己的私有房间内")
	}
}

func TestDispatchConversationRoomJoinLeave(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionJoinConversationRoom, "ack-8", map[string]any{"conversationId": 10}))
	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeSuccess {
		t.Fatalf("加入会话房间失败, ack 码 = %d", ack.Code)
	}
	if !r.InRoom(c.ID, model.ConversationRoomID(10)) {
		t.Fatal("连接应在会话房间内")
	}

	d.Dispatch(c, frame(t, ActionLeaveConversationRoom, "", map[string]any{"conversationId": 10}))
	if r.InRoom(c.ID, model.ConversationRoomID(10)) {
		t.Fatal("离开后连接不应在会话房间内")
	}
}

func TestDispatchTypingFanout(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	sender := newTestConn(2)
	peer := newTestConn(5)
	r.AddConn(sender)
	r.AddConn(peer)
	roomID := model.ConversationRoomID(10)
	r.Join(sender.ID, roomID)
	r.Join(peer.ID, roomID)

	d.Dispatch(sender, frame(t, ActionTyping, "", map[string]any{
		"roomId":   roomID,
		"isTyping": true,
	}))

	env := drainEnvelope(t, peer)
	if env.Event != EventUserTyping {
		t.Fatalf("事件 = %s, 期望 %s", env.Event, EventUserTyping)
	}
	data, _ := env.Data.(map[string]any)
	if data["userId"].(float64) != 2 || data["isTyping"] != true {
		t.Fatalf("输入状态载荷异常: %v", env.Data)
	}
	select {
	case <-sender.send:
		t.Fatal("输入状态不应回发给发送者")
	default:
	}
}

func TestDispatchActivityPing(t *testing.T) {
	d, r, presence := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionActivityPing, "", nil))
	if _, activities, _ := presence.counts(); activities != 1 {
		t.Fatalf("活跃上报次数 = %d, 期望 1", activities)
	}
}

func TestDispatchJoinSessionChat(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, frame(t, ActionJoinSessionChat, "ack-9", map[string]any{"sessionId": 11}))

	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeSuccess {
		t.Fatalf("加入课程群聊失败, ack 码 = %d, msg = %s", ack.Code, ack.Msg)
	}
	data, _ := ack.Data.(map[string]any)
	if data["conversationId"].(float64) != 77 {
		t.Fatalf("ack 应携带会话 ID, data=%v", ack.Data)
	}
	if !r.InRoom(c.ID, model.ConversationRoomID(77)) {
		t.Fatal("连接应被拉进会话房间")
	}
}

func TestDispatchMalformedFrame(t *testing.T) {
	d, r, _ := newTestDispatcher(&fakeMessageService{}, time.Second)
	c := newTestConn(2)
	r.AddConn(c)

	d.Dispatch(c, []byte("{not json"))

	ack := drainEnvelope(t, c)
	if ack.Code != errorx.CodeInvalidParam {
		t.Fatalf("ack 码 = %d, 期望 %d", ack.Code, errorx.CodeInvalidParam)
	}
}
