package message

import (
	"sync"
	"testing"
	"time"

	"tutorlink_chat_server/internal/dao/mysql/repository"
	"tutorlink_chat_server/internal/dto/request"
	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/internal/service/chat"
	"tutorlink_chat_server/internal/service/conversation"
	"tutorlink_chat_server/pkg/errorx"

	"gorm.io/gorm"
)

// ==== 内存版数据层桩 ====

func notFound(msg string) error {
	return errorx.Wrap(gorm.ErrRecordNotFound, errorx.CodeNotFound, msg)
}

type fakeUserRepo struct {
	users map[int64]*model.UserInfo
}

func (f *fakeUserRepo) FindByID(id int64) (*model.UserInfo, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, notFound("用户不存在")
	}
	return u, nil
}

func (f *fakeUserRepo) FindByIDs(ids []int64) ([]model.UserInfo, error) {
	var out []model.UserInfo
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Create(user *model.UserInfo) error {
	f.users[user.ID] = user
	return nil
}

type fakeConversationRepo struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*model.Conversation
	byPairKey map[string]*model.Conversation
	byName    map[string]*model.Conversation
	touched   []int64
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:      make(map[int64]*model.Conversation),
		byPairKey: make(map[string]*model.Conversation),
		byName:    make(map[string]*model.Conversation),
	}
}

func (f *fakeConversationRepo) FindByID(id int64) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, notFound("会话不存在")
	}
	return c, nil
}

func (f *fakeConversationRepo) FindDirectByPairKey(pairKey string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byPairKey[pairKey]
	if !ok {
		return nil, notFound("会话不存在")
	}
	return c, nil
}

func (f *fakeConversationRepo) FindByKindAndName(kind, name string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byName[kind+"/"+name]
	if !ok {
		return nil, notFound("会话不存在")
	}
	return c, nil
}

func (f *fakeConversationRepo) Create(conversation *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	conversation.ID = f.nextID
	f.byID[conversation.ID] = conversation
	if conversation.PairKey.Valid {
		f.byPairKey[conversation.PairKey.String] = conversation
	}
	if conversation.Name.Valid {
		f.byName[conversation.Kind+"/"+conversation.Name.String] = conversation
	}
	return nil
}

func (f *fakeConversationRepo) TouchUpdatedAt(id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

type fakeParticipantRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.Participant
}

func (f *fakeParticipantRepo) FindByConversationID(conversationID int64) ([]model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Participant
	for _, p := range f.rows {
		if p.ConversationID == conversationID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) FindByConversationAndUser(conversationID, userID int64) (*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ConversationID == conversationID && p.UserID == userID {
			return p, nil
		}
	}
	return nil, notFound("成员不存在")
}

func (f *fakeParticipantRepo) Create(participant *model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	participant.ID = f.nextID
	f.rows = append(f.rows, participant)
	return nil
}

func (f *fakeParticipantRepo) IncrementUnreadExcept(conversationID, exceptUserID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ConversationID == conversationID && p.UserID != exceptUserID {
			p.UnreadCount++
		}
	}
	return nil
}

func (f *fakeParticipantRepo) ResetUnread(conversationID, userID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ConversationID == conversationID && p.UserID == userID {
			p.UnreadCount = 0
			p.LastReadAt.Time = at
			p.LastReadAt.Valid = true
		}
	}
	return nil
}

func (f *fakeParticipantRepo) unread(conversationID, userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ConversationID == conversationID && p.UserID == userID {
			return p.UnreadCount
		}
	}
	return -1
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	nextID    int64
	rows      []*model.Message
	createErr error
	readUuids []int64
}

func (f *fakeMessageRepo) Create(message *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	message.ID = f.nextID
	f.rows = append(f.rows, message)
	return nil
}

func (f *fakeMessageRepo) FindByConversationID(conversationID int64) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.rows {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(uuids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readUuids = append(f.readUuids, uuids...)
	return nil
}

type fakeTutorSessionRepo struct{}

func (f *fakeTutorSessionRepo) FindByID(id int64) (*model.TutorSession, error) {
	return nil, notFound("辅导课不存在")
}

func (f *fakeTutorSessionRepo) FindRoster(sessionID int64) ([]int64, error) {
	return nil, nil
}

// publishedEvent 记录一次房间广播
type publishedEvent struct {
	roomID  string
	event   string
	payload any
	exclude string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(roomID, event string, payload any, excludeConnID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{roomID, event, payload, excludeConnID})
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakePublisher) last(t *testing.T) publishedEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		t.Fatal("期望有房间广播")
	}
	return f.events[len(f.events)-1]
}

type testEnv struct {
	svc   *Service
	users *fakeUserRepo
	convs *fakeConversationRepo
	parts *fakeParticipantRepo
	msgs  *fakeMessageRepo
	pub   *fakePublisher
}

func newTestEnv() *testEnv {
	users := &fakeUserRepo{users: map[int64]*model.UserInfo{
		2: {ID: 2, Nickname: "小张", Role: model.RoleStudent},
		5: {ID: 5, Nickname: "王老师", Role: model.RoleTutor},
		8: {ID: 8, Nickname: "小李", Role: model.RoleStudent},
	}}
	convs := newFakeConversationRepo()
	parts := &fakeParticipantRepo{}
	msgs := &fakeMessageRepo{}
	repos := &repository.Repositories{
		User:         users,
		Conversation: convs,
		Participant:  parts,
		Message:      msgs,
		TutorSession: &fakeTutorSessionRepo{},
	}
	pub := &fakePublisher{}
	svc := NewService(repos, conversation.NewResolver(repos), pub, nil, nil)
	return &testEnv{svc: svc, users: users, convs: convs, parts: parts, msgs: msgs, pub: pub}
}

// ==== 单聊发送 ====

func TestSendDirectInvalidRecipient(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
		RecipientId: -1,
		Content:     "你好",
	})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeInvalidParam)
	}
	if env.pub.count() != 0 {
		t.Fatal("校验失败不应有广播")
	}
}

func TestSendDirectUnknownRecipient(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
		RecipientId: 999,
		Content:     "你好",
	})
	if errorx.GetCode(err) != errorx.CodeUserNotExist {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeUserNotExist)
	}
}

func TestSendDirectUnknownSender(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.SendDirect(777, "conn-a", request.SendMessageRequest{
		RecipientId: 5,
		Content:     "你好",
	})
	if errorx.GetCode(err) != errorx.CodeUserNotExist {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeUserNotExist)
	}
}

func TestSendDirectPersistsThenPublishes(t *testing.T) {
	env := newTestEnv()

	rsp, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
		RecipientId: 5,
		Content:     "老师好，请问第三题怎么做",
	})
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if rsp.Uuid == 0 {
		t.Fatal("ack 数据应携带持久化消息 ID")
	}
	if rsp.SenderName != "小张" {
		t.Fatalf("发送者昵称 = %s, 期望 小张", rsp.SenderName)
	}
	if len(env.msgs.rows) != 1 {
		t.Fatalf("落库消息数 = %d, 期望 1", len(env.msgs.rows))
	}

	// 接收者未读 +1，发送者不变
	if got := env.parts.unread(rsp.ConversationId, 5); got != 1 {
		t.Fatalf("接收者未读数 = %d, 期望 1", got)
	}
	if got := env.parts.unread(rsp.ConversationId, 2); got != 0 {
		t.Fatalf("发送者未读数 = %d, 期望 0", got)
	}

	ev := env.pub.last(t)
	if ev.roomID != model.ConversationRoomID(rsp.ConversationId) {
		t.Fatalf("广播房间 = %s, 期望 %s", ev.roomID, model.ConversationRoomID(rsp.ConversationId))
	}
	if ev.event != chat.EventNewMessage {
		t.Fatalf("广播事件 = %s, 期望 %s", ev.event, chat.EventNewMessage)
	}
	if ev.exclude != "conn-a" {
		t.Fatalf("广播应排除发送者连接, exclude = %s", ev.exclude)
	}
}

func TestSendDirectUnreadAccumulates(t *testing.T) {
	env := newTestEnv()

	var convID int64
	for i := 0; i < 3; i++ {
		rsp, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
			RecipientId: 5,
			Content:     "第 N 条",
		})
		if err != nil {
			t.Fatalf("发送失败: %v", err)
		}
		convID = rsp.ConversationId
	}
	if got := env.parts.unread(convID, 5); got != 3 {
		t.Fatalf("接收者未读数 = %d, 期望 3", got)
	}
}

func TestSendDirectPersistenceFailureSurfaced(t *testing.T) {
	env := newTestEnv()
	env.msgs.createErr = errorx.New(errorx.CodeDBError, "插入消息失败")

	_, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
		RecipientId: 5,
		Content:     "你好",
	})
	if errorx.GetCode(err) != errorx.CodeDBError {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeDBError)
	}
	// 落库失败绝不投递
	if env.pub.count() != 0 {
		t.Fatal("落库失败不应有广播")
	}
	if got := env.parts.unread(1, 5); got > 0 {
		t.Fatalf("落库失败不应增加未读数, 未读 = %d", got)
	}
}

// ==== 群聊发送 ====

func seedGroup(env *testEnv, kind string, members ...int64) *model.Conversation {
	conv := &model.Conversation{Kind: kind}
	if kind == model.ConversationKindSessionChat {
		conv.Name.String = "session-4-11"
		conv.Name.Valid = true
	}
	_ = env.convs.Create(conv)
	for _, id := range members {
		_ = env.parts.Create(&model.Participant{ConversationID: conv.ID, UserID: id, JoinedAt: time.Now()})
	}
	return conv
}

func TestSendGroupToAllButSender(t *testing.T) {
	env := newTestEnv()
	conv := seedGroup(env, model.ConversationKindSessionChat, 2, 5, 8)

	rsp, err := env.svc.SendGroup(5, "conn-t", request.SendGroupMessageRequest{
		ConversationId: conv.ID,
		Content:        "今晚答疑改到八点",
	})
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if rsp.Kind != model.ConversationKindSessionChat {
		t.Fatalf("会话类型 = %s, 期望 sessionChat", rsp.Kind)
	}
	if got := env.parts.unread(conv.ID, 2); got != 1 {
		t.Fatalf("成员 2 未读数 = %d, 期望 1", got)
	}
	if got := env.parts.unread(conv.ID, 8); got != 1 {
		t.Fatalf("成员 8 未读数 = %d, 期望 1", got)
	}
	if got := env.parts.unread(conv.ID, 5); got != 0 {
		t.Fatalf("发送者未读数 = %d, 期望 0", got)
	}
	ev := env.pub.last(t)
	if ev.event != chat.EventNewGroupMessage {
		t.Fatalf("广播事件 = %s, 期望 %s", ev.event, chat.EventNewGroupMessage)
	}
}

func TestSendGroupNonParticipantRejected(t *testing.T) {
	env := newTestEnv()
	conv := seedGroup(env, model.ConversationKindGroup, 2, 5)

	_, err := env.svc.SendGroup(8, "conn-c", request.SendGroupMessageRequest{
		ConversationId: conv.ID,
		Content:        "我也想进来",
	})
	if errorx.GetCode(err) != errorx.CodeNotParticipant {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeNotParticipant)
	}
}

func TestSendGroupSessionChatAttachesLateEnrollment(t *testing.T) {
	env := newTestEnv()
	conv := seedGroup(env, model.ConversationKindSessionChat, 2, 5)

	// 建群后才报名的学生首次发言自动补成员
	_, err := env.svc.SendGroup(8, "conn-c", request.SendGroupMessageRequest{
		ConversationId: conv.ID,
		Content:        "大家好",
	})
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if _, err := env.parts.FindByConversationAndUser(conv.ID, 8); err != nil {
		t.Fatalf("发言后应存在成员记录: %v", err)
	}
}

func TestSendGroupUnknownConversation(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.SendGroup(2, "conn-a", request.SendGroupMessageRequest{
		ConversationId: 404,
		Content:        "在吗",
	})
	if errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeNotFound)
	}
}

// ==== 已读标记 ====

func TestMarkReadResetsUnread(t *testing.T) {
	env := newTestEnv()

	rsp, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
		RecipientId: 5,
		Content:     "你好",
	})
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}

	status, err := env.svc.MarkRead(5, "conn-b", request.MarkReadRequest{
		ConversationId: rsp.ConversationId,
		MessageIds:     []int64{rsp.Uuid},
	})
	if err != nil {
		t.Fatalf("标记已读失败: %v", err)
	}
	if got := env.parts.unread(rsp.ConversationId, 5); got != 0 {
		t.Fatalf("已读后未读数 = %d, 期望 0", got)
	}
	if len(env.msgs.readUuids) != 1 || env.msgs.readUuids[0] != rsp.Uuid {
		t.Fatalf("消息已读标记缺失: %v", env.msgs.readUuids)
	}
	if status.ReaderId != 5 {
		t.Fatalf("回执阅读者 = %d, 期望 5", status.ReaderId)
	}

	ev := env.pub.last(t)
	if ev.event != chat.EventMessageStatus {
		t.Fatalf("广播事件 = %s, 期望 %s", ev.event, chat.EventMessageStatus)
	}
	if ev.exclude != "conn-b" {
		t.Fatalf("回执应排除阅读者连接, exclude = %s", ev.exclude)
	}
}

func TestMarkReadNonParticipantRejected(t *testing.T) {
	env := newTestEnv()
	conv := seedGroup(env, model.ConversationKindGroup, 2, 5)

	_, err := env.svc.MarkRead(8, "conn-c", request.MarkReadRequest{ConversationId: conv.ID})
	if errorx.GetCode(err) != errorx.CodeNotParticipant {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeNotParticipant)
	}
}

func TestMarkReadEmptyRequestRejected(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.MarkRead(2, "conn-a", request.MarkReadRequest{})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeInvalidParam)
	}
}

// ==== 历史查询 ====

func TestHistoryRequiresMembership(t *testing.T) {
	env := newTestEnv()
	conv := seedGroup(env, model.ConversationKindGroup, 2, 5)

	_, err := env.svc.History(conv.ID, 8)
	if errorx.GetCode(err) != errorx.CodeNotParticipant {
		t.Fatalf("错误码 = %d, 期望 %d", errorx.GetCode(err), errorx.CodeNotParticipant)
	}
}

func TestHistoryReturnsMessagesInOrder(t *testing.T) {
	env := newTestEnv()

	first, err := env.svc.SendDirect(2, "conn-a", request.SendMessageRequest{
		RecipientId: 5,
		Content:     "第一条",
	})
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if _, err := env.svc.SendDirect(5, "conn-b", request.SendMessageRequest{
		RecipientId: 2,
		Content:     "第二条",
	}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}

	list, err := env.svc.History(first.ConversationId, 2)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("消息数 = %d, 期望 2", len(list))
	}
	if list[0].Content != "第一条" || list[1].Content != "第二条" {
		t.Fatalf("消息顺序错乱: %s, %s", list[0].Content, list[1].Content)
	}
	if list[1].SenderName != "王老师" {
		t.Fatalf("发送者昵称 = %s, 期望 王老师", list[1].SenderName)
	}
}
