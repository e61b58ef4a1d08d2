package chat

import (
	"encoding/json"
	"time"

	"tutorlink_chat_server/internal/dto/request"
	"tutorlink_chat_server/internal/dto/respond"
	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// MessageService 是分发器需要的消息能力
type MessageService interface {
	SendDirect(senderID int64, senderConnID string, req request.SendMessageRequest) (*respond.MessageRespond, error)
	SendGroup(senderID int64, senderConnID string, req request.SendGroupMessageRequest) (*respond.MessageRespond, error)
	MarkRead(readerID int64, readerConnID string, req request.MarkReadRequest) (*respond.MessageStatusRespond, error)
}

// ConversationService 是分发器需要的会话解析能力
type ConversationService interface {
	ResolveSessionChat(sessionID int64) (*model.Conversation, error)
}

// PresenceSink 是分发器和网关上报在线信号的出口
type PresenceSink interface {
	RecordConnect(userID int64)
	RecordActivity(userID int64)
	RecordDisconnect(userID int64)
}

// Dispatcher 解析上行帧并按 action 路由
// 带 ackId 的动作在独立 goroutine 中执行，超时未完成回发超时 ack
type Dispatcher struct {
	registry      *Registry
	messages      MessageService
	conversations ConversationService
	presence      PresenceSink
	payloads      *payloadValidator
	ackTimeout    time.Duration
}

func NewDispatcher(registry *Registry, messages MessageService, conversations ConversationService, presence PresenceSink, locale string, ackTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		messages:      messages,
		conversations: conversations,
		presence:      presence,
		payloads:      newPayloadValidator(locale),
		ackTimeout:    ackTimeout,
	}
}

// Dispatch 处理一条上行帧，任何业务错误都转成 ack 回给发送方
func (d *Dispatcher) Dispatch(conn *Conn, raw []byte) {
	var env ClientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.sendAck(conn, "", nil, errorx.New(errorx.CodeInvalidParam, "无法解析的消息帧"))
		return
	}

	switch env.Action {
	case ActionActivityPing:
		d.presence.RecordActivity(conn.Identity.UserID)
		if env.AckID != "" {
			d.sendAck(conn, env.AckID, nil, nil)
		}
	case ActionTyping:
		d.handleTyping(conn, env)
	case ActionJoinUserRoom, ActionJoinConversationRoom, ActionLeaveConversationRoom:
		d.handleRoomAction(conn, env)
	case ActionSendMessage, ActionSendGroupMessage, ActionMarkRead, ActionJoinSessionChat:
		d.dispatchAcked(conn, env)
	default:
		d.sendAck(conn, env.AckID, nil, errorx.Newf(errorx.CodeInvalidParam, "未知动作 %s", env.Action))
	}
}

// handleTyping 把输入状态转发给房间内其他成员，不落库不回 ack
func (d *Dispatcher) handleTyping(conn *Conn, env ClientEnvelope) {
	var req request.TypingRequest
	if msg := d.decode(env.Data, &req); msg != "" {
		d.sendAck(conn, env.AckID, nil, errorx.New(errorx.CodeInvalidParam, msg))
		return
	}
	d.registry.Publish(req.RoomId, EventUserTyping, respond.TypingRespond{
		RoomId:   req.RoomId,
		UserId:   conn.Identity.UserID,
		IsTyping: req.IsTyping,
	}, conn.ID)
}

// handleRoomAction 处理房间加入/离开，均为幂等操作
func (d *Dispatcher) handleRoomAction(conn *Conn, env ClientEnvelope) {
	switch env.Action {
	case ActionJoinUserRoom:
		var req request.JoinUserRoomRequest
		if msg := d.decode(env.Data, &req); msg != "" {
			d.sendAck(conn, env.AckID, nil, errorx.New(errorx.CodeInvalidParam, msg))
			return
		}
		if req.UserId != conn.Identity.UserID {
			d.sendAck(conn, env.AckID, nil, errorx.New(errorx.CodeInvalidParam, "只能加入自己的私有房间"))
			return
		}
		d.registry.Join(conn.ID, model.UserRoomID(req.UserId))
	default:
		var req request.ConversationRoomRequest
		if msg := d.decode(env.Data, &req); msg != "" {
			d.sendAck(conn, env.AckID, nil, errorx.New(errorx.CodeInvalidParam, msg))
			return
		}
		roomID := model.ConversationRoomID(req.ConversationId)
		if env.Action == ActionJoinConversationRoom {
			d.registry.Join(conn.ID, roomID)
		} else {
			d.registry.Leave(conn.ID, roomID)
		}
	}
	if env.AckID != "" {
		d.sendAck(conn, env.AckID, nil, nil)
	}
}

// dispatchAcked 异步执行动作，在超时窗口内回 ack
func (d *Dispatcher) dispatchAcked(conn *Conn, env ClientEnvelope) {
	type outcome struct {
		data any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		switch env.Action {
		case ActionSendMessage:
			var req request.SendMessageRequest
			if msg := d.decode(env.Data, &req); msg != "" {
				o.err = errorx.New(errorx.CodeInvalidParam, msg)
				break
			}
			o.data, o.err = d.messages.SendDirect(conn.Identity.UserID, conn.ID, req)
		case ActionSendGroupMessage:
			var req request.SendGroupMessageRequest
			if msg := d.decode(env.Data, &req); msg != "" {
				o.err = errorx.New(errorx.CodeInvalidParam, msg)
				break
			}
			o.data, o.err = d.messages.SendGroup(conn.Identity.UserID, conn.ID, req)
		case ActionMarkRead:
			var req request.MarkReadRequest
			if msg := d.decode(env.Data, &req); msg != "" {
				o.err = errorx.New(errorx.CodeInvalidParam, msg)
				break
			}
			o.data, o.err = d.messages.MarkRead(conn.Identity.UserID, conn.ID, req)
		case ActionJoinSessionChat:
			var req request.JoinSessionChatRequest
			if msg := d.decode(env.Data, &req); msg != "" {
				o.err = errorx.New(errorx.CodeInvalidParam, msg)
				break
			}
			conv, err := d.conversations.ResolveSessionChat(req.SessionId)
			if err != nil {
				o.err = err
				break
			}
			d.registry.Join(conn.ID, model.ConversationRoomID(conv.ID))
			o.data = respond.ConversationRespond{
				ConversationId: conv.ID,
				Kind:           conv.Kind,
				Name:           conv.Name.String,
			}
		}
		done <- o
	}()

	timer := time.NewTimer(d.ackTimeout)
	defer timer.Stop()
	select {
	case o := <-done:
		d.sendAck(conn, env.AckID, o.data, o.err)
	case <-timer.C:
		zap.L().Warn("动作处理超时", zap.String("action", env.Action),
			zap.Int64("user_id", conn.Identity.UserID), zap.String("ack_id", env.AckID))
		d.sendAck(conn, env.AckID, nil, errorx.New(errorx.CodeAckTimeout, "处理超时，请稍后重试"))
	}
}

// decode 反序列化并校验载荷，返回错误描述
func (d *Dispatcher) decode(data json.RawMessage, out any) string {
	if len(data) == 0 {
		return "缺少 data 载荷"
	}
	if err := json.Unmarshal(data, out); err != nil {
		return "data 载荷格式错误"
	}
	return d.payloads.check(out)
}

// sendAck 回发 ack 帧，err 为 nil 表示成功
func (d *Dispatcher) sendAck(conn *Conn, ackID string, data any, err error) {
	env := ServerEnvelope{Event: EventAck, AckID: ackID, Code: errorx.CodeSuccess, Data: data}
	if err != nil {
		env.Code = errorx.GetCode(err)
		env.Msg = err.Error()
		env.Data = nil
		if !errorx.IsValidation(err) && env.Code != errorx.CodeAckTimeout && env.Code != errorx.CodeNotFound {
			zap.L().Error("动作处理失败", zap.String("ack_id", ackID),
				zap.Int64("user_id", conn.Identity.UserID), zap.Error(err))
		}
	}
	out, merr := json.Marshal(env)
	if merr != nil {
		zap.L().Error("ack 序列化失败", zap.Error(merr))
		return
	}
	conn.enqueue(out)
}
