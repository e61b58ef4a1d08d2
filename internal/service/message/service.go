package message

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutorlink_chat_server/internal/dao/mysql/repository"
	myredis "tutorlink_chat_server/internal/dao/redis"
	"tutorlink_chat_server/internal/dto/request"
	"tutorlink_chat_server/internal/dto/respond"
	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/internal/service/chat"
	"tutorlink_chat_server/internal/service/conversation"
	"tutorlink_chat_server/pkg/constants"
	"tutorlink_chat_server/pkg/errorx"
	"tutorlink_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// historyCacheTTL 消息历史缓存有效期，新消息落库时主动失效
const historyCacheTTL = 10 * time.Minute

// Publisher 是消息服务的房间广播出口，由连接登记表实现
type Publisher interface {
	Publish(roomID, event string, payload any, excludeConnID string)
}

// Exporter 把已持久化的消息推送到外部流，由 Kafka 导出器实现
type Exporter interface {
	Export(ctx context.Context, msg *respond.MessageRespond) error
}

// Service 实现消息的校验、持久化与投递
// 投递严格发生在落库成功之后，落库失败原样上抛，绝不假装成功
type Service struct {
	repos    *repository.Repositories
	resolver *conversation.Resolver
	pub      Publisher
	cache    myredis.AsyncCacheService
	exporter Exporter
}

func NewService(repos *repository.Repositories, resolver *conversation.Resolver, pub Publisher, cache myredis.AsyncCacheService, exporter Exporter) *Service {
	return &Service{
		repos:    repos,
		resolver: resolver,
		pub:      pub,
		cache:    cache,
		exporter: exporter,
	}
}

// SendDirect 发送单聊消息
// 校验双方身份后解析（或创建）会话，落库成功才广播给房间内其他连接
func (s *Service) SendDirect(senderID int64, senderConnID string, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if req.RecipientId <= 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "接收者 ID 无效")
	}
	sender, err := s.mustFindUser(senderID, "发送")
	if err != nil {
		return nil, err
	}
	if _, err := s.mustFindUser(req.RecipientId, "接收"); err != nil {
		return nil, err
	}
	conv, err := s.resolver.ResolveDirect(senderID, req.RecipientId)
	if err != nil {
		return nil, err
	}
	return s.deliver(conv, sender, req.Content, req.Attachments, senderConnID, chat.EventNewMessage)
}

// SendGroup 发送群聊消息，要求会话已存在
// 课程群聊允许名单内用户首次发言时自动补成员，普通群聊拒绝非成员
func (s *Service) SendGroup(senderID int64, senderConnID string, req request.SendGroupMessageRequest) (*respond.MessageRespond, error) {
	sender, err := s.mustFindUser(senderID, "发送")
	if err != nil {
		return nil, err
	}
	conv, err := s.repos.Conversation.FindByID(req.ConversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Wrapf(err, errorx.CodeNotFound, "会话 %d 不存在", req.ConversationId)
		}
		return nil, err
	}
	if conv.Kind == model.ConversationKindDirect {
		return nil, errorx.New(errorx.CodeInvalidParam, "单聊会话不接受群聊发送")
	}

	_, err = s.repos.Participant.FindByConversationAndUser(conv.ID, senderID)
	if err != nil {
		if !errorx.IsNotFound(err) {
			return nil, err
		}
		if conv.Kind != model.ConversationKindSessionChat {
			return nil, errorx.Newf(errorx.CodeNotParticipant, "用户 %d 不是会话 %d 的成员", senderID, conv.ID)
		}
		// 课程群聊建群后才报名的学生，首次发言时补成员记录
		p := &model.Participant{ConversationID: conv.ID, UserID: senderID, JoinedAt: time.Now()}
		if cerr := s.repos.Participant.Create(p); cerr != nil && !repository.IsDuplicateKey(cerr) {
			return nil, cerr
		}
	}
	return s.deliver(conv, sender, req.Content, req.Attachments, senderConnID, chat.EventNewGroupMessage)
}

// MarkRead 清零调用方未读计数并按需标记消息已读
// 已读回执广播给会话房间内的其他成员
func (s *Service) MarkRead(readerID int64, readerConnID string, req request.MarkReadRequest) (*respond.MessageStatusRespond, error) {
	if req.ConversationId <= 0 && len(req.MessageIds) == 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "conversationId 与 messageIds 至少携带一项")
	}
	now := time.Now()
	if req.ConversationId > 0 {
		if _, err := s.repos.Participant.FindByConversationAndUser(req.ConversationId, readerID); err != nil {
			if errorx.IsNotFound(err) {
				return nil, errorx.Newf(errorx.CodeNotParticipant, "用户 %d 不是会话 %d 的成员", readerID, req.ConversationId)
			}
			return nil, err
		}
		if err := s.repos.Participant.ResetUnread(req.ConversationId, readerID, now); err != nil {
			return nil, err
		}
	}
	if len(req.MessageIds) > 0 {
		if err := s.repos.Message.MarkRead(req.MessageIds); err != nil {
			return nil, err
		}
	}

	status := &respond.MessageStatusRespond{
		ConversationId: req.ConversationId,
		ReaderId:       readerID,
		MessageIds:     req.MessageIds,
		ReadAt:         now.Format(time.DateTime),
	}
	if req.ConversationId > 0 {
		s.pub.Publish(model.ConversationRoomID(req.ConversationId), chat.EventMessageStatus, status, readerConnID)
	}
	return status, nil
}

// History 按时间升序返回会话消息，优先命中 redis 缓存
func (s *Service) History(conversationID, readerID int64) ([]respond.MessageRespond, error) {
	if _, err := s.repos.Participant.FindByConversationAndUser(conversationID, readerID); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Newf(errorx.CodeNotParticipant, "用户 %d 不是会话 %d 的成员", readerID, conversationID)
		}
		return nil, err
	}

	key := historyCacheKey(conversationID)
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Minute)
		cached, err := s.cache.GetOrError(ctx, key)
		cancel()
		if err == nil && cached != "" {
			var list []respond.MessageRespond
			if jerr := json.Unmarshal([]byte(cached), &list); jerr == nil {
				return list, nil
			}
		}
	}

	msgs, err := s.repos.Message.FindByConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	list := make([]respond.MessageRespond, 0, len(msgs))
	senderIDs := make([]int64, 0, len(msgs))
	seen := make(map[int64]bool)
	for _, m := range msgs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	names := make(map[int64]string, len(senderIDs))
	if len(senderIDs) > 0 {
		users, uerr := s.repos.User.FindByIDs(senderIDs)
		if uerr != nil {
			return nil, uerr
		}
		for _, u := range users {
			names[u.ID] = u.Nickname
		}
	}
	for _, m := range msgs {
		attachments, derr := model.DecodeAttachments(m.Metadata)
		if derr != nil {
			zap.L().Warn("消息附件解码失败", zap.Int64("uuid", m.Uuid), zap.Error(derr))
		}
		list = append(list, respond.MessageRespond{
			Uuid:           m.Uuid,
			ConversationId: m.ConversationID,
			SenderId:       m.SenderID,
			SenderName:     names[m.SenderID],
			Content:        m.Content,
			Attachments:    attachments,
			SentAt:         m.SentAt.Format(time.DateTime),
		})
	}

	if s.cache != nil {
		if data, jerr := json.Marshal(list); jerr == nil {
			s.cache.SubmitTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Minute)
				defer cancel()
				if cerr := s.cache.Set(ctx, key, string(data), historyCacheTTL); cerr != nil {
					zap.L().Warn("消息历史缓存写入失败", zap.Int64("conversation_id", conversationID), zap.Error(cerr))
				}
			})
		}
	}
	return list, nil
}

// deliver 落库并投递一条消息
// 落库失败直接返回错误；未读计数与会话活跃时间的更新失败只记日志，
// 不影响已持久化消息的投递
func (s *Service) deliver(conv *model.Conversation, sender *model.UserInfo, content string, attachments []model.Attachment, senderConnID, event string) (*respond.MessageRespond, error) {
	metadata, err := model.EncodeAttachments(attachments)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeInvalidParam, "附件格式无效")
	}
	now := time.Now()
	msg := &model.Message{
		Uuid:           snowflake.GenerateID(),
		CreatedAt:      now,
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        content,
		Metadata:       metadata,
		SentAt:         now,
	}
	if err := s.repos.Message.Create(msg); err != nil {
		zap.L().Error("消息落库失败", zap.Int64("conversation_id", conv.ID),
			zap.Int64("sender_id", sender.ID), zap.Error(err))
		return nil, err
	}

	if err := s.repos.Participant.IncrementUnreadExcept(conv.ID, sender.ID); err != nil {
		zap.L().Error("未读计数更新失败", zap.Int64("conversation_id", conv.ID), zap.Error(err))
	}
	if err := s.repos.Conversation.TouchUpdatedAt(conv.ID, now); err != nil {
		zap.L().Error("会话活跃时间更新失败", zap.Int64("conversation_id", conv.ID), zap.Error(err))
	}

	rsp := &respond.MessageRespond{
		Uuid:           msg.Uuid,
		ConversationId: conv.ID,
		Kind:           conv.Kind,
		SenderId:       sender.ID,
		SenderName:     sender.Nickname,
		Content:        content,
		Attachments:    attachments,
		SentAt:         now.Format(time.DateTime),
	}
	s.pub.Publish(model.ConversationRoomID(conv.ID), event, rsp, senderConnID)

	if s.cache != nil {
		key := historyCacheKey(conv.ID)
		s.cache.SubmitTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.REDIS_TIMEOUT*time.Minute)
			defer cancel()
			if cerr := s.cache.Delete(ctx, key); cerr != nil {
				zap.L().Warn("消息历史缓存失效失败", zap.Int64("conversation_id", conv.ID), zap.Error(cerr))
			}
		})
	}
	if s.exporter != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if eerr := s.exporter.Export(ctx, rsp); eerr != nil {
				zap.L().Warn("消息导出失败", zap.Int64("uuid", rsp.Uuid), zap.Error(eerr))
			}
		}()
	}
	return rsp, nil
}

func (s *Service) mustFindUser(id int64, role string) (*model.UserInfo, error) {
	user, err := s.repos.User.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Wrapf(err, errorx.CodeUserNotExist, "%s用户 %d 不存在", role, id)
		}
		return nil, err
	}
	return user, nil
}

func historyCacheKey(conversationID int64) string {
	return fmt.Sprintf("conv_messages_%d", conversationID)
}
