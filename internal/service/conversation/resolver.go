package conversation

import (
	"database/sql"
	"time"

	"tutorlink_chat_server/internal/dao/mysql/repository"
	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/pkg/errorx"

	"go.uber.org/zap"
)

// Resolver 负责会话解析
// 单聊按成员对、课程群聊按课程各自收敛到唯一一条会话记录，
// 并发创建靠唯一索引兜底：冲突即回退为查询
type Resolver struct {
	repos *repository.Repositories
}

func NewResolver(repos *repository.Repositories) *Resolver {
	return &Resolver{repos: repos}
}

// ResolveDirect 解析两人单聊会话，不存在则创建
// 同一对用户无论谁发起、调用多少次，返回同一条会话
func (r *Resolver) ResolveDirect(userA, userB int64) (*model.Conversation, error) {
	if userA == userB {
		return nil, errorx.New(errorx.CodeInvalidParam, "不能与自己建立单聊会话")
	}
	pairKey := model.DirectPairKey(userA, userB)

	var conv *model.Conversation
	err := r.repos.Transaction(func(tx *repository.Repositories) error {
		found, err := tx.Conversation.FindDirectByPairKey(pairKey)
		if err == nil {
			conv = found
			return r.ensureParticipants(tx, found.ID, []int64{userA, userB})
		}
		if !errorx.IsNotFound(err) {
			return err
		}
		now := time.Now()
		created := &model.Conversation{
			CreatedAt: now,
			UpdatedAt: now,
			Kind:      model.ConversationKindDirect,
			PairKey:   sql.NullString{String: pairKey, Valid: true},
		}
		if err := tx.Conversation.Create(created); err != nil {
			return err
		}
		conv = created
		return r.ensureParticipants(tx, created.ID, []int64{userA, userB})
	})
	if err == nil {
		return conv, nil
	}
	if !repository.IsDuplicateKey(err) {
		return nil, err
	}

	// 唯一索引冲突说明并发方已建好，回退为查询
	zap.L().Info("单聊会话并发创建冲突，回退为查询", zap.String("pair_key", pairKey))
	found, ferr := r.repos.Conversation.FindDirectByPairKey(pairKey)
	if ferr != nil {
		return nil, ferr
	}
	if perr := r.ensureParticipants(r.repos, found.ID, []int64{userA, userB}); perr != nil {
		return nil, perr
	}
	return found, nil
}

// ResolveSessionChat 解析辅导课群聊会话，不存在则按课程名单初始化
// 名单以课程报名为准：导师加全部已报名学生，后续报名者在下次解析时并入
func (r *Resolver) ResolveSessionChat(sessionID int64) (*model.Conversation, error) {
	session, err := r.repos.TutorSession.FindByID(sessionID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Wrapf(err, errorx.CodeNotFound, "辅导课 %d 不存在", sessionID)
		}
		return nil, err
	}
	roster, err := r.repos.TutorSession.FindRoster(sessionID)
	if err != nil {
		return nil, err
	}
	name := model.SessionChatName(session.ModuleID, session.ID)

	var conv *model.Conversation
	err = r.repos.Transaction(func(tx *repository.Repositories) error {
		found, err := tx.Conversation.FindByKindAndName(model.ConversationKindSessionChat, name)
		if err == nil {
			conv = found
			return r.ensureParticipants(tx, found.ID, roster)
		}
		if !errorx.IsNotFound(err) {
			return err
		}
		now := time.Now()
		created := &model.Conversation{
			CreatedAt: now,
			UpdatedAt: now,
			Kind:      model.ConversationKindSessionChat,
			Name:      sql.NullString{String: name, Valid: true},
		}
		if err := tx.Conversation.Create(created); err != nil {
			return err
		}
		conv = created
		return r.ensureParticipants(tx, created.ID, roster)
	})
	if err == nil {
		return conv, nil
	}
	if !repository.IsDuplicateKey(err) {
		return nil, err
	}

	zap.L().Info("课程群聊并发创建冲突，回退为查询", zap.String("name", name))
	found, ferr := r.repos.Conversation.FindByKindAndName(model.ConversationKindSessionChat, name)
	if ferr != nil {
		return nil, ferr
	}
	if perr := r.ensureParticipants(r.repos, found.ID, roster); perr != nil {
		return nil, perr
	}
	return found, nil
}

// ensureParticipants 补齐缺失的成员记录
// 已存在的成员保持原未读数不变，缺失的以未读 0 创建
func (r *Resolver) ensureParticipants(tx *repository.Repositories, conversationID int64, userIDs []int64) error {
	existing, err := tx.Participant.FindByConversationID(conversationID)
	if err != nil {
		return err
	}
	present := make(map[int64]bool, len(existing))
	for _, p := range existing {
		present[p.UserID] = true
	}
	now := time.Now()
	for _, userID := range userIDs {
		if present[userID] {
			continue
		}
		p := &model.Participant{
			ConversationID: conversationID,
			UserID:         userID,
			JoinedAt:       now,
		}
		if err := tx.Participant.Create(p); err != nil {
			// 并发补齐撞到唯一索引等同于已存在
			if repository.IsDuplicateKey(err) {
				continue
			}
			return err
		}
	}
	return nil
}
