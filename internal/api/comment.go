package api

import (
	"context"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/model"
)

type CommentView struct {
	model.Comment
	MyVote *int8 `json:"my_vote,omitempty"`
	Saved  *bool `json:"saved,omitempty"`
}

type CommentResponse struct {
	Comment CommentView `json:"comment"`
	// RecipientIDs 收到回复通知的用户
	RecipientIDs []uint64 `json:"recipient_ids"`
}

// recipientOf 顶层评论通知帖子作者，回复通知被回复的评论作者
func recipientOf(ctx context.Context, app *gateway.Context, c *model.Comment, post *model.Post) (uint64, error) {
	if c.ParentID == nil {
		return post.CreatorID, nil
	}
	parent, err := app.Guard.LoadComment(ctx, *c.ParentID)
	if err != nil {
		return 0, err
	}
	return parent.CreatorID, nil
}

type CreateComment struct {
	Content  string  `json:"content" validate:"required,max=10000"`
	ParentID *uint64 `json:"parent_id,omitempty"`
	PostID   uint64  `json:"post_id" validate:"required"`
	Auth     string  `json:"auth"`
}

// Perform 作者自动给自己的评论投一票，并通知被回复的人
func (c CreateComment) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (CommentResponse, error) {
	me, err := app.Auth.Resolve(ctx, c.Auth)
	if err != nil {
		return CommentResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, c.PostID)
	if err != nil {
		return CommentResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return CommentResponse{}, err
	}
	if post.Locked {
		return CommentResponse{}, apierr.New(apierr.Locked)
	}

	recipient := post.CreatorID
	if c.ParentID != nil {
		parent, err := app.Guard.LoadComment(ctx, *c.ParentID)
		if err != nil {
			return CommentResponse{}, err
		}
		// 父评论必须属于同一帖子
		if parent.PostID != post.ID {
			return CommentResponse{}, apierr.New(apierr.CouldntCreateComment)
		}
		recipient = parent.CreatorID
	}

	comment := &model.Comment{
		CreatorID: me.ID,
		PostID:    post.ID,
		ParentID:  c.ParentID,
		Content:   c.Content,
	}
	if err := exec(ctx, app, apierr.CouldntCreateComment, func() error {
		return app.Store.CreateComment(comment)
	}); err != nil {
		return CommentResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntLikeComment, func() error {
		return app.Store.VoteComment(me.ID, comment.ID, 1)
	}); err != nil {
		return CommentResponse{}, err
	}
	comment.Score = 1

	var recipients []uint64
	if recipient != me.ID {
		recipients = append(recipients, recipient)
	}
	app.Publish(ctx, event("create_comment", me.ID, comment.ID, post.CommunityID, ""))

	push := CommentResponse{Comment: CommentView{Comment: *comment}, RecipientIDs: recipients}
	app.Rooms.SendPost(OpCreateComment, push, post.ID, conn)
	for _, id := range recipients {
		app.Rooms.SendUser(OpCreateComment, push, id, conn)
	}

	vote := int8(1)
	return CommentResponse{Comment: CommentView{Comment: *comment, MyVote: &vote}, RecipientIDs: recipients}, nil
}

// ownComment 作者本人修改评论的公共流程
func ownComment(
	ctx context.Context,
	app *gateway.Context,
	op gateway.Tag,
	token string,
	commentID uint64,
	apply func(c *model.Comment) error,
	conn *gateway.ConnectionID,
) (CommentResponse, error) {
	me, err := app.Auth.Resolve(ctx, token)
	if err != nil {
		return CommentResponse{}, err
	}
	comment, err := app.Guard.LoadComment(ctx, commentID)
	if err != nil {
		return CommentResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, comment.PostID)
	if err != nil {
		return CommentResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return CommentResponse{}, err
	}
	if comment.CreatorID != me.ID {
		return CommentResponse{}, apierr.New(apierr.NoCommentEditAllowed)
	}
	if err := exec(ctx, app, apierr.CouldntUpdateComment, func() error {
		return apply(comment)
	}); err != nil {
		return CommentResponse{}, err
	}

	res := CommentResponse{Comment: CommentView{Comment: *comment}}
	app.Rooms.SendPost(op, res, post.ID, conn)
	return res, nil
}

type EditComment struct {
	EditID  uint64 `json:"edit_id" validate:"required"`
	Content string `json:"content" validate:"required,max=10000"`
	Auth    string `json:"auth"`
}

func (e EditComment) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (CommentResponse, error) {
	return ownComment(ctx, app, OpEditComment, e.Auth, e.EditID, func(c *model.Comment) error {
		if err := app.Store.UpdateComment(c.ID, e.Content); err != nil {
			return err
		}
		c.Content = e.Content
		return nil
	}, conn)
}

type DeleteComment struct {
	EditID  uint64 `json:"edit_id" validate:"required"`
	Deleted bool   `json:"deleted"`
	Auth    string `json:"auth"`
}

func (d DeleteComment) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (CommentResponse, error) {
	return ownComment(ctx, app, OpDeleteComment, d.Auth, d.EditID, func(c *model.Comment) error {
		if err := app.Store.SetCommentDeleted(c.ID, d.Deleted); err != nil {
			return err
		}
		c.Deleted = d.Deleted
		return nil
	}, conn)
}

type RemoveComment struct {
	EditID  uint64 `json:"edit_id" validate:"required"`
	Removed bool   `json:"removed"`
	Reason  string `json:"reason" validate:"max=500"`
	Auth    string `json:"auth"`
}

// Perform 版主或管理员移除评论，记一条审核事件
func (r RemoveComment) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (CommentResponse, error) {
	me, err := app.Auth.Resolve(ctx, r.Auth)
	if err != nil {
		return CommentResponse{}, err
	}
	comment, err := app.Guard.LoadComment(ctx, r.EditID)
	if err != nil {
		return CommentResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, comment.PostID)
	if err != nil {
		return CommentResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return CommentResponse{}, err
	}
	if err := app.Guard.RequireModOrAdmin(ctx, me.ID, post.CommunityID); err != nil {
		return CommentResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntUpdateComment, func() error {
		return app.Store.SetCommentRemoved(comment.ID, r.Removed)
	}); err != nil {
		return CommentResponse{}, err
	}
	comment.Removed = r.Removed

	typ := "remove_comment"
	if !r.Removed {
		typ = "restore_comment"
	}
	app.Publish(ctx, event(typ, me.ID, comment.ID, post.CommunityID, r.Reason))

	res := CommentResponse{Comment: CommentView{Comment: *comment}}
	app.Rooms.SendPost(OpRemoveComment, res, post.ID, conn)
	return res, nil
}

type MarkCommentAsRead struct {
	EditID uint64 `json:"edit_id" validate:"required"`
	Read   bool   `json:"read"`
	Auth   string `json:"auth"`
}

// Perform 只有被回复的人可以标记已读
func (m MarkCommentAsRead) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (CommentResponse, error) {
	me, err := app.Auth.Resolve(ctx, m.Auth)
	if err != nil {
		return CommentResponse{}, err
	}
	comment, err := app.Guard.LoadComment(ctx, m.EditID)
	if err != nil {
		return CommentResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, comment.PostID)
	if err != nil {
		return CommentResponse{}, err
	}
	recipient, err := recipientOf(ctx, app, comment, post)
	if err != nil {
		return CommentResponse{}, err
	}
	if recipient != me.ID {
		return CommentResponse{}, apierr.New(apierr.NoCommentEditAllowed)
	}
	if err := exec(ctx, app, apierr.CouldntUpdateComment, func() error {
		return app.Store.SetCommentRead(comment.ID, m.Read)
	}); err != nil {
		return CommentResponse{}, err
	}
	comment.Read = m.Read
	return CommentResponse{Comment: CommentView{Comment: *comment}}, nil
}

type SaveComment struct {
	CommentID uint64 `json:"comment_id" validate:"required"`
	Save      bool   `json:"save"`
	Auth      string `json:"auth"`
}

func (s SaveComment) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (CommentResponse, error) {
	me, err := app.Auth.Resolve(ctx, s.Auth)
	if err != nil {
		return CommentResponse{}, err
	}
	comment, err := app.Guard.LoadComment(ctx, s.CommentID)
	if err != nil {
		return CommentResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntSaveComment, func() error {
		return app.Store.SaveComment(me.ID, comment.ID, s.Save)
	}); err != nil {
		return CommentResponse{}, err
	}
	saved := s.Save
	return CommentResponse{Comment: CommentView{Comment: *comment, Saved: &saved}}, nil
}

type GetCommentsResponse struct {
	Comments []model.Comment `json:"comments"`
}

type GetComments struct {
	PostID      uint64  `json:"post_id"`
	CommunityID uint64  `json:"community_id"`
	Page        int     `json:"page" validate:"gte=0"`
	Limit       int     `json:"limit" validate:"gte=0"`
	Auth        *string `json:"auth,omitempty"`
}

func (g GetComments) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (GetCommentsResponse, error) {
	if _, err := app.Auth.ResolveOptional(ctx, g.Auth); err != nil {
		return GetCommentsResponse{}, err
	}
	offset, size := pageOf(g.Page, g.Limit)
	list, err := load(ctx, app, apierr.CommentNotFound, func() ([]model.Comment, error) {
		return app.Store.ListComments(g.PostID, g.CommunityID, offset, size)
	})
	if err != nil {
		return GetCommentsResponse{}, err
	}
	return GetCommentsResponse{Comments: list}, nil
}

type CreateCommentLike struct {
	CommentID uint64 `json:"comment_id" validate:"required"`
	Score     int8   `json:"score" validate:"oneof=-1 0 1"`
	Auth      string `json:"auth"`
}

// Perform score=0 撤销投票；帖子锁定后评论也不能投票
func (c CreateCommentLike) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (CommentResponse, error) {
	me, err := app.Auth.Resolve(ctx, c.Auth)
	if err != nil {
		return CommentResponse{}, err
	}
	comment, err := app.Guard.LoadComment(ctx, c.CommentID)
	if err != nil {
		return CommentResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, comment.PostID)
	if err != nil {
		return CommentResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return CommentResponse{}, err
	}
	if post.Locked {
		return CommentResponse{}, apierr.New(apierr.Locked)
	}
	if err := exec(ctx, app, apierr.CouldntLikeComment, func() error {
		return app.Store.VoteComment(me.ID, comment.ID, c.Score)
	}); err != nil {
		return CommentResponse{}, err
	}

	comment, err = app.Guard.LoadComment(ctx, c.CommentID)
	if err != nil {
		return CommentResponse{}, err
	}
	app.Rooms.SendPost(OpCreateCommentLike, CommentResponse{Comment: CommentView{Comment: *comment}}, post.ID, conn)

	vote := c.Score
	return CommentResponse{Comment: CommentView{Comment: *comment, MyVote: &vote}}, nil
}
