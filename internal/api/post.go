package api

import (
	"context"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/model"
)

type PostResponse struct {
	Post PostView `json:"post"`
}

type CreatePost struct {
	Name        string `json:"name" validate:"required,max=200"`
	URL         string `json:"url" validate:"omitempty,url,max=512"`
	Body        string `json:"body" validate:"max=10000"`
	CommunityID uint64 `json:"community_id" validate:"required"`
	Auth        string `json:"auth"`
}

// Perform 作者自动给自己的帖子投一票
func (c CreatePost) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	me, err := app.Auth.Resolve(ctx, c.Auth)
	if err != nil {
		return PostResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, c.CommunityID); err != nil {
		return PostResponse{}, err
	}
	community, err := app.Guard.LoadCommunity(ctx, c.CommunityID)
	if err != nil {
		return PostResponse{}, err
	}
	if community.Removed || community.Deleted {
		return PostResponse{}, apierr.New(apierr.CommunityNotFound)
	}

	post := &model.Post{
		CommunityID: c.CommunityID,
		CreatorID:   me.ID,
		Name:        c.Name,
		URL:         c.URL,
		Body:        c.Body,
	}
	if err := exec(ctx, app, apierr.CouldntCreatePost, func() error {
		return app.Store.CreatePost(post)
	}); err != nil {
		return PostResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntLikePost, func() error {
		return app.Store.Vote(me.ID, post.ID, 1)
	}); err != nil {
		return PostResponse{}, err
	}
	post.Score = 1

	app.Publish(ctx, event("create_post", me.ID, post.ID, c.CommunityID, ""))

	vote := int8(1)
	res := PostResponse{Post: PostView{Post: *post, MyVote: &vote}}
	app.Rooms.SendCommunity(OpCreatePost, PostResponse{Post: PostView{Post: *post}}, c.CommunityID, conn)
	return res, nil
}

type GetPostResponse struct {
	Post       PostView                   `json:"post"`
	Community  model.Community            `json:"community"`
	Moderators []model.CommunityModerator `json:"moderators"`
	Online     int                        `json:"online"`
}

type GetPost struct {
	ID   uint64  `json:"id" validate:"required"`
	Auth *string `json:"auth,omitempty"`
}

func (g GetPost) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (GetPostResponse, error) {
	me, err := app.Auth.ResolveOptional(ctx, g.Auth)
	if err != nil {
		return GetPostResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, g.ID)
	if err != nil {
		return GetPostResponse{}, err
	}
	community, err := app.Guard.LoadCommunity(ctx, post.CommunityID)
	if err != nil {
		return GetPostResponse{}, err
	}
	mods, err := load(ctx, app, apierr.CommunityNotFound, func() ([]model.CommunityModerator, error) {
		return app.Store.ListModerators(post.CommunityID)
	})
	if err != nil {
		return GetPostResponse{}, err
	}

	view := PostView{Post: *post}
	if me != nil {
		vote, err := load(ctx, app, apierr.PostNotFound, func() (int8, error) {
			return app.Store.GetVote(me.ID, post.ID)
		})
		if err != nil {
			return GetPostResponse{}, err
		}
		view.MyVote = &vote
	}

	return GetPostResponse{
		Post:       view,
		Community:  *community,
		Moderators: mods,
		Online:     app.Rooms.PostOnline(post.ID),
	}, nil
}

type GetPostsResponse struct {
	Posts []model.Post `json:"posts"`
}

type GetPosts struct {
	CommunityID uint64  `json:"community_id"`
	Page        int     `json:"page" validate:"gte=0"`
	Limit       int     `json:"limit" validate:"gte=0"`
	Auth        *string `json:"auth,omitempty"`
}

func (g GetPosts) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (GetPostsResponse, error) {
	if _, err := app.Auth.ResolveOptional(ctx, g.Auth); err != nil {
		return GetPostsResponse{}, err
	}
	offset, size := pageOf(g.Page, g.Limit)
	posts, err := load(ctx, app, apierr.PostNotFound, func() ([]model.Post, error) {
		return app.Store.ListPosts(g.CommunityID, offset, size)
	})
	if err != nil {
		return GetPostsResponse{}, err
	}
	return GetPostsResponse{Posts: posts}, nil
}

type DeletePost struct {
	EditID  uint64 `json:"edit_id" validate:"required"`
	Deleted bool   `json:"deleted"`
	Auth    string `json:"auth"`
}

// Perform 只有作者本人可以删除
func (d DeletePost) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	me, err := app.Auth.Resolve(ctx, d.Auth)
	if err != nil {
		return PostResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, d.EditID)
	if err != nil {
		return PostResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return PostResponse{}, err
	}
	if post.CreatorID != me.ID {
		return PostResponse{}, apierr.New(apierr.NoPostEditAllowed)
	}
	if err := exec(ctx, app, apierr.CouldntUpdatePost, func() error {
		return app.Store.SetPostDeleted(post.ID, d.Deleted)
	}); err != nil {
		return PostResponse{}, err
	}
	post.Deleted = d.Deleted

	res := PostResponse{Post: PostView{Post: *post}}
	app.Rooms.SendPost(OpDeletePost, res, post.ID, conn)
	return res, nil
}

type EditPost struct {
	EditID uint64 `json:"edit_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=200"`
	URL    string `json:"url" validate:"omitempty,url,max=512"`
	Body   string `json:"body" validate:"max=10000"`
	Auth   string `json:"auth"`
}

// Perform 只有作者本人可以修改标题、链接与正文
func (e EditPost) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	me, err := app.Auth.Resolve(ctx, e.Auth)
	if err != nil {
		return PostResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, e.EditID)
	if err != nil {
		return PostResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return PostResponse{}, err
	}
	if post.CreatorID != me.ID {
		return PostResponse{}, apierr.New(apierr.NoPostEditAllowed)
	}
	if err := exec(ctx, app, apierr.CouldntUpdatePost, func() error {
		return app.Store.UpdatePost(post.ID, e.Name, e.URL, e.Body)
	}); err != nil {
		return PostResponse{}, err
	}
	post.Name, post.URL, post.Body = e.Name, e.URL, e.Body

	res := PostResponse{Post: PostView{Post: *post}}
	app.Rooms.SendPost(OpEditPost, res, post.ID, conn)
	return res, nil
}

type SavePost struct {
	PostID uint64 `json:"post_id" validate:"required"`
	Save   bool   `json:"save"`
	Auth   string `json:"auth"`
}

func (s SavePost) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (PostResponse, error) {
	me, err := app.Auth.Resolve(ctx, s.Auth)
	if err != nil {
		return PostResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, s.PostID)
	if err != nil {
		return PostResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntSavePost, func() error {
		return app.Store.SavePost(me.ID, post.ID, s.Save)
	}); err != nil {
		return PostResponse{}, err
	}
	saved := s.Save
	return PostResponse{Post: PostView{Post: *post, Saved: &saved}}, nil
}

// moderate 版主操作的公共流程：校验身份、社区封禁与版主权限后写入
func moderate(
	ctx context.Context,
	app *gateway.Context,
	op gateway.Tag,
	token string,
	postID uint64,
	typ, reason string,
	apply func(post *model.Post) error,
	conn *gateway.ConnectionID,
) (PostResponse, error) {
	me, err := app.Auth.Resolve(ctx, token)
	if err != nil {
		return PostResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, postID)
	if err != nil {
		return PostResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return PostResponse{}, err
	}
	if err := app.Guard.RequireModOrAdmin(ctx, me.ID, post.CommunityID); err != nil {
		return PostResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntUpdatePost, func() error {
		return apply(post)
	}); err != nil {
		return PostResponse{}, err
	}

	app.Publish(ctx, event(typ, me.ID, post.ID, post.CommunityID, reason))

	res := PostResponse{Post: PostView{Post: *post}}
	app.Rooms.SendPost(op, res, post.ID, conn)
	return res, nil
}

type RemovePost struct {
	EditID  uint64 `json:"edit_id" validate:"required"`
	Removed bool   `json:"removed"`
	Reason  string `json:"reason" validate:"max=500"`
	Auth    string `json:"auth"`
}

func (r RemovePost) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	typ := "remove_post"
	if !r.Removed {
		typ = "restore_post"
	}
	return moderate(ctx, app, OpRemovePost, r.Auth, r.EditID, typ, r.Reason, func(p *model.Post) error {
		if err := app.Store.SetPostRemoved(p.ID, r.Removed); err != nil {
			return err
		}
		p.Removed = r.Removed
		return nil
	}, conn)
}

type LockPost struct {
	EditID uint64 `json:"edit_id" validate:"required"`
	Locked bool   `json:"locked"`
	Auth   string `json:"auth"`
}

func (l LockPost) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	typ := "lock_post"
	if !l.Locked {
		typ = "unlock_post"
	}
	return moderate(ctx, app, OpLockPost, l.Auth, l.EditID, typ, "", func(p *model.Post) error {
		if err := app.Store.SetPostLocked(p.ID, l.Locked); err != nil {
			return err
		}
		p.Locked = l.Locked
		return nil
	}, conn)
}

type StickyPost struct {
	EditID   uint64 `json:"edit_id" validate:"required"`
	Stickied bool   `json:"stickied"`
	Auth     string `json:"auth"`
}

func (s StickyPost) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	typ := "sticky_post"
	if !s.Stickied {
		typ = "unsticky_post"
	}
	return moderate(ctx, app, OpStickyPost, s.Auth, s.EditID, typ, "", func(p *model.Post) error {
		if err := app.Store.SetPostStickied(p.ID, s.Stickied); err != nil {
			return err
		}
		p.Stickied = s.Stickied
		return nil
	}, conn)
}

type CreatePostLike struct {
	PostID uint64 `json:"post_id" validate:"required"`
	Score  int8   `json:"score" validate:"oneof=-1 0 1"`
	Auth   string `json:"auth"`
}

// Perform score=0 撤销投票；锁定的帖子不能投票
func (c CreatePostLike) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (PostResponse, error) {
	me, err := app.Auth.Resolve(ctx, c.Auth)
	if err != nil {
		return PostResponse{}, err
	}
	post, err := app.Guard.LoadPost(ctx, c.PostID)
	if err != nil {
		return PostResponse{}, err
	}
	if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, post.CommunityID); err != nil {
		return PostResponse{}, err
	}
	if post.Locked {
		return PostResponse{}, apierr.New(apierr.Locked)
	}
	if err := exec(ctx, app, apierr.CouldntLikePost, func() error {
		return app.Store.Vote(me.ID, post.ID, c.Score)
	}); err != nil {
		return PostResponse{}, err
	}

	// 重新读取以拿到最新得分
	post, err = app.Guard.LoadPost(ctx, c.PostID)
	if err != nil {
		return PostResponse{}, err
	}
	app.Rooms.SendPost(OpCreatePostLike, PostResponse{Post: PostView{Post: *post}}, post.ID, conn)

	vote := c.Score
	return PostResponse{Post: PostView{Post: *post, MyVote: &vote}}, nil
}
