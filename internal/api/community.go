package api

import (
	"context"
	"regexp"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/model"
)

var communityNameRE = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

type CommunityResponse struct {
	Community model.Community `json:"community"`
}

type GetCommunityResponse struct {
	Community  model.Community            `json:"community"`
	Moderators []model.CommunityModerator `json:"moderators"`
	Online     int                        `json:"online"`
}

type GetCommunity struct {
	ID   uint64  `json:"id" validate:"required_without=Name"`
	Name string  `json:"name" validate:"required_without=ID"`
	Auth *string `json:"auth,omitempty"`
}

func (g GetCommunity) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (GetCommunityResponse, error) {
	if _, err := app.Auth.ResolveOptional(ctx, g.Auth); err != nil {
		return GetCommunityResponse{}, err
	}

	var (
		community *model.Community
		err       error
	)
	if g.ID != 0 {
		community, err = app.Guard.LoadCommunity(ctx, g.ID)
	} else {
		community, err = load(ctx, app, apierr.CommunityNotFound, func() (*model.Community, error) {
			return app.Store.FindCommunityByName(g.Name)
		})
	}
	if err != nil {
		return GetCommunityResponse{}, err
	}

	mods, err := load(ctx, app, apierr.CommunityNotFound, func() ([]model.CommunityModerator, error) {
		return app.Store.ListModerators(community.ID)
	})
	if err != nil {
		return GetCommunityResponse{}, err
	}

	return GetCommunityResponse{
		Community:  *community,
		Moderators: mods,
		Online:     app.Rooms.CommunityOnline(community.ID),
	}, nil
}

type ListCommunitiesResponse struct {
	Communities []model.Community `json:"communities"`
}

type ListCommunities struct {
	Page  int `json:"page" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=0"`
}

func (l ListCommunities) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (ListCommunitiesResponse, error) {
	offset, size := pageOf(l.Page, l.Limit)
	list, err := load(ctx, app, apierr.CommunityNotFound, func() ([]model.Community, error) {
		return app.Store.ListCommunities(offset, size)
	})
	if err != nil {
		return ListCommunitiesResponse{}, err
	}
	return ListCommunitiesResponse{Communities: list}, nil
}

type CreateCommunity struct {
	Name        string `json:"name" validate:"required"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=10000"`
	Auth        string `json:"auth"`
}

// Perform 创建者成为第一位版主
func (c CreateCommunity) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (CommunityResponse, error) {
	me, err := app.Auth.Resolve(ctx, c.Auth)
	if err != nil {
		return CommunityResponse{}, err
	}
	if !communityNameRE.MatchString(c.Name) {
		return CommunityResponse{}, apierr.New(apierr.InvalidCommunityName)
	}

	exists, err := blocking.Run(ctx, app.Pool, func() bool {
		_, err := app.Store.FindCommunityByName(c.Name)
		return err == nil
	})
	if err != nil {
		return CommunityResponse{}, apierr.Infrastructure(err, "check community name")
	}
	if exists {
		return CommunityResponse{}, apierr.New(apierr.CommunityAlreadyExists)
	}

	community := &model.Community{
		Name:        c.Name,
		Title:       c.Title,
		Description: c.Description,
		CreatorID:   me.ID,
	}
	if err := exec(ctx, app, apierr.CouldntCreateCommunity, func() error {
		return app.Store.CreateCommunity(community)
	}); err != nil {
		return CommunityResponse{}, err
	}
	return CommunityResponse{Community: *community}, nil
}

type FollowCommunity struct {
	CommunityID uint64 `json:"community_id" validate:"required"`
	Follow      bool   `json:"follow"`
	Auth        string `json:"auth"`
}

func (f FollowCommunity) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (CommunityResponse, error) {
	me, err := app.Auth.Resolve(ctx, f.Auth)
	if err != nil {
		return CommunityResponse{}, err
	}
	community, err := app.Guard.LoadCommunity(ctx, f.CommunityID)
	if err != nil {
		return CommunityResponse{}, err
	}

	if f.Follow {
		if err := app.Guard.RequireNotCommunityBanned(ctx, me.ID, f.CommunityID); err != nil {
			return CommunityResponse{}, err
		}
		err = exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
			return app.Store.Follow(f.CommunityID, me.ID)
		})
	} else {
		err = exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
			return app.Store.Unfollow(f.CommunityID, me.ID)
		})
	}
	if err != nil {
		return CommunityResponse{}, err
	}
	return CommunityResponse{Community: *community}, nil
}

type EditCommunity struct {
	EditID      uint64 `json:"edit_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=10000"`
	Removed     *bool  `json:"removed,omitempty"`
	Deleted     *bool  `json:"deleted,omitempty"`
	Reason      string `json:"reason" validate:"max=500"`
	Auth        string `json:"auth"`
}

// Perform 版主可改标题与简介；移除仅限管理员，删除仅限创建者
func (e EditCommunity) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (CommunityResponse, error) {
	me, err := app.Auth.Resolve(ctx, e.Auth)
	if err != nil {
		return CommunityResponse{}, err
	}
	community, err := app.Guard.LoadCommunity(ctx, e.EditID)
	if err != nil {
		return CommunityResponse{}, err
	}
	if err := app.Guard.RequireModOrAdmin(ctx, me.ID, community.ID); err != nil {
		return CommunityResponse{}, err
	}

	removedChanged := e.Removed != nil && *e.Removed != community.Removed
	if removedChanged {
		if err := app.Guard.RequireAdmin(ctx, me.ID); err != nil {
			return CommunityResponse{}, err
		}
		community.Removed = *e.Removed
	}
	if e.Deleted != nil && *e.Deleted != community.Deleted {
		if community.CreatorID != me.ID {
			return CommunityResponse{}, apierr.New(apierr.NoCommunityEditAllowed)
		}
		community.Deleted = *e.Deleted
	}
	community.Title = e.Title
	community.Description = e.Description

	if err := exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
		return app.Store.UpdateCommunity(community)
	}); err != nil {
		return CommunityResponse{}, err
	}

	if removedChanged {
		typ := "remove_community"
		if !community.Removed {
			typ = "restore_community"
		}
		app.Publish(ctx, event(typ, me.ID, community.ID, community.ID, e.Reason))
	}

	res := CommunityResponse{Community: *community}
	app.Rooms.SendCommunity(OpEditCommunity, res, community.ID, conn)
	return res, nil
}

type GetFollowedCommunitiesResponse struct {
	Communities []model.Community `json:"communities"`
}

type GetFollowedCommunities struct {
	Auth string `json:"auth"`
}

func (g GetFollowedCommunities) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (GetFollowedCommunitiesResponse, error) {
	me, err := app.Auth.Resolve(ctx, g.Auth)
	if err != nil {
		return GetFollowedCommunitiesResponse{}, err
	}
	list, err := load(ctx, app, apierr.CommunityNotFound, func() ([]model.Community, error) {
		return app.Store.ListFollowedCommunities(me.ID)
	})
	if err != nil {
		return GetFollowedCommunitiesResponse{}, err
	}
	return GetFollowedCommunitiesResponse{Communities: list}, nil
}

type BanFromCommunityResponse struct {
	User   UserView `json:"user"`
	Banned bool     `json:"banned"`
}

type BanFromCommunity struct {
	CommunityID uint64 `json:"community_id" validate:"required"`
	UserID      uint64 `json:"user_id" validate:"required"`
	Ban         bool   `json:"ban"`
	Reason      string `json:"reason" validate:"max=500"`
	Auth        string `json:"auth"`
}

func (b BanFromCommunity) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (BanFromCommunityResponse, error) {
	me, err := app.Auth.Resolve(ctx, b.Auth)
	if err != nil {
		return BanFromCommunityResponse{}, err
	}
	if err := app.Guard.RequireModOrAdmin(ctx, me.ID, b.CommunityID); err != nil {
		return BanFromCommunityResponse{}, err
	}
	target, err := app.Guard.LoadUser(ctx, b.UserID)
	if err != nil {
		return BanFromCommunityResponse{}, err
	}

	if b.Ban {
		err = exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
			return app.Store.BanFromCommunity(b.CommunityID, b.UserID)
		})
	} else {
		err = exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
			return app.Store.UnbanFromCommunity(b.CommunityID, b.UserID)
		})
	}
	if err != nil {
		return BanFromCommunityResponse{}, err
	}

	typ := "ban_from_community"
	if !b.Ban {
		typ = "unban_from_community"
	}
	app.Publish(ctx, event(typ, me.ID, b.UserID, b.CommunityID, b.Reason))

	res := BanFromCommunityResponse{User: userView(target, false), Banned: b.Ban}
	app.Rooms.SendCommunity(OpBanFromCommunity, res, b.CommunityID, conn)
	return res, nil
}

type AddModToCommunityResponse struct {
	Moderators []model.CommunityModerator `json:"moderators"`
}

type AddModToCommunity struct {
	CommunityID uint64 `json:"community_id" validate:"required"`
	UserID      uint64 `json:"user_id" validate:"required"`
	Added       bool   `json:"added"`
	Auth        string `json:"auth"`
}

func (a AddModToCommunity) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (AddModToCommunityResponse, error) {
	me, err := app.Auth.Resolve(ctx, a.Auth)
	if err != nil {
		return AddModToCommunityResponse{}, err
	}
	if err := app.Guard.RequireModOrAdmin(ctx, me.ID, a.CommunityID); err != nil {
		return AddModToCommunityResponse{}, err
	}
	if _, err := app.Guard.LoadUser(ctx, a.UserID); err != nil {
		return AddModToCommunityResponse{}, err
	}

	if a.Added {
		err = exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
			return app.Store.AddModerator(a.CommunityID, a.UserID)
		})
	} else {
		err = exec(ctx, app, apierr.CouldntUpdateCommunity, func() error {
			return app.Store.RemoveModerator(a.CommunityID, a.UserID)
		})
	}
	if err != nil {
		return AddModToCommunityResponse{}, err
	}

	mods, err := load(ctx, app, apierr.CouldntUpdateCommunity, func() ([]model.CommunityModerator, error) {
		return app.Store.ListModerators(a.CommunityID)
	})
	if err != nil {
		return AddModToCommunityResponse{}, err
	}

	typ := "add_mod"
	if !a.Added {
		typ = "remove_mod"
	}
	app.Publish(ctx, event(typ, me.ID, a.UserID, a.CommunityID, ""))

	res := AddModToCommunityResponse{Moderators: mods}
	app.Rooms.SendCommunity(OpAddModToCommunity, res, a.CommunityID, conn)
	return res, nil
}
