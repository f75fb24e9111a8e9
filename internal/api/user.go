package api

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"Lee_Gateway/internal/apierr"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/model"
	"Lee_Gateway/internal/pkg"
	"Lee_Gateway/internal/repository/redis"
)

type LoginResponse struct {
	JWT string `json:"jwt"`
}

type Login struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

func (l Login) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (LoginResponse, error) {
	user, err := load(ctx, app, apierr.UserNotFound, func() (*model.User, error) {
		return app.Store.FindUserByName(l.UsernameOrEmail)
	})
	if err != nil {
		return LoginResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(l.Password)) != nil {
		return LoginResponse{}, apierr.New(apierr.PasswordIncorrect)
	}
	return issueToken(ctx, app, user.ID)
}

type Register struct {
	Username       string `json:"username" validate:"required,min=3,max=20,alphanum"`
	Email          string `json:"email" validate:"required,email,max=64"`
	Password       string `json:"password" validate:"required,min=8,max=60"`
	PasswordVerify string `json:"password_verify" validate:"required"`
}

// Perform 第一个注册的用户自动成为站点管理员
func (r Register) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (LoginResponse, error) {
	if r.Password != r.PasswordVerify {
		return LoginResponse{}, apierr.New(apierr.PasswordsDoNotMatch)
	}

	taken, err := blocking.Run(ctx, app.Pool, func() bool {
		_, byName := app.Store.FindUserByName(r.Username)
		_, byEmail := app.Store.FindUserByEmail(r.Email)
		return byName == nil || byEmail == nil
	})
	if err != nil {
		return LoginResponse{}, apierr.Infrastructure(err, "check existing user")
	}
	if taken {
		return LoginResponse{}, apierr.New(apierr.UserAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return LoginResponse{}, apierr.Infrastructure(err, "hash password")
	}
	user := &model.User{
		Username: r.Username,
		Password: string(hash),
		Email:    r.Email,
	}
	// 唯一索引冲突（并发注册）同样报 user_already_exists
	err = exec(ctx, app, apierr.UserAlreadyExists, func() error {
		return app.Store.RegisterUser(user)
	})
	if err != nil {
		return LoginResponse{}, err
	}
	return issueToken(ctx, app, user.ID)
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

type Logout struct {
	Auth string `json:"auth"`
}

func (l Logout) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (LogoutResponse, error) {
	user, err := app.Auth.Resolve(ctx, l.Auth)
	if err != nil {
		return LogoutResponse{}, err
	}
	if app.Tokens != nil {
		if err := app.Tokens.DeleteUserToken(ctx, user.ID); err != nil {
			return LogoutResponse{}, apierr.Infrastructure(err, "revoke token")
		}
	}
	return LogoutResponse{Success: true}, nil
}

type GetUserDetailsResponse struct {
	User      UserView                   `json:"user"`
	Moderates []model.CommunityModerator `json:"moderates"`
}

type GetUserDetails struct {
	UserID   uint64  `json:"user_id" validate:"required_without=Username"`
	Username string  `json:"username" validate:"required_without=UserID"`
	Auth     *string `json:"auth,omitempty"`
}

func (g GetUserDetails) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (GetUserDetailsResponse, error) {
	me, err := app.Auth.ResolveOptional(ctx, g.Auth)
	if err != nil {
		return GetUserDetailsResponse{}, err
	}

	var user *model.User
	if g.UserID != 0 {
		user, err = app.Guard.LoadUser(ctx, g.UserID)
	} else {
		user, err = load(ctx, app, apierr.UserNotFound, func() (*model.User, error) {
			return app.Store.FindUserByName(g.Username)
		})
	}
	if err != nil {
		return GetUserDetailsResponse{}, err
	}

	moderates, err := load(ctx, app, apierr.UserNotFound, func() ([]model.CommunityModerator, error) {
		return app.Store.ListModeratedBy(user.ID)
	})
	if err != nil {
		return GetUserDetailsResponse{}, err
	}

	self := me != nil && me.ID == user.ID
	return GetUserDetailsResponse{User: userView(user, self), Moderates: moderates}, nil
}

type AddAdminResponse struct {
	Admins []UserView `json:"admins"`
}

type AddAdmin struct {
	UserID uint64 `json:"user_id" validate:"required"`
	Added  bool   `json:"added"`
	Auth   string `json:"auth"`
}

func (a AddAdmin) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (AddAdminResponse, error) {
	me, err := app.Auth.Resolve(ctx, a.Auth)
	if err != nil {
		return AddAdminResponse{}, err
	}
	if err := app.Guard.RequireAdmin(ctx, me.ID); err != nil {
		return AddAdminResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntUpdateUser, func() error {
		return app.Store.SetAdmin(a.UserID, a.Added)
	}); err != nil {
		return AddAdminResponse{}, err
	}

	admins, err := load(ctx, app, apierr.CouldntUpdateUser, app.Store.ListAdmins)
	if err != nil {
		return AddAdminResponse{}, err
	}
	res := AddAdminResponse{Admins: make([]UserView, 0, len(admins))}
	for i := range admins {
		res.Admins = append(res.Admins, userView(&admins[i], false))
	}

	typ := "add_admin"
	if !a.Added {
		typ = "remove_admin"
	}
	app.Publish(ctx, event(typ, me.ID, a.UserID, 0, ""))
	return res, nil
}

type BanUserResponse struct {
	User   UserView `json:"user"`
	Banned bool     `json:"banned"`
}

type BanUser struct {
	UserID uint64 `json:"user_id" validate:"required"`
	Ban    bool   `json:"ban"`
	Reason string `json:"reason" validate:"max=500"`
	Auth   string `json:"auth"`
}

// Perform 只翻转封禁标记，token 保留，后续请求由 Resolve 返回 site_ban
func (b BanUser) Perform(ctx context.Context, app *gateway.Context, conn *gateway.ConnectionID) (BanUserResponse, error) {
	me, err := app.Auth.Resolve(ctx, b.Auth)
	if err != nil {
		return BanUserResponse{}, err
	}
	if err := app.Guard.RequireAdmin(ctx, me.ID); err != nil {
		return BanUserResponse{}, err
	}
	target, err := app.Guard.LoadUser(ctx, b.UserID)
	if err != nil {
		return BanUserResponse{}, err
	}
	if err := exec(ctx, app, apierr.CouldntUpdateUser, func() error {
		return app.Store.SetBanned(b.UserID, b.Ban)
	}); err != nil {
		return BanUserResponse{}, err
	}
	target.Banned = b.Ban

	typ := "ban_user"
	if !b.Ban {
		typ = "unban_user"
	}
	app.Publish(ctx, event(typ, me.ID, b.UserID, 0, b.Reason))

	res := BanUserResponse{User: userView(target, false), Banned: b.Ban}
	app.Rooms.SendUser(OpBanUser, res, b.UserID, conn)
	return res, nil
}

type PasswordResetResponse struct{}

type PasswordReset struct {
	Email string `json:"email" validate:"required,email"`
}

func (p PasswordReset) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (PasswordResetResponse, error) {
	user, err := load(ctx, app, apierr.UserNotFound, func() (*model.User, error) {
		return app.Store.FindUserByEmail(p.Email)
	})
	if err != nil {
		return PasswordResetResponse{}, err
	}

	code, err := pkg.NewResetCode()
	if err != nil {
		return PasswordResetResponse{}, apierr.Infrastructure(err, "generate reset code")
	}
	if err := app.Codes.SaveResetCode(ctx, user.Email, code); err != nil {
		return PasswordResetResponse{}, apierr.Infrastructure(err, "store reset code")
	}
	html := pkg.ResetCodeHTML(user.Username, code, redis.DefaultEmailCodeTTL)
	if err := app.Mailer.Send(user.Email, "Password reset", html); err != nil {
		return PasswordResetResponse{}, apierr.Infrastructure(err, "send reset email")
	}
	return PasswordResetResponse{}, nil
}

type PasswordChange struct {
	Email          string `json:"email" validate:"required,email"`
	Code           string `json:"code" validate:"required,len=6,numeric"`
	Password       string `json:"password" validate:"required,min=8,max=60"`
	PasswordVerify string `json:"password_verify" validate:"required"`
}

// Perform 校验验证码后重设密码，并签发新 token 使旧 token 失效
func (p PasswordChange) Perform(ctx context.Context, app *gateway.Context, _ *gateway.ConnectionID) (LoginResponse, error) {
	if p.Password != p.PasswordVerify {
		return LoginResponse{}, apierr.New(apierr.PasswordsDoNotMatch)
	}

	stored, err := app.Codes.GetResetCode(ctx, p.Email)
	switch {
	case errors.Is(err, redis.ErrEmailNotFound):
		return LoginResponse{}, apierr.Wrap(apierr.InvalidResetCode, err)
	case err != nil:
		return LoginResponse{}, apierr.Infrastructure(err, "load reset code")
	case stored != p.Code:
		return LoginResponse{}, apierr.New(apierr.InvalidResetCode)
	}

	user, err := load(ctx, app, apierr.UserNotFound, func() (*model.User, error) {
		return app.Store.FindUserByEmail(p.Email)
	})
	if err != nil {
		return LoginResponse{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return LoginResponse{}, apierr.Infrastructure(err, "hash password")
	}
	if err := exec(ctx, app, apierr.CouldntUpdateUser, func() error {
		return app.Store.UpdatePassword(user.ID, string(hash))
	}); err != nil {
		return LoginResponse{}, err
	}
	// 验证码一次性使用；删除失败由 TTL 兜底
	_ = app.Codes.DeleteResetCode(ctx, p.Email)

	return issueToken(ctx, app, user.ID)
}
