package apierr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind 是对外暴露的稳定错误码
type Kind string

const (
	Unauthenticated       Kind = "not_logged_in"
	SiteBanned            Kind = "site_ban"
	NotAnAdmin            Kind = "not_an_admin"
	NotAModOrAdmin        Kind = "not_a_mod_or_admin"
	CommunityBanned       Kind = "community_ban"
	PostNotFound          Kind = "couldnt_find_post"
	CommunityNotFound     Kind = "couldnt_find_community"
	CommentNotFound       Kind = "couldnt_find_comment"
	UserNotFound          Kind = "couldnt_find_that_username_or_email"
	MalformedPayload      Kind = "malformed_payload"
	UnknownOperation      Kind = "unknown_operation"
	InfrastructureFailure Kind = "infrastructure_failure"

	// 业务错误
	PasswordIncorrect      Kind = "password_incorrect"
	PasswordsDoNotMatch    Kind = "passwords_dont_match"
	UserAlreadyExists      Kind = "user_already_exists"
	InvalidResetCode       Kind = "invalid_reset_code"
	CommunityAlreadyExists Kind = "community_already_exists"
	InvalidCommunityName   Kind = "invalid_community_name"
	NoPostEditAllowed      Kind = "no_post_edit_allowed"
	NoCommentEditAllowed   Kind = "no_comment_edit_allowed"
	NoCommunityEditAllowed Kind = "no_community_edit_allowed"
	Locked                 Kind = "locked"
	CouldntCreatePost      Kind = "couldnt_create_post"
	CouldntUpdatePost      Kind = "couldnt_update_post"
	CouldntLikePost        Kind = "couldnt_like_post"
	CouldntSavePost        Kind = "couldnt_save_post"
	CouldntCreateComment   Kind = "couldnt_create_comment"
	CouldntUpdateComment   Kind = "couldnt_update_comment"
	CouldntLikeComment     Kind = "couldnt_like_comment"
	CouldntSaveComment     Kind = "couldnt_save_comment"
	CouldntCreateCommunity Kind = "couldnt_create_community"
	CouldntUpdateCommunity Kind = "couldnt_update_community"
	CouldntUpdateUser      Kind = "couldnt_update_user"
)

// Error carries a Kind for the caller and an optional cause for the logs.
type Error struct {
	Kind  Kind
	cause error
}

func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap 保留底层原因，仅用于日志
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// Infrastructure 把桥接层/基础设施错误统一标记
func Infrastructure(cause error, msg string) *Error {
	return &Error{Kind: InfrastructureFailure, cause: errors.Wrap(cause, msg)}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is 按 Kind 比较，使 errors.Is(err, apierr.New(k)) 可用
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf 非 *Error 一律视为基础设施错误
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return InfrastructureFailure
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
