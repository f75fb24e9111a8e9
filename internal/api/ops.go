package api

import "Lee_Gateway/internal/gateway"

const (
	// 用户
	OpLogin          gateway.Tag = "Login"
	OpRegister       gateway.Tag = "Register"
	OpLogout         gateway.Tag = "Logout"
	OpGetUserDetails gateway.Tag = "GetUserDetails"
	OpAddAdmin       gateway.Tag = "AddAdmin"
	OpBanUser        gateway.Tag = "BanUser"
	OpPasswordReset  gateway.Tag = "PasswordReset"
	OpPasswordChange gateway.Tag = "PasswordChange"

	// 社区
	OpGetCommunity      gateway.Tag = "GetCommunity"
	OpListCommunities   gateway.Tag = "ListCommunities"
	OpCreateCommunity   gateway.Tag = "CreateCommunity"
	OpFollowCommunity   gateway.Tag = "FollowCommunity"
	OpBanFromCommunity  gateway.Tag = "BanFromCommunity"
	OpAddModToCommunity gateway.Tag = "AddModToCommunity"
	OpEditCommunity     gateway.Tag = "EditCommunity"
	// OpGetFollowedCommunities 当前用户关注的社区
	OpGetFollowedCommunities gateway.Tag = "GetFollowedCommunities"

	// 帖子
	OpCreatePost     gateway.Tag = "CreatePost"
	OpGetPost        gateway.Tag = "GetPost"
	OpGetPosts       gateway.Tag = "GetPosts"
	OpDeletePost     gateway.Tag = "DeletePost"
	OpRemovePost     gateway.Tag = "RemovePost"
	OpLockPost       gateway.Tag = "LockPost"
	OpStickyPost     gateway.Tag = "StickyPost"
	OpCreatePostLike gateway.Tag = "CreatePostLike"
	OpEditPost       gateway.Tag = "EditPost"
	OpSavePost       gateway.Tag = "SavePost"

	// 评论
	OpCreateComment     gateway.Tag = "CreateComment"
	OpEditComment       gateway.Tag = "EditComment"
	OpDeleteComment     gateway.Tag = "DeleteComment"
	OpRemoveComment     gateway.Tag = "RemoveComment"
	OpMarkCommentAsRead gateway.Tag = "MarkCommentAsRead"
	OpSaveComment       gateway.Tag = "SaveComment"
	OpGetComments       gateway.Tag = "GetComments"
	OpCreateCommentLike gateway.Tag = "CreateCommentLike"

	// 房间订阅
	OpUserJoin      gateway.Tag = "UserJoin"
	OpPostJoin      gateway.Tag = "PostJoin"
	OpCommunityJoin gateway.Tag = "CommunityJoin"
)

// AllOps lists every supported operation. NewRegistry must cover exactly
// this set.
var AllOps = []gateway.Tag{
	OpLogin, OpRegister, OpLogout, OpGetUserDetails, OpAddAdmin, OpBanUser,
	OpPasswordReset, OpPasswordChange,
	OpGetCommunity, OpListCommunities, OpCreateCommunity, OpFollowCommunity,
	OpBanFromCommunity, OpAddModToCommunity, OpEditCommunity, OpGetFollowedCommunities,
	OpCreatePost, OpGetPost, OpGetPosts, OpDeletePost, OpRemovePost,
	OpLockPost, OpStickyPost, OpCreatePostLike, OpEditPost, OpSavePost,
	OpCreateComment, OpEditComment, OpDeleteComment, OpRemoveComment,
	OpMarkCommentAsRead, OpSaveComment, OpGetComments, OpCreateCommentLike,
	OpUserJoin, OpPostJoin, OpCommunityJoin,
}

// NewRegistry 新增操作时在这里注册一行，并加入 AllOps
func NewRegistry() *gateway.Registry {
	r := gateway.NewRegistry()

	gateway.Register[Login, LoginResponse](r, OpLogin)
	gateway.Register[Register, LoginResponse](r, OpRegister)
	gateway.Register[Logout, LogoutResponse](r, OpLogout)
	gateway.Register[GetUserDetails, GetUserDetailsResponse](r, OpGetUserDetails)
	gateway.Register[AddAdmin, AddAdminResponse](r, OpAddAdmin)
	gateway.Register[BanUser, BanUserResponse](r, OpBanUser)
	gateway.Register[PasswordReset, PasswordResetResponse](r, OpPasswordReset)
	gateway.Register[PasswordChange, LoginResponse](r, OpPasswordChange)

	gateway.Register[GetCommunity, GetCommunityResponse](r, OpGetCommunity)
	gateway.Register[ListCommunities, ListCommunitiesResponse](r, OpListCommunities)
	gateway.Register[CreateCommunity, CommunityResponse](r, OpCreateCommunity)
	gateway.Register[FollowCommunity, CommunityResponse](r, OpFollowCommunity)
	gateway.Register[BanFromCommunity, BanFromCommunityResponse](r, OpBanFromCommunity)
	gateway.Register[AddModToCommunity, AddModToCommunityResponse](r, OpAddModToCommunity)
	gateway.Register[EditCommunity, CommunityResponse](r, OpEditCommunity)
	gateway.Register[GetFollowedCommunities, GetFollowedCommunitiesResponse](r, OpGetFollowedCommunities)

	gateway.Register[CreatePost, PostResponse](r, OpCreatePost)
	gateway.Register[GetPost, GetPostResponse](r, OpGetPost)
	gateway.Register[GetPosts, GetPostsResponse](r, OpGetPosts)
	gateway.Register[DeletePost, PostResponse](r, OpDeletePost)
	gateway.Register[RemovePost, PostResponse](r, OpRemovePost)
	gateway.Register[LockPost, PostResponse](r, OpLockPost)
	gateway.Register[StickyPost, PostResponse](r, OpStickyPost)
	gateway.Register[CreatePostLike, PostResponse](r, OpCreatePostLike)
	gateway.Register[EditPost, PostResponse](r, OpEditPost)
	gateway.Register[SavePost, PostResponse](r, OpSavePost)

	gateway.Register[CreateComment, CommentResponse](r, OpCreateComment)
	gateway.Register[EditComment, CommentResponse](r, OpEditComment)
	gateway.Register[DeleteComment, CommentResponse](r, OpDeleteComment)
	gateway.Register[RemoveComment, CommentResponse](r, OpRemoveComment)
	gateway.Register[MarkCommentAsRead, CommentResponse](r, OpMarkCommentAsRead)
	gateway.Register[SaveComment, CommentResponse](r, OpSaveComment)
	gateway.Register[GetComments, GetCommentsResponse](r, OpGetComments)
	gateway.Register[CreateCommentLike, CommentResponse](r, OpCreateCommentLike)

	gateway.Register[UserJoin, JoinResponse](r, OpUserJoin)
	gateway.Register[PostJoin, JoinResponse](r, OpPostJoin)
	gateway.Register[CommunityJoin, JoinResponse](r, OpCommunityJoin)

	return r
}
