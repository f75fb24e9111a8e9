package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"Lee_Gateway/internal/auth"
	"Lee_Gateway/internal/blocking"
	"Lee_Gateway/internal/gateway"
	"Lee_Gateway/internal/guard"
	"Lee_Gateway/internal/model"
	"Lee_Gateway/internal/pkg"
	"Lee_Gateway/internal/repository"
	"Lee_Gateway/internal/repository/redis"
	"Lee_Gateway/internal/ws"
)

type pair struct{ a, b uint64 }

// memStore 内存版 repository.Store，只用于测试
type memStore struct {
	mu          sync.Mutex
	users       map[uint64]*model.User
	communities map[uint64]*model.Community
	posts       map[uint64]*model.Post
	mods        map[pair]bool // (community, user)
	follows     map[pair]bool
	bans        map[pair]bool
	votes       map[pair]int8 // (user, post)
	comments    map[uint64]*model.Comment
	cvotes      map[pair]int8 // (user, comment)
	savedPosts  map[pair]bool // (user, post)
	savedCmts   map[pair]bool // (user, comment)
	nextID      uint64
	calls       int
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:       map[uint64]*model.User{},
		communities: map[uint64]*model.Community{},
		posts:       map[uint64]*model.Post{},
		mods:        map[pair]bool{},
		follows:     map[pair]bool{},
		bans:        map[pair]bool{},
		votes:       map[pair]int8{},
		comments:    map[uint64]*model.Comment{},
		cvotes:      map[pair]int8{},
		savedPosts:  map[pair]bool{},
		savedCmts:   map[pair]bool{},
		nextID:      1000,
	}
}

func (m *memStore) touch() {
	m.calls++
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) ReadUser(id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindUserByName(nameOrEmail string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	for _, u := range m.users {
		if u.Username == nameOrEmail || u.Email == nameOrEmail {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) FindUserByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateUser(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	user.ID = m.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) RegisterUser(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	user.Admin = true
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return errors.New("duplicate entry")
		}
		if u.Admin {
			user.Admin = false
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) ListAdmins() ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.User
	for _, u := range m.users {
		if u.Admin {
			list = append(list, *u)
		}
	}
	return list, nil
}

func (m *memStore) updateUser(id uint64, fn func(u *model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memStore) SetAdmin(userID uint64, admin bool) error {
	return m.updateUser(userID, func(u *model.User) { u.Admin = admin })
}

func (m *memStore) SetBanned(userID uint64, banned bool) error {
	return m.updateUser(userID, func(u *model.User) { u.Banned = banned })
}

func (m *memStore) UpdatePassword(userID uint64, hash string) error {
	return m.updateUser(userID, func(u *model.User) { u.Password = hash })
}

func (m *memStore) ReadCommunity(id uint64) (*model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	c, ok := m.communities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) FindCommunityByName(name string) (*model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.communities {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateCommunity(c *model.Community) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	cp := *c
	m.communities[c.ID] = &cp
	m.mods[pair{c.ID, c.CreatorID}] = true
	m.follows[pair{c.ID, c.CreatorID}] = true
	return nil
}

func (m *memStore) ListCommunities(offset, limit int) ([]model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.Community
	for _, c := range m.communities {
		list = append(list, *c)
	}
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memStore) UpdateCommunity(c *model.Community) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.communities[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Title, cur.Description = c.Title, c.Description
	cur.Removed, cur.Deleted = c.Removed, c.Deleted
	return nil
}

func (m *memStore) IsModOrAdmin(userID, communityID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	if u, ok := m.users[userID]; ok && u.Admin {
		return true, nil
	}
	return m.mods[pair{communityID, userID}], nil
}

func (m *memStore) moderatorsWhere(keep func(pair) bool) []model.CommunityModerator {
	var list []model.CommunityModerator
	for k := range m.mods {
		if keep(k) {
			list = append(list, model.CommunityModerator{CommunityID: k.a, UserID: k.b})
		}
	}
	return list
}

func (m *memStore) ListModerators(communityID uint64) ([]model.CommunityModerator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moderatorsWhere(func(k pair) bool { return k.a == communityID }), nil
}

func (m *memStore) ListModeratedBy(userID uint64) ([]model.CommunityModerator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moderatorsWhere(func(k pair) bool { return k.b == userID }), nil
}

func (m *memStore) AddModerator(communityID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mods[pair{communityID, userID}] = true
	return nil
}

func (m *memStore) RemoveModerator(communityID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mods, pair{communityID, userID})
	return nil
}

func (m *memStore) Follow(communityID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.follows[pair{communityID, userID}] = true
	return nil
}

func (m *memStore) Unfollow(communityID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.follows, pair{communityID, userID})
	return nil
}

func (m *memStore) ListFollowedCommunities(userID uint64) ([]model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.Community
	for k := range m.follows {
		c, ok := m.communities[k.a]
		if k.b != userID || !ok || c.Removed || c.Deleted {
			continue
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (m *memStore) GetCommunityBan(userID, communityID uint64) (*model.CommunityUserBan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	if !m.bans[pair{communityID, userID}] {
		return nil, repository.ErrNotFound
	}
	return &model.CommunityUserBan{CommunityID: communityID, UserID: userID}, nil
}

func (m *memStore) BanFromCommunity(communityID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bans[pair{communityID, userID}] = true
	delete(m.follows, pair{communityID, userID})
	return nil
}

func (m *memStore) UnbanFromCommunity(communityID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bans, pair{communityID, userID})
	return nil
}

func (m *memStore) ReadPost(id uint64) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	p, ok := m.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CreatePost(post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.ID = m.id()
	post.CreatedAt = time.Now()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memStore) ListPosts(communityID uint64, offset, limit int) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.Post
	for _, p := range m.posts {
		if p.Removed || p.Deleted {
			continue
		}
		if communityID != 0 && p.CommunityID != communityID {
			continue
		}
		list = append(list, *p)
	}
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memStore) updatePost(id uint64, fn func(p *model.Post)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(p)
	return nil
}

func (m *memStore) SetPostDeleted(postID uint64, v bool) error {
	return m.updatePost(postID, func(p *model.Post) { p.Deleted = v })
}

func (m *memStore) SetPostRemoved(postID uint64, v bool) error {
	return m.updatePost(postID, func(p *model.Post) { p.Removed = v })
}

func (m *memStore) SetPostLocked(postID uint64, v bool) error {
	return m.updatePost(postID, func(p *model.Post) { p.Locked = v })
}

func (m *memStore) SetPostStickied(postID uint64, v bool) error {
	return m.updatePost(postID, func(p *model.Post) { p.Stickied = v })
}

func (m *memStore) UpdatePost(postID uint64, name, url, body string) error {
	return m.updatePost(postID, func(p *model.Post) { p.Name, p.URL, p.Body = name, url, body })
}

func (m *memStore) SavePost(userID, postID uint64, save bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if save {
		m.savedPosts[pair{userID, postID}] = true
	} else {
		delete(m.savedPosts, pair{userID, postID})
	}
	return nil
}

func (m *memStore) Vote(userID, postID uint64, score int8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	k := pair{userID, postID}
	p.Score += int64(score) - int64(m.votes[k])
	if score == 0 {
		delete(m.votes, k)
	} else {
		m.votes[k] = score
	}
	return nil
}

func (m *memStore) GetVote(userID, postID uint64) (int8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.votes[pair{userID, postID}], nil
}

func (m *memStore) ReadComment(id uint64) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	c, ok := m.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) CreateComment(c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CreatedAt = time.Now()
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memStore) updateComment(id uint64, fn func(c *model.Comment)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(c)
	return nil
}

func (m *memStore) UpdateComment(commentID uint64, content string) error {
	return m.updateComment(commentID, func(c *model.Comment) { c.Content = content })
}

func (m *memStore) SetCommentDeleted(commentID uint64, v bool) error {
	return m.updateComment(commentID, func(c *model.Comment) { c.Deleted = v })
}

func (m *memStore) SetCommentRemoved(commentID uint64, v bool) error {
	return m.updateComment(commentID, func(c *model.Comment) { c.Removed = v })
}

func (m *memStore) SetCommentRead(commentID uint64, v bool) error {
	return m.updateComment(commentID, func(c *model.Comment) { c.Read = v })
}

func (m *memStore) ListComments(postID, communityID uint64, offset, limit int) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []model.Comment
	for _, c := range m.comments {
		if c.Removed || c.Deleted {
			continue
		}
		if postID != 0 && c.PostID != postID {
			continue
		}
		if postID == 0 && communityID != 0 {
			if p, ok := m.posts[c.PostID]; !ok || p.CommunityID != communityID {
				continue
			}
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memStore) SaveComment(userID, commentID uint64, save bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if save {
		m.savedCmts[pair{userID, commentID}] = true
	} else {
		delete(m.savedCmts, pair{userID, commentID})
	}
	return nil
}

func (m *memStore) VoteComment(userID, commentID uint64, score int8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[commentID]
	if !ok {
		return repository.ErrNotFound
	}
	k := pair{userID, commentID}
	c.Score += int64(score) - int64(m.cvotes[k])
	if score == 0 {
		delete(m.cvotes, k)
	} else {
		m.cvotes[k] = score
	}
	return nil
}

func (m *memStore) GetCommentVote(userID, commentID uint64) (int8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cvotes[pair{userID, commentID}], nil
}

func (m *memStore) storeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type sentMail struct{ to, subject, body string }

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mockMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []pkg.Event
}

func (m *mockPublisher) Publish(ctx context.Context, ev pkg.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	store      *memStore
	app        *gateway.Context
	dispatcher *gateway.Dispatcher
	hub        *ws.Hub
	tokens     *redis.UserRepository
	codes      *redis.EmailRepository
	mailer     *mockMailer
	events     *mockPublisher
	redis      *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := newMemStore()
	pool := blocking.NewPool(4, time.Second)
	jwt := pkg.NewJWT("test-secret", "gateway", time.Hour)
	tokens := redis.NewUserRepository(rdb, time.Hour)
	codes := redis.NewEmailRepository(rdb)
	hub := ws.NewHub()
	mailer := &mockMailer{}
	events := &mockPublisher{}

	app := &gateway.Context{
		Pool:   pool,
		Store:  store,
		Auth:   auth.NewResolver(jwt, store, tokens, pool),
		Guard:  guard.New(store, pool),
		JWT:    jwt,
		Tokens: tokens,
		Codes:  codes,
		Mailer: mailer,
		Events: events,
		Rooms:  hub,
	}
	return &testEnv{
		store:      store,
		app:        app,
		dispatcher: gateway.NewDispatcher(NewRegistry(), app),
		hub:        hub,
		tokens:     tokens,
		codes:      codes,
		mailer:     mailer,
		events:     events,
		redis:      mr,
	}
}

// addUser 直接写入用户并返回一个有效 token
func (e *testEnv) addUser(t *testing.T, name string, admin, banned bool) (*model.User, string) {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", Admin: admin, Banned: banned}
	if err := e.store.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	res, err := issueToken(context.Background(), e.app, u.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return u, res.JWT
}

func (e *testEnv) addCommunity(t *testing.T, name string, creator uint64) *model.Community {
	t.Helper()
	c := &model.Community{Name: name, Title: name, CreatorID: creator}
	if err := e.store.CreateCommunity(c); err != nil {
		t.Fatalf("create community: %v", err)
	}
	return c
}

func (e *testEnv) addPost(t *testing.T, id, communityID, creator uint64) *model.Post {
	t.Helper()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	p := &model.Post{ID: id, CommunityID: communityID, CreatorID: creator, Name: "post", CreatedAt: time.Now()}
	e.store.posts[id] = p
	cp := *p
	return &cp
}

func (e *testEnv) addComment(t *testing.T, postID, creator uint64, parent *uint64) *model.Comment {
	t.Helper()
	c := &model.Comment{PostID: postID, CreatorID: creator, ParentID: parent, Content: "comment"}
	if err := e.store.CreateComment(c); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
