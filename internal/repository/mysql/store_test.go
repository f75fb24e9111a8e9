package mysql

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Lee_Gateway/internal/model"
	"Lee_Gateway/internal/repository"
)

// newTestStore 每个测试一个独立的内存库；单连接保证事务与普通查询看到同一份数据
func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db), db
}

func mustRegister(t *testing.T, s *Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Password: "x", Email: name + "@example.com"}
	if err := s.RegisterUser(u); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func mustCommunity(t *testing.T, s *Store, name string, creator uint64) *model.Community {
	t.Helper()
	c := &model.Community{Name: name, Title: name, CreatorID: creator}
	if err := s.CreateCommunity(c); err != nil {
		t.Fatalf("create community: %v", err)
	}
	return c
}

func mustPost(t *testing.T, s *Store, communityID, creator uint64) *model.Post {
	t.Helper()
	p := &model.Post{CommunityID: communityID, CreatorID: creator, Name: "hello"}
	if err := s.CreatePost(p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestRegisterUserFirstIsAdmin(t *testing.T) {
	s, _ := newTestStore(t)

	root := mustRegister(t, s, "root")
	alice := mustRegister(t, s, "alice")
	if !root.Admin || alice.Admin {
		t.Fatalf("expected only the first user to be admin: root=%v alice=%v", root.Admin, alice.Admin)
	}

	admins, err := s.ListAdmins()
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 || admins[0].ID != root.ID {
		t.Fatalf("unexpected admins %+v", admins)
	}

	// 用户名唯一
	dup := &model.User{Username: "alice", Password: "x", Email: "other@example.com"}
	if err := s.RegisterUser(dup); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
}

func TestRegisterUserConcurrentSingleAdmin(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &model.User{Username: fmt.Sprintf("u%d", i), Password: "x", Email: fmt.Sprintf("u%d@example.com", i)}
			if err := s.RegisterUser(u); err != nil {
				t.Errorf("register: %v", err)
			}
		}(i)
	}
	wg.Wait()

	admins, err := s.ListAdmins()
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 {
		t.Fatalf("expected exactly one admin got %d", len(admins))
	}
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustRegister(t, s, "root")
	c := mustCommunity(t, s, "golang", root.ID)
	p := mustPost(t, s, c.ID, root.ID)

	if err := s.SetPostLocked(9999, true); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := s.UpdatePost(9999, "a", "", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := s.SetBanned(9999, true); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := s.SetCommentRead(9999, true); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	// 值未变化不算不存在
	if err := s.SetPostLocked(p.ID, false); err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	if err := s.UpdatePost(p.ID, "renamed", "https://example.com", "body"); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadPost(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "renamed" || got.URL != "https://example.com" || got.Body != "body" {
		t.Fatalf("unexpected post %+v", got)
	}
}

func TestCreateCommunityAddsCreatorAsMod(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustRegister(t, s, "root")
	mod := mustRegister(t, s, "mod")
	alice := mustRegister(t, s, "alice")
	c := mustCommunity(t, s, "golang", mod.ID)

	mods, err := s.ListModerators(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 || mods[0].UserID != mod.ID {
		t.Fatalf("unexpected moderators %+v", mods)
	}
	followed, err := s.ListFollowedCommunities(mod.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(followed) != 1 || followed[0].ID != c.ID {
		t.Fatalf("creator should follow the community, got %+v", followed)
	}

	for _, tc := range []struct {
		user uint64
		want bool
	}{
		{mod.ID, true},
		{root.ID, true}, // 站点管理员
		{alice.ID, false},
	} {
		ok, err := s.IsModOrAdmin(tc.user, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if ok != tc.want {
			t.Fatalf("IsModOrAdmin(%d) = %v, want %v", tc.user, ok, tc.want)
		}
	}

	// 重复添加版主幂等
	if err := s.AddModerator(c.ID, mod.ID); err != nil {
		t.Fatalf("re-adding moderator: %v", err)
	}
}

func TestBanFromCommunityUnfollows(t *testing.T) {
	s, _ := newTestStore(t)
	mod := mustRegister(t, s, "mod")
	alice := mustRegister(t, s, "alice")
	c := mustCommunity(t, s, "golang", mod.ID)

	if err := s.Follow(c.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetCommunityBan(alice.ID, c.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no ban got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.BanFromCommunity(c.ID, alice.ID); err != nil {
			t.Fatalf("ban #%d: %v", i, err)
		}
	}
	if _, err := s.GetCommunityBan(alice.ID, c.ID); err != nil {
		t.Fatalf("expected ban got %v", err)
	}
	followed, err := s.ListFollowedCommunities(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(followed) != 0 {
		t.Fatalf("banned user should no longer follow, got %+v", followed)
	}

	if err := s.UnbanFromCommunity(c.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetCommunityBan(alice.ID, c.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ban lifted got %v", err)
	}
}

func TestVoteAdjustsScoreByDelta(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustRegister(t, s, "root")
	alice := mustRegister(t, s, "alice")
	c := mustCommunity(t, s, "golang", root.ID)
	p := mustPost(t, s, c.ID, root.ID)

	steps := []struct {
		user  uint64
		score int8
		want  int64
	}{
		{root.ID, 1, 1},
		{alice.ID, 1, 2},
		{alice.ID, -1, 0},
		{alice.ID, -1, 0},
		{alice.ID, 0, 1},
		{root.ID, 0, 0},
	}
	for i, st := range steps {
		if err := s.Vote(st.user, p.ID, st.score); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		got, err := s.ReadPost(p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Score != st.want {
			t.Fatalf("step %d: score %d, want %d", i, got.Score, st.want)
		}
	}
	if v, _ := s.GetVote(alice.ID, p.ID); v != 0 {
		t.Fatalf("retracted vote should read 0, got %d", v)
	}
}

func TestCommentLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustRegister(t, s, "root")
	alice := mustRegister(t, s, "alice")
	golang := mustCommunity(t, s, "golang", root.ID)
	rust := mustCommunity(t, s, "rust", root.ID)
	p1 := mustPost(t, s, golang.ID, root.ID)
	p2 := mustPost(t, s, rust.ID, root.ID)

	top := &model.Comment{CreatorID: root.ID, PostID: p1.ID, Content: "first"}
	if err := s.CreateComment(top); err != nil {
		t.Fatal(err)
	}
	reply := &model.Comment{CreatorID: alice.ID, PostID: p1.ID, ParentID: &top.ID, Content: "reply"}
	if err := s.CreateComment(reply); err != nil {
		t.Fatal(err)
	}
	other := &model.Comment{CreatorID: alice.ID, PostID: p2.ID, Content: "elsewhere"}
	if err := s.CreateComment(other); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadComment(reply.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ParentID == nil || *got.ParentID != top.ID {
		t.Fatalf("parent not persisted: %+v", got)
	}

	byPost, _ := s.ListComments(p1.ID, 0, 0, 10)
	byCommunity, _ := s.ListComments(0, rust.ID, 0, 10)
	all, _ := s.ListComments(0, 0, 0, 10)
	if len(byPost) != 2 || len(byCommunity) != 1 || byCommunity[0].ID != other.ID || len(all) != 3 {
		t.Fatalf("unexpected listings: post=%d community=%d all=%d", len(byPost), len(byCommunity), len(all))
	}

	if err := s.UpdateComment(reply.ID, "edited"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCommentRead(reply.ID, true); err != nil {
		t.Fatal(err)
	}
	got, _ = s.ReadComment(reply.ID)
	if got.Content != "edited" || !got.Read {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.SetCommentRemoved(reply.ID, true); err != nil {
		t.Fatal(err)
	}
	byPost, _ = s.ListComments(p1.ID, 0, 0, 10)
	if len(byPost) != 1 || byPost[0].ID != top.ID {
		t.Fatalf("removed comment still listed: %+v", byPost)
	}

	if _, err := s.ReadComment(9999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestVoteComment(t *testing.T) {
	s, db := newTestStore(t)
	root := mustRegister(t, s, "root")
	alice := mustRegister(t, s, "alice")
	c := mustCommunity(t, s, "golang", root.ID)
	p := mustPost(t, s, c.ID, root.ID)
	cm := &model.Comment{CreatorID: root.ID, PostID: p.ID, Content: "hi"}
	if err := s.CreateComment(cm); err != nil {
		t.Fatal(err)
	}

	_ = s.VoteComment(root.ID, cm.ID, 1)
	_ = s.VoteComment(alice.ID, cm.ID, -1)
	_ = s.VoteComment(alice.ID, cm.ID, 1)
	got, _ := s.ReadComment(cm.ID)
	if got.Score != 2 {
		t.Fatalf("expected score 2 got %d", got.Score)
	}
	if v, _ := s.GetCommentVote(alice.ID, cm.ID); v != 1 {
		t.Fatalf("expected vote 1 got %d", v)
	}

	var like model.CommentLike
	if err := db.Where("user_id = ? AND comment_id = ?", alice.ID, cm.ID).First(&like).Error; err != nil {
		t.Fatal(err)
	}
	if like.PostID != p.ID {
		t.Fatalf("like should carry post id, got %d", like.PostID)
	}

	if err := s.VoteComment(alice.ID, 9999, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	s, db := newTestStore(t)
	root := mustRegister(t, s, "root")
	c := mustCommunity(t, s, "golang", root.ID)
	p := mustPost(t, s, c.ID, root.ID)
	cm := &model.Comment{CreatorID: root.ID, PostID: p.ID, Content: "hi"}
	if err := s.CreateComment(cm); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := s.SavePost(root.ID, p.ID, true); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveComment(root.ID, cm.ID, true); err != nil {
			t.Fatal(err)
		}
	}
	var posts, comments int64
	db.Model(&model.PostSaved{}).Count(&posts)
	db.Model(&model.CommentSaved{}).Count(&comments)
	if posts != 1 || comments != 1 {
		t.Fatalf("expected one row each, got posts=%d comments=%d", posts, comments)
	}

	_ = s.SavePost(root.ID, p.ID, false)
	_ = s.SaveComment(root.ID, cm.ID, false)
	db.Model(&model.PostSaved{}).Count(&posts)
	db.Model(&model.CommentSaved{}).Count(&comments)
	if posts != 0 || comments != 0 {
		t.Fatalf("unsave left rows: posts=%d comments=%d", posts, comments)
	}
}

func TestUpdateCommunityAndListFollowed(t *testing.T) {
	s, _ := newTestStore(t)
	root := mustRegister(t, s, "root")
	alice := mustRegister(t, s, "alice")
	a := mustCommunity(t, s, "golang", root.ID)
	b := mustCommunity(t, s, "rust", root.ID)
	_ = s.Follow(a.ID, alice.ID)
	_ = s.Follow(b.ID, alice.ID)

	b.Title = "Rust"
	b.Removed = true
	if err := s.UpdateCommunity(b); err != nil {
		t.Fatal(err)
	}
	got, _ := s.ReadCommunity(b.ID)
	if got.Title != "Rust" || !got.Removed {
		t.Fatalf("update not applied: %+v", got)
	}

	followed, err := s.ListFollowedCommunities(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(followed) != 1 || followed[0].ID != a.ID {
		t.Fatalf("removed community should be hidden, got %+v", followed)
	}

	if err := s.UpdateCommunity(&model.Community{ID: 9999, Title: "x"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
