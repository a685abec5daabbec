package cloudsync

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/nutrisync/internal/errs"
	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/repository"
	"github.com/and161185/nutrisync/internal/session"
)

// fakeRemote implements all three repositories over in-memory maps and
// records the order of calls.
type fakeRemote struct {
	mu sync.Mutex

	profiles map[uuid.UUID]model.RemoteProfile
	logs     map[uuid.UUID][]model.DailyLog
	recipes  map[uuid.UUID][]model.Recipe
	public   []model.PublicRecipe

	calls []string

	errUpsertProfile, errUpsertLogs, errUpsertRecipes error
	errGetProfile, errRecentLogs, errListRecipes      error
	errPublic                                         error

	// block, when set, is waited on inside GetProfile.
	block   chan struct{}
	entered chan struct{}
}

var (
	_ repository.ProfileRepository = (*fakeRemote)(nil)
	_ repository.LogRepository     = (*fakeRemote)(nil)
	_ repository.RecipeRepository  = (*fakeRemote)(nil)
)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		profiles: map[uuid.UUID]model.RemoteProfile{},
		logs:     map[uuid.UUID][]model.DailyLog{},
		recipes:  map[uuid.UUID][]model.Recipe{},
	}
}

func (f *fakeRemote) record(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) UpsertProfile(_ context.Context, p model.RemoteProfile) error {
	f.record("UpsertProfile")
	if f.errUpsertProfile != nil {
		return f.errUpsertProfile
	}
	f.mu.Lock()
	f.profiles[p.UserID] = p
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) GetProfile(_ context.Context, uid uuid.UUID) (*model.RemoteProfile, error) {
	f.record("GetProfile")
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.errGetProfile != nil {
		return nil, f.errGetProfile
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[uid]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (f *fakeRemote) UpsertLogs(_ context.Context, uid uuid.UUID, logs []model.DailyLog) error {
	f.record("UpsertLogs")
	if f.errUpsertLogs != nil {
		return f.errUpsertLogs
	}
	f.mu.Lock()
	f.logs[uid] = append([]model.DailyLog(nil), logs...)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) RecentLogs(_ context.Context, uid uuid.UUID, limit int) ([]model.DailyLog, error) {
	f.record("RecentLogs")
	if f.errRecentLogs != nil {
		return nil, f.errRecentLogs
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.DailyLog(nil), f.logs[uid]...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRemote) UpsertRecipes(_ context.Context, uid uuid.UUID, rs []model.Recipe) error {
	f.record("UpsertRecipes")
	if f.errUpsertRecipes != nil {
		return f.errUpsertRecipes
	}
	f.mu.Lock()
	f.recipes[uid] = append([]model.Recipe(nil), rs...)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) ListRecipes(_ context.Context, uid uuid.UUID) ([]model.Recipe, error) {
	f.record("ListRecipes")
	if f.errListRecipes != nil {
		return nil, f.errListRecipes
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Recipe{}, f.recipes[uid]...), nil
}

func (f *fakeRemote) PublicRecipes(_ context.Context, limit int) ([]model.PublicRecipe, error) {
	f.record("PublicRecipes")
	if f.errPublic != nil {
		return nil, f.errPublic
	}
	return f.public, nil
}

// fakeSessions is a settable session source.
type fakeSessions struct {
	mu        sync.Mutex
	cur       *session.Session
	listeners []session.Listener
}

func (f *fakeSessions) Current() (session.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cur == nil {
		return session.Session{}, false
	}
	return *f.cur, true
}

func (f *fakeSessions) Subscribe(l session.Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

func (f *fakeSessions) set(s *session.Session) {
	f.mu.Lock()
	f.cur = s
	ls := append([]session.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		if s == nil {
			l(session.Session{}, false)
		} else {
			l(*s, true)
		}
	}
}

func signedIn(uid uuid.UUID) *fakeSessions {
	return &fakeSessions{cur: &session.Session{UserID: uid, AccessToken: "t"}}
}

// countingPusher records pushes and can fail.
type countingPusher struct {
	mu  sync.Mutex
	n   int
	err error
}

func (c *countingPusher) PushAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.err
}

func (c *countingPusher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
