package cloudsync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/nutrisync/internal/localstate"
	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/service"
	"github.com/and161185/nutrisync/internal/session"
)

func TestOutbox_FlushOnlyWhenDirty(t *testing.T) {
	t.Parallel()
	ob := NewOutbox(time.Hour, zaptest.NewLogger(t))
	p := &countingPusher{}

	require.NoError(t, ob.Flush(context.Background(), p))
	require.Zero(t, p.count())

	ob.Notify()
	require.True(t, ob.Dirty())
	require.NoError(t, ob.Flush(context.Background(), p))
	require.Equal(t, 1, p.count())
	require.False(t, ob.Dirty())
}

func TestOutbox_FailedFlushStaysDirty(t *testing.T) {
	t.Parallel()
	ob := NewOutbox(0, nil)
	p := &countingPusher{err: errors.New("offline")}

	ob.Notify()
	require.Error(t, ob.Flush(context.Background(), p))
	require.True(t, ob.Dirty())

	p.err = nil
	require.NoError(t, ob.Flush(context.Background(), p))
	require.False(t, ob.Dirty())
}

func TestOutbox_RunDebouncesBursts(t *testing.T) {
	t.Parallel()
	ob := NewOutbox(50*time.Millisecond, zaptest.NewLogger(t))
	p := &countingPusher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() { ob.Run(ctx, p); close(done) }()

	for i := 0; i < 20; i++ {
		ob.Notify()
	}
	require.Eventually(t, func() bool { return p.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return p.count() > 1 }, 150*time.Millisecond, 10*time.Millisecond)

	ob.Notify()
	require.Eventually(t, func() bool { return p.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestOutbox_WiredToStore(t *testing.T) {
	t.Parallel()
	ob := NewOutbox(time.Hour, nil)
	st := service.NewStore(nil, ob, zaptest.NewLogger(t))

	st.AddRecentFood(model.FoodItem{ID: "x"})
	st.ToggleFavorite(model.FoodItem{ID: "x"})
	st.SetDate("2020-01-01")
	require.False(t, ob.Dirty(), "local-only changes do not schedule a push")

	st.AddWater(250, "")
	require.True(t, ob.Dirty())
}

func TestAgent_PullOnSignInAndClearOnSignOut(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	remote.logs[uid] = []model.DailyLog{{ID: uuid.Must(uuid.NewV4()), Name: "remote", Date: "2024-01-10", MealType: model.MealLunch}}

	st := newStore(t)
	sess := &fakeSessions{}
	ob := NewOutbox(time.Hour, nil)
	rec := NewReconciler(st, sess, remote, remote, remote, zaptest.NewLogger(t))
	a := NewAgent(rec, ob, sess, st, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { a.Run(ctx); close(done) }()

	sess.set(&session.Session{UserID: uid, AccessToken: "t"})
	require.Eventually(t, func() bool {
		l := st.Logs()
		return len(l) == 1 && l[0].Name == "remote"
	}, 2*time.Second, 5*time.Millisecond)

	sess.set(nil)
	require.Empty(t, st.Logs())

	cancel()
	<-done
}

func TestAgent_FlushesOnShutdown(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	sess := signedIn(uid)
	ob := NewOutbox(time.Hour, nil)
	st := service.NewStore(nil, ob, zaptest.NewLogger(t))
	require.NoError(t, st.Hydrate(context.Background()))
	rec := NewReconciler(st, sess, remote, remote, remote, nil)
	a := NewAgent(rec, ob, sess, st, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { a.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return len(remote.callLog()) >= 3 }, 2*time.Second, 5*time.Millisecond, "initial pull")

	st.AddLog(service.LogInput{MealType: model.MealBreakfast, Name: "Eggs", Calories: 150})
	cancel()
	<-done

	require.Contains(t, remote.callLog(), "UpsertLogs")
	require.False(t, ob.Dirty())
}

func TestAgent_PushesChangesWrittenByAnotherProcess(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	path := filepath.Join(t.TempDir(), "state.json")

	file := localstate.Open(path)
	defer file.Close()
	ob := NewOutbox(20*time.Millisecond, nil)
	st := service.NewStore(file, ob, zaptest.NewLogger(t))
	require.NoError(t, st.Hydrate(context.Background()))

	sess := signedIn(uid)
	rec := NewReconciler(st, sess, remote, remote, remote, zaptest.NewLogger(t))
	a := NewAgent(rec, ob, sess, st, zaptest.NewLogger(t))
	a.Follow(file, st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { a.Run(ctx); close(done) }()
	require.Eventually(t, func() bool { return len(remote.callLog()) >= 3 }, 2*time.Second, 5*time.Millisecond, "initial pull")
	require.NoError(t, file.Flush())
	time.Sleep(200 * time.Millisecond) // let the watcher register

	// A second writer on the same file, as a separate CLI invocation would be.
	other := localstate.Open(path)
	otherStore := service.NewStore(other, nil, nil)
	require.NoError(t, otherStore.Hydrate(context.Background()))
	otherStore.AddLog(service.LogInput{MealType: model.MealDinner, Name: "Pasta", Calories: 600})
	require.NoError(t, other.Close())

	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		logs := remote.logs[uid]
		return len(logs) == 1 && logs[0].Name == "Pasta"
	}, 5*time.Second, 10*time.Millisecond)
	require.Len(t, st.Logs(), 1)

	cancel()
	<-done
}
