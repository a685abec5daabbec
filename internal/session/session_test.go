package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/nutrisync/internal/errs"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, sub string, exp time.Time, key []byte) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signToken(t, uid.String(), exp, testKey)

	t.Run("verified", func(t *testing.T) {
		s, err := ParseToken(tok, testKey)
		require.NoError(t, err)
		require.Equal(t, uid, s.UserID)
		require.Equal(t, tok, s.AccessToken)
		require.True(t, exp.Equal(s.ExpiresAt))
	})
	t.Run("unverified", func(t *testing.T) {
		s, err := ParseToken(tok, nil)
		require.NoError(t, err)
		require.Equal(t, uid, s.UserID)
	})
	t.Run("wrong key", func(t *testing.T) {
		_, err := ParseToken(tok, []byte("other"))
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})
	t.Run("expired verified", func(t *testing.T) {
		old := signToken(t, uid.String(), time.Now().Add(-time.Minute), testKey)
		_, err := ParseToken(old, testKey)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})
	t.Run("bad subject", func(t *testing.T) {
		_, err := ParseToken(signToken(t, "alice", exp, testKey), nil)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("not-a-jwt", nil)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})
}

func TestSession_Expired(t *testing.T) {
	t.Parallel()
	now := time.Now()
	require.False(t, Session{}.Expired(now))
	require.False(t, Session{ExpiresAt: now.Add(time.Second)}.Expired(now))
	require.True(t, Session{ExpiresAt: now}.Expired(now))
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()
	fs := FileStore{Path: filepath.Join(t.TempDir(), "cfg", "token.json")}

	_, err := fs.Load()
	require.ErrorIs(t, err, errs.ErrNoSession)

	want := Session{UserID: uuid.Must(uuid.NewV4()), AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	require.NoError(t, fs.Save(want))

	info, err := os.Stat(fs.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := fs.Load()
	require.NoError(t, err)
	require.Equal(t, want.UserID, got.UserID)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, fs.Delete())
	require.NoError(t, fs.Delete())
	_, err = fs.Load()
	require.ErrorIs(t, err, errs.ErrNoSession)
}

type memStorage struct {
	s       *Session
	deleted int
}

var _ Storage = (*memStorage)(nil)

func (m *memStorage) Save(s Session) error { m.s = &s; return nil }
func (m *memStorage) Load() (Session, error) {
	if m.s == nil {
		return Session{}, errs.ErrNoSession
	}
	return *m.s, nil
}
func (m *memStorage) Delete() error { m.s = nil; m.deleted++; return nil }

func TestManager_SignInOutNotifies(t *testing.T) {
	t.Parallel()
	st := &memStorage{}
	m := NewManager(st, testKey, zaptest.NewLogger(t))

	var events []bool
	m.Subscribe(func(_ Session, ok bool) { events = append(events, ok) })

	_, ok := m.Current()
	require.False(t, ok)

	uid := uuid.Must(uuid.NewV4())
	s, err := m.SignIn(signToken(t, uid.String(), time.Now().Add(time.Hour), testKey))
	require.NoError(t, err)
	require.Equal(t, uid, s.UserID)
	require.NotNil(t, st.s)

	cur, ok := m.Current()
	require.True(t, ok)
	require.Equal(t, uid, cur.UserID)

	require.NoError(t, m.SignOut())
	_, ok = m.Current()
	require.False(t, ok)
	require.Nil(t, st.s)
	require.Equal(t, []bool{true, false}, events)
}

func TestManager_SignInRejectsBadToken(t *testing.T) {
	t.Parallel()
	st := &memStorage{}
	m := NewManager(st, testKey, nil)

	_, err := m.SignIn("junk")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Nil(t, st.s)
}

func TestManager_Restore(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())

	t.Run("valid", func(t *testing.T) {
		st := &memStorage{s: &Session{UserID: uid, AccessToken: "x", ExpiresAt: time.Now().Add(time.Hour)}}
		m := NewManager(st, nil, nil)
		fired := false
		m.Subscribe(func(s Session, ok bool) { fired = ok && s.UserID == uid })
		require.NoError(t, m.Restore())
		_, ok := m.Current()
		require.True(t, ok)
		require.True(t, fired)
	})
	t.Run("expired", func(t *testing.T) {
		st := &memStorage{s: &Session{UserID: uid, AccessToken: "x", ExpiresAt: time.Now().Add(-time.Hour)}}
		m := NewManager(st, nil, nil)
		require.NoError(t, m.Restore())
		_, ok := m.Current()
		require.False(t, ok)
		require.Equal(t, 1, st.deleted)
	})
	t.Run("none", func(t *testing.T) {
		m := NewManager(&memStorage{}, nil, nil)
		require.NoError(t, m.Restore())
		_, ok := m.Current()
		require.False(t, ok)
	})
}
