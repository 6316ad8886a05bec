package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

const waitFor = 2 * time.Second

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider отвечает заранее заданным результатом. Если block выставлен,
// вызов ждёт отмены контекста.
type fakeProvider struct {
	user  models.UserIdentity
	err   error
	block bool

	mu        sync.Mutex
	calls     int
	cancelled bool
	started   chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{started: make(chan struct{}, 8)}
}

func (p *fakeProvider) call(ctx context.Context) (models.UserIdentity, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	p.started <- struct{}{}

	if p.block {
		<-ctx.Done()
		p.mu.Lock()
		p.cancelled = true
		p.mu.Unlock()
		return models.UserIdentity{}, ctx.Err()
	}
	return p.user, p.err
}

func (p *fakeProvider) SignUpWithEmail(ctx context.Context, _, _, _ string) (models.UserIdentity, error) {
	return p.call(ctx)
}

func (p *fakeProvider) SignInWithEmail(ctx context.Context, _, _ string) (models.UserIdentity, error) {
	return p.call(ctx)
}

func (p *fakeProvider) SignInWithGoogle(ctx context.Context) (models.UserIdentity, error) {
	return p.call(ctx)
}

func (p *fakeProvider) wasCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

type recordingMedia struct {
	mu   sync.Mutex
	cmds []playback.Command
}

func (m *recordingMedia) Execute(cmd playback.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmds = append(m.cmds, cmd)
}

func (m *recordingMedia) ops() []playback.Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]playback.Op, 0, len(m.cmds))
	for _, c := range m.cmds {
		ops = append(ops, c.Op)
	}
	return ops
}

type statusLog struct {
	mu       sync.Mutex
	statuses []playback.Status
}

func (l *statusLog) record(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.statuses); n == 0 || l.statuses[n-1] != s.Playback.Status {
		l.statuses = append(l.statuses, s.Playback.Status)
	}
}

func (l *statusLog) get() []playback.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]playback.Status(nil), l.statuses...)
}

func newTestStore(t *testing.T, p session.Provider, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	st := New(p, newNoopLogger(), opts...)
	t.Cleanup(st.Close)
	return st
}

func TestStore_ListenerSeesPostTransitionSnapshot(t *testing.T) {
	st := newTestStore(t, newFakeProvider())

	var got []Snapshot
	unsubscribe := st.Subscribe(func(s Snapshot) { got = append(got, s) })

	require.NoError(t, st.Dispatch(context.Background(), session.GuestRequested{}))

	require.Len(t, got, 1)
	assert.Equal(t, session.StatusGuest, got[0].Session.Status())
	assert.Equal(t, uint64(1), got[0].Version)
	assert.Equal(t, got[0].Version, st.Snapshot().Version)

	unsubscribe()
	require.NoError(t, st.Dispatch(context.Background(), session.SignOutRequested{}))
	assert.Len(t, got, 1)
}

func TestStore_RejectedEventDoesNotNotify(t *testing.T) {
	st := newTestStore(t, newFakeProvider())

	notified := 0
	st.Subscribe(func(Snapshot) { notified++ })

	err := st.Dispatch(context.Background(), playback.PlayRequested{Item: premiumLesson})
	var locked *gate.LockedError
	require.ErrorAs(t, err, &locked)
	assert.Zero(t, notified)
	assert.Equal(t, playback.StatusIdle, st.Snapshot().Playback.Status)
	assert.Zero(t, st.Snapshot().Version)
}

func TestStore_SignUpSignOutGuest(t *testing.T) {
	p := newFakeProvider()
	p.user = models.UserIdentity{ID: "u-1", DisplayName: "A", Email: "a@b.com"}
	st := newTestStore(t, p)

	w := st.Watch(func(s Snapshot) bool { return s.Session.Status() == session.StatusAuthenticated })
	defer w.Stop()

	require.NoError(t, st.Dispatch(context.Background(), session.SignUpRequested{DisplayName: "A", Email: "a@b.com", Password: "pw"}))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	snap, err := w.Wait(ctx, nil)
	require.NoError(t, err)
	user, ok := snap.Session.User()
	require.True(t, ok)
	assert.Equal(t, p.user, user)

	require.NoError(t, st.Dispatch(context.Background(), session.SignOutRequested{}))
	assert.Equal(t, session.StatusSignedOut, st.Snapshot().Session.Status())

	require.NoError(t, st.Dispatch(context.Background(), session.GuestRequested{}))
	assert.Equal(t, session.StatusGuest, st.Snapshot().Session.Status())
}

func TestStore_AuthFailureReturnsToSignedOut(t *testing.T) {
	p := newFakeProvider()
	p.err = session.ErrInvalidCredentials
	st := newTestStore(t, p)

	w := st.Watch(func(s Snapshot) bool { return s.Session.Status() == session.StatusAuthFailed })
	defer w.Stop()

	require.NoError(t, st.Dispatch(context.Background(), session.SignInRequested{Email: "a@b.com", Password: "bad"}))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	snap, err := w.Wait(ctx, nil)
	require.NoError(t, err)
	failure, ok := snap.Session.Failure()
	require.True(t, ok)
	assert.Equal(t, session.KindInvalidCredentials, failure.Kind)

	require.Eventually(t, func() bool {
		return st.Snapshot().Session.Status() == session.StatusSignedOut
	}, waitFor, 5*time.Millisecond)
}

func TestStore_SecondAuthIsRejected(t *testing.T) {
	p := newFakeProvider()
	p.block = true
	st := newTestStore(t, p)

	require.NoError(t, st.Dispatch(context.Background(), session.GoogleSignInRequested{}))
	err := st.Dispatch(context.Background(), session.SignInRequested{Email: "a@b.com", Password: "pw"})
	require.ErrorIs(t, err, session.ErrAlreadyInProgress)
	assert.Equal(t, session.StatusAuthenticating, st.Snapshot().Session.Status())
}

func TestStore_SignOutCancelsInFlightAuth(t *testing.T) {
	p := newFakeProvider()
	p.block = true
	st := newTestStore(t, p)

	require.NoError(t, st.Dispatch(context.Background(), session.SignInRequested{Email: "a@b.com", Password: "pw"}))
	select {
	case <-p.started:
	case <-time.After(waitFor):
		t.Fatal("provider was not called")
	}

	require.NoError(t, st.Dispatch(context.Background(), session.SignOutRequested{}))
	require.Eventually(t, p.wasCancelled, waitFor, 5*time.Millisecond)

	// Ответ отменённой попытки не должен менять состояние.
	require.NoError(t, st.Dispatch(context.Background(), session.GuestRequested{}))
	assert.Equal(t, session.StatusGuest, st.Snapshot().Session.Status())
}

func TestStore_PlayToCompletion(t *testing.T) {
	media := &recordingMedia{}
	st := newTestStore(t, newFakeProvider(), WithMedia(media))

	var statuses statusLog
	st.Subscribe(statuses.record)

	require.NoError(t, st.Dispatch(context.Background(), playback.PlayRequested{Item: freeLesson}))
	h := st.Snapshot().Playback.Handle()
	require.NotZero(t, h)

	st.Post(playback.Loaded{Handle: h})
	st.Post(playback.Finished{Handle: h})

	require.Eventually(t, func() bool {
		return st.Snapshot().Playback.Status == playback.StatusIdle
	}, waitFor, 5*time.Millisecond)

	assert.Equal(t, []playback.Status{
		playback.StatusLoading,
		playback.StatusPlaying,
		playback.StatusStopped,
		playback.StatusIdle,
	}, statuses.get())
	assert.True(t, st.Snapshot().Rewards.IsEarned(freeLesson.ID))
	assert.Equal(t, []playback.Op{playback.OpLoad, playback.OpPlay}, media.ops())
}

func TestStore_FinishedAfterPauseEarnsReward(t *testing.T) {
	media := &recordingMedia{}
	st := newTestStore(t, newFakeProvider(), WithMedia(media))
	ctx := context.Background()

	require.NoError(t, st.Dispatch(ctx, playback.PlayRequested{Item: freeLesson}))
	h := st.Snapshot().Playback.Handle()
	require.NoError(t, st.Dispatch(ctx, playback.Loaded{Handle: h}))
	require.NoError(t, st.Dispatch(ctx, playback.PauseRequested{Origin: playback.OriginUI}))
	require.Equal(t, playback.StatusPaused, st.Snapshot().Playback.Status)

	// Медиасессия успела закончить трек до того, как пауза дошла до неё.
	require.NoError(t, st.Dispatch(ctx, playback.Finished{Handle: h}))

	require.Eventually(t, func() bool {
		return st.Snapshot().Playback.Status == playback.StatusIdle
	}, waitFor, 5*time.Millisecond)
	snap := st.Snapshot()
	assert.True(t, snap.Rewards.IsEarned(freeLesson.ID))
	assert.Nil(t, snap.Playback.LastError)

	require.NoError(t, st.Dispatch(ctx, playback.ResumeRequested{Origin: playback.OriginUI}))
	assert.Equal(t, []playback.Op{playback.OpLoad, playback.OpPlay, playback.OpPause}, media.ops())
}

func TestStore_SupersededSessionIsIgnored(t *testing.T) {
	media := &recordingMedia{}
	st := newTestStore(t, newFakeProvider(), WithMedia(media))
	ctx := context.Background()

	other := freeLesson
	other.ID = "lesson-3"

	require.NoError(t, st.Dispatch(ctx, playback.PlayRequested{Item: freeLesson}))
	first := st.Snapshot().Playback.Handle()
	require.NoError(t, st.Dispatch(ctx, playback.Loaded{Handle: first}))
	require.Equal(t, playback.StatusPlaying, st.Snapshot().Playback.Status)

	require.NoError(t, st.Dispatch(ctx, playback.PlayRequested{Item: other}))
	second := st.Snapshot().Playback.Handle()
	assert.NotEqual(t, first, second)

	// Поздние обратные вызовы первой сессии.
	require.NoError(t, st.Dispatch(ctx, playback.Finished{Handle: first}))
	require.NoError(t, st.Dispatch(ctx, playback.Failed{Handle: first, Err: playback.ErrCancelled}))

	snap := st.Snapshot()
	assert.Equal(t, playback.StatusLoading, snap.Playback.Status)
	assert.Equal(t, other.ID, snap.Playback.ActiveItemID)
	assert.False(t, snap.Rewards.IsEarned(freeLesson.ID))
	assert.Equal(t, []playback.Op{playback.OpLoad, playback.OpPlay, playback.OpStop, playback.OpLoad}, media.ops())
}

func TestStore_RemotePause(t *testing.T) {
	st := newTestStore(t, newFakeProvider(), WithMedia(&recordingMedia{}))
	ctx := context.Background()

	require.NoError(t, st.Dispatch(ctx, playback.RemoteReceived{Command: playback.RemotePause}))
	assert.Equal(t, playback.Initial(), st.Snapshot().Playback)

	require.NoError(t, st.Dispatch(ctx, playback.PlayRequested{Item: freeLesson}))
	require.NoError(t, st.Dispatch(ctx, playback.Loaded{Handle: st.Snapshot().Playback.Handle()}))
	require.NoError(t, st.Dispatch(ctx, playback.RemoteReceived{Command: playback.RemotePause}))
	assert.Equal(t, playback.StatusPaused, st.Snapshot().Playback.Status)
}

func TestStore_Closed(t *testing.T) {
	st := New(newFakeProvider(), newNoopLogger())
	st.Close()
	st.Close()

	err := st.Dispatch(context.Background(), session.GuestRequested{})
	require.ErrorIs(t, err, ErrClosed)
	st.Post(session.GuestRequested{})
	assert.Equal(t, session.StatusSignedOut, st.Snapshot().Session.Status())
}
