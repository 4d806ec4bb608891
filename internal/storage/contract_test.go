package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onemama/telehealth-ussd/internal/models"
)

// storeFactory returns an empty store with the given idle timeout
type storeFactory func(t *testing.T, timeout time.Duration) SessionStore

// testSessionStore runs the behaviour every SessionStore must share
func testSessionStore(t *testing.T, newStore storeFactory) {
	t.Run("get or create", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)
		assert.Equal(t, 5*time.Minute, store.Timeout())

		session, created, err := store.GetOrCreate("ATUid_1", "+23276000001", t0)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.StepNew, session.Step)
		assert.Empty(t, session.History)
		assert.NotEmpty(t, session.DialogID)

		again, created, err := store.GetOrCreate("ATUid_1", "+23276999999", t0.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, session.DialogID, again.DialogID)
		assert.Equal(t, "+23276000001", again.PhoneNumber)
		assert.WithinDuration(t, t0.Add(time.Minute), again.LastActivityAt, 0)
	})

	t.Run("expiry boundary", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)

		first, _, err := store.GetOrCreate("ATUid_1", "+23276000001", t0)
		require.NoError(t, err)
		first.Step = models.StepSubMenu
		first.ServiceContext = models.ContextHealthTips
		first.History = []string{"", "2"}
		require.NoError(t, store.Save(first))

		live, created, err := store.GetOrCreate("ATUid_1", "+23276000001", t0.Add(5*time.Minute))
		require.NoError(t, err)
		assert.False(t, created, "idle for exactly the timeout is still live")
		assert.Equal(t, models.StepSubMenu, live.Step)
		assert.Equal(t, []string{"", "2"}, live.History)

		fresh, created, err := store.GetOrCreate("ATUid_1", "+23276000001", t0.Add(10*time.Minute+time.Second))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.StepNew, fresh.Step)
		assert.Equal(t, models.ContextNone, fresh.ServiceContext)
		assert.NotEqual(t, first.DialogID, fresh.DialogID)
	})

	t.Run("save keeps activity monotonic", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)

		stale, _, err := store.GetOrCreate("ATUid_1", "+23276000001", t0)
		require.NoError(t, err)
		_, _, err = store.GetOrCreate("ATUid_1", "+23276000001", t0.Add(2*time.Minute))
		require.NoError(t, err)

		stale.Step = models.StepMainMenu
		stale.History = []string{""}
		require.NoError(t, store.Save(stale))

		got, err := store.Get("ATUid_1")
		require.NoError(t, err)
		assert.Equal(t, models.StepMainMenu, got.Step)
		assert.Equal(t, []string{""}, got.History)
		assert.WithinDuration(t, t0.Add(2*time.Minute), got.LastActivityAt, 0)
	})

	t.Run("delete reports presence", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)

		_, _, err := store.GetOrCreate("a", "+1", t0)
		require.NoError(t, err)

		removed, err := store.Delete("a")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.Delete("a")
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = store.Get("a")
		assert.ErrorIs(t, err, ErrSessionNotFound)

		// the id can start a new dialog straight away
		_, created, err := store.GetOrCreate("a", "+1", t0.Add(time.Second))
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("sweep boundary", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)

		for id, at := range map[string]time.Time{
			"old":  t0,
			"edge": t0.Add(time.Minute),
			"new":  t0.Add(4 * time.Minute),
		} {
			_, _, err := store.GetOrCreate(id, "+1", at)
			require.NoError(t, err)
		}

		removed, err := store.SweepExpired(t0.Add(6*time.Minute), 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		sessions, err := store.ListAll()
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "edge", sessions[0].SessionID)
		assert.Equal(t, "new", sessions[1].SessionID)
	})

	t.Run("reads do not touch activity", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)

		_, _, err := store.GetOrCreate("a", "+1", t0)
		require.NoError(t, err)
		_, err = store.ListAll()
		require.NoError(t, err)

		got, err := store.Get("a")
		require.NoError(t, err)
		assert.WithinDuration(t, t0, got.LastActivityAt, 0)
	})

	t.Run("concurrent first requests share one dialog", func(t *testing.T) {
		store := newStore(t, 5*time.Minute)

		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
			dialogs = map[string]bool{}
			errs    []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, isNew, err := store.GetOrCreate("retransmitted", "+1", t0)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				if isNew {
					created++
				}
				dialogs[s.DialogID] = true
			}()
		}
		wg.Wait()

		require.Empty(t, errs)
		assert.Equal(t, 1, created)
		assert.Len(t, dialogs, 1)
	})

	t.Run("concurrent dialogs", func(t *testing.T) {
		store := newStore(t, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				s, _, err := store.GetOrCreate(id, "+1", t0)
				if assert.NoError(t, err) {
					s.Step = models.StepMainMenu
					assert.NoError(t, store.Save(s))
				}
			}(fmt.Sprintf("session-%d", i))
		}
		wg.Wait()

		sessions, err := store.ListAll()
		require.NoError(t, err)
		require.Len(t, sessions, 10)
		for _, s := range sessions {
			assert.Equal(t, models.StepMainMenu, s.Step)
		}
	})
}
