package cryptofile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fernwebstudio/siteadmin/internal/admin/domain"
	"github.com/fernwebstudio/siteadmin/internal/admin/store"
	"github.com/fernwebstudio/siteadmin/pkg/cryptox"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.enc")
	return NewStore(path, cryptox.NewCipher("store-test-secret")), path
}

func TestListMissingFile(t *testing.T) {
	s, _ := newTestStore(t)

	users, err := s.Users().List(context.Background())
	require.NoError(t, err)
	require.Empty(t, users)
	require.NoError(t, s.Ping(context.Background()))
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.Users().Create(ctx, domain.User{Username: "alice", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, 1, a.ID)

	b, err := s.Users().Create(ctx, domain.User{Username: "bob", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, 2, b.ID)

	require.NoError(t, s.Users().Delete(ctx, 1))

	// Ids never go backwards below max+1 of what remains.
	c, err := s.Users().Create(ctx, domain.User{Username: "carol", Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, 3, c.ID)
}

func TestCreateDuplicateUsername(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, domain.User{Username: "alice"})
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, domain.User{Username: "alice"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestWritesAreEncrypted(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, domain.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	require.True(t, cryptox.IsEncrypted(content))
	require.NotContains(t, content, "alice")
	require.Contains(t, content, ":")
	require.False(t, strings.HasPrefix(strings.TrimSpace(content), "["))
}

func TestLegacyPlaintextRead(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	legacy := `[{"id":7,"username":"jdoe","password":"hash","role":"admin","name":"Jane Doe","email":"jane@x.com"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0600))

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 7, users[0].ID)
	require.Equal(t, "jdoe", users[0].Username)
}

func TestLegacyStoreUpgradedOnFirstWrite(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	legacy := `[{"id":1,"username":"jdoe","password":"hash","role":"admin","name":"Jane","email":"j@x.com"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0600))

	_, err := s.Users().Create(ctx, domain.User{Username: "second"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, cryptox.IsEncrypted(string(raw)))

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestCorruptStoreIsFatal(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	// Valid cipher format, garbage contents.
	blob, err := cryptox.NewCipher("some-other-secret").Encrypt(`[{"id":1}]`)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(blob), 0600))

	_, err = s.Users().List(ctx)
	require.ErrorIs(t, err, store.ErrCorrupt)
	require.Error(t, s.Ping(ctx))

	// Mutations must not proceed against an unreadable store.
	_, err = s.Users().Create(ctx, domain.User{Username: "x"})
	require.ErrorIs(t, err, store.ErrCorrupt)
}

func TestUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	alice, err := s.Users().Create(ctx, domain.User{Username: "alice", Name: "Alice"})
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, domain.User{Username: "bob"})
	require.NoError(t, err)

	alice.Name = "Alice B."
	require.NoError(t, s.Users().Update(ctx, alice))

	got, err := s.Users().GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice B.", got.Name)

	// Renaming onto another record's username is a conflict.
	alice.Username = "bob"
	require.ErrorIs(t, s.Users().Update(ctx, alice), store.ErrAlreadyExists)

	// Updating a deleted record reports not found.
	require.NoError(t, s.Users().Delete(ctx, alice.ID))
	require.ErrorIs(t, s.Users().Update(ctx, alice), store.ErrNotFound)
}

func TestUpdateMissingIDWithTakenUsername(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, domain.User{Username: "bob"})
	require.NoError(t, err)

	// Not-found wins when the target id is gone, even though the requested
	// username belongs to another record.
	err = s.Users().Update(ctx, domain.User{ID: 42, Username: "bob"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	s, _ := newTestStore(t)
	require.ErrorIs(t, s.Users().Delete(context.Background(), 99), store.ErrNotFound)
}

func TestConcurrentCreates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Users().Create(ctx, domain.User{
				Username: "user-" + string(rune('a'+i)),
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, n, "no append may be lost")

	seenIDs := make(map[int]struct{}, n)
	seenNames := make(map[string]struct{}, n)
	for _, u := range users {
		_, dup := seenIDs[u.ID]
		require.False(t, dup, "duplicate id %d", u.ID)
		seenIDs[u.ID] = struct{}{}

		_, dup = seenNames[u.Username]
		require.False(t, dup, "duplicate username %q", u.Username)
		seenNames[u.Username] = struct{}{}
	}
}

func TestRoundTripThroughBlob(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	want, err := s.Users().Create(ctx, domain.User{
		Username: "jdoe",
		Password: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:     domain.RoleSuperadmin,
		Name:     "Jane Doe",
		Email:    "jane@x.com",
	})
	require.NoError(t, err)

	// A fresh store over the same file must read back identical records.
	reopened := NewStore(path, cryptox.NewCipher("store-test-secret"))
	got, err := reopened.Users().GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.Equal(t, want, got)
}
