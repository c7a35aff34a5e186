package graphsvc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/followgraph/internal/svc/graphsvc"
)

const testSeed = `
users:
  - name: Alice
    follows: [Bob, Carol, Bob]
  - name: Bob
    follows: [Alice, Carol, Dave]
  - name: Carol
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestGraphService_Seed(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, 2, "Carol")
	ctx := context.Background()

	stats, err := svc.Seed(ctx, writeSeed(t, testSeed))
	require.NoError(t, err)
	assert.Equal(t, graphsvc.SeedStats{
		UsersCreated:    2,
		FollowsApplied:  4,
		FollowsRejected: 2,
	}, stats)

	alice, err := svc.GetUser(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Carol"}, alice.Followees())

	bob, err := svc.GetUser(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Carol"}, bob.Followees())
	assert.True(t, alice.IsFriendOf(bob))

	names, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol", "Alice", "Bob"}, names)
}

func TestGraphService_SeedErrors(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t, 10)
	ctx := context.Background()

	_, err := svc.Seed(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = svc.Seed(ctx, writeSeed(t, "users: [unterminated"))
	assert.Error(t, err)

	mockRepo.err = ErrRepoError
	_, err = svc.Seed(ctx, writeSeed(t, testSeed))
	assert.ErrorIs(t, err, ErrRepoError)
}

func TestParseSeedFile(t *testing.T) {
	t.Parallel()

	seed, err := graphsvc.ParseSeedFile(writeSeed(t, testSeed))
	require.NoError(t, err)

	require.Len(t, seed.Users, 3)
	assert.Equal(t, "Alice", seed.Users[0].Name)
	assert.Equal(t, []string{"Bob", "Carol", "Bob"}, seed.Users[0].Follows)
	assert.Empty(t, seed.Users[2].Follows)
}
