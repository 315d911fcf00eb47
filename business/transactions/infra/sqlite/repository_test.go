package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/whitelist-sync/business/transactions/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func pendingTx(hash string, at time.Time) domain.Transaction {
	return domain.Transaction{
		Hash:        common.HexToHash(hash),
		Address:     common.HexToAddress("0x123"),
		Status:      domain.StatusPending,
		SubmittedAt: at,
		UpdatedAt:   at,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestInsert_IsIdempotent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	tx := pendingTx("0xabc", time.Unix(1700000000, 0))

	created, err := repo.Insert(ctx, tx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Insert(ctx, tx)
	require.NoError(t, err)
	assert.False(t, created)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, tx.Hash, all[0].Hash)
	assert.Equal(t, tx.Address, all[0].Address)
	assert.Equal(t, domain.StatusPending, all[0].Status)
}

func TestUpdate_MovesOutOfPending(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	first := pendingTx("0x01", base)
	second := pendingTx("0x02", base.Add(time.Minute))
	for _, tx := range []domain.Transaction{first, second} {
		_, err := repo.Insert(ctx, tx)
		require.NoError(t, err)
	}

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.Hash, pending[0].Hash, "oldest first")

	first.Status = domain.StatusAccepted
	first.BlockNumber = 99
	first.UpdatedAt = base.Add(2 * time.Minute)
	require.NoError(t, repo.Update(ctx, first))

	pending, err = repo.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.Hash, pending[0].Hash)

	got, err := repo.Get(ctx, first.Hash)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, got.Status)
	assert.Equal(t, uint64(99), got.BlockNumber)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.Hash, all[0].Hash, "newest first")
}

func TestGetAndUpdate_NotFound(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, common.HexToHash("0xdead"))
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))

	err = repo.Update(ctx, pendingTx("0xdead", time.Now()))
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestReopen_KeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, pendingTx("0xabc", time.Unix(1700000000, 0)))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
