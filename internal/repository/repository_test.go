// Package repository tests use testcontainers-go to spin up a
// PostgreSQL container and exercise the real schema.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"kazino-api/internal/model"
	"kazino-api/internal/pkg/db"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	return pool
}

func createUser(t *testing.T, users *UserRepository, nickname string) *model.User {
	t.Helper()
	user, err := users.UpsertByNickname(context.Background(), nickname, "token-"+nickname, 500)
	require.NoError(t, err)
	return user
}

func mintItem(t *testing.T, items *ItemRepository, userID int64, price int64) *model.Item {
	t.Helper()
	item := &model.Item{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "AK-47 Slate",
		Rarity: model.RarityMilspec,
		Price:  price,
		Status: model.StatusOwned,
		Source: model.SourceCase,
	}
	require.NoError(t, items.Create(context.Background(), item))
	return item
}

// ============================================================================
// UserRepository
// ============================================================================

func TestUserRepository_UpsertByNickname(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	user, err := users.UpsertByNickname(ctx, "alice", "tok-1", 500)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Nickname)
	assert.Equal(t, int64(500), user.Balance)
	assert.Equal(t, int64(500), user.MaxBalance)
	assert.Equal(t, "tok-1", user.Token)

	// Second login rotates the token but keeps the account state.
	again, err := users.UpsertByNickname(ctx, "alice", "tok-2", 500)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "tok-2", again.Token)
	assert.Equal(t, int64(500), again.Balance)

	// The old token no longer resolves.
	_, err = users.GetByToken(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	resolved, err := users.GetByToken(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestUserRepository_CreditAndDebit(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "bob")

	balance, err := users.CreditBalance(ctx, user.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(800), balance)

	balance, err = users.DebitBalance(ctx, user.ID, 700)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	// Overdraw is rejected and leaves the balance untouched.
	_, err = users.DebitBalance(ctx, user.ID, 101)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Balance)
	assert.Equal(t, int64(800), got.MaxBalance, "max_balance keeps the high-water mark")
}

func TestUserRepository_RecordCaseOpen(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "carol")

	balance, err := users.RecordCaseOpen(ctx, user.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance)

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CasesOpened)
	assert.Equal(t, int64(1), got.DailyCases)

	_, err = users.RecordCaseOpen(ctx, user.ID, 300)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CasesOpened, "rejected open must not count")
}

func TestUserRepository_ResetDailyIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "dave")

	_, err := users.RecordCaseOpen(ctx, user.ID, 100)
	require.NoError(t, err)

	reset, err := users.ResetDaily(ctx, user.ID, 20260831)
	require.NoError(t, err)
	assert.True(t, reset)

	reset, err = users.ResetDaily(ctx, user.ID, 20260831)
	require.NoError(t, err)
	assert.False(t, reset, "same day key must be a no-op")

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.DailyCases)
	assert.Equal(t, int64(1), got.CasesOpened, "lifetime counter survives the reset")
}

func TestUserRepository_ClaimBonus(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "erin")

	now := time.Now().Unix()
	const cooldown = int64(20 * 60)

	claimed, err := users.ClaimBonus(ctx, user.ID, 100, now, cooldown)
	require.NoError(t, err)
	assert.Equal(t, int64(600), claimed.Balance)
	assert.Equal(t, now, claimed.LastClaim)

	// Inside the window the claim is rejected without touching the row.
	_, err = users.ClaimBonus(ctx, user.ID, 100, now+cooldown-1, cooldown)
	assert.ErrorIs(t, err, ErrClaimNotReady)

	claimed, err = users.ClaimBonus(ctx, user.ID, 100, now+cooldown, cooldown)
	require.NoError(t, err)
	assert.Equal(t, int64(700), claimed.Balance)
}

func TestUserRepository_SetBestDrop(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	items := NewItemRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "frank")

	cheap := mintItem(t, items, user.ID, 100)
	pricey := mintItem(t, items, user.ID, 900)
	equal := mintItem(t, items, user.ID, 900)

	require.NoError(t, users.SetBestDrop(ctx, user.ID, cheap.ID))
	require.NoError(t, users.SetBestDrop(ctx, user.ID, pricey.ID))

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BestDropItemID)
	assert.Equal(t, pricey.ID, *got.BestDropItemID)

	// Equal price does not displace the current best.
	require.NoError(t, users.SetBestDrop(ctx, user.ID, equal.ID))
	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pricey.ID, *got.BestDropItemID)

	// Cheaper never displaces.
	require.NoError(t, users.SetBestDrop(ctx, user.ID, cheap.ID))
	got, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pricey.ID, *got.BestDropItemID)
}

func TestUserRepository_GetTopPlayers(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	items := NewItemRepository(pool)
	ctx := context.Background()

	createUser(t, users, "low")
	b := createUser(t, users, "high")
	c := createUser(t, users, "mid")

	// "high": 500 balance + 1000 owned inventory. A sold item does not
	// count toward net worth.
	mintItem(t, items, b.ID, 1000)
	sold := mintItem(t, items, b.ID, 9999)
	require.NoError(t, items.MarkStatus(ctx, b.ID, sold.ID, model.StatusSold))

	// "mid": 700 balance, no items. "low": 500 balance.
	_, err := users.CreditBalance(ctx, c.ID, 200)
	require.NoError(t, err)

	top, err := users.GetTopPlayers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, model.TopPlayer{Nickname: "high", Total: 1500}, top[0])
	assert.Equal(t, model.TopPlayer{Nickname: "mid", Total: 700}, top[1])

	top, err = users.GetTopPlayers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "low", top[2].Nickname)
	assert.Equal(t, int64(500), top[2].Total)
}

// ============================================================================
// ItemRepository
// ============================================================================

func TestItemRepository_CreateAndTransition(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	items := NewItemRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "gina")

	item := mintItem(t, items, user.ID, 150)

	owned, err := items.GetOwned(ctx, user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, owned.ID)
	assert.Equal(t, model.StatusOwned, owned.Status)

	require.NoError(t, items.MarkStatus(ctx, user.ID, item.ID, model.StatusSold))

	// The transition is one-shot: a second consume attempt loses.
	err = items.MarkStatus(ctx, user.ID, item.ID, model.StatusUpgraded)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = items.GetOwned(ctx, user.ID, item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, got.Status, "terminal rows stay queryable")
}

func TestItemRepository_MarkStatusWrongOwner(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	items := NewItemRepository(pool)
	ctx := context.Background()
	owner := createUser(t, users, "hank")
	other := createUser(t, users, "ivan")

	item := mintItem(t, items, owner.ID, 150)

	err := items.MarkStatus(ctx, other.ID, item.ID, model.StatusSold)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = items.GetOwned(ctx, owner.ID, item.ID)
	assert.NoError(t, err, "foreign user cannot consume the item")
}

func TestItemRepository_ListOwnedByIDs(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	items := NewItemRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "judy")

	a := mintItem(t, items, user.ID, 100)
	b := mintItem(t, items, user.ID, 200)
	sold := mintItem(t, items, user.ID, 300)
	require.NoError(t, items.MarkStatus(ctx, user.ID, sold.ID, model.StatusSold))

	got, err := items.ListOwnedByIDs(ctx, user.ID, []string{a.ID, b.ID, sold.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2, "sold and unknown ids are filtered out")

	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestItemRepository_ListByUser(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	items := NewItemRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "kate")

	a := mintItem(t, items, user.ID, 100)
	b := mintItem(t, items, user.ID, 200)
	require.NoError(t, items.MarkStatus(ctx, user.ID, a.ID, model.StatusFailed))

	all, err := items.ListByUser(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owned, err := items.ListByUser(ctx, user.ID, model.StatusOwned)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, b.ID, owned[0].ID)
}

// ============================================================================
// GiveawayRepository
// ============================================================================

func TestGiveawayRepository_JoinIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	users := NewUserRepository(pool)
	giveaways := NewGiveawayRepository(pool)
	ctx := context.Background()
	user := createUser(t, users, "liam")

	inserted, err := giveaways.Join(ctx, user.ID, "1767225600", 199)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = giveaways.Join(ctx, user.ID, "1767225600", 199)
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate join is a no-op")

	has, err := giveaways.HasEntry(ctx, user.ID, "1767225600")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = giveaways.HasEntry(ctx, user.ID, "1767243600")
	require.NoError(t, err)
	assert.False(t, has)

	entries, err := giveaways.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1767225600", entries[0].GiveawayID)
	assert.Equal(t, int64(199), entries[0].Entry)
}
