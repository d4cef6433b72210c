// Ledger integration tests run the case-open and upgrade flows end to
// end against a real PostgreSQL schema via testcontainers-go.
package service

import (
	"context"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"kazino-api/internal/catalog"
	"kazino-api/internal/drop"
	"kazino-api/internal/feed"
	"kazino-api/internal/model"
	"kazino-api/internal/pkg/db"
	"kazino-api/internal/pkg/lock"
	"kazino-api/internal/repository"
	"kazino-api/internal/upgrade"
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

// The fracture case holds exactly one weapon, so its roll outcome is
// forced; the covert weapon serves as an upgrade target.
const ledgerCatalog = `CASE: Fracture = 100
CASE: Chroma 2 = 250
WEAPON: AK-47 Slate|0|milspec|150|Fracture
WEAPON: AWP Dragon Lore|0|covert|2000|Chroma 2
`

func newLedgerStore(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.env")
	require.NoError(t, os.WriteFile(path, []byte(ledgerCatalog), 0o644))
	return catalog.NewStore(path)
}

func mintOwnedItem(t *testing.T, items *repository.ItemRepository, userID, price int64) *model.Item {
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

func findWeapon(t *testing.T, store *catalog.Store, name string) model.Weapon {
	t.Helper()
	snap, err := store.Snapshot()
	require.NoError(t, err)
	for _, w := range snap.Weapons {
		if w.Name == name {
			return w
		}
	}
	t.Fatalf("weapon %q not in catalog", name)
	return model.Weapon{}
}

func TestCaseServiceOpenCase(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	items := repository.NewItemRepository(pool)
	f := feed.New(feed.DefaultCapacity)
	svc := NewCaseService(pool, users, items, newLedgerStore(t), drop.NewRoller(), lock.NewUserLock(), f)

	user, err := users.UpsertByNickname(ctx, "mia", "tok-mia", 500)
	require.NoError(t, err)

	result, err := svc.OpenCase(ctx, user, "fracture")
	require.NoError(t, err)

	assert.Equal(t, int64(400), result.Balance)
	require.NotNil(t, result.Item)
	assert.Equal(t, "AK-47 Slate", result.Item.Name)
	assert.Equal(t, model.StatusOwned, result.Item.Status)
	assert.Equal(t, model.SourceCase, result.Item.Source)
	// 150 base, or 195 when the 5% stattrak roll hits.
	if result.Item.Stattrak {
		assert.Equal(t, int64(195), result.Item.Price)
	} else {
		assert.Equal(t, int64(150), result.Item.Price)
	}

	fresh, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), fresh.Balance)
	assert.Equal(t, int64(1), fresh.CasesOpened)
	assert.Equal(t, int64(1), fresh.CasesWon, "a drop worth at least the case price counts as won")
	assert.Equal(t, int64(1), fresh.DailyCases)
	require.NotNil(t, fresh.BestDropItemID)
	assert.Equal(t, result.Item.ID, *fresh.BestDropItemID)

	// The drop is broadcast after the commit.
	events := f.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "mia", events[0].Nickname)
	assert.Equal(t, result.Item.Name, events[0].Weapon)
}

func TestCaseServiceOpenCaseInsufficientFunds(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	items := repository.NewItemRepository(pool)
	f := feed.New(feed.DefaultCapacity)
	svc := NewCaseService(pool, users, items, newLedgerStore(t), drop.NewRoller(), lock.NewUserLock(), f)

	user, err := users.UpsertByNickname(ctx, "lou", "tok-lou", 50)
	require.NoError(t, err)

	_, err = svc.OpenCase(ctx, user, "fracture")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	fresh, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), fresh.Balance, "rejected open must not debit")
	assert.Equal(t, int64(0), fresh.CasesOpened)

	owned, err := items.ListByUser(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Empty(t, owned, "rejected open must not mint")
	assert.Empty(t, f.Snapshot(), "rejected open must not broadcast")
}

func TestUpgradeServiceCommitWin(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	items := repository.NewItemRepository(pool)
	store := newLedgerStore(t)
	f := feed.New(feed.DefaultCapacity)

	// rand.NewSource(1)'s first draw is ~0.60, below 0.75: chance 75 wins.
	engine := upgrade.NewEngineWithSource(rand.NewSource(1))
	roller := drop.NewRollerWithSource(rand.NewSource(1), model.Rarities)
	svc := NewUpgradeService(pool, users, items, store, engine, roller, lock.NewUserLock(), f)

	user, err := users.UpsertByNickname(ctx, "noah", "tok-noah", 500)
	require.NoError(t, err)
	a := mintOwnedItem(t, items, user.ID, 60)
	b := mintOwnedItem(t, items, user.ID, 40)
	target := findWeapon(t, store, "AWP Dragon Lore")

	result, err := svc.Commit(ctx, user, []string{a.ID, b.ID}, 75, target.ID)
	require.NoError(t, err)
	require.True(t, result.Won)

	fresh, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Upgrades, "one commit, one attempt")
	assert.Equal(t, int64(1), fresh.UpgradeWins)
	assert.LessOrEqual(t, fresh.UpgradeWins, fresh.Upgrades)
	assert.Equal(t, int64(500), fresh.Balance, "a win pays in items, not balance")

	for _, id := range []string{a.ID, b.ID} {
		staked, err := items.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusUpgraded, staked.Status)
	}

	require.NotNil(t, result.Item)
	assert.Equal(t, "AWP Dragon Lore", result.Item.Name)
	assert.Equal(t, model.StatusOwned, result.Item.Status)
	assert.Equal(t, model.SourceUpgrade, result.Item.Source)
	if result.Item.Stattrak {
		assert.Equal(t, int64(2600), result.Item.Price)
	} else {
		assert.Equal(t, int64(2000), result.Item.Price)
	}
	require.NotNil(t, fresh.BestUpgradeItemID)
	assert.Equal(t, result.Item.ID, *fresh.BestUpgradeItemID)

	events := f.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "noah", events[0].Nickname)
}

func TestUpgradeServiceCommitLoss(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	items := repository.NewItemRepository(pool)
	store := newLedgerStore(t)
	f := feed.New(feed.DefaultCapacity)

	// rand.NewSource(1)'s first draw is ~0.60, above 0.15: chance 15 loses.
	engine := upgrade.NewEngineWithSource(rand.NewSource(1))
	roller := drop.NewRollerWithSource(rand.NewSource(1), model.Rarities)
	svc := NewUpgradeService(pool, users, items, store, engine, roller, lock.NewUserLock(), f)

	user, err := users.UpsertByNickname(ctx, "ada", "tok-ada", 500)
	require.NoError(t, err)
	a := mintOwnedItem(t, items, user.ID, 60)
	b := mintOwnedItem(t, items, user.ID, 40)
	target := findWeapon(t, store, "AWP Dragon Lore")

	result, err := svc.Commit(ctx, user, []string{a.ID, b.ID}, 15, target.ID)
	require.NoError(t, err)
	require.False(t, result.Won)
	assert.Nil(t, result.Item)
	assert.Equal(t, int64(5), result.Consolation, "round(100 * 0.05)")
	assert.Equal(t, int64(505), result.Balance)

	fresh, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Upgrades, "a lost commit still counts one attempt")
	assert.Equal(t, int64(0), fresh.UpgradeWins)
	assert.Equal(t, int64(505), fresh.Balance)
	assert.Equal(t, int64(505), fresh.MaxBalance)
	assert.Nil(t, fresh.BestUpgradeItemID)

	for _, id := range []string{a.ID, b.ID} {
		staked, err := items.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, staked.Status)
	}

	assert.Empty(t, f.Snapshot(), "losses are not broadcast")

	// A rejected commit never counts an attempt.
	_, err = svc.Commit(ctx, user, nil, 50, target.ID)
	assert.ErrorIs(t, err, ErrNoItemsSelected)
	_, err = svc.Commit(ctx, user, []string{a.ID}, 40, target.ID)
	assert.ErrorIs(t, err, ErrInvalidChance)

	fresh, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Upgrades)
}
