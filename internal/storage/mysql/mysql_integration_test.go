//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"rentals/internal/app"
	"rentals/internal/domain"
	mysqlrepo "rentals/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=rentals",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/rentals?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func feed() []domain.Row {
	return []domain.Row{
		{"user_id": "u1", "user_email": "A@x.com", "user_role": "PropertyOwner"},
		{"user_id": "u1", "prop_id": "p1", "prop_owner_user_id": "u1", "prop_price": "$100", "prop_max_guests": "2",
			"prop_amenities": "wifi, pool", "photo_id": "ph1", "photo_prop_id": "p1", "photo_url": "http://img/1"},
		{"user_id": "u2", "user_email": "b@x.com", "user_role": "Guest",
			"res_id": "r1", "res_guest_user_id": "u2", "res_prop_id": "p1",
			"res_check_in": "2024-01-01", "res_check_out": "2024-01-03", "res_total_price": "200",
			"pay_id": "pay1", "pay_res_id": "r1", "pay_amount": "200", "pay_transaction_fee": "2.5",
			"rev_id": "rv1", "rev_reviewer_user_id": "u2", "rev_prop_id": "p1", "rev_rating": "4.5"},
	}
}

func TestCommit_MySQL_RoundTrip(t *testing.T) {
	db := startMySQL(t)
	store := mysqlrepo.New(db)
	ctx := context.Background()
	log := zerolog.Nop()
	opts := domain.TxOptions{MaxWait: 10 * time.Second, Timeout: 30 * time.Second}

	g := app.NewReconciler(log).Reconcile(feed())
	stats, err := app.NewCommitter(store, opts, nil, log).Commit(ctx, g)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Inserted[app.StepUsers])
	require.EqualValues(t, 1, stats.Inserted[app.StepPayments])

	owner, err := store.Owners().FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, owner)

	p, err := store.Properties().FindByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, owner.ID, p.OwnerID)
	require.Equal(t, "100.00", p.PricePerNight.StringFixed(2))
	require.Equal(t, []string{"wifi", "pool"}, p.Amenities)

	res, err := store.Reservations().FindByPropertyID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, 2, res[0].Nights())

	// a second run over the same feed inserts nothing
	again, err := app.NewCommitter(store, opts, nil, log).Commit(ctx, app.NewReconciler(log).Reconcile(feed()))
	require.NoError(t, err)
	for step, n := range again.Inserted {
		require.Zerof(t, n, "step %s", step)
	}
}

func TestRunTransaction_MySQL_RollsBack(t *testing.T) {
	db := startMySQL(t)
	store := mysqlrepo.New(db)
	ctx := context.Background()

	err := store.RunTransaction(ctx, domain.TxOptions{}, func(ctx context.Context, tx domain.Repos) error {
		if _, err := tx.Users().CreateMany(ctx, []domain.User{{UserID: "u9", Name: "N", Email: "n@x.com"}}); err != nil {
			return err
		}
		// photo for a property that does not exist
		_, err := tx.Photos().CreateMany(ctx, []domain.Photo{{PhotoID: "ph9", PropertyID: "missing", ImageURL: "x"}})
		return err
	})
	require.ErrorIs(t, err, domain.ErrConstraint)

	u, err := store.Users().FindByID(ctx, "u9")
	require.NoError(t, err)
	require.Nil(t, u)
}
