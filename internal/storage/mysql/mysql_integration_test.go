//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_listings/internal/domain"
	mysqlrepo "hotel_listings/internal/storage/mysql"
)

// migrationsDir honours MIGRATIONS_DIR and falls back to the repo's migrations/.
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

	ents, err := os.ReadDir(dir)
	require.NoError(t, err, "read migrations dir %s", dir)

	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	require.NotEmpty(t, files, "no .sql files in %s", dir)
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = db.Exec(string(sqlBytes))
		require.NoError(t, err, "exec %s", f)
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotels",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hotels?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	require.NoError(t, pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepo_MySQL_SaveLoadFindAll(t *testing.T) {
	db := startMySQL(t)
	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	h := domain.Hotel{
		HotelID:   "SVE349",
		Slug:      "sunshine-inn",
		Title:     "Sunshine Inn",
		Amenities: []string{"WiFi", "Pool"},
		Latitude:  25.7617,
		Longitude: -80.1918,
		Rooms: []domain.Room{
			{HotelSlug: "sunshine-inn", RoomSlug: "deluxe-suite", RoomTitle: "Deluxe Suite", BedroomCount: 1},
		},
	}
	require.NoError(t, repo.Save(ctx, h))

	got, err := repo.Load(ctx, "SVE349")
	require.NoError(t, err)
	assert.Equal(t, "Sunshine Inn", got.Title)
	assert.Equal(t, []string{}, got.Images)
	assert.Equal(t, "deluxe-suite", got.Rooms[0].RoomSlug)

	// upsert overwrites
	h.Title = "Sunshine Inn & Spa"
	h.Slug = "sunshine-inn-spa"
	require.NoError(t, repo.Save(ctx, h))
	got, err = repo.Load(ctx, "SVE349")
	require.NoError(t, err)
	assert.Equal(t, "sunshine-inn-spa", got.Slug)

	ok, err := repo.Exists(ctx, "SVE349")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Load(ctx, "NOP000")
	assert.ErrorIs(t, err, domain.ErrHotelNotFound)

	require.NoError(t, repo.Save(ctx, domain.Hotel{HotelID: "ABC123", Slug: "a", Title: "A"}))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ABC123", all[0].HotelID)
}

func TestRepo_MySQL_LongSlug(t *testing.T) {
	db := startMySQL(t)
	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	title := strings.Repeat("Grand Seaside Palace ", 40)
	slug := strings.TrimSuffix(strings.Repeat("grand-seaside-palace-", 40), "-")
	require.Greater(t, len(slug), 255)

	require.NoError(t, repo.Save(ctx, domain.Hotel{HotelID: "LNG001", Slug: slug, Title: title}))
	got, err := repo.Load(ctx, "LNG001")
	require.NoError(t, err)
	assert.Equal(t, slug, got.Slug)

	var stored string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT slug FROM hotels WHERE hotel_id = ?", "LNG001").Scan(&stored))
	assert.Equal(t, slug, stored)
}
