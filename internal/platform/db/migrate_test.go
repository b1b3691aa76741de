package db

import (
	"context"
	"os"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgxpool"

	"paystub/migrations"
)

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":    {Data: []byte("SELECT 2")},
		"001_a.sql":    {Data: []byte("SELECT 1")},
		"README.md":    {Data: []byte("docs")},
		"nested/x.sql": {Data: []byte("SELECT 3")},
	}
	files, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("migration files: %v", err)
	}
	if len(files) != 2 || files[0].version != "001_a" || files[1].version != "002_b" {
		t.Fatalf("unexpected files: %v", files)
	}
	if files[0].sql != "SELECT 1" || files[0].checksum == files[1].checksum || len(files[0].checksum) != 64 {
		t.Fatalf("unexpected migration content: %+v", files[0])
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := loadMigrations(migrations.FS)
	if err != nil {
		t.Fatalf("migration files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, pool, migrations.FS); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM payment_tokens").Scan(&n); err != nil {
		t.Fatalf("payment_tokens missing: %v", err)
	}
}
