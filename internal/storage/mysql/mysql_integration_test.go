//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"foodfinder/internal/domain"
	mysqlrepo "foodfinder/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

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
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=foodfinder",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "foodfinder")

	var db *sql.DB
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

// ---------- the tests ----------
func TestRepo_MySQL_Credentials(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.InsertCredential(ctx, domain.Credential{
		Email:        "ana@example.com",
		Username:     "ana",
		PasswordHash: "$2a$10$notarealhashbutlongenoughforthecolumn",
	}); err != nil {
		t.Fatalf("InsertCredential: %v", err)
	}

	c, err := repo.FindCredential(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("FindCredential: %v", err)
	}
	if c.Username != "ana" || c.PasswordHash == "" {
		t.Fatalf("unexpected credential: %+v", c)
	}

	if _, err := repo.FindCredential(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing row must map to ErrNotFound, got %v", err)
	}

	exists, err := repo.EmailExists(ctx, "ana@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists(ana): %v %v", exists, err)
	}
	exists, err = repo.EmailExists(ctx, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists(nobody): %v %v", exists, err)
	}
}

func TestRepo_MySQL_RestaurantUpsertAndList(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	full := domain.RestaurantRecord{
		Title:            "Pho Integration",
		Price:            pstr("$$"),
		CategoryName:     "Vietnamese restaurant",
		Address:          "1 Test St, HCMC",
		Neighborhood:     "D1",
		Street:           "Test St",
		City:             "Ho Chi Minh City",
		State:            "",
		CountryCode:      "VN",
		Phone:            pstr("+84 28 0000 0000"),
		PhoneUnformatted: pstr("+842800000000"),
		Latitude:         10.77,
		Longitude:        106.70,
		PlusCode:         "QMCC+XX",
		TotalScore:       pfloat(4.5),
		ImageURL:         "https://example.com/pho.jpg",
	}
	sparse := domain.RestaurantRecord{
		Title:     "Banh Mi Integration",
		Latitude:  10.80,
		Longitude: 106.68,
	}

	if err := repo.UpsertRestaurant(ctx, full); err != nil {
		t.Fatalf("UpsertRestaurant(full): %v", err)
	}
	if err := repo.UpsertRestaurant(ctx, sparse); err != nil {
		t.Fatalf("UpsertRestaurant(sparse): %v", err)
	}

	// same title updates in place
	full.TotalScore = pfloat(4.7)
	if err := repo.UpsertRestaurant(ctx, full); err != nil {
		t.Fatalf("UpsertRestaurant(again): %v", err)
	}

	recs, err := repo.ListRestaurants(ctx)
	if err != nil {
		t.Fatalf("ListRestaurants: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recs))
	}

	// ordered by title
	if recs[0].Title != "Banh Mi Integration" || recs[1].Title != "Pho Integration" {
		t.Fatalf("unexpected order: %q, %q", recs[0].Title, recs[1].Title)
	}

	got := recs[1]
	if got.TotalScore == nil || *got.TotalScore != 4.7 {
		t.Fatalf("upsert did not update score: %+v", got.TotalScore)
	}
	if got.Phone == nil || *got.Phone != "+84 28 0000 0000" {
		t.Fatalf("phone roundtrip: %+v", got.Phone)
	}

	bm := recs[0]
	if bm.Price != nil || bm.Phone != nil || bm.TotalScore != nil {
		t.Fatalf("NULL columns must come back as nil pointers: %+v", bm)
	}
}
