package db

import (
	"context"
	"testing"
	"time"

	"github.com/santiyeai/sitechief/internal/config"
)

func TestMigrateURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "postgres://u:p@h:5432/db?sslmode=disable", want: "pgx5://u:p@h:5432/db?sslmode=disable"},
		{in: "postgresql://u@h/db", want: "pgx5://u@h/db"},
		{in: "pgx5://already", want: "pgx5://already"},
	}
	for _, tc := range cases {
		if got := migrateURL(tc.in); got != tc.want {
			t.Fatalf("migrateURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseUUIDRoundTrip(t *testing.T) {
	t.Parallel()

	id, err := ParseUUID(" 3f1c0d9e-8a51-4c1e-9d55-2f8a7f1b6c01 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := UUIDString(id); got != "3f1c0d9e-8a51-4c1e-9d55-2f8a7f1b6c01" {
		t.Fatalf("unexpected uuid string: %s", got)
	}
	if _, err := ParseUUID("not-a-uuid"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTextValueBlankIsNull(t *testing.T) {
	t.Parallel()

	if TextValue("  ").Valid {
		t.Fatalf("expected NULL text for blank input")
	}
	if v := TextValue(" x "); !v.Valid || v.String != "x" {
		t.Fatalf("unexpected text value: %+v", v)
	}
}

func unreachablePostgres() config.PostgresConfig {
	return config.PostgresConfig{Host: "127.0.0.1", Port: 1, User: "postgres", Database: "sitechief", SSLMode: "disable"}
}

func TestConnectToleratesUnreachableDatabase(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Connect(ctx, nil, unreachablePostgres())
	if err != nil {
		t.Fatalf("connect should not fail when the database is down: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err == nil {
		t.Fatalf("expected ping to fail against a closed port")
	}
}

func TestOpenRequiresReachableDatabase(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if pool, err := Open(ctx, unreachablePostgres()); err == nil {
		pool.Close()
		t.Fatalf("expected open to fail against a closed port")
	}
}
