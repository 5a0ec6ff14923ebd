package db

import "testing"

func TestMigrationURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/app":   "pgx5://u:p@localhost:5432/app",
		"postgresql://localhost/app?sslmode=x": "pgx5://localhost/app?sslmode=x",
		"pgx5://localhost/app":                "pgx5://localhost/app",
	}
	for in, want := range cases {
		if got := MigrationURL(in); got != want {
			t.Fatalf("MigrationURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected up and down migrations, got %d files", len(entries))
	}
}
