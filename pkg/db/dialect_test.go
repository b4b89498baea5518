package db

import "testing"

func TestDialectByType(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite", " SQLite "} {
		d, err := Dialect(Config{Type: typ, Host: "localhost", Port: "5432", Name: "aquabill"})
		if err != nil {
			t.Fatalf("Dialect(%q): %v", typ, err)
		}
		if d == nil {
			t.Fatalf("Dialect(%q) returned nil dialector", typ)
		}
	}

	if _, err := Dialect(Config{Type: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
