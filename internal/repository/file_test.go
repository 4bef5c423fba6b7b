package repository

import (
	"strings"
	"testing"
)

// --- Тесты buildSearchWhere ---

// TestBuildSearchWhere_OwnerOnly проверяет, что условие по владельцу есть всегда.
func TestBuildSearchWhere_OwnerOnly(t *testing.T) {
	where, args := buildSearchWhere("owner-1", SearchParams{})

	if !strings.Contains(where, "created_by = $1") {
		t.Errorf("where = %q, ожидалось содержание 'created_by = $1'", where)
	}
	if len(args) != 1 {
		t.Errorf("args count = %d, ожидался 1", len(args))
	}
	if args[0] != "owner-1" {
		t.Errorf("args[0] = %v, ожидался 'owner-1'", args[0])
	}
}

// TestBuildSearchWhere_Path проверяет точный фильтр по директории.
func TestBuildSearchWhere_Path(t *testing.T) {
	where, args := buildSearchWhere("owner-1", SearchParams{Path: "/data/user1"})

	if !strings.Contains(where, "path = $2") {
		t.Errorf("where = %q, ожидался path = $2", where)
	}
	if len(args) != 2 {
		t.Errorf("args count = %d, ожидался 2", len(args))
	}
	if args[1] != "/data/user1" {
		t.Errorf("args[1] = %v, ожидался '/data/user1'", args[1])
	}
}

// TestBuildSearchWhere_Extension проверяет ILIKE-фильтр по расширению.
func TestBuildSearchWhere_Extension(t *testing.T) {
	where, args := buildSearchWhere("owner-1", SearchParams{Extension: "txt"})

	if !strings.Contains(where, "name ILIKE $2") {
		t.Errorf("where = %q, ожидался name ILIKE $2", where)
	}
	// Подстрока должна быть обёрнута в %...%
	if args[1] != "%txt%" {
		t.Errorf("args[1] = %v, ожидался '%%txt%%'", args[1])
	}
}

// TestBuildSearchWhere_AllFilters проверяет комбинацию фильтров.
func TestBuildSearchWhere_AllFilters(t *testing.T) {
	where, args := buildSearchWhere("owner-1", SearchParams{
		Path:      "/data",
		Extension: "csv",
	})

	if strings.Count(where, "AND") != 2 {
		t.Errorf("where = %q, ожидалось 2 AND", where)
	}
	if len(args) != 3 {
		t.Errorf("args count = %d, ожидался 3", len(args))
	}
}

// --- Тесты buildOrderBy ---

// TestBuildOrderBy_Whitelist проверяет все допустимые поля сортировки.
func TestBuildOrderBy_Whitelist(t *testing.T) {
	fields := []string{"id", "name", "path", "created_at", "is_downloadable", "size"}
	for _, f := range fields {
		orderBy := buildOrderBy(f)
		if orderBy != "ORDER BY "+f {
			t.Errorf("buildOrderBy(%q) = %q, ожидался 'ORDER BY %s'", f, orderBy, f)
		}
	}
}

// TestBuildOrderBy_Injection проверяет безопасность whitelist.
func TestBuildOrderBy_Injection(t *testing.T) {
	// SQL-инъекция через поле сортировки — должен быть fallback на name
	orderBy := buildOrderBy("'; DROP TABLE files; --")
	if orderBy != "ORDER BY name" {
		t.Errorf("orderBy = %q, ожидался fallback на 'ORDER BY name'", orderBy)
	}
}

// TestValidOrderBy_Invalid проверяет отбраковку чужих полей.
func TestValidOrderBy_Invalid(t *testing.T) {
	for _, f := range []string{"", "created_by", "psw_hash", "name; --"} {
		if ValidOrderBy(f) {
			t.Errorf("ValidOrderBy(%q) = true, ожидался false", f)
		}
	}
}
