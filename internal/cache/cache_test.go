package cache

import (
	"strings"
	"testing"
)

// TestListKey проверяет формат ключа списка файлов.
func TestListKey(t *testing.T) {
	key := ListKey("owner-1")
	if key != "files_owner-1" {
		t.Errorf("ListKey = %q, ожидался 'files_owner-1'", key)
	}
}

// TestSearchKey_Deterministic проверяет детерминированность поискового ключа.
func TestSearchKey_Deterministic(t *testing.T) {
	a := SearchKey("owner-1", "/data", "txt", "name", 100)
	b := SearchKey("owner-1", "/data", "txt", "name", 100)
	if a != b {
		t.Errorf("одинаковые параметры дали разные ключи: %q != %q", a, b)
	}

	c := SearchKey("owner-1", "/data", "csv", "name", 100)
	if a == c {
		t.Errorf("разные параметры дали один ключ: %q", a)
	}
}

// TestSearchKey_Format проверяет состав поискового ключа.
func TestSearchKey_Format(t *testing.T) {
	key := SearchKey("owner-1", "/data", "txt", "size", 50)
	want := "search-user:owner-1-path:/data-ext:txt-ord:size-limit:50"
	if key != want {
		t.Errorf("SearchKey = %q, ожидался %q", key, want)
	}
}

// TestSearchPattern_MatchesOwnerKeysOnly проверяет область действия шаблона.
func TestSearchPattern_MatchesOwnerKeysOnly(t *testing.T) {
	pattern := SearchPattern("owner-1")
	if pattern != "search-user:owner-1*" {
		t.Errorf("SearchPattern = %q, ожидался 'search-user:owner-1*'", pattern)
	}

	// Ключи владельца попадают под префикс шаблона, ключ списка и чужие — нет
	prefix := strings.TrimSuffix(pattern, "*")
	if !strings.HasPrefix(SearchKey("owner-1", "", "", "name", 100), prefix) {
		t.Error("поисковый ключ владельца не попадает под шаблон инвалидации")
	}
	if strings.HasPrefix(ListKey("owner-1"), prefix) {
		t.Error("ключ списка не должен попадать под поисковый шаблон")
	}
	if strings.HasPrefix(SearchKey("owner-2", "", "", "name", 100), prefix) {
		t.Error("шаблон инвалидации затрагивает чужого владельца")
	}
}

// TestPingKey_ServicePrefix проверяет, что ключ пробы Ping несёт
// префикс сервиса и не пересекается с пространствами ключей кэша.
func TestPingKey_ServicePrefix(t *testing.T) {
	if !strings.HasPrefix(pingKey, "storageapp:") {
		t.Errorf("pingKey = %q, ожидался префикс 'storageapp:'", pingKey)
	}
	if strings.HasPrefix(pingKey, "files_") || strings.HasPrefix(pingKey, "search-user:") {
		t.Errorf("pingKey = %q пересекается с пространством ключей кэша", pingKey)
	}
}
