package types

import "testing"

// TestOperation_Valid 测试操作名校验
func TestOperation_Valid(t *testing.T) {
	for _, op := range Operations() {
		if !op.Valid() {
			t.Errorf("Operation %q should be valid", op)
		}
	}

	if Operation("reboot").Valid() {
		t.Error("unknown operation should not be valid")
	}
	if Operation("").Valid() {
		t.Error("empty operation should not be valid")
	}
}

// TestOperations_Copy 测试返回的操作列表是副本
func TestOperations_Copy(t *testing.T) {
	ops := Operations()
	ops[0] = Operation("mutated")

	if Operations()[0] == Operation("mutated") {
		t.Error("Operations() should return a copy")
	}
}

// TestIdentity_Key 测试身份唯一键
func TestIdentity_Key(t *testing.T) {
	a := Identity{Category: "client", Type: "pc", Lang: "en", Name: "Alice"}
	b := Identity{Category: "client", Type: "pc", Lang: "en", Name: "Bob"}

	if a.Key() != b.Key() {
		t.Error("identities differing only in Name should share a key")
	}

	c := Identity{Category: "client", Type: "pc", Lang: "de"}
	if a.Key() == c.Key() {
		t.Error("identities with different Lang should have distinct keys")
	}
}

// TestItem_Key 测试条目唯一键
func TestItem_Key(t *testing.T) {
	a := Item{Addr: "x.example", Node: "n", Name: "one"}
	b := Item{Addr: "x.example", Node: "n", Name: "two"}

	if a.Key() != b.Key() {
		t.Error("items differing only in Name should share a key")
	}
}

// TestMode_String 测试模式名
func TestMode_String(t *testing.T) {
	if ModeClient.String() != "client" {
		t.Errorf("ModeClient.String() = %q", ModeClient.String())
	}
	if ModeComponent.String() != "component" {
		t.Errorf("ModeComponent.String() = %q", ModeComponent.String())
	}
}
