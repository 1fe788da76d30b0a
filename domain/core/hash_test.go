package core

import (
	"testing"
)

// TestNewHashStable tests that hashing is stable and hex-encoded
func TestNewHashStable(t *testing.T) {
	a := NewTextHash("hello")
	b := NewTextHash("hello")
	if a != b {
		t.Errorf("Expected identical hashes for identical input, got %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if a == NewTextHash("hello ") {
		t.Error("Expected different hashes for different input")
	}
}

// TestHashShort8 tests identifier suffix extraction
func TestHashShort8(t *testing.T) {
	h := NewTextHash("x")
	if len(h.Short8()) != 8 {
		t.Errorf("Expected 8 chars, got %q", h.Short8())
	}
	short := Hash("abc")
	if short.Short8() != "abc" {
		t.Errorf("Expected short hash returned whole, got %q", short.Short8())
	}
}

// TestCanonicalJSONSortsKeys tests map key ordering independence
func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := CanonicalJSON(map[string]interface{}{"b": 2, "a": 1, "c": []int{3, 1}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := `{"a":1,"b":2,"c":[3,1]}`
	if string(a) != expected {
		t.Errorf("Expected %s, got %s", expected, a)
	}
}

// TestCanonicalJSONStructVsMap tests that field order in structs does not leak
func TestCanonicalJSONStructVsMap(t *testing.T) {
	type pair struct {
		Z string `json:"z"`
		A string `json:"a"`
	}
	got, err := CanonicalJSON(pair{Z: "last", A: "first"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := `{"a":"first","z":"last"}`
	if string(got) != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

// TestCanonicalJSONNumbers tests numbers survive without float mangling
func TestCanonicalJSONNumbers(t *testing.T) {
	got, err := CanonicalJSON(map[string]interface{}{"seed": int64(42), "score": 0.65})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := `{"score":0.65,"seed":42}`
	if string(got) != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

// TestInputsDigestStable tests the run input fingerprint
func TestInputsDigestStable(t *testing.T) {
	a, err := InputsDigest("generic_local", 42, 3, "packdigest", "v1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, _ := InputsDigest("generic_local", 42, 3, "packdigest", "v1")
	if a != b {
		t.Error("Expected identical digests for identical inputs")
	}
	c, _ := InputsDigest("generic_local", 43, 3, "packdigest", "v1")
	if a == c {
		t.Error("Expected different digests when seed changes")
	}
}
