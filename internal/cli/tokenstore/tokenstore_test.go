package tokenstore

import (
	"sync"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemory()

	if _, ok := store.Read("a.example.com"); ok {
		t.Error("empty store should report no token")
	}

	if err := store.Save("a.example.com", "token-1"); err != nil {
		t.Fatal(err)
	}
	token, ok := store.Read("a.example.com")
	if !ok || token != "token-1" {
		t.Errorf("got %q (ok=%t), want token-1", token, ok)
	}

	// Save overwrites
	if err := store.Save("a.example.com", "token-2"); err != nil {
		t.Fatal(err)
	}
	if token, _ := store.Read("a.example.com"); token != "token-2" {
		t.Errorf("got %q, want token-2", token)
	}

	// Tokens are per server
	if _, ok := store.Read("b.example.com"); ok {
		t.Error("token leaked across servers")
	}
}

func TestMemoryClearIsIdempotent(t *testing.T) {
	store := NewMemory()
	if err := store.Save("a.example.com", "token-1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Clear("a.example.com"); err != nil {
			t.Fatalf("clear #%d returned error: %v", i+1, err)
		}
	}
	if _, ok := store.Read("a.example.com"); ok {
		t.Error("token still present after clear")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	// Readers race the session's forced-logout clear; run with -race
	store := NewMemory()
	if err := store.Save("a.example.com", "token-1"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Read("a.example.com")
		}()
		go func() {
			defer wg.Done()
			_ = store.Clear("a.example.com")
		}()
	}
	wg.Wait()

	if _, ok := store.Read("a.example.com"); ok {
		t.Error("token should be cleared")
	}
}

func TestKeyringKeyPerServer(t *testing.T) {
	a := getKeyringKey("a.example.com")
	b := getKeyringKey("b.example.com")
	if a == b {
		t.Errorf("keys must differ per server, both %q", a)
	}
	if a != "jwt-a.example.com" {
		t.Errorf("unexpected key format: %q", a)
	}
}
