package auth

import (
	"path/filepath"
	"testing"
)

func TestEmptyAllowlistIsOpen(t *testing.T) {
	svc, err := New(nil, nil, 0)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !svc.IsAllowed(42) {
		t.Fatal("an empty allowlist must allow everyone")
	}
}

func TestGrantAndRevoke(t *testing.T) {
	svc, err := New(nil, []int64{10}, 99)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAllowed(10) {
		t.Fatal("initial id not allowed")
	}
	if svc.IsAllowed(20) {
		t.Fatal("unlisted id allowed")
	}
	if !svc.IsAllowed(99) || !svc.IsAdmin(99) {
		t.Fatal("admin must always be allowed")
	}
	if svc.IsAdmin(10) {
		t.Fatal("candidate treated as admin")
	}

	if err := svc.Grant(Candidate{ID: 20, Username: "bob"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !svc.IsAllowed(20) {
		t.Fatal("granted id not allowed")
	}

	if err := svc.Revoke(20); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if svc.IsAllowed(20) {
		t.Fatal("revoked id still allowed")
	}
}

func TestFileRepositoryRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}

	if err := repo.Upsert(Candidate{ID: 1, Username: "alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(Candidate{ID: 2, Username: "bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// repeat grant refreshes the profile
	if err := repo.Upsert(Candidate{ID: 1, Username: "alice", FirstName: "Alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	cs, err := repo.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cs) != 2 {
		t.Fatalf("got %d candidates", len(cs))
	}

	if err := repo.Remove(2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cs, err = repo.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cs) != 1 || cs[0].FirstName != "Alice" {
		t.Fatalf("candidates: %+v", cs)
	}
}

func TestServicePreloadsRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	if err := repo.Upsert(Candidate{ID: 7, Username: "carol"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	svc, err := New(repo, []int64{8}, 0)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !svc.IsAllowed(7) || !svc.IsAllowed(8) {
		t.Fatal("preload or env merge failed")
	}
	if len(svc.Candidates()) != 2 {
		t.Fatalf("candidates: %+v", svc.Candidates())
	}
}
