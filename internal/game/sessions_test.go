package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSessionTableLoginLogout(t *testing.T) {
	table := NewSessionTable()

	if !table.Login("10.0.0.1:1000", "alice") {
		t.Fatal("Login() on a fresh connection = false")
	}
	if table.Login("10.0.0.1:1000", "bob") {
		t.Error("Login() on a connection with a session = true")
	}

	username, ok := table.Lookup("10.0.0.1:1000")
	if !ok || username != "alice" {
		t.Errorf("Lookup() = (%q, %v), want (\"alice\", true)", username, ok)
	}

	if !table.Logout("10.0.0.1:1000") {
		t.Error("Logout() on a connection with a session = false")
	}
	if table.Logout("10.0.0.1:1000") {
		t.Error("Logout() on a connection without a session = true")
	}
	if _, ok := table.Lookup("10.0.0.1:1000"); ok {
		t.Error("Lookup() found a session after logout")
	}
}

func TestSessionTableIsUserLoggedIn(t *testing.T) {
	table := NewSessionTable()
	table.Login("10.0.0.1:1000", "alice")

	if !table.IsUserLoggedIn("alice") {
		t.Error("IsUserLoggedIn(alice) = false")
	}
	if table.IsUserLoggedIn("bob") {
		t.Error("IsUserLoggedIn(bob) = true")
	}
}

func TestSessionTableUsernames(t *testing.T) {
	table := NewSessionTable()
	table.Login("10.0.0.1:1000", "carol")
	table.Login("10.0.0.2:1000", "alice")
	table.Login("10.0.0.3:1000", "bob")

	// Usernames are sorted so the LOGGED reply is deterministic.
	want := []string{"alice", "bob", "carol"}
	if diff := cmp.Diff(want, table.Usernames()); diff != "" {
		t.Errorf("Usernames() mismatch; diff:\n%s", diff)
	}

	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
}
