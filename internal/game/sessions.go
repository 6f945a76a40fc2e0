package game

import "sort"

// SessionTable tracks which username is authenticated on which connection,
// keyed by the connection's remote address. It is only ever touched from the
// event loop goroutine, so it needs no locking.
type SessionTable struct {
	sessions map[string]string
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]string)}
}

// Login associates the connection with a username. It reports false if the
// connection already has a session.
func (t *SessionTable) Login(addr, username string) bool {
	if _, ok := t.sessions[addr]; ok {
		return false
	}
	t.sessions[addr] = username
	return true
}

// Logout removes the connection's session, reporting false if none existed.
func (t *SessionTable) Logout(addr string) bool {
	if _, ok := t.sessions[addr]; !ok {
		return false
	}
	delete(t.sessions, addr)
	return true
}

// Lookup returns the username authenticated on the connection, if any.
func (t *SessionTable) Lookup(addr string) (string, bool) {
	username, ok := t.sessions[addr]
	return username, ok
}

// IsUserLoggedIn reports whether the username has a session on any connection.
func (t *SessionTable) IsUserLoggedIn(username string) bool {
	for _, u := range t.sessions {
		if u == username {
			return true
		}
	}
	return false
}

// Usernames returns every logged-in username in a deterministic order.
func (t *SessionTable) Usernames() []string {
	usernames := make([]string, 0, len(t.sessions))
	for _, username := range t.sessions {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

func (t *SessionTable) Len() int {
	return len(t.sessions)
}
