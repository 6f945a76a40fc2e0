package game

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core/data"
)

func setUpHighscoreDatabase(t *testing.T, scores map[string]int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err := db.AutoMigrate(&data.User{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}

	for username, score := range scores {
		user := &data.User{Username: username, Password: "x", Score: score}
		if err := data.CreateUser(db, user); err != nil {
			t.Fatalf("error seeding test user: %v", err)
		}
	}
	return db
}

func TestHighscoreBoardRender(t *testing.T) {
	tests := map[string]struct {
		scores map[string]int
		want   string
	}{
		"empty": {
			scores: nil,
			want:   "",
		},
		"fewer_users_than_table_size": {
			scores: map[string]int{"alice": 300, "bob": 295},
			want:   "alice: 300\nbob: 295",
		},
		"truncated_to_table_size": {
			scores: map[string]int{"alice": 300, "bob": 295, "carol": 10, "dave": 0},
			want:   "alice: 300\nbob: 295\ncarol: 10",
		},
		"ties_broken_by_username": {
			scores: map[string]int{"dave": 0, "carol": 0, "alice": 300, "bob": 295},
			want:   "alice: 300\nbob: 295\ncarol: 0",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			db := setUpHighscoreDatabase(t, tt.scores)
			board := newHighscoreBoard(3, 0)

			rendered, err := board.Render(db)
			if err != nil {
				t.Fatalf("Render() returned an error: %v", err)
			}
			if rendered != tt.want {
				t.Errorf("Render() = %q, want %q", rendered, tt.want)
			}
		})
	}
}

func TestHighscoreBoardCaching(t *testing.T) {
	db := setUpHighscoreDatabase(t, map[string]int{"alice": 10})
	board := newHighscoreBoard(3, time.Minute)

	rendered, err := board.Render(db)
	if err != nil {
		t.Fatalf("Render() returned an error: %v", err)
	}
	if rendered != "alice: 10" {
		t.Fatalf("Render() = %q, want %q", rendered, "alice: 10")
	}

	// A cached board does not observe score changes until invalidated.
	user, err := data.FindUser(db, "alice")
	if err != nil {
		t.Fatalf("FindUser() returned an error: %v", err)
	}
	if err := data.AddScore(db, user, 5); err != nil {
		t.Fatalf("AddScore() returned an error: %v", err)
	}

	rendered, err = board.Render(db)
	if err != nil {
		t.Fatalf("Render() returned an error: %v", err)
	}
	if rendered != "alice: 10" {
		t.Errorf("Render() after uninvalidated score change = %q, want %q", rendered, "alice: 10")
	}

	board.Invalidate()
	rendered, err = board.Render(db)
	if err != nil {
		t.Fatalf("Render() returned an error: %v", err)
	}
	if rendered != "alice: 15" {
		t.Errorf("Render() after Invalidate() = %q, want %q", rendered, "alice: 15")
	}
}
