package data

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Creates a database for testing. For the sake of simplicity, this only uses
// the SQLite engine and creates a new database on every invocation since it
// is relatively cheap to do so given the low number of tests.
func setUpDatabase(t *testing.T) *gorm.DB {
	testDBFile := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(testDBFile))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}

	if err = db.AutoMigrate(&User{}, &Question{}, &AskedQuestion{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, score int) *User {
	t.Helper()
	user := &User{Username: username, Password: "hashed", Score: score}
	if err := CreateUser(db, user); err != nil {
		t.Fatalf("error seeding test user %s: %v", username, err)
	}
	return user
}

func seedQuestion(t *testing.T, db *gorm.DB, text string, answer int) *Question {
	t.Helper()
	question := &Question{
		Text:    text,
		Option1: "option one",
		Option2: "option two",
		Option3: "option three",
		Option4: "option four",
		Answer:  answer,
	}
	if err := CreateQuestion(db, question); err != nil {
		t.Fatalf("error seeding test question: %v", err)
	}
	return question
}
