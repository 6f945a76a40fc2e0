package auth

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core/data"
)

func TestHashPassword(t *testing.T) {
	password := "password"
	hashed := HashPassword(password)

	if password == hashed {
		t.Fatalf("expected hashed password not to equal password")
	}

	for i := 0; i < 10; i++ {
		if h := HashPassword(password); hashed != h {
			t.Fatalf("password hashing is non-deterministic (expected %s, got %s)", hashed, h)
		}
	}
}

func TestVerifyUser(t *testing.T) {
	type context struct {
		user *data.User
		err  error
	}
	type args struct {
		username string
		password string
	}

	happyPathUser := &data.User{Username: "test", Password: HashPassword("test")}

	tests := map[string]struct {
		context   context
		args      args
		wantedErr error
	}{
		"database_error": {
			context:   context{user: nil, err: fmt.Errorf("something exploded")},
			args:      args{username: "test", password: "test"},
			wantedErr: ErrUnknown,
		},
		"no_user": {
			context:   context{user: nil, err: nil},
			args:      args{username: "test", password: "test"},
			wantedErr: ErrUnknownUsername,
		},
		"invalid_password": {
			context:   context{user: &data.User{Username: "test", Password: "x"}, err: nil},
			args:      args{username: "test", password: "test"},
			wantedErr: ErrPasswordMismatch,
		},
		"happy": {
			context:   context{user: happyPathUser, err: nil},
			args:      args{username: "test", password: "test"},
			wantedErr: nil,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			originalFindUser := findUser
			defer func() { findUser = originalFindUser }()

			findUser = func(db *gorm.DB, username string) (*data.User, error) {
				return tt.context.user, tt.context.err
			}

			user, err := VerifyUser(nil, tt.args.username, tt.args.password)

			if err != tt.wantedErr {
				t.Errorf("expected wantedErr = %v, got = %v", tt.wantedErr, err)
			}
			if tt.wantedErr == nil && user != tt.context.user {
				t.Errorf("expected user %+v, got %+v", tt.context.user, user)
			}
		})
	}
}
