package game

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/openquiz/triviad/internal/core/data"
)

const highscoreCacheKey = "highscore"

// highscoreBoard renders the top scorers table served for HIGHSCORE requests.
// Computing the table walks every user, so the rendered result is cached for
// a short configurable TTL and invalidated whenever a score changes.
type highscoreBoard struct {
	tableSize int
	cache     *gocache.Cache
	ttl       time.Duration
}

func newHighscoreBoard(tableSize int, ttl time.Duration) *highscoreBoard {
	return &highscoreBoard{
		tableSize: tableSize,
		cache:     gocache.New(gocache.NoExpiration, 10*time.Second),
		ttl:       ttl,
	}
}

// Render returns the highscore table as protocol payload text: one
// "name: score" line per user, highest score first, ties broken by username
// so the table is stable across identical score sets.
func (b *highscoreBoard) Render(db *gorm.DB) (string, error) {
	if b.ttl > 0 {
		if cached, ok := b.cache.Get(highscoreCacheKey); ok {
			return cached.(string), nil
		}
	}

	users, err := data.AllUsers(db)
	if err != nil {
		return "", err
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Score != users[j].Score {
			return users[i].Score > users[j].Score
		}
		return users[i].Username < users[j].Username
	})

	if len(users) > b.tableSize {
		users = users[:b.tableSize]
	}

	lines := make([]string, 0, len(users))
	for _, user := range users {
		lines = append(lines, fmt.Sprintf("%s: %d", user.Username, user.Score))
	}
	rendered := strings.Join(lines, "\n")

	if b.ttl > 0 {
		b.cache.Set(highscoreCacheKey, rendered, b.ttl)
	}
	return rendered, nil
}

// Invalidate drops the cached table. Called after any score mutation.
func (b *highscoreBoard) Invalidate() {
	b.cache.Delete(highscoreCacheKey)
}
