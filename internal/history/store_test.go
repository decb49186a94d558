package history

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty_qa/pkg"
)

// words builds a text with exactly n whitespace-delimited words.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestRecordKeepsWithinBudget(t *testing.T) {
	store := NewStore(Config{MaxTokens: 1024, TokenBuffer: 500})
	budget := 1024 - 500

	for i := 0; i < 20; i++ {
		store.Record("u1", words(40), words(60))
		assert.LessOrEqual(t, store.TokenCount("u1"), budget)
	}
}

func TestEvictionIsOldestFirst(t *testing.T) {
	store := NewStore(Config{MaxTokens: 1024, TokenBuffer: 500})

	// Turn sizes 200,200,50,50,100,100 sum to 700 > 524. Evicting exactly the
	// oldest turn brings the total to 500, so eviction must stop there.
	store.Record("u1", words(200), words(200))
	store.Record("u1", words(50), words(50))
	store.Record("u1", words(100), words(100))

	turns := store.Turns("u1")
	require.Len(t, turns, 5)
	assert.Equal(t, 500, store.TokenCount("u1"))

	// The first user turn went; its assistant turn survives at the front.
	assert.Equal(t, pkg.RoleAssistant, turns[0].Role)
	assert.Equal(t, words(200), turns[0].Text)
}

func TestEvictionCanLeaveDanglingAssistantTurn(t *testing.T) {
	store := NewStore(Config{MaxTokens: 1024, TokenBuffer: 500})

	// First exchange: small user turn, large assistant turn. Second exchange
	// pushes the total over budget so only the first user turn is evicted,
	// leaving its assistant turn unpaired at the front.
	store.Record("u1", words(5), words(320))
	store.Record("u1", words(100), words(100))

	turns := store.Turns("u1")
	require.NotEmpty(t, turns)
	assert.Equal(t, pkg.RoleAssistant, turns[0].Role)
}

func TestOversizedSingleTurnIsRetained(t *testing.T) {
	store := NewStore(Config{MaxTokens: 1024, TokenBuffer: 500})

	// One assistant turn alone exceeds the budget; eviction stops at one
	// remaining turn instead of draining the log.
	store.Record("u1", words(3), words(800))

	turns := store.Turns("u1")
	require.Len(t, turns, 1)
	assert.Equal(t, pkg.RoleAssistant, turns[0].Role)
	assert.Greater(t, store.TokenCount("u1"), 1024-500)
}

func TestRenderFormatsRoleLabelledLines(t *testing.T) {
	store := NewStore(Config{})
	store.Record("u1", "how are points earned", "points accrue per stay")

	rendered := store.Render("u1")
	assert.Equal(t, "User: how are points earned\nAssistant: points accrue per stay\n", rendered)
}

func TestRenderIsIdempotent(t *testing.T) {
	store := NewStore(Config{})
	store.Record("u1", "first question", "first answer")

	first := store.Render("u1")
	second := store.Render("u1")
	assert.Equal(t, first, second)
}

func TestRenderUnknownUserIsEmpty(t *testing.T) {
	store := NewStore(Config{})
	assert.Equal(t, "", store.Render("nonexistent-user"))
}

func TestMaxUsersEvictsStalestUser(t *testing.T) {
	store := NewStore(Config{MaxUsers: 2})

	store.Record("u1", "a", "b")
	store.Record("u2", "c", "d")
	// u1 becomes the most recently touched user.
	store.Record("u1", "e", "f")
	// Third user exceeds the cap; u2 is the stalest and gets dropped.
	store.Record("u3", "g", "h")

	assert.Equal(t, "", store.Render("u2"))
	assert.NotEmpty(t, store.Render("u1"))
	assert.NotEmpty(t, store.Render("u3"))
}

func TestConcurrentRecordsStayConsistent(t *testing.T) {
	store := NewStore(Config{MaxTokens: 1024, TokenBuffer: 500})
	budget := 1024 - 500

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		userID := fmt.Sprintf("u%d", u)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.Record(userID, words(10), words(15))
			}
		}()
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		userID := fmt.Sprintf("u%d", u)
		assert.LessOrEqual(t, store.TokenCount(userID), budget)
		turns := store.Turns(userID)
		assert.NotEmpty(t, turns)
		// Every render line carries a role label.
		for _, line := range strings.Split(strings.TrimRight(store.Render(userID), "\n"), "\n") {
			prefixed := strings.HasPrefix(line, "User: ") || strings.HasPrefix(line, "Assistant: ")
			assert.True(t, prefixed, "unexpected line %q", line)
		}
	}
}
