// internal/engine/resolver_test.go
package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
	"github.com/xkilldash9x/aiqa-cli/internal/browser"
)

func newTestResolver(t *testing.T) *Resolver {
	return NewResolver(2*time.Millisecond, 5*time.Millisecond, zaptest.NewLogger(t))
}

func TestResolver_PrimaryHit(t *testing.T) {
	t.Parallel()
	d := newFakeDriver()
	want := d.add(idLoc("username"), "username", "")

	el, err := newTestResolver(t).Resolve(context.Background(), d, "username", schemas.SelectorID, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, want, el)
	assert.Equal(t, []string{"id=username"}, d.Lookups())
}

func TestResolver_EmptyTypeMeansID(t *testing.T) {
	t.Parallel()
	d := newFakeDriver()
	d.add(idLoc("message"), "message", "")

	_, err := newTestResolver(t).Resolve(context.Background(), d, "message", "", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "id=message", d.Lookups()[0])
}

func TestResolver_ElementAppearsWhilePolling(t *testing.T) {
	t.Parallel()
	d := newFakeDriver()
	go func() {
		time.Sleep(8 * time.Millisecond)
		d.add(idLoc("late"), "late", "")
	}()

	el, err := newTestResolver(t).Resolve(context.Background(), d, "late", schemas.SelectorID, 200*time.Millisecond)
	require.NoError(t, err)
	assert.NotNil(t, el)
}

func TestResolver_FallsBackInOrder(t *testing.T) {
	t.Parallel()
	d := newFakeDriver()
	// Declared as xpath, but only the class interpretation matches.
	d.add(browser.Locator{Selector: ".login-btn", Type: schemas.SelectorCSS}, "login-btn", "")

	el, err := newTestResolver(t).Resolve(context.Background(), d, "login-btn", schemas.SelectorXPath, 5*time.Millisecond)
	require.NoError(t, err)
	assert.NotNil(t, el)

	seen := uniqueInOrder(d.Lookups())
	assert.Equal(t, []string{
		"xpath=login-btn",
		"id=login-btn",
		"name=login-btn",
		"css=#login-btn",
		"css=.login-btn",
	}, seen)
}

func TestResolver_ExhaustedChain(t *testing.T) {
	t.Parallel()
	d := newFakeDriver()

	_, err := newTestResolver(t).Resolve(context.Background(), d, "ghost", schemas.SelectorCSS, 5*time.Millisecond)
	require.Error(t, err)

	var nf *ElementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.Selector)
	assert.Equal(t, schemas.SelectorCSS, nf.Type)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "Could not find element: ghost (type: css)", err.Error())

	seen := uniqueInOrder(d.Lookups())
	assert.Equal(t, "tag=ghost", seen[len(seen)-1])
	assert.Len(t, seen, 1+len(DefaultFallbacks))
}

func TestResolver_CancellationIsNotAMiss(t *testing.T) {
	t.Parallel()
	d := newFakeDriver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(t).Resolve(ctx, d, "x", schemas.SelectorID, time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	var nf *ElementNotFoundError
	assert.False(t, errors.As(err, &nf))
}

func uniqueInOrder(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
