package rules_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/rules"
)

const sampleRules = `[
  {"type": "max_per_search", "tags": ["genre:pop", "genre:rock"], "value": 1},
  {"id": "noisy", "type": "exclusive_with", "tags": ["quiet", "loud"], "message": "pick a volume"}
]`

func TestLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0644))

	l := rules.NewLoader(path, nil)
	require.NoError(t, l.Load())

	got := l.Rules()
	require.Len(t, got, 2)
	assert.Equal(t, domain.RuleMaxPerSearch, got[0].Type)
	assert.Equal(t, 1, got[0].Value)
	assert.NotEmpty(t, got[0].ID, "entries without an ID get a stable generated one")
	assert.Equal(t, "noisy", got[1].ID)
	assert.Equal(t, "pick a volume", got[1].Message)
}

func TestLoader_MissingFileLoadsEmpty(t *testing.T) {
	l := rules.NewLoader(filepath.Join(t.TempDir(), "absent.json"), nil)
	require.NoError(t, l.Load())
	assert.Empty(t, l.Rules())
}

func TestLoader_MalformedFileKeepsPreviousRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0644))

	l := rules.NewLoader(path, nil)
	require.NoError(t, l.Load())
	require.Len(t, l.Rules(), 2)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	require.Error(t, l.Load())
	assert.Len(t, l.Rules(), 2, "previous rules survive a bad write")
}

func TestLoader_RejectsUnknownRuleType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"type": "bogus", "tags": ["a"]}]`), 0644))

	l := rules.NewLoader(path, nil)
	require.Error(t, l.Load())
}

func TestLoader_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

	l := rules.NewLoader(path, nil)
	require.NoError(t, l.Load())

	reloaded := make(chan []domain.ConstraintRule, 1)
	l.OnReload(func(rs []domain.ConstraintRule) {
		select {
		case reloaded <- rs:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Watch(ctx)
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0644))

	select {
	case rs := <-reloaded:
		assert.Len(t, rs, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}

	cancel()
	<-done
}
