package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/config"
	"github.com/tagwardenapp/tagwarden-server/internal/logger"
	"github.com/tagwardenapp/tagwarden-server/internal/rules"
)

// RulesLoaderHandle wraps the rules loader with its watch context for
// lifecycle management.
type RulesLoaderHandle struct {
	*rules.Loader
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RulesLoaderHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideRulesLoader provides the file-based constraint rule loader. The
// rules file may be absent, which loads as zero rules; operators can drop
// one in later and the watcher picks it up without a restart.
func ProvideRulesLoader(i do.Injector) (*RulesLoaderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	loader := rules.NewLoader(cfg.Rules.Path, log.Logger)
	if err := loader.Load(); err != nil {
		// A malformed file should not stop the server; the API-managed
		// rules still apply.
		log.Warn("Rules file failed to load, starting with API rules only",
			"path", cfg.Rules.Path,
			"error", err,
		)
	}

	handle := &RulesLoaderHandle{Loader: loader}

	if cfg.Rules.Watch {
		ctx, cancel := context.WithCancel(context.Background())
		handle.cancel = cancel
		go func() {
			if err := loader.Watch(ctx); err != nil {
				log.Warn("Rules file watcher stopped", "error", err)
			}
		}()
		log.Info("Watching rules file for changes", "path", cfg.Rules.Path)
	}

	return handle, nil
}
