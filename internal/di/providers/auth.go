package providers

import (
	"errors"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill-engine/internal/config"
	"github.com/quillapp/quill-engine/internal/logger"
	"github.com/quillapp/quill-engine/internal/ratelimit"
	"github.com/quillapp/quill-engine/internal/scope"
)

// ProvideScopeResolver provides the session token verifier. The server
// resolves scopes from per-request tokens, so no ambient session source is
// wired in.
func ProvideScopeResolver(i do.Injector) (*scope.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex := cfg.Auth.SessionKeyHex
	if keyHex == "" {
		if cfg.App.Environment == "production" {
			return nil, errors.New("SESSION_KEY is required in production")
		}
		keyHex = scope.NewSessionKey()
		log.Warn("no session key configured, generated an ephemeral one; existing tokens will not verify after restart")
	}

	return scope.NewResolver(keyHex, nil)
}

// ProvideRateLimiter provides the per-scope request rate limiter.
func ProvideRateLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Limits.RPS, cfg.Limits.Burst), nil
}
