// Package di provides dependency injection configuration for the sync server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/quillapp/quill-engine/internal/config"
	"github.com/quillapp/quill-engine/internal/di/providers"
	"github.com/quillapp/quill-engine/internal/logger"
	"github.com/quillapp/quill-engine/internal/ratelimit"
	"github.com/quillapp/quill-engine/internal/scope"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Auth and limits
	do.Provide(injector, providers.ProvideScopeResolver)
	do.Provide(injector, providers.ProvideRateLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services. This triggers lazy initialization in
// dependency order; the container handles shutdown in reverse.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*scope.Resolver](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*ratelimit.KeyedRateLimiter](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.MDNSServiceHandle](injector); err != nil {
		return err
	}

	return nil
}
