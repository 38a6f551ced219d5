package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/form-spam-filter/internal/config"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/mikey/form-spam-filter/internal/disposable"
	"github.com/mikey/form-spam-filter/internal/factory"
	"github.com/mikey/form-spam-filter/internal/logging"
	"github.com/mikey/form-spam-filter/internal/ports"
	"github.com/mikey/form-spam-filter/internal/schema"
	"github.com/mikey/form-spam-filter/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register factories
	for _, ctor := range []any{
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewStoreFactory,
		factory.NewNotifierFactory,
		factory.NewFilterFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return nil, err
		}
	}

	// Register text processor
	if err := container.Provide(func(logger *zap.Logger) *utils.TextProcessor {
		return utils.NewTextProcessor(logger.Named("text"))
	}); err != nil {
		return nil, err
	}

	// Register LLM client, nil when the content check is disabled
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register cache repository, only built when there is a model to cache for
	if err := container.Provide(func(f *factory.CacheFactory, llmClient core.LLMClient) (core.CacheRepository, error) {
		opts, err := f.ContentOptions()
		if err != nil {
			return nil, err
		}
		if llmClient == nil || !opts.CacheEnabled {
			return nil, nil
		}
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register content checker
	if err := container.Provide(func(
		f *factory.CacheFactory,
		llmClient core.LLMClient,
		cache core.CacheRepository,
		logger *zap.Logger,
	) (*core.ContentChecker, error) {
		if llmClient == nil {
			return nil, nil
		}
		opts, err := f.ContentOptions()
		if err != nil {
			return nil, err
		}
		return core.NewContentChecker(llmClient, cache, logger.Named("content"), opts), nil
	}); err != nil {
		return nil, err
	}

	// Register store
	if err := container.Provide(func(f *factory.StoreFactory) (core.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register submission service
	if err := container.Provide(func(
		classifier *core.Classifier,
		store core.Store,
		content *core.ContentChecker,
		notifier core.Notifier,
		logger *zap.Logger,
	) *core.SubmissionService {
		return core.NewSubmissionService(
			classifier,
			store,
			store,
			schema.NewValidator(),
			content,
			notifier,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register submission filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.SubmissionFilter, error) {
		return f.CreateSubmissionFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideClassifier registers the disposable domain set and the classifier
// built on it
func provideClassifier(container *dig.Container) error {
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*disposable.Set, error) {
		spamCfg := cfg.GetSpam()
		return disposable.Load(disposable.Options{
			File:    spamCfg.DisposableDomainsFile,
			Extra:   spamCfg.ExtraDisposableDomains,
			Allowed: spamCfg.AllowedDomains,
		}, logger)
	}); err != nil {
		return err
	}

	return container.Provide(func(domains *disposable.Set) *core.Classifier {
		return core.NewClassifier(domains)
	})
}
