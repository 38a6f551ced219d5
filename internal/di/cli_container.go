package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/form-spam-filter/internal/config"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/mikey/form-spam-filter/internal/factory"
	"github.com/mikey/form-spam-filter/internal/logging"
	"github.com/mikey/form-spam-filter/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	InputFile string
	Honeypot  string
	JSON      bool

	// Spam detection flags
	DomainsFile string

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.InputFile, "file", "", "Input JSON payload (use stdin if not specified)")
	flag.StringVar(&flags.Honeypot, "honeypot", "_gotcha", "Name of the honeypot field")
	flag.BoolVar(&flags.JSON, "json", false, "Print the verdict as JSON")

	flag.StringVar(&flags.DomainsFile, "domains-file", "", "Extra disposable domains, one per line")

	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", flags.ConfigFile))
			applyCLIOverrides(cfg, flags)
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// The CLI only classifies, so the filter factory gets no service
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger, classifier *core.Classifier) *factory.FilterFactory {
		return factory.NewFilterFactory(cfg, logger, classifier, nil)
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

// applyCLIOverrides forces the cli filter and the per-run flags on top of
// a loaded config file
func applyCLIOverrides(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()
	v.Set("server.filter_type", "cli")
	v.Set("cli.honeypot_field", flags.Honeypot)
	v.Set("cli.json", flags.JSON)
	if flags.DomainsFile != "" {
		v.Set("spam.disposable_domains_file", flags.DomainsFile)
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	cfg := config.NewFromViper(config.NewEmptyViper())
	applyCLIOverrides(cfg, flags)
	return cfg
}
