package cli

import (
	"os"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/blobstore"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/config"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/logging"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/providers"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/runners"
)

// BuildService wires the production adapters into an application service.
func BuildService(env Env) Service {
	logger := env.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &application.Service{
		ConfigLoader: config.Loader{},
		Env: func(opts *domain.CoverageOptions) error {
			values, err := config.ReadEnvFile(env.EnvFile)
			if err != nil {
				return err
			}
			return config.ApplyEnv(opts, values, os.LookupEnv)
		},
		Planner: runners.Planner{
			Registry: runners.NewRegistry(),
			Stdout:   env.Stdout,
			Stderr:   env.Stderr,
		},
		Registry: providers.NewRegistry(
			providers.WithLogger(logger),
			providers.WithConsole(env.Stdout),
		),
		Blobs: func(dir string) application.BlobStore {
			return blobstore.FileStore{Dir: dir}
		},
		Thresholds: func(path string) application.ThresholdWriter {
			return config.ThresholdWriter{Path: path}
		},
		Events: logging.EventLogger{Logger: logger},
		Logger: logger,
	}
}
