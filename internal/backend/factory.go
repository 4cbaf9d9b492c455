package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetreport/internal/amqp"
	"budgetreport/internal/log"
	gsheet "budgetreport/internal/sheets/google"
	"budgetreport/internal/sheets/memory"
	"budgetreport/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new side channel factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// Create opens every configured side channel. A channel that cannot be
// opened is logged and left disabled: it must not block the report.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*SideChannels, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sc := &SideChannels{}
	var closers []func() error

	if config.ArchiveDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.ArchiveDBPath)
		if err != nil {
			f.logger.Warn("Failed to open run archive, continuing without it", log.FieldError, err, log.FieldPath, config.ArchiveDBPath)
		} else {
			sc.Archive = repo
			closers = append(closers, repo.Close)
			f.logger.Info("Initialized run archive", log.FieldPath, config.ArchiveDBPath, "schema_version", repo.SchemaVersion())
		}
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", log.FieldError, err)
		} else {
			sc.Publisher = client
			closers = append(closers, client.Close)
			f.logger.Info("Initialized AMQP client", log.FieldExchange, config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	switch config.Mirror {
	case MemoryMirror:
		sc.Mirror = memory.New()
		f.logger.Info("Initialized memory mirror")
	case SheetsMirror:
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
			SheetPrefix:     config.GoogleSheetPrefix,
		})
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets mirror, continuing without it", log.FieldError, err)
		} else {
			sc.Mirror = cli
			f.logger.Info("Initialized Google Sheets mirror")
		}
	}

	sc.Cleanup = func() error {
		var errs []error
		for _, c := range closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close side channels: %w", errors.Join(errs...))
		}
		return nil
	}
	return sc, nil
}
