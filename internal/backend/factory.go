package backend

import (
	"context"
	"fmt"

	"ledgerbook/internal/events"
	amqpevents "ledgerbook/internal/events/amqp"
	kafkaevents "ledgerbook/internal/events/kafka"
	"ledgerbook/internal/log"
	"ledgerbook/internal/sheets"
	gsheet "ledgerbook/internal/sheets/google"
	sheetmem "ledgerbook/internal/sheets/memory"
	"ledgerbook/internal/storage"
	"ledgerbook/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateRepository(ctx context.Context, config Config) (storage.Repository, error) {
	switch config.Storage {
	case SQLiteStorage:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite storage", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresStorage:
		repo, err := storage.NewPostgresRepository(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized PostgreSQL storage")
		return repo, nil
	case MemoryStorage:
		if config.MemorySeedDir == "" {
			f.logger.InfoContext(ctx, "Initialized memory storage")
			return memory.New(), nil
		}
		f.logger.InfoContext(ctx, "Initialized memory storage", "seed_directory", config.MemorySeedDir)
		return memory.NewFromFiles(config.MemorySeedDir), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", config.Storage)
	}
}

func (f *DefaultFactory) CreatePublisher(ctx context.Context, config Config) (events.Publisher, error) {
	switch config.Events {
	case "", NoEvents:
		return events.Nop{}, nil
	case AMQPEvents:
		client, err := amqpevents.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP publisher: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized AMQP publisher",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return client, nil
	case KafkaEvents:
		f.logger.InfoContext(ctx, "Initialized Kafka publisher", "topic", config.KafkaTopic)
		return kafkaevents.NewPublisher(config.KafkaBrokers, config.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %q", config.Events)
	}
}

func (f *DefaultFactory) CreateConsumer(ctx context.Context, config Config) (events.Consumer, error) {
	switch config.Events {
	case "", NoEvents:
		return nil, nil
	case AMQPEvents:
		client, err := amqpevents.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP consumer: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized AMQP consumer", "queue", config.AMQPQueue)
		return client, nil
	case KafkaEvents:
		if config.KafkaGroupID == "" {
			return nil, fmt.Errorf("kafka consumer needs a group id")
		}
		f.logger.InfoContext(ctx, "Initialized Kafka consumer",
			"topic", config.KafkaTopic,
			"group_id", config.KafkaGroupID)
		return kafkaevents.NewConsumer(config.KafkaBrokers, config.KafkaGroupID, config.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %q", config.Events)
	}
}

func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.EntryExporter, error) {
	switch config.Mirror {
	case "", MemoryMirror:
		f.logger.InfoContext(ctx, "Using in-memory sheet mirror")
		return sheetmem.New(), nil
	case GoogleMirror:
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleCredentialsJSON,
			CredentialsFile: config.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "spreadsheet_id", config.GoogleSpreadsheetID)
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported mirror backend: %q", config.Mirror)
	}
}
