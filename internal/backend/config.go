package backend

import (
	"errors"
	"fmt"

	"ledgerbook/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Storage StorageType
	Events  EventsType
	Mirror  MirrorType

	SQLiteDBPath string
	PostgresDSN  string
	// MemorySeedDir holds seed_categories.txt for the memory store.
	MemorySeedDir string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	c := Config{
		Storage: StorageType(appConfig.DataBackend),
		Events:  EventsType(appConfig.EventsBackend),
		Mirror:  MirrorType(appConfig.MirrorBackend),

		SQLiteDBPath:  appConfig.SQLiteDBPath,
		PostgresDSN:   appConfig.PostgresDSN,
		MemorySeedDir: appConfig.MemorySeedDir,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		KafkaBrokers: appConfig.KafkaBrokers,
		KafkaTopic:   appConfig.KafkaTopic,
		KafkaGroupID: appConfig.KafkaGroupID,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSheetName:       appConfig.GoogleSheetName,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the selected backends have what they need. Unset event and
// mirror selections count as none and memory.
func (c Config) Validate() error {
	if !c.Storage.IsValid() {
		return fmt.Errorf("invalid storage backend: %q", c.Storage)
	}
	switch c.Storage {
	case SQLiteStorage:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite storage")
		}
	case PostgresStorage:
		if c.PostgresDSN == "" {
			return errors.New("PostgreSQL DSN is required for postgres storage")
		}
	}

	if c.Events != "" && !c.Events.IsValid() {
		return fmt.Errorf("invalid events backend: %q", c.Events)
	}
	switch c.Events {
	case AMQPEvents:
		if c.AMQPURL == "" || c.AMQPExchange == "" || c.AMQPQueue == "" {
			return errors.New("AMQP URL, exchange and queue are required for amqp events")
		}
	case KafkaEvents:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return errors.New("Kafka brokers and topic are required for kafka events")
		}
	}

	if c.Mirror != "" && !c.Mirror.IsValid() {
		return fmt.Errorf("invalid mirror backend: %q", c.Mirror)
	}
	if c.Mirror == GoogleMirror && c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for the google mirror")
	}
	return nil
}
