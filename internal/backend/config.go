package backend

import (
	"fmt"

	"budgetreport/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	mirror := MirrorType(appConfig.MirrorBackend)
	if mirror == "" {
		mirror = NoMirror
	}
	if !mirror.IsValid() {
		return Config{}, fmt.Errorf("invalid mirror backend in config: %s (valid: %v)", appConfig.MirrorBackend, GetMirrorTypeStrings())
	}

	return Config{
		Mirror:        mirror,
		ArchiveDBPath: appConfig.ArchiveDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleSheetPrefix:        appConfig.GoogleSheetPrefix,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Mirror.IsValid() {
		return fmt.Errorf("invalid mirror backend %q: must be one of %v", c.Mirror, GetMirrorTypeStrings())
	}
	if c.Mirror == SheetsMirror && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets mirror")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetMirrorTypeStrings returns all valid mirror type strings
func GetMirrorTypeStrings() []string {
	types := []MirrorType{NoMirror, MemoryMirror, SheetsMirror}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
