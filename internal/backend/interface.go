package backend

import (
	"context"

	"budgetreport/internal/services"
	"budgetreport/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SideChannels holds the optional outputs of a report run. Nil fields are
// disabled.
type SideChannels struct {
	Archive   services.Archive
	Publisher services.Publisher
	Mirror    sheets.ReportMirror
	Cleanup   CleanupFunc
}

// Options turns the enabled channels into service options.
func (s *SideChannels) Options() []services.Option {
	var opts []services.Option
	if s.Archive != nil {
		opts = append(opts, services.WithArchive(s.Archive))
	}
	if s.Publisher != nil {
		opts = append(opts, services.WithPublisher(s.Publisher))
	}
	if s.Mirror != nil {
		opts = append(opts, services.WithMirror(s.Mirror))
	}
	return opts
}

// Close releases whatever the factory opened.
func (s *SideChannels) Close() error {
	if s == nil || s.Cleanup == nil {
		return nil
	}
	return s.Cleanup()
}

// Factory creates side channels based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*SideChannels, error)
}

// Config holds configuration for side channel creation
type Config struct {
	Mirror MirrorType

	// Empty disables the archive.
	ArchiveDBPath string

	// Empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleSheetPrefix        string
}

// MirrorType represents the spreadsheet mirror backend
type MirrorType string

const (
	NoMirror     MirrorType = "none"
	MemoryMirror MirrorType = "memory"
	SheetsMirror MirrorType = "sheets"
)

// String implements fmt.Stringer
func (mt MirrorType) String() string {
	return string(mt)
}

// IsValid returns true if the mirror type is valid
func (mt MirrorType) IsValid() bool {
	switch mt {
	case NoMirror, MemoryMirror, SheetsMirror:
		return true
	default:
		return false
	}
}
