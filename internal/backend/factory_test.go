package backend

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"budgetreport/internal/config"
	"budgetreport/internal/log"
	"budgetreport/internal/sheets/memory"
)

func testLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Output: buf})
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{MirrorBackend: "", ArchiveDBPath: "runs.db"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Mirror != NoMirror || cfg.ArchiveDBPath != "runs.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	_, err = FromAppConfig(&config.Config{MirrorBackend: "ftp"})
	if err == nil {
		t.Fatal("expected error for invalid mirror")
	}
	if !strings.Contains(err.Error(), "[none memory sheets]") {
		t.Errorf("error should list valid mirrors: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"none", Config{Mirror: NoMirror}, false},
		{"memory", Config{Mirror: MemoryMirror}, false},
		{"invalid", Config{Mirror: "ftp"}, true},
		{"sheets without id", Config{Mirror: SheetsMirror}, true},
		{"amqp without queue", Config{Mirror: NoMirror, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	err := Config{Mirror: "ftp"}.Validate()
	if err == nil || !strings.Contains(err.Error(), `"ftp": must be one of [none memory sheets]`) {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCreate_NoChannels(t *testing.T) {
	sc, err := NewFactory(testLogger(&bytes.Buffer{})).Create(context.Background(), Config{Mirror: NoMirror})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.Archive != nil || sc.Publisher != nil || sc.Mirror != nil {
		t.Errorf("expected every channel disabled: %+v", sc)
	}
	if len(sc.Options()) != 0 {
		t.Errorf("expected no service options")
	}
	if err := sc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCreate_MemoryMirrorAndArchive(t *testing.T) {
	sc, err := NewFactory(testLogger(&bytes.Buffer{})).Create(context.Background(), Config{
		Mirror:        MemoryMirror,
		ArchiveDBPath: filepath.Join(t.TempDir(), "runs.db"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer sc.Close()

	if _, ok := sc.Mirror.(*memory.Store); !ok {
		t.Errorf("expected memory mirror, got %T", sc.Mirror)
	}
	if sc.Archive == nil {
		t.Error("expected archive")
	}
	if len(sc.Options()) != 2 {
		t.Errorf("expected 2 service options, got %d", len(sc.Options()))
	}
}

func TestCreate_SheetsFailureIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	sc, err := NewFactory(testLogger(&logs)).Create(context.Background(), Config{
		Mirror:              SheetsMirror,
		GoogleSpreadsheetID: "abc",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.Mirror != nil {
		t.Errorf("mirror should stay disabled")
	}
	if !strings.Contains(logs.String(), "Google Sheets mirror") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestCreate_InvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).Create(context.Background(), Config{Mirror: "ftp"}); err == nil {
		t.Fatal("expected error")
	}
}
