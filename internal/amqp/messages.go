package amqp

import (
	"encoding/json"
	"time"
)

// ReportGeneratedMessage announces a freshly written workbook. Totals are
// exact decimal strings.
type ReportGeneratedMessage struct {
	RunID         int64     `json:"run_id,omitempty"`
	OutputPath    string    `json:"output_path"`
	BudgetTotal   string    `json:"budget_total"`
	ActualTotal   string    `json:"actual_total"`
	VarianceTotal string    `json:"variance_total"`
	Rows          int       `json:"rows"`
	InvariantsOK  bool      `json:"invariants_ok"`
	FailedRollups []string  `json:"failed_rollups,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *ReportGeneratedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportGeneratedMessageFromJSON decodes a message published by PublishReportGenerated.
func ReportGeneratedMessageFromJSON(data []byte) (*ReportGeneratedMessage, error) {
	var msg ReportGeneratedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
