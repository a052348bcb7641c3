package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DocumentStatus is the server-side processing state of a document.
type DocumentStatus string

// Document statuses reported by the API.
const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// IsTerminal returns true if no further server-side change is expected.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// UnmarshalJSON accepts any string and maps everything else to an empty status.
func (s *DocumentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		*s = ""
		return nil
	}
	*s = DocumentStatus(strings.ToLower(strings.TrimSpace(str)))
	return nil
}

// RiskLevel is the fraud detector's coarse risk bucket.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// DocumentID identifies a document. The API uses integer ids; string ids are
// accepted as well so the client does not depend on the representation.
type DocumentID string

// UnmarshalJSON accepts a JSON number or string.
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = DocumentID(n.String())
	return nil
}

// String returns the string representation.
func (id DocumentID) String() string {
	return string(id)
}

// DocumentRecord is an uploaded identity document as reported by the API.
// The client never mutates records; it only reads and classifies them.
type DocumentRecord struct {
	ID           DocumentID        `json:"id"`
	FileName     string            `json:"file_name"`
	FileSize     int64             `json:"file_size"`
	Status       DocumentStatus    `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	BatchID      string            `json:"batch_id,omitempty"`
	UploadedAt   *time.Time        `json:"uploaded_at,omitempty"`
	ProcessedAt  *time.Time        `json:"processed_at,omitempty"`
	Metadata     *AnalysisMetadata `json:"metadata,omitempty"`
}

// AnalysisMetadata is the analysis result attached to a document.
type AnalysisMetadata struct {
	// IsAuthentic is tri-state: nil when the analysis gave no answer.
	IsAuthentic *bool `json:"is_authentic"`

	// FraudIndicators is the ordered list of findings, plain or bilingual.
	FraudIndicators []Text `json:"fraud_indicators,omitempty"`

	// QualityIssues lists image quality problems found during preprocessing.
	QualityIssues []Text `json:"quality_issues,omitempty"`

	// FraudDetection is the computer-vision detector output.
	FraudDetection *FraudDetection `json:"fraud_detection,omitempty"`

	ConfidenceScore *float64   `json:"confidence_score,omitempty"`
	AnalyzedAt      *time.Time `json:"analyzed_at,omitempty"`

	Name          Text   `json:"name"`
	AadhaarNumber string `json:"aadhaar_number,omitempty"`
}

// FraudDetection is the detector section of the analysis metadata.
type FraudDetection struct {
	RiskLevel  RiskLevel `json:"risk_level,omitempty"`
	RiskScore  float64   `json:"risk_score,omitempty"`
	Indicators []Text    `json:"fraud_indicators,omitempty"`
}

// UnmarshalJSON decodes metadata field by field. A malformed field is treated
// as absent and never fails the whole record.
func (m *AnalysisMetadata) UnmarshalJSON(data []byte) error {
	*m = AnalysisMetadata{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	m.IsAuthentic = decodeBool(fields["is_authentic"])
	m.FraudIndicators = decodeTexts(fields["fraud_indicators"])
	m.QualityIssues = decodeTexts(fields["quality_issues"])
	m.FraudDetection = decodeFraudDetection(fields["fraud_detection"])
	m.ConfidenceScore = decodeFloat(fields["confidence_score"])
	m.AnalyzedAt = decodeTime(fields["analyzed_at"])
	m.Name = parseText(fields["name"])

	var number string
	if err := json.Unmarshal(fields["aadhaar_number"], &number); err == nil {
		m.AadhaarNumber = number
	}
	return nil
}

func decodeBool(raw json.RawMessage) *bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return nil
	}
	return &b
}

func decodeFloat(raw json.RawMessage) *float64 {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return nil
	}
	return &f
}

func decodeTime(raw json.RawMessage) *time.Time {
	var t time.Time
	if len(raw) == 0 || json.Unmarshal(raw, &t) != nil {
		return nil
	}
	return &t
}

func decodeTexts(raw json.RawMessage) []Text {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	texts := make([]Text, 0, len(items))
	for _, item := range items {
		texts = append(texts, parseText(item))
	}
	return texts
}

func decodeFraudDetection(raw json.RawMessage) *FraudDetection {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return nil
	}

	fd := &FraudDetection{Indicators: decodeTexts(fields["fraud_indicators"])}

	var level string
	if err := json.Unmarshal(fields["risk_level"], &level); err == nil {
		fd.RiskLevel = RiskLevel(strings.ToLower(strings.TrimSpace(level)))
	}
	if score := decodeFloat(fields["risk_score"]); score != nil {
		fd.RiskScore = *score
	}
	return fd
}
