package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusUploaded.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, DocumentStatus("").IsTerminal())
}

func TestDocumentID_AcceptsNumberAndString(t *testing.T) {
	var ids []DocumentID
	require.NoError(t, json.Unmarshal([]byte(`[42, "abc"]`), &ids))
	assert.Equal(t, []DocumentID{"42", "abc"}, ids)
}

func TestDocumentRecord_Unmarshal(t *testing.T) {
	raw := `{
		"id": 7,
		"file_name": "card.jpg",
		"file_size": 2048,
		"status": "Completed",
		"batch_id": "batch_abc",
		"uploaded_at": "2025-01-02T03:04:05Z",
		"metadata": {
			"is_authentic": false,
			"fraud_indicators": ["tampered photo region", {"english": "Forged seal", "hindi": "जाली मोहर"}, null],
			"fraud_detection": {"risk_level": "HIGH", "risk_score": 0.81},
			"confidence_score": 0.9,
			"analyzed_at": "2025-01-02T03:05:00Z",
			"name": {"english": "Asha", "hindi": "आशा"},
			"aadhaar_number": "1234 5678 9012"
		}
	}`

	var rec DocumentRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, DocumentID("7"), rec.ID)
	assert.Equal(t, StatusCompleted, rec.Status)
	require.NotNil(t, rec.UploadedAt)
	require.NotNil(t, rec.Metadata)

	md := rec.Metadata
	require.NotNil(t, md.IsAuthentic)
	assert.False(t, *md.IsAuthentic)
	require.Len(t, md.FraudIndicators, 3)
	assert.Equal(t, TextScalar, md.FraudIndicators[0].Kind)
	assert.Equal(t, "Forged seal", md.FraudIndicators[1].English)
	assert.True(t, md.FraudIndicators[2].IsAbsent())
	require.NotNil(t, md.FraudDetection)
	assert.Equal(t, RiskHigh, md.FraudDetection.RiskLevel)
	assert.InDelta(t, 0.81, md.FraudDetection.RiskScore, 1e-9)
	require.NotNil(t, md.AnalyzedAt)
	assert.Equal(t, "Asha", md.Name.English)
	assert.Equal(t, "1234 5678 9012", md.AadhaarNumber)
}

func TestAnalysisMetadata_MalformedFieldsAreAbsent(t *testing.T) {
	raw := `{
		"is_authentic": "maybe",
		"fraud_indicators": "not a list",
		"fraud_detection": ["wrong"],
		"confidence_score": "high",
		"analyzed_at": 12
	}`

	var md AnalysisMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &md))

	assert.Nil(t, md.IsAuthentic)
	assert.Nil(t, md.FraudIndicators)
	assert.Nil(t, md.FraudDetection)
	assert.Nil(t, md.ConfidenceScore)
	assert.Nil(t, md.AnalyzedAt)
}

func TestAnalysisMetadata_NotAnObject(t *testing.T) {
	var rec DocumentRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "status": 3, "metadata": 5}`), &rec))

	assert.Equal(t, DocumentStatus(""), rec.Status)
	require.NotNil(t, rec.Metadata)
	assert.Nil(t, rec.Metadata.IsAuthentic)
}
