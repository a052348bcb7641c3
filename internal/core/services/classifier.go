package services

import (
	"strings"

	"github.com/custodia-labs/docverify/internal/core/domain"
)

// benignIndicators are substrings of computer-vision quality findings.
// They describe the image, not the document, and never count as fraud evidence.
var benignIndicators = []string{
	"compression",
	"noise",
	"copy-paste",
	"edge",
}

// Normalize returns the display text of a possibly bilingual value.
// Bilingual values prefer English, then Hindi, then their JSON form.
// The boolean is false for absent values.
func Normalize(t domain.Text) (string, bool) {
	switch t.Kind {
	case domain.TextScalar:
		return t.Value, true
	case domain.TextBilingual:
		if t.English != "" {
			return t.English, true
		}
		if t.Hindi != "" {
			return t.Hindi, true
		}
		return t.Raw, true
	default:
		return "", false
	}
}

// IsBenignIndicator reports whether a normalised indicator is an image-quality artifact.
func IsBenignIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, s := range benignIndicators {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// SurvivingIndicators returns the normalised fraud indicators of a record
// that are not benign, in their original order.
func SurvivingIndicators(rec domain.DocumentRecord) []string {
	if rec.Metadata == nil {
		return nil
	}
	var out []string
	for _, raw := range rec.Metadata.FraudIndicators {
		text, ok := Normalize(raw)
		if !ok || IsBenignIndicator(text) {
			continue
		}
		out = append(out, text)
	}
	return out
}

// Classify derives the verification verdict of a record.
// It is pure and total: missing or malformed metadata behaves as absent.
func Classify(rec domain.DocumentRecord) domain.Verdict {
	if rec.Status != domain.StatusCompleted {
		return domain.VerdictPending
	}

	md := rec.Metadata
	if md == nil {
		return domain.VerdictVerified
	}
	if md.IsAuthentic != nil && !*md.IsAuthentic {
		return domain.VerdictSuspicious
	}

	var risk domain.RiskLevel
	if md.FraudDetection != nil {
		risk = md.FraudDetection.RiskLevel
	}
	// Medium and high risk both need a surviving indicator.
	if (risk == domain.RiskHigh || risk == domain.RiskMedium) && len(SurvivingIndicators(rec)) > 0 {
		return domain.VerdictSuspicious
	}
	return domain.VerdictVerified
}

// Tally classifies every record and counts verdicts and statuses.
func Tally(records []domain.DocumentRecord) domain.Summary {
	var s domain.Summary
	for i := range records {
		s.Add(records[i].Status, Classify(records[i]))
	}
	return s
}
