package inference

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"creditscope/internal/domain"
	"creditscope/internal/port"
)

// flexInt accepts a JSON number or a numeric string.
type flexInt struct {
	set   bool
	value int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if s == "" {
			return nil
		}
		n, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
	}
	f.set = true
	f.value = int(math.Round(n))
	return nil
}

type rawReport struct {
	Score            flexInt  `json:"score"`
	Rating           string   `json:"rating"`
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	RiskFactors      []string `json:"riskFactors"`
	Recommendations  []string `json:"recommendations"`
	DetailedAnalysis *struct {
		FinancialHealth flexInt `json:"financialHealth"`
		CashFlow        flexInt `json:"cashFlow"`
		DebtManagement  flexInt `json:"debtManagement"`
		Compliance      flexInt `json:"compliance"`
	} `json:"detailedAnalysis"`
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		tag := strings.TrimSpace(s[:nl])
		if !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseReport extracts and validates a report from a raw model response. The
// result is valid only with a score, a rating and a summary.
func ParseReport(raw string) (*port.ReportDraft, error) {
	text := StripCodeFences(raw)
	if text == "" {
		return nil, &MalformedReportError{Reason: "empty response", Raw: raw}
	}

	var parsed rawReport
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		// Models sometimes wrap the object in prose; retry on the outermost braces.
		start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}')
		if start < 0 || end <= start {
			return nil, &MalformedReportError{Reason: "no JSON object found", Raw: raw}
		}
		parsed = rawReport{}
		if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
			return nil, &MalformedReportError{Reason: "invalid JSON: " + err.Error(), Raw: raw}
		}
	}

	switch {
	case !parsed.Score.set:
		return nil, &MalformedReportError{Reason: "missing score", Raw: raw}
	case strings.TrimSpace(parsed.Rating) == "":
		return nil, &MalformedReportError{Reason: "missing rating", Raw: raw}
	case strings.TrimSpace(parsed.Summary) == "":
		return nil, &MalformedReportError{Reason: "missing summary", Raw: raw}
	}

	draft := &port.ReportDraft{
		Score:           parsed.Score.value,
		Rating:          domain.Rating(strings.TrimSpace(parsed.Rating)),
		Summary:         strings.TrimSpace(parsed.Summary),
		Strengths:       nonEmpty(parsed.Strengths),
		RiskFactors:     nonEmpty(parsed.RiskFactors),
		Recommendations: nonEmpty(parsed.Recommendations),
	}
	if d := parsed.DetailedAnalysis; d != nil && d.FinancialHealth.set && d.CashFlow.set && d.DebtManagement.set && d.Compliance.set {
		draft.DetailedAnalysis = &domain.DetailedAnalysis{
			FinancialHealth: d.FinancialHealth.value,
			CashFlow:        d.CashFlow.value,
			DebtManagement:  d.DebtManagement.value,
			Compliance:      d.Compliance.value,
		}
	}
	return draft, nil
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
