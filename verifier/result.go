package verifier

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the four-way verdict of a verification run.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusRisky   Status = "risky"
	StatusUnknown Status = "unknown"
)

// TriState models a check whose outcome can be yes, no, or genuinely
// undetermined. SMTP servers rate-limit, lie and time out, so "unknown"
// is a first-class answer here, not a missing one.
type TriState int

const (
	TriUnknown TriState = iota
	TriFalse
	TriTrue
)

func (t TriState) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}

// True reports whether the outcome is a definite yes.
func (t TriState) True() bool { return t == TriTrue }

// False reports whether the outcome is a definite no.
func (t TriState) False() bool { return t == TriFalse }

// MarshalJSON renders unknown as null so API clients see the same
// true/false/null shape the service has always exposed.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case TriTrue:
		return []byte("true"), nil
	case TriFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*t = TriTrue
	case "false":
		*t = TriFalse
	case "null":
		*t = TriUnknown
	default:
		return fmt.Errorf("invalid tri-state value %q", data)
	}
	return nil
}

// TriFromBool lifts a definite boolean into a TriState.
func TriFromBool(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

func parseTriState(s string) (TriState, error) {
	switch s {
	case "true":
		return TriTrue, nil
	case "false":
		return TriFalse, nil
	case "unknown":
		return TriUnknown, nil
	}
	return TriUnknown, fmt.Errorf("invalid tri-state value %q", s)
}

// Result is the outcome of verifying a single address. It is created
// fresh per verification call and never mutated after being returned.
type Result struct {
	Email           string   `json:"email"`
	Status          Status   `json:"status"`
	SyntaxValid     bool     `json:"syntax_valid"`
	DomainExists    bool     `json:"domain_exists"`
	MXRecordsExist  bool     `json:"mx_records_exist"`
	SMTPVerified    TriState `json:"smtp_verified"`
	IsCatchAll      TriState `json:"is_catch_all"`
	IsDisposable    bool     `json:"is_disposable"`
	IsRoleBased     bool     `json:"is_role_based"`
	IsFreeProvider  bool     `json:"is_free_provider"`
	MXRecords       []string `json:"mx_records"`
	Details         []string `json:"details"`
	ConfidenceScore int      `json:"confidence_score"`
	Deliverable     bool     `json:"deliverable"`
}

// addDetail appends one human-readable diagnostic note. The details
// list is append-only, one note per verification step.
func (r *Result) addDetail(note string) {
	r.Details = append(r.Details, note)
}

// RowHeader returns the column names matching Row, for CSV export.
func RowHeader() []string {
	return []string{
		"email", "status", "confidence_score", "deliverable",
		"syntax_valid", "domain_exists", "mx_records_exist",
		"smtp_verified", "is_catch_all",
		"is_disposable", "is_role_based", "is_free_provider",
		"mx_records", "details",
	}
}

// Row flattens the result into one tabular row. The MX and detail
// lists are JSON-encoded into their cells so the row stays flat while
// the lists round-trip verbatim through ResultFromRow.
func (r *Result) Row() []string {
	return []string{
		r.Email,
		string(r.Status),
		strconv.Itoa(r.ConfidenceScore),
		strconv.FormatBool(r.Deliverable),
		strconv.FormatBool(r.SyntaxValid),
		strconv.FormatBool(r.DomainExists),
		strconv.FormatBool(r.MXRecordsExist),
		r.SMTPVerified.String(),
		r.IsCatchAll.String(),
		strconv.FormatBool(r.IsDisposable),
		strconv.FormatBool(r.IsRoleBased),
		strconv.FormatBool(r.IsFreeProvider),
		encodeList(r.MXRecords),
		encodeList(r.Details),
	}
}

// ResultFromRow is the inverse of Row.
func ResultFromRow(row []string) (*Result, error) {
	if len(row) != len(RowHeader()) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(RowHeader()), len(row))
	}

	r := &Result{
		Email:  row[0],
		Status: Status(row[1]),
	}

	var err error
	if r.ConfidenceScore, err = strconv.Atoi(row[2]); err != nil {
		return nil, fmt.Errorf("confidence_score: %w", err)
	}

	bools := []struct {
		cell string
		dst  *bool
	}{
		{row[3], &r.Deliverable},
		{row[4], &r.SyntaxValid},
		{row[5], &r.DomainExists},
		{row[6], &r.MXRecordsExist},
		{row[9], &r.IsDisposable},
		{row[10], &r.IsRoleBased},
		{row[11], &r.IsFreeProvider},
	}
	for _, b := range bools {
		if *b.dst, err = strconv.ParseBool(b.cell); err != nil {
			return nil, err
		}
	}

	if r.SMTPVerified, err = parseTriState(row[7]); err != nil {
		return nil, err
	}
	if r.IsCatchAll, err = parseTriState(row[8]); err != nil {
		return nil, err
	}

	if r.MXRecords, err = decodeList(row[12]); err != nil {
		return nil, fmt.Errorf("mx_records: %w", err)
	}
	if r.Details, err = decodeList(row[13]); err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}

	return r, nil
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(cell string) ([]string, error) {
	if cell == "" || cell == "[]" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(cell), &items); err != nil {
		return nil, err
	}
	return items, nil
}
