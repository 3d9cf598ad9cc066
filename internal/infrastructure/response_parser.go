package infrastructure

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"quickResume/internal/domain"
)

// ExtractJSONObject returns the first balanced {...} block in out that is
// valid JSON. Braces inside JSON strings are ignored while matching.
func ExtractJSONObject(out []byte) ([]byte, bool) {
	for start := 0; start < len(out); {
		i := bytes.IndexByte(out[start:], '{')
		if i < 0 {
			return nil, false
		}
		begin := start + i

		if end, ok := matchBrace(out, begin); ok {
			candidate := out[begin : end+1]
			if gjson.ValidBytes(candidate) {
				return candidate, true
			}
		}
		start = begin + 1
	}
	return nil, false
}

// matchBrace finds the index of the brace closing the one at open
func matchBrace(b []byte, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(b); i++ {
		c := b[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ParseActuatorResponse turns script output into a result. In strict mode
// empty output is rejected; otherwise it counts as a bare success.
func ParseActuatorResponse(out []byte, strict bool) (*domain.OperationResult, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		if strict {
			return nil, domain.NewOperationError(domain.KindMalformedResponse, "parse", "", fmt.Errorf("%w: actuator produced no output", domain.ErrMalformedResponse))
		}
		return domain.Succeeded("", nil), nil
	}

	obj, ok := ExtractJSONObject(trimmed)
	if !ok {
		return nil, domain.NewOperationError(domain.KindMalformedResponse, "parse", "", fmt.Errorf("%w: no JSON object in output", domain.ErrMalformedResponse))
	}

	doc := gjson.ParseBytes(obj)
	success := doc.Get("Success")
	if success.Type != gjson.True && success.Type != gjson.False {
		return nil, domain.NewOperationError(domain.KindMalformedResponse, "parse", "", fmt.Errorf("%w: missing boolean Success field", domain.ErrMalformedResponse))
	}

	result := &domain.OperationResult{
		Success: success.Bool(),
		Message: doc.Get("Message").String(),
		Logs:    parseLogs(doc.Get("Logs")),
	}

	if kind := doc.Get("Kind"); kind.Exists() {
		result.Kind = domain.ErrorKind(kind.String())
	}

	if data := doc.Get("Data"); data.Exists() && data.Type != gjson.Null {
		records, err := parseRecords(data)
		if err != nil {
			return nil, domain.NewOperationError(domain.KindMalformedResponse, "parse", "", err)
		}
		result.Data = records
	}

	return result.Normalize(), nil
}

func parseLogs(logs gjson.Result) []domain.LogEntry {
	if !logs.IsArray() {
		return nil
	}
	var entries []domain.LogEntry
	logs.ForEach(func(_, v gjson.Result) bool {
		entries = append(entries, domain.LogEntry{
			Type:    v.Get("Type").String(),
			Message: v.Get("Message").String(),
		})
		return true
	})
	return entries
}

// parseRecords accepts a single process object or an array of them
func parseRecords(data gjson.Result) ([]domain.ProcessRecord, error) {
	var items []gjson.Result
	switch {
	case data.IsArray():
		items = data.Array()
	case data.IsObject():
		items = []gjson.Result{data}
	default:
		return nil, fmt.Errorf("%w: Data is neither object nor array", domain.ErrMalformedResponse)
	}

	records := make([]domain.ProcessRecord, 0, len(items))
	for _, item := range items {
		name := item.Get("Name").String()
		if name == "" {
			name = item.Get("ProcessName").String()
		}
		if name == "" {
			continue
		}
		records = append(records, domain.ProcessRecord{
			Name:        name,
			PID:         int(item.Get("Id").Int()),
			WindowTitle: item.Get("WindowTitle").String(),
			IsSuspended: item.Get("IsSuspended").Bool(),
		})
	}
	return records, nil
}

// kindFromMessage guesses the kind of a failure reported only as text
func kindFromMessage(msg string) domain.ErrorKind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "not found"), strings.Contains(m, "cannot find"), strings.Contains(m, "no process"):
		return domain.KindProcessNotFound
	case strings.Contains(m, "access is denied"), strings.Contains(m, "access denied"), strings.Contains(m, "permission"):
		return domain.KindPermissionDenied
	case strings.Contains(m, "partial"):
		return domain.KindPartialSuspend
	default:
		return domain.KindActuatorUnavailable
	}
}
