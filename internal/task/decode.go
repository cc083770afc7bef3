package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrNotList = errors.New("stored tasks are not a JSON array")

// Decoder normalizes persisted records of any known shape into Tasks.
// Now supplies createdAt when the stored value is missing or unparsable;
// NewID supplies ids for records without a usable one.
type Decoder struct {
	Now   func() time.Time
	NewID func() string
}

// Decode never fails. Unknown fields are ignored and missing or mistyped
// fields fall back to their defaults.
func (d Decoder) Decode(raw any) Task {
	rec, _ := raw.(map[string]any)

	t := Task{
		ID:        idString(rec["id"]),
		Text:      trimmedString(rec["text"]),
		Status:    decodeStatus(rec),
		CreatedAt: d.decodeCreatedAt(rec["createdAt"]),
		Tags:      decodeTags(rec["tags"]),
		StartDate: trimmedString(rec["startDate"]),
		Deadline:  trimmedString(rec["deadline"]),
		Assignee:  trimmedString(rec["assignee"]),
	}
	if t.ID == "" {
		t.ID = d.newID()
	}
	return t
}

// DecodeAll decodes a persisted snapshot. Records whose id repeats an
// earlier one get a fresh id. Only a snapshot that is not a JSON array is an
// error; individual records are never rejected.
func (d Decoder) DecodeAll(data string) ([]Task, error) {
	if strings.TrimSpace(data) == "" {
		return []Task{}, nil
	}
	var raws []any
	if err := json.Unmarshal([]byte(data), &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotList, err)
	}
	tasks := make([]Task, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		t := d.Decode(raw)
		for {
			if _, dup := seen[t.ID]; !dup {
				break
			}
			t.ID = d.newID()
		}
		seen[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Encode serializes the whole collection as one snapshot.
func Encode(tasks []Task) (string, error) {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		if t.Tags == nil {
			t.Tags = []string{}
		}
		out[i] = t
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d Decoder) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Decoder) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

func decodeStatus(rec map[string]any) Status {
	if s, ok := rec["status"].(string); ok && Status(s).Valid() {
		return Status(s)
	}
	if truthy(rec["completed"]) {
		return StatusDone
	}
	return StatusPending
}

func (d Decoder) decodeCreatedAt(v any) time.Time {
	switch v := v.(type) {
	case string:
		v = strings.TrimSpace(v)
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts.UTC()
		}
		if ts, err := time.Parse(DateLayout, v); err == nil {
			return ts.UTC()
		}
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if v >= math.MinInt64 && v < math.MaxInt64 {
			if ts := time.UnixMilli(int64(v)).UTC(); encodableYear(ts) {
				return ts
			}
		}
	}
	return d.now()
}

// encodableYear reports whether ts survives a JSON round trip; Time.MarshalJSON
// rejects years outside [0,9999].
func encodableYear(ts time.Time) bool {
	y := ts.Year()
	return y >= 0 && y <= 9999
}

func decodeTags(v any) []string {
	tags := []string{}
	list, ok := v.([]any)
	if !ok {
		return tags
	}
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

func idString(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// truthy follows the loose boolean reading legacy records were written with.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	default:
		return true
	}
}
