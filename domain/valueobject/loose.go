package valueobject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LooseInt accepts a JSON number or a numeric string. Empty strings and null
// leave it at zero.
type LooseInt int

func (i *LooseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*i = 0
		return nil
	}

	var n json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*i = 0
			return nil
		}
		n = json.Number(s)
	} else {
		n = json.Number(data)
	}

	v, err := strconv.Atoi(n.String())
	if err != nil {
		return fmt.Errorf("invalid integer %q", n.String())
	}
	*i = LooseInt(v)
	return nil
}

// IntField narrows a loose integer field to a plain one, keeping its
// presence and null flags.
func IntField(f Field[LooseInt]) Field[int] {
	return Field[int]{Present: f.Present, Null: f.Null, Value: int(f.Value)}
}

// TriState is a boolean filter that may be unset. Unset means "no filter".
type TriState struct {
	Set   bool
	Value bool
}

func True() TriState  { return TriState{Set: true, Value: true} }
func False() TriState { return TriState{Set: true, Value: false} }

// Ptr returns nil when unset.
func (t TriState) Ptr() *bool {
	if !t.Set {
		return nil
	}
	v := t.Value
	return &v
}

// UnmarshalJSON accepts true, false, "true", "false", "" and null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*t = TriState{}
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*t = TriState{}
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", raw)
	}
	*t = TriState{Set: true, Value: v}
	return nil
}

func (t TriState) MarshalJSON() ([]byte, error) {
	if !t.Set {
		return jsonNull, nil
	}
	return json.Marshal(t.Value)
}
