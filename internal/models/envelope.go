package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flag decodes the loosely typed booleans of the upstream API. The platform sends
// `"true"`, `true`, `1` and `"1"` interchangeably; anything else reads as false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		*f = Flag(s == "true" || s == "1" || s == "yes")
		return nil
	}
	if v, err := strconv.ParseBool(string(b)); err == nil {
		*f = Flag(v)
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = Flag(n != 0)
	return nil
}

func (f Flag) Bool() bool { return bool(f) }

// Envelope is the common wrapper every upstream response carries.
type Envelope struct {
	Success Flag   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Pagination is the paging block returned alongside list payloads.
type Pagination struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
}
