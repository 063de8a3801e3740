package recordsdb

import "encoding/json"

func encodeJSON(m map[string]any) string {
	if m == nil {
		return ""
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(buf)
}

func decodeJSON(s string) map[string]any {
	if s == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
