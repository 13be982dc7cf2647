package service

import "encoding/json"

// encodeAuditValues marshals small key/value payloads for audit rows.
// Marshal cannot fail for map[string]string, so errors are ignored.
func encodeAuditValues(values map[string]string) []byte {
	if len(values) == 0 {
		return nil
	}
	payload, _ := json.Marshal(values)
	return payload
}
