package logging

// LogField is one key/value pair attached to a log line.
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a LogField.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// cloneFields returns a non-nil copy of src.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
