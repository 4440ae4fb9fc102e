package domain

// Record is one document to be written: a mapping of field name to value.
type Record = map[string]any
