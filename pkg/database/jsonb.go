package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB scans a jsonb column into T.
type JSONB[T any] struct {
	Data T
}

func (p *JSONB[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, &p.Data)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), &p.Data)
	case T:
		p.Data = v
		return nil
	}
	return fmt.Errorf("JSONB.Scan: expected []byte or string, got %T", src)
}

func (p JSONB[T]) Value() (driver.Value, error) {
	return json.Marshal(p.Data)
}

func (p *JSONB[T]) GetValue() T {
	return p.Data
}
