package core

import (
	"encoding/json"
	"fmt"
	"reflect"

	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// encodePayload renders a model as a column-keyed JSON object. Only
// fields the schema mapped to columns are persisted; transient and
// association fields stay out of the envelope.
func encodePayload(model record.Model, table *schema.Table) (json.RawMessage, error) {
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("encode %s: nil model", table.Name)
		}
		rv = rv.Elem()
	}
	fields := make(map[string]any, len(table.Columns))
	for _, col := range table.Columns {
		fv := rv.FieldByName(col.Field)
		if !fv.IsValid() {
			return nil, fmt.Errorf("encode %s: missing field %s", table.Name, col.Field)
		}
		fields[col.Name] = fv.Interface()
	}
	return json.Marshal(fields)
}

// decodePayload hydrates a model from a column-keyed JSON object.
// Columns absent from the payload leave the field at its zero value.
func decodePayload(payload json.RawMessage, model record.Model, table *schema.Table) error {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode %s: destination must be a non-nil pointer", table.Name)
	}
	rv = rv.Elem()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", table.Name, err)
	}
	for _, col := range table.Columns {
		rm, ok := raw[col.Name]
		if !ok {
			continue
		}
		fv := rv.FieldByName(col.Field)
		if !fv.IsValid() || !fv.CanAddr() {
			return fmt.Errorf("decode %s: missing field %s", table.Name, col.Field)
		}
		if err := json.Unmarshal(rm, fv.Addr().Interface()); err != nil {
			return fmt.Errorf("decode %s.%s: %w", table.Name, col.Name, err)
		}
	}
	return nil
}

// payloadField extracts a single column value out of an envelope payload
// without hydrating a full model. Used by rules and association loading.
func payloadField(payload json.RawMessage, column string) (any, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, false
	}
	rm, ok := raw[column]
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(rm, &v); err != nil {
		return nil, false
	}
	return v, true
}
