package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"gorm.io/gorm/schema"
)

// TargetJSONSerializer stores exposure lists and extra keys with the same
// encoding ToJSON uses, so non-finite floats survive the database.
const TargetJSONSerializer = "targetjson"

func init() {
	schema.RegisterSerializer(TargetJSONSerializer, targetJSONSerializer{})
}

type targetJSONSerializer struct{}

// Scan implements schema.SerializerInterface
func (targetJSONSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var data []byte
		switch v := dbValue.(type) {
		case []byte:
			data = v
		case string:
			data = []byte(v)
		default:
			return fmt.Errorf("failed to unmarshal %s value: %#v", TargetJSONSerializer, dbValue)
		}

		if len(data) > 0 {
			if err := unmarshalColumn(data, fieldValue.Interface()); err != nil {
				return err
			}
		}
	}

	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return nil
}

// Value implements schema.SerializerInterface
func (targetJSONSerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	data, err := marshalColumn(fieldValue)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalColumn(value any) ([]byte, error) {
	switch v := value.(type) {
	case []float64:
		if v == nil {
			v = []float64{}
		}
		return encodeValue(&v)
	case map[string]json.RawMessage:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeMember(&buf, k, v[k]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return json.Marshal(value)
	}
}

func unmarshalColumn(data []byte, dst any) error {
	switch v := dst.(type) {
	case *[]float64:
		return decodeValue(quoteNonFinite(data), v)
	case *map[string]json.RawMessage:
		var members map[string]json.RawMessage
		if err := json.Unmarshal(quoteNonFinite(data), &members); err != nil {
			return err
		}
		for k, raw := range members {
			members[k] = unquoteNonFinite(raw)
		}
		*v = members
		return nil
	default:
		return json.Unmarshal(data, dst)
	}
}
