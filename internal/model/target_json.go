package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// MandatoryFields must be present in a JSON payload for FromJSON to accept it
var MandatoryFields = []string{
	"targetid", "fieldid", "filter", "ra_rad", "dec_rad",
	"ang_rad", "num_exp", "exp_times",
}

// jsonFields lists the serialized keys in output order
var jsonFields = []string{
	"targetid", "fieldid", "filter", "ra_rad", "dec_rad", "ang_rad",
	"num_exp", "exp_times", "_exp_time",
	"time", "airmass", "sky_brightness", "cloud", "seeing",
	"alt_rad", "az_rad", "rot_rad", "telalt_rad", "telaz_rad", "telrot_rad",
	"slewtime", "note",
}

// fieldRefs maps every serialized key to the field that backs it
func (t *Target) fieldRefs() map[string]any {
	return map[string]any{
		"targetid":       &t.TargetID,
		"fieldid":        &t.FieldID,
		"filter":         &t.Filter,
		"ra_rad":         &t.RARad,
		"dec_rad":        &t.DecRad,
		"ang_rad":        &t.AngRad,
		"num_exp":        &t.NumExp,
		"exp_times":      &t.ExpTimes,
		"_exp_time":      &t.expTime,
		"time":           &t.Time,
		"airmass":        &t.Airmass,
		"sky_brightness": &t.SkyBrightness,
		"cloud":          &t.Cloud,
		"seeing":         &t.Seeing,
		"alt_rad":        &t.AltRad,
		"az_rad":         &t.AzRad,
		"rot_rad":        &t.RotRad,
		"telalt_rad":     &t.TelAltRad,
		"telaz_rad":      &t.TelAzRad,
		"telrot_rad":     &t.TelRotRad,
		"slewtime":       &t.SlewTime,
		"note":           &t.Note,
	}
}

// ToJSON serializes every field of the target, the exposure time override
// and any preserved extra keys.
func (t *Target) ToJSON() ([]byte, error) {
	c := *t
	if c.ExpTimes == nil {
		c.ExpTimes = []float64{}
	}
	refs := c.fieldRefs()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range jsonFields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, key, refs[key]); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		if _, known := refs[k]; !known {
			extraKeys = append(extraKeys, k)
		}
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		buf.WriteByte(',')
		if err := writeMember(&buf, key, t.Extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	name, err := json.Marshal(key)
	if err != nil {
		return err
	}
	data, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encode target field %q: %w", key, err)
	}
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(data)
	return nil
}

// Non-finite floats are written as the bare tokens NaN, Infinity and
// -Infinity, the same extension Python's json module reads and writes.
const (
	tokenNaN    = "NaN"
	tokenInf    = "Infinity"
	tokenNegInf = "-Infinity"
)

func encodeValue(value any) ([]byte, error) {
	switch v := value.(type) {
	case *float64:
		return appendFloat(nil, *v), nil
	case **float64:
		if *v == nil {
			return []byte("null"), nil
		}
		return appendFloat(nil, **v), nil
	case *[]float64:
		out := []byte{'['}
		for i, f := range *v {
			if i > 0 {
				out = append(out, ',')
			}
			out = appendFloat(out, f)
		}
		return append(out, ']'), nil
	case json.RawMessage:
		// kept verbatim, may hold non-finite tokens
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func appendFloat(dst []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, tokenNaN...)
	case math.IsInf(f, 1):
		return append(dst, tokenInf...)
	case math.IsInf(f, -1):
		return append(dst, tokenNegInf...)
	}
	// same shortest form encoding/json produces
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(dst, f, format, -1, 64)
}

// FromJSON assigns the keys of a JSON object onto the target.
//
// The payload must carry every key in MandatoryFields, otherwise a
// *MissingFieldError naming the first absent key is returned. Keys absent
// from the payload keep their current value, so callers should decode into
// a fresh Target. Unknown keys are kept in Extra. On error the target is
// left unchanged.
func (t *Target) FromJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(quoteNonFinite(data), &members); err != nil {
		return fmt.Errorf("decode target json: %w", err)
	}
	if members == nil {
		return fmt.Errorf("decode target json: expected an object")
	}

	for _, key := range MandatoryFields {
		if _, ok := members[key]; !ok {
			return &MissingFieldError{Field: key}
		}
	}

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := t.Copy()
	refs := next.fieldRefs()
	for _, key := range keys {
		raw := members[key]
		ref, known := refs[key]
		if !known {
			if next.Extra == nil {
				next.Extra = make(map[string]json.RawMessage)
			}
			next.Extra[key] = unquoteNonFinite(raw)
			continue
		}
		if err := decodeValue(raw, ref); err != nil {
			return fmt.Errorf("decode target field %q: %w", key, err)
		}
	}

	*t = *next
	return nil
}

var errNull = fmt.Errorf("null is not allowed")

// decodeValue decodes raw into ref. Only the exposure time override
// accepts null.
func decodeValue(raw json.RawMessage, ref any) error {
	isNull := string(bytes.TrimSpace(raw)) == "null"

	switch v := ref.(type) {
	case **float64:
		if isNull {
			*v = nil
			return nil
		}
		f, err := decodeFloat(raw)
		if err != nil {
			return err
		}
		*v = &f
		return nil
	case *float64:
		if isNull {
			return errNull
		}
		f, err := decodeFloat(raw)
		if err != nil {
			return err
		}
		*v = f
		return nil
	case *[]float64:
		if isNull {
			return errNull
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		out := make([]float64, len(items))
		for i, item := range items {
			f, err := decodeFloat(item)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = f
		}
		*v = out
		return nil
	default:
		if isNull {
			return errNull
		}
		return json.Unmarshal(raw, ref)
	}
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case nonFiniteNaN:
			return math.NaN(), nil
		case nonFiniteInf:
			return math.Inf(1), nil
		case nonFiniteNegInf:
			return math.Inf(-1), nil
		}
	}
	var f float64
	err := json.Unmarshal(raw, &f)
	return f, err
}

// MarshalJSON implements json.Marshaler
func (t *Target) MarshalJSON() ([]byte, error) {
	return t.ToJSON()
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Target) UnmarshalJSON(data []byte) error {
	return t.FromJSON(data)
}
