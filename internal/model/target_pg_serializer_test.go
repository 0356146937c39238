package model

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func TestColumnCodecNonFinite(t *testing.T) {
	data, err := marshalColumn([]float64{15, math.NaN(), math.Inf(1)})
	if err != nil {
		t.Fatalf("marshalColumn failed: %v", err)
	}
	if string(data) != "[15,NaN,Infinity]" {
		t.Errorf("Expected [15,NaN,Infinity], got %s", data)
	}

	var times []float64
	if err := unmarshalColumn(data, &times); err != nil {
		t.Fatalf("unmarshalColumn failed: %v", err)
	}
	if len(times) != 3 || times[0] != 15 || !math.IsNaN(times[1]) || !math.IsInf(times[2], 1) {
		t.Errorf("Expected [15 NaN +Inf], got %v", times)
	}
}

func TestColumnCodecExtras(t *testing.T) {
	extras := map[string]json.RawMessage{
		"weights": json.RawMessage(`[NaN, 1]`),
		"groupid": json.RawMessage(`7`),
	}

	data, err := marshalColumn(extras)
	if err != nil {
		t.Fatalf("marshalColumn failed: %v", err)
	}
	if string(data) != `{"groupid":7,"weights":[NaN, 1]}` {
		t.Errorf("Expected sorted verbatim extras, got %s", data)
	}

	var back map[string]json.RawMessage
	if err := unmarshalColumn(data, &back); err != nil {
		t.Fatalf("unmarshalColumn failed: %v", err)
	}
	if string(back["weights"]) != "[NaN, 1]" || string(back["groupid"]) != "7" {
		t.Errorf("Expected extras restored, got %v", back)
	}

	empty, err := marshalColumn(map[string]json.RawMessage(nil))
	if err != nil || string(empty) != "{}" {
		t.Errorf("Expected {} for no extras, got %s (%v)", empty, err)
	}
}

func TestTargetPGUsesTargetJSONSerializer(t *testing.T) {
	s, err := schema.Parse(&TargetPG{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema.Parse failed: %v", err)
	}

	for _, name := range []string{"ExpTimes", "Extra"} {
		field := s.LookUpField(name)
		if field == nil {
			t.Fatalf("Expected field %s in schema", name)
		}
		switch field.Serializer.(type) {
		case targetJSONSerializer, *targetJSONSerializer:
		default:
			t.Errorf("Expected %s to use the %s serializer, got %T", name, TargetJSONSerializer, field.Serializer)
		}
	}
}
