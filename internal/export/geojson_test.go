package export

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"obstarget/internal/model"
)

func TestTargetsToGeoJSON(t *testing.T) {
	a := model.NewTarget(1, 10, "r", 0, 0, 0, 2, []float64{15, 15})
	a.SetRA(300)
	a.SetDec(-30)
	a.Note = "wfd"
	b := model.NewTarget(2, model.NoField, "g", 0, 0, 0, 1, []float64{30})
	b.SetRA(45)
	b.SetDec(10)
	b.SetExpTime(25)

	fc := TargetsToGeoJSON([]*model.Target{a, b})
	if len(fc.Features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(fc.Features))
	}

	p, ok := fc.Features[0].Geometry.(orb.Point)
	if !ok {
		t.Fatalf("Expected point geometry, got %T", fc.Features[0].Geometry)
	}
	if math.Abs(p.Lon()+60) > 1e-9 || math.Abs(p.Lat()+30) > 1e-9 {
		t.Errorf("Expected [-60, -30], got %v", p)
	}
	if fc.Features[0].Properties["note"] != "wfd" {
		t.Errorf("Expected note property, got %v", fc.Features[0].Properties)
	}
	if fc.Features[1].Properties["exp_time"] != 25.0 {
		t.Errorf("Expected exp_time override 25, got %v", fc.Features[1].Properties["exp_time"])
	}
	if _, ok := fc.Features[1].Properties["note"]; ok {
		t.Error("Expected no note property for empty note")
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !json.Valid(data) {
		t.Errorf("Expected valid GeoJSON, got %s", data)
	}
}

func TestWrapLongitude(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{179.5, 179.5},
		{180, -180},
		{300, -60},
		{360, 0},
		{-190, 170},
	}
	for _, tt := range tests {
		if got := wrapLongitude(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("wrapLongitude(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestTargetsToGeoJSONSkipsNonFinite(t *testing.T) {
	lost := model.NewTarget(1, 10, "r", math.NaN(), 0, 0, 1, []float64{15})
	partial := model.NewTarget(2, 11, "g", 0.5, 0.1, 0, 1, []float64{15})
	partial.Airmass = math.Inf(1)

	fc := TargetsToGeoJSON([]*model.Target{lost, partial})
	if len(fc.Features) != 1 {
		t.Fatalf("Expected only the target with a position, got %d features", len(fc.Features))
	}
	if _, ok := fc.Features[0].Properties["airmass"]; ok {
		t.Error("Expected non-finite airmass to be omitted")
	}

	if _, err := json.Marshal(fc); err != nil {
		t.Errorf("Expected collection to encode, got %v", err)
	}
}
