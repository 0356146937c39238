package export

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"obstarget/internal/model"
)

// TargetsToGeoJSON builds a FeatureCollection with one point per target.
// Coordinates are [ra, dec] in degrees with ra wrapped to [-180, 180).
// Targets without a finite position are left out and non-finite
// properties are omitted, since GeoJSON has no encoding for them.
func TargetsToGeoJSON(targets []*model.Target) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, t := range targets {
		if !finite(t.RA()) || !finite(t.Dec()) {
			continue
		}

		point := orb.Point{wrapLongitude(t.RA()), t.Dec()}
		feature := geojson.NewFeature(point)
		feature.ID = t.TargetID

		feature.Properties["targetid"] = t.TargetID
		feature.Properties["fieldid"] = t.FieldID
		feature.Properties["filter"] = t.Filter
		setFinite(feature.Properties, "ang", t.Ang())
		feature.Properties["num_exp"] = t.NumExp
		setFinite(feature.Properties, "exp_time", t.ExpTime())
		setFinite(feature.Properties, "alt", t.Alt())
		setFinite(feature.Properties, "az", t.Az())
		setFinite(feature.Properties, "airmass", t.Airmass)
		setFinite(feature.Properties, "slewtime", t.SlewTime)
		if t.Note != "" {
			feature.Properties["note"] = t.Note
		}

		fc.Append(feature)
	}

	return fc
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func setFinite(props geojson.Properties, key string, v float64) {
	if finite(v) {
		props[key] = v
	}
}

func wrapLongitude(deg float64) float64 {
	wrapped := math.Mod(deg+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}
