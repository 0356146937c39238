package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoField marks a target that has no associated field catalog entry
const NoField = -1

// Target is a scheduling request for one telescope pointing.
// All angles are stored in radians; degree accessors are computed views.
type Target struct {
	TargetID int
	FieldID  int
	Filter   string

	// requested pointing
	RARad  float64
	DecRad float64
	AngRad float64

	// exposure plan
	NumExp   int
	ExpTimes []float64
	expTime  *float64 // total exposure time override

	// conditions
	Time          float64
	Airmass       float64
	SkyBrightness float64
	Cloud         float64
	Seeing        float64

	// computed at driver
	AltRad    float64
	AzRad     float64
	RotRad    float64
	TelAltRad float64
	TelAzRad  float64
	TelRotRad float64
	SlewTime  float64

	Note string

	// Extra holds JSON keys this version does not know about
	Extra map[string]json.RawMessage
}

// NewTarget creates a target with its requested pointing and exposure plan.
// expTimes is copied.
func NewTarget(targetID, fieldID int, filter string, raRad, decRad, angRad float64, numExp int, expTimes []float64) *Target {
	return &Target{
		TargetID: targetID,
		FieldID:  fieldID,
		Filter:   filter,
		RARad:    raRad,
		DecRad:   decRad,
		AngRad:   angRad,
		NumExp:   numExp,
		ExpTimes: copyFloats(expTimes),
	}
}

// ExpTime returns the total exposure time in seconds
func (t *Target) ExpTime() float64 {
	if t.expTime != nil {
		return *t.expTime
	}
	var total float64
	for _, e := range t.ExpTimes {
		total += e
	}
	return total
}

// SetExpTime overrides the total exposure time
func (t *Target) SetExpTime(seconds float64) {
	t.expTime = &seconds
}

// ClearExpTime drops the override so ExpTime sums ExpTimes again
func (t *Target) ClearExpTime() {
	t.expTime = nil
}

// ExpTimeOverride reports the override, if one is set
func (t *Target) ExpTimeOverride() (float64, bool) {
	if t.expTime == nil {
		return 0, false
	}
	return *t.expTime, true
}

// CopyDriverState copies the pointing computed by the driver from src.
// Identity, requested ra/dec, exposure plan, conditions and slew time are left alone.
func (t *Target) CopyDriverState(src *Target) {
	t.AltRad = src.AltRad
	t.AzRad = src.AzRad
	t.RotRad = src.RotRad
	t.TelAltRad = src.TelAltRad
	t.TelAzRad = src.TelAzRad
	t.TelRotRad = src.TelRotRad
	t.AngRad = src.AngRad
}

// Copy returns a deep copy of the target
func (t *Target) Copy() *Target {
	c := *t
	c.ExpTimes = copyFloats(t.ExpTimes)
	if t.expTime != nil {
		v := *t.expTime
		c.expTime = &v
	}
	if t.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// String renders a one-line summary with angles in degrees
func (t *Target) String() string {
	return fmt.Sprintf("targetid=%d field=%d filter=%s exp_times=%s ra=%.3f "+
		"dec=%.3f ang=%.3f alt=%.3f az=%.3f rot=%.3f "+
		"telalt=%.3f telaz=%.3f telrot=%.3f "+
		"time=%.1f airmass=%.3f brightness=%.3f "+
		"cloud=%.2f seeing=%.2f "+
		"slewtime=%.3f note=%s",
		t.TargetID, t.FieldID, t.Filter,
		formatFloatList(t.ExpTimes),
		t.RA(), t.Dec(), t.Ang(),
		t.Alt(), t.Az(), t.Rot(),
		t.TelAlt(), t.TelAz(), t.TelRot(),
		t.Time, t.Airmass, t.SkyBrightness,
		t.Cloud, t.Seeing,
		t.SlewTime, t.Note)
}

func copyFloats(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}

// formatFloatList prints values as "[15.0, 2.5]"
func formatFloatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatFloat prints the shortest representation, switching to exponent
// form below 1e-4 and from 1e16 up
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
