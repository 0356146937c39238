package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// TargetPG is the GORM model for the Target entity
type TargetPG struct {
	TargetID int    `gorm:"primaryKey;autoIncrement:false"`
	FieldID  int    `gorm:"not null"`
	Filter   string `gorm:"size:8;not null"`

	RARad  float64 `gorm:"not null"`
	DecRad float64 `gorm:"not null"`
	AngRad float64 `gorm:"not null"`

	NumExp          int       `gorm:"not null"`
	ExpTimes        []float64 `gorm:"type:text;serializer:targetjson"`
	ExpTimeOverride *float64

	Time          float64
	Airmass       float64
	SkyBrightness float64
	Cloud         float64
	Seeing        float64

	AltRad    float64
	AzRad     float64
	RotRad    float64
	TelAltRad float64
	TelAzRad  float64
	TelRotRad float64
	SlewTime  float64

	Note  string                     `gorm:"type:text"`
	Extra map[string]json.RawMessage `gorm:"type:text;serializer:targetjson"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName overrides the GORM default
func (TargetPG) TableName() string {
	return "targets"
}

// ToPG converts the target to its database row
func (t *Target) ToPG() *TargetPG {
	c := t.Copy()
	row := &TargetPG{
		TargetID:      c.TargetID,
		FieldID:       c.FieldID,
		Filter:        c.Filter,
		RARad:         c.RARad,
		DecRad:        c.DecRad,
		AngRad:        c.AngRad,
		NumExp:        c.NumExp,
		ExpTimes:      c.ExpTimes,
		Time:          c.Time,
		Airmass:       c.Airmass,
		SkyBrightness: c.SkyBrightness,
		Cloud:         c.Cloud,
		Seeing:        c.Seeing,
		AltRad:        c.AltRad,
		AzRad:         c.AzRad,
		RotRad:        c.RotRad,
		TelAltRad:     c.TelAltRad,
		TelAzRad:      c.TelAzRad,
		TelRotRad:     c.TelRotRad,
		SlewTime:      c.SlewTime,
		Note:          c.Note,
		Extra:         c.Extra,
	}
	row.ExpTimeOverride = c.expTime
	return row
}

// FromPG converts a database row to a target
func FromPG(row *TargetPG) *Target {
	t := NewTarget(row.TargetID, row.FieldID, row.Filter,
		row.RARad, row.DecRad, row.AngRad, row.NumExp, row.ExpTimes)
	if row.ExpTimeOverride != nil {
		t.SetExpTime(*row.ExpTimeOverride)
	}

	t.Time = row.Time
	t.Airmass = row.Airmass
	t.SkyBrightness = row.SkyBrightness
	t.Cloud = row.Cloud
	t.Seeing = row.Seeing

	t.AltRad = row.AltRad
	t.AzRad = row.AzRad
	t.RotRad = row.RotRad
	t.TelAltRad = row.TelAltRad
	t.TelAzRad = row.TelAzRad
	t.TelRotRad = row.TelRotRad
	t.SlewTime = row.SlewTime

	t.Note = row.Note
	if len(row.Extra) > 0 {
		t.Extra = make(map[string]json.RawMessage, len(row.Extra))
		for k, v := range row.Extra {
			t.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return t
}
