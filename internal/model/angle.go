package model

import "github.com/golang/geo/s1"

func degrees(rad float64) float64 {
	return s1.Angle(rad).Degrees()
}

func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// RA returns the right ascension in degrees
func (t *Target) RA() float64 { return degrees(t.RARad) }

// SetRA sets the right ascension given in degrees
func (t *Target) SetRA(deg float64) { t.RARad = radians(deg) }

// Dec returns the declination in degrees
func (t *Target) Dec() float64 { return degrees(t.DecRad) }

// SetDec sets the declination given in degrees
func (t *Target) SetDec(deg float64) { t.DecRad = radians(deg) }

// Ang returns the sky angle in degrees
func (t *Target) Ang() float64 { return degrees(t.AngRad) }

// SetAng sets the sky angle given in degrees
func (t *Target) SetAng(deg float64) { t.AngRad = radians(deg) }

// Alt returns the target altitude in degrees
func (t *Target) Alt() float64 { return degrees(t.AltRad) }

// SetAlt sets the target altitude given in degrees
func (t *Target) SetAlt(deg float64) { t.AltRad = radians(deg) }

// Az returns the target azimuth in degrees
func (t *Target) Az() float64 { return degrees(t.AzRad) }

// SetAz sets the target azimuth given in degrees
func (t *Target) SetAz(deg float64) { t.AzRad = radians(deg) }

// Rot returns the rotator angle in degrees
func (t *Target) Rot() float64 { return degrees(t.RotRad) }

// SetRot sets the rotator angle given in degrees
func (t *Target) SetRot(deg float64) { t.RotRad = radians(deg) }

// TelAlt returns the telescope altitude in degrees
func (t *Target) TelAlt() float64 { return degrees(t.TelAltRad) }

// SetTelAlt sets the telescope altitude given in degrees
func (t *Target) SetTelAlt(deg float64) { t.TelAltRad = radians(deg) }

// TelAz returns the telescope azimuth in degrees
func (t *Target) TelAz() float64 { return degrees(t.TelAzRad) }

// SetTelAz sets the telescope azimuth given in degrees
func (t *Target) SetTelAz(deg float64) { t.TelAzRad = radians(deg) }

// TelRot returns the telescope rotator angle in degrees
func (t *Target) TelRot() float64 { return degrees(t.TelRotRad) }

// SetTelRot sets the telescope rotator angle given in degrees
func (t *Target) SetTelRot(deg float64) { t.TelRotRad = radians(deg) }
