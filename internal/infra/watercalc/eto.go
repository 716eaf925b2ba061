package watercalc

import "math"

// DayWeather is the daily input of the reference evapotranspiration model.
type DayWeather struct {
	TminC      float64
	TmaxC      float64
	WindSpeed  float64
	RHMin      float64
	RHMax      float64
	ElevationM float64
	LatDeg     float64
	DayOfYear  int
}

// ReferenceET computes FAO-56 Penman-Monteith ETo in mm/day. Solar radiation is
// estimated as half of the extraterrestrial radiation. Negative results clamp to zero.
func ReferenceET(w DayWeather) float64 {
	latRad := w.LatDeg * math.Pi / 180
	tmean := (w.TmaxC + w.TminC) / 2

	esTmin := saturationVaporPressure(w.TminC)
	esTmax := saturationVaporPressure(w.TmaxC)
	es := (esTmin + esTmax) / 2
	ea := (esTmin*(w.RHMax/100) + esTmax*(w.RHMin/100)) / 2

	slope := 4098 * es / math.Pow(tmean+237.3, 2)
	pressure := 101.3 * math.Pow((293-0.0065*w.ElevationM)/293, 5.26)
	gamma := 0.665e-3 * pressure

	doy := float64(w.DayOfYear)
	dr := 1 + 0.033*math.Cos(2*math.Pi*doy/365)
	decl := 0.409 * math.Sin(2*math.Pi*doy/365-1.39)
	ws := math.Acos(clamp(-math.Tan(latRad)*math.Tan(decl), -1, 1))

	ra := (24 * 60 / math.Pi) * 0.0820 * dr * (ws*math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Sin(ws))
	rso := (0.75 + 2e-5*w.ElevationM) * ra
	rs := ra * 0.5

	rns := (1 - 0.23) * rs
	rnl := 0.0
	if rso > 0 {
		rnl = 4.903e-9 * (math.Pow(w.TmaxC+273.16, 4) + math.Pow(w.TminC+273.16, 4)) / 2 *
			(0.34 - 0.14*math.Sqrt(ea)) * (1.35*rs/rso - 0.35)
	}
	rn := rns - rnl

	numerator := 0.408*slope*rn + gamma*(900/(tmean+273))*w.WindSpeed*(es-ea)
	denominator := slope + gamma*(1+0.34*w.WindSpeed)
	return math.Max(numerator/denominator, 0)
}

func saturationVaporPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
