package domain

import "math"

// HazardFamily identifies one of the evaluated hazard types.
type HazardFamily string

const (
	HazardHeat HazardFamily = "heat"
	HazardCold HazardFamily = "cold"
	HazardWind HazardFamily = "wind"
)

// Families lists every hazard family a scheduled run evaluates, in run order.
var Families = []HazardFamily{HazardHeat, HazardCold, HazardWind}

// ParseHazardFamily validates a hazard family name, defaulting to heat when
// the input is empty.
func ParseHazardFamily(s string) (HazardFamily, bool) {
	switch s {
	case "":
		return HazardHeat, true
	case string(HazardHeat), string(HazardCold), string(HazardWind):
		return HazardFamily(s), true
	default:
		return "", false
	}
}

// LabelSet maps each supported locale to the localized risk-level label.
type LabelSet map[Lang]string

// Label returns the label for lang, falling back to Catalan for unsupported
// or missing locales.
func (ls LabelSet) Label(lang Lang) string {
	if s, ok := ls[NormalizeLang(lang)]; ok {
		return s
	}
	return ls[LangCA]
}

// Assessment is the result of classifying one observation for one hazard family.
type Assessment struct {
	Family HazardFamily
	Level  int     // 0 = no appreciable risk .. 3 = very high
	Value  float64 // hazard value (°C for heat/cold, km/h for wind), one decimal
	Labels LabelSet
}

// Localized risk-level labels, indexed by level 0..3.
var (
	heatLabels = [4]LabelSet{
		{LangCA: "cap risc", LangES: "sin riesgo", LangEU: "arriskurik ez", LangGL: "sen risco"},
		{LangCA: "moderat", LangES: "moderado", LangEU: "moderatua", LangGL: "moderado"},
		{LangCA: "alt", LangES: "alto", LangEU: "handia", LangGL: "alto"},
		{LangCA: "molt alt", LangES: "muy alto", LangEU: "oso handia", LangGL: "moi alto"},
	}
	coldLabels = [4]LabelSet{
		{LangCA: "cap risc", LangES: "sin riesgo", LangEU: "arriskurik ez", LangGL: "sen risco"},
		{LangCA: "moderat", LangES: "moderado", LangEU: "moderatua", LangGL: "moderado"},
		{LangCA: "alt", LangES: "alto", LangEU: "handia", LangGL: "alto"},
		{LangCA: "extrem", LangES: "extremo", LangEU: "muturrekoa", LangGL: "extremo"},
	}
	windLabels = [4]LabelSet{
		{LangCA: "cap risc", LangES: "sin riesgo", LangEU: "arriskurik ez", LangGL: "sen risco"},
		{LangCA: "moderat", LangES: "moderado", LangEU: "moderatua", LangGL: "moderado"},
		{LangCA: "alt", LangES: "alto", LangEU: "handia", LangGL: "alto"},
		{LangCA: "extrem", LangES: "extremo", LangEU: "muturrekoa", LangGL: "extremo"},
	}
)

// HeatIndex computes the Rothfusz heat index in °C from air temperature (°C)
// and relative humidity (%), rounded to one decimal. The regression is only
// valid for warm air; callers below 18 °C should use the raw temperature
// (see HeatValue). Non-finite input yields NaN.
func HeatIndex(tempC, relHumidityPct float64) float64 {
	if !isFinite(tempC) || !isFinite(relHumidityPct) {
		return math.NaN()
	}

	t, r := tempC, relHumidityPct
	hi := -8.78469475556 +
		1.61139411*t +
		2.33854883889*r -
		0.14611605*t*r -
		0.012308094*t*t -
		0.0164248277778*r*r +
		0.002211732*t*t*r +
		0.00072546*t*r*r -
		0.000003582*t*t*r*r

	return round1(hi)
}

// HeatValue returns the perceived heat for classification: the Rothfusz
// regression for temperatures of 18 °C and above, the raw temperature below
// that, both rounded to one decimal.
func HeatValue(tempC, relHumidityPct float64) float64 {
	if !isFinite(tempC) {
		return math.NaN()
	}
	if tempC < 18 {
		return round1(tempC)
	}
	return HeatIndex(tempC, relHumidityPct)
}

// WindChill computes the Environment Canada wind-chill approximation in °C
// from air temperature (°C) and wind speed (km/h), rounded to one decimal.
// Non-finite input yields NaN.
func WindChill(tempC, windKmh float64) float64 {
	if !isFinite(tempC) || !isFinite(windKmh) {
		return math.NaN()
	}

	v := math.Pow(windKmh, 0.16)
	wc := 13.12 + 0.6215*tempC - 11.37*v + 0.3965*tempC*v
	return round1(wc)
}

// ColdValue returns the perceived cold for classification. The wind-chill
// formula only applies with measurable wind at low temperature; otherwise the
// raw temperature is used.
func ColdValue(tempC, windKmh float64) float64 {
	if !isFinite(tempC) {
		return math.NaN()
	}
	if windKmh <= 0 || tempC > 10 {
		return round1(tempC)
	}
	return WindChill(tempC, windKmh)
}

// ClassifyHeatIndex maps a heat-index value to a risk level using the INSST
// ladder (31 / 38 / 46 °C). Non-finite values classify as level 0.
func ClassifyHeatIndex(hi float64) int {
	switch {
	case !isFinite(hi):
		return 0
	case hi >= 46:
		return 3
	case hi >= 38:
		return 2
	case hi >= 31:
		return 1
	default:
		return 0
	}
}

// ClassifyWindChill maps a wind-chill value to a risk level. Risk grows as
// the value falls, with inclusive breakpoints at 4 / -5 / -10 °C.
func ClassifyWindChill(wc float64) int {
	switch {
	case !isFinite(wc):
		return 0
	case wc <= -10:
		return 3
	case wc <= -5:
		return 2
	case wc <= 4:
		return 1
	default:
		return 0
	}
}

// ClassifyWindSpeed maps a wind speed in km/h to a risk level using
// breakpoints at 50 / 70 / 90 km/h.
func ClassifyWindSpeed(speedKmh float64) int {
	switch {
	case !isFinite(speedKmh):
		return 0
	case speedKmh >= 90:
		return 3
	case speedKmh >= 70:
		return 2
	case speedKmh >= 50:
		return 1
	default:
		return 0
	}
}

// Assess computes the hazard value for one family from an observation and
// classifies it.
func Assess(family HazardFamily, obs Observation) Assessment {
	switch family {
	case HazardCold:
		v := ColdValue(obs.TempC, obs.WindKmh)
		level := ClassifyWindChill(v)
		return Assessment{Family: family, Level: level, Value: v, Labels: coldLabels[level]}
	case HazardWind:
		v := round1(obs.WindKmh)
		level := ClassifyWindSpeed(v)
		return Assessment{Family: family, Level: level, Value: v, Labels: windLabels[level]}
	default:
		v := HeatValue(obs.TempC, obs.HumidityPct)
		level := ClassifyHeatIndex(v)
		return Assessment{Family: HazardHeat, Level: level, Value: v, Labels: heatLabels[level]}
	}
}

// MeetsThreshold reports whether a classified level satisfies the
// subscriber's minimum threshold. Unrecognized thresholds are never met.
func MeetsThreshold(level int, threshold Threshold) bool {
	rank := threshold.Rank()
	return rank > 0 && level >= rank
}

func round1(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	return math.Round(v*10) / 10
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
