package graph

import (
	"time"

	"github.com/taigatrans/routegrid/model"
)

// Transfer weights in minutes, asymmetric by direction: leaving an airport is
// faster than entering one (security and check-in), ferry terminals are quick
// on the ground side.
var transferWeights = map[[2]model.StopKind]float64{
	{model.KindAirport, model.KindGround}:        90,
	{model.KindGround, model.KindAirport}:        120,
	{model.KindAirport, model.KindFerryTerminal}: 90,
	{model.KindFerryTerminal, model.KindGround}:  30,
	{model.KindGround, model.KindFerryTerminal}:  30,
	{model.KindFerryTerminal, model.KindAirport}: 90,
	{model.KindGround, model.KindGround}:         60,
}

const defaultTransferWeight = 60

// TransferWeight returns the same-city transfer weight for a directed pair
// of stop kinds.
func TransferWeight(from, to model.StopKind) float64 {
	if w, ok := transferWeights[[2]model.StopKind{from, to}]; ok {
		return w
	}
	return defaultTransferWeight
}

const (
	summerFerryWaitMin = 17.5
	winterFerryWaitMin = 37.5
)

// SeasonalFerryWeight adds the expected ferry wait to a base duration. The
// navigation season (April through September) has frequent crossings; the
// rest of the year the wait roughly doubles.
func SeasonalFerryWeight(baseMin float64, month time.Month) float64 {
	if month >= time.April && month <= time.September {
		return baseMin + summerFerryWaitMin
	}
	return baseMin + winterFerryWaitMin
}

// seasonalOverride applies the ferry adjustment when the route qualifies:
// ferry mode plus seasonal-schedule metadata. Everything else keeps the
// incoming weight.
func seasonalOverride(weight float64, route model.Route, month time.Month) float64 {
	if route.Mode != model.ModeFerry || !route.SeasonalSchedule() {
		return weight
	}
	return SeasonalFerryWeight(float64(route.DurationMin), month)
}
