package graph

import (
	"strings"

	"github.com/taigatrans/routegrid/model"
)

// Classifier decides a stop's kind for transfer weighting. The interface
// exists so tests (and, eventually, data with an authoritative type field)
// can bypass the string heuristic.
type Classifier interface {
	Kind(stop model.Stop) model.StopKind
}

// Heuristic is the default classifier. An explicit metadata type wins; after
// that it falls back to substring matching on the stop id, which is fragile
// to renaming but is the only signal many imported stops carry.
type Heuristic struct{}

var ferryIDTerms = []string{"ferry", "parom", "prichal", "pristan", "паром", "причал", "пристань"}

var airportIDTerms = []string{"airport", "avia", "аэропорт"}

// Kind implements Classifier.
func (Heuristic) Kind(stop model.Stop) model.StopKind {
	id := strings.ToLower(stop.ID)
	switch stop.Metadata["type"] {
	case string(model.KindFerryTerminal):
		return model.KindFerryTerminal
	case string(model.KindAirport):
		return model.KindAirport
	case string(model.KindGround):
		return model.KindGround
	}
	for _, term := range ferryIDTerms {
		if strings.Contains(id, term) {
			return model.KindFerryTerminal
		}
	}
	if stop.IsAirport {
		return model.KindAirport
	}
	for _, term := range airportIDTerms {
		if strings.Contains(id, term) {
			return model.KindAirport
		}
	}
	return model.KindGround
}
