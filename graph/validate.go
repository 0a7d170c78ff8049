package graph

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/taigatrans/routegrid/model"
)

// Validator is a pluggable domain check over the full node and edge sets.
// Returned warnings are logged; a returned error aborts the build, so no
// partial graph is ever published.
type Validator interface {
	Name() string
	Validate(nodes map[string]model.Node, edges []model.Edge) ([]string, error)
}

// validateStructure enforces the baseline graph invariants. All violations
// are collected so one failed build reports every problem at once.
func validateStructure(nodes map[string]model.Node, edges []model.Edge) error {
	var errs []error
	if len(nodes) == 0 {
		errs = append(errs, errors.New("graph has no nodes"))
	}
	if len(edges) == 0 {
		errs = append(errs, errors.New("graph has no edges"))
	}
	for _, e := range edges {
		if math.IsNaN(e.WeightMin) || math.IsInf(e.WeightMin, 0) || e.WeightMin <= 0 {
			errs = append(errs, fmt.Errorf("edge %s->%s has invalid weight %v", e.From, e.To, e.WeightMin))
		}
		if _, ok := nodes[e.From]; !ok {
			errs = append(errs, fmt.Errorf("edge %s->%s references unknown node %s", e.From, e.To, e.From))
		}
		if _, ok := nodes[e.To]; !ok {
			errs = append(errs, fmt.Errorf("edge %s->%s references unknown node %s", e.From, e.To, e.To))
		}
	}
	return errors.Join(errs...)
}

// TransferValidator checks the derived same-city transfer edges.
type TransferValidator struct{}

func (TransferValidator) Name() string { return "transfer" }

func (TransferValidator) Validate(nodes map[string]model.Node, edges []model.Edge) ([]string, error) {
	var warnings []string
	var errs []error
	for _, e := range edges {
		if e.Mode != model.ModeTransfer {
			continue
		}
		from, okFrom := nodes[e.From]
		to, okTo := nodes[e.To]
		if !okFrom || !okTo {
			// Endpoint existence is the structural validator's problem.
			continue
		}
		if from.CityID == "" || from.CityID != to.CityID {
			errs = append(errs, fmt.Errorf("transfer edge %s->%s crosses cities %q and %q", e.From, e.To, from.CityID, to.CityID))
		}
		if e.WeightMin < 30 || e.WeightMin > 120 {
			errs = append(errs, fmt.Errorf("transfer edge %s->%s weight %v outside table range", e.From, e.To, e.WeightMin))
		}
		if e.RouteID != "" {
			warnings = append(warnings, fmt.Sprintf("transfer edge %s->%s carries route id %s", e.From, e.To, e.RouteID))
		}
	}
	return warnings, errors.Join(errs...)
}

// FerryValidator checks ferry edges against the seasonal weighting floor.
type FerryValidator struct{}

func (FerryValidator) Name() string { return "ferry" }

func (FerryValidator) Validate(nodes map[string]model.Node, edges []model.Edge) ([]string, error) {
	var warnings []string
	var errs []error
	for _, e := range edges {
		if e.Mode != model.ModeFerry {
			continue
		}
		// No ferry crossing can be faster than the shortest seasonal wait.
		if e.WeightMin < summerFerryWaitMin {
			errs = append(errs, fmt.Errorf("ferry edge %s->%s weight %v below minimum wait", e.From, e.To, e.WeightMin))
		}
		if e.RouteID == "" {
			warnings = append(warnings, fmt.Sprintf("ferry edge %s->%s has no route id", e.From, e.To))
		}
	}
	return warnings, errors.Join(errs...)
}

// runValidators executes the domain validators in order, logging warnings and
// failing on the first validator that reports an error.
func runValidators(validators []Validator, nodes map[string]model.Node, edges []model.Edge) error {
	for _, v := range validators {
		warnings, err := v.Validate(nodes, edges)
		for _, w := range warnings {
			log.Printf("[graph-builder] %s validator warning: %s", v.Name(), w)
		}
		if err != nil {
			return fmt.Errorf("%s validation: %w", v.Name(), err)
		}
	}
	return nil
}
