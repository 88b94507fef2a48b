package geo

import (
	"context"
	"fmt"

	"github.com/pyvec/pythoncz/internal/model"
)

// GeocodeFunc turns a free-text location into a descriptive "region, country"
// string using an external geocoding provider.
type GeocodeFunc func(ctx context.Context, text string) (string, error)

// Resolution is the outcome of the first, offline resolution step: either
// Resolved or NeedsGeocode.
type Resolution interface {
	isResolution()
}

// Resolved carries a definite location found by pattern matching.
type Resolved struct {
	Location model.Location
}

// NeedsGeocode asks the caller to geocode Query and pass the result to Finish.
type NeedsGeocode struct {
	Query string
}

func (Resolved) isResolution()     {}
func (NeedsGeocode) isResolution() {}

// Begin classifies text offline. Only unclassified text needs geocoding.
func Begin(text string) Resolution {
	loc := Parse(text)
	if loc == model.LocationUnclassified {
		return NeedsGeocode{Query: text}
	}
	return Resolved{Location: loc}
}

// Finish classifies a geocoded description. Geocoding is the last resort, so
// a description that is still unclassified is out of scope.
func Finish(description string) model.Location {
	loc := Parse(description)
	if loc == model.LocationUnclassified {
		return model.LocationOutOfScope
	}
	return loc
}

// Resolve runs both steps, calling geocode only when pattern matching is
// inconclusive. Errors from geocode are returned as they are.
func Resolve(ctx context.Context, text string, geocode GeocodeFunc) (model.Location, error) {
	switch r := Begin(text).(type) {
	case Resolved:
		return r.Location, nil
	case NeedsGeocode:
		description, err := geocode(ctx, r.Query)
		if err != nil {
			return model.LocationUnset, err
		}
		return Finish(description), nil
	default:
		return model.LocationUnset, fmt.Errorf("unknown resolution %T", r)
	}
}
