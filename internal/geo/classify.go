// Package geo classifies free-text job locations into a fixed taxonomy of
// Czech regions, neighbouring countries and remote work, and resolves the
// inconclusive ones with a geocoding provider.
package geo

import "github.com/pyvec/pythoncz/internal/model"

// Parse classifies text without any network access. It returns a taxonomy
// code, model.LocationOutOfScope when the text is not Czech at all, or
// model.LocationUnclassified when it is Czech but too vague to classify.
func Parse(text string) model.Location {
	for _, e := range taxonomy {
		for _, p := range e.patterns {
			if p.search(text) {
				return e.code
			}
		}
	}
	if !looksCzech(text) {
		return model.LocationOutOfScope
	}
	return model.LocationUnclassified
}

func looksCzech(text string) bool {
	for _, p := range czechPatterns {
		if p.search(text) {
			return true
		}
	}
	return false
}
