package textindex

import (
	"fmt"
	"strconv"
)

// DriftKind classifies a single difference between two definitions.
type DriftKind string

// Drift kinds.
const (
	DriftName             DriftKind = "name"
	DriftMissingField     DriftKind = "missing_field"
	DriftExtraField       DriftKind = "extra_field"
	DriftWeight           DriftKind = "weight"
	DriftDefaultLanguage  DriftKind = "default_language"
	DriftLanguageOverride DriftKind = "language_override"
)

// Drift is one difference between the desired and the live definition.
type Drift struct {
	Kind DriftKind `json:"kind"`
	Path string    `json:"path,omitempty"`
	Want string    `json:"want,omitempty"`
	Got  string    `json:"got,omitempty"`
}

func (d Drift) String() string {
	switch d.Kind {
	case DriftMissingField:
		return fmt.Sprintf("field %s missing (want weight %s)", d.Path, d.Want)
	case DriftExtraField:
		return fmt.Sprintf("unexpected field %s (weight %s)", d.Path, d.Got)
	case DriftWeight:
		return fmt.Sprintf("field %s weight %s, want %s", d.Path, d.Got, d.Want)
	default:
		return fmt.Sprintf("%s %q, want %q", d.Kind, d.Got, d.Want)
	}
}

// Compare lists every difference between want and got. An empty result means
// the live index is equivalent to the desired one. Fields are matched by
// dotted path; array markers and declaration order are not compared.
func Compare(want, got Index) []Drift {
	var drift []Drift

	if want.name != got.name {
		drift = append(drift, Drift{Kind: DriftName, Want: want.name, Got: got.name})
	}

	gotWeights := got.Weights()
	for _, f := range want.fields {
		w, ok := gotWeights[f.Path()]
		if !ok {
			drift = append(drift, Drift{Kind: DriftMissingField, Path: f.Path(), Want: strconv.Itoa(f.weight)})
			continue
		}
		if w != f.weight {
			drift = append(drift, Drift{
				Kind: DriftWeight, Path: f.Path(),
				Want: strconv.Itoa(f.weight), Got: strconv.Itoa(w),
			})
		}
	}

	wantWeights := want.Weights()
	for _, f := range got.fields {
		if _, ok := wantWeights[f.Path()]; !ok {
			drift = append(drift, Drift{Kind: DriftExtraField, Path: f.Path(), Got: strconv.Itoa(f.weight)})
		}
	}

	if want.defaultLanguage != got.defaultLanguage {
		drift = append(drift, Drift{Kind: DriftDefaultLanguage, Want: want.defaultLanguage, Got: got.defaultLanguage})
	}
	if want.languageOverride != got.languageOverride {
		drift = append(drift, Drift{Kind: DriftLanguageOverride, Want: want.languageOverride, Got: got.languageOverride})
	}

	return drift
}

// DriftStrings renders drift for error messages and logs.
func DriftStrings(drift []Drift) []string {
	out := make([]string, len(drift))
	for i, d := range drift {
		out[i] = d.String()
	}
	return out
}
