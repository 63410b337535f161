// Package schema defines the exact shape of expected model output per
// extraction family and validates raw responses against it.
package schema

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/model"
)

// Outcome is the all-or-nothing result of strict validation. Either
// Payload is a schema-conformant typed value, or Reason explains the
// failure. No partial state is exposed.
type Outcome struct {
	Valid   bool
	Payload FamilyPayload
	// Raw is the parsed JSON object, set whenever any JSON was located,
	// valid or not. Permissive recovery reuses it.
	Raw    map[string]any
	Reason string
}

// Validate extracts JSON from raw model output and checks it against the
// family's schema. Model-embedded error/warnings fields are logged, not
// treated as failures: a well-formed "I found nothing" response is a
// valid business outcome.
func Validate(raw string, family model.Family) Outcome {
	msg, err := ExtractJSON(raw)
	if err != nil {
		return Outcome{Reason: "no JSON found in response"}
	}

	var rawMap map[string]any
	if uerr := json.Unmarshal(msg, &rawMap); uerr != nil {
		// An array at top level is JSON but never a valid family payload.
		return Outcome{Reason: "response JSON is not an object"}
	}
	present := make(map[string]bool, len(rawMap))
	for k := range rawMap {
		present[k] = true
	}

	payload, err := decode(msg, family)
	if err != nil {
		return Outcome{Raw: rawMap, Reason: eris.ToString(err, false)}
	}

	if verr := payload.validate(present); verr != nil {
		return Outcome{Raw: rawMap, Reason: eris.ToString(verr, false)}
	}

	if selfErr, warnings := payload.SelfReport(); selfErr != "" || len(warnings) > 0 {
		zap.L().Info("schema: model self-reported limitations",
			zap.String("family", string(family)),
			zap.String("model_error", selfErr),
			zap.Strings("model_warnings", warnings),
		)
	}

	return Outcome{Valid: true, Payload: payload, Raw: rawMap}
}

// decode unmarshals msg into the family's variant of the closed union.
// Unknown families decode as the generic legacy shape.
func decode(msg json.RawMessage, family model.Family) (FamilyPayload, error) {
	var (
		payload FamilyPayload
		err     error
	)
	switch family {
	case model.FamilyKickoff:
		var p KickoffPayload
		err = json.Unmarshal(msg, &p)
		payload = p
	case model.FamilyProcess:
		var p ProcessPayload
		err = json.Unmarshal(msg, &p)
		payload = p
	case model.FamilyTechnical:
		var p TechnicalPayload
		err = json.Unmarshal(msg, &p)
		payload = p
	case model.FamilySignoff:
		var p SignoffPayload
		err = json.Unmarshal(msg, &p)
		payload = p
	case model.FamilyPersona:
		var p PersonaPayload
		err = json.Unmarshal(msg, &p)
		payload = p
	default:
		var p LegacyPayload
		err = json.Unmarshal(msg, &p)
		p.FamilyKey = family
		payload = p
	}
	if err != nil {
		return nil, eris.Wrapf(err, "schema: decode %s payload", family)
	}
	return payload, nil
}
