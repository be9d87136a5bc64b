package catalog

import "github.com/relaymesh/gateway/schemas"

// ApplyOverrides deep-merges every override in order whose matcher matches
// (provider, model.ID) into model, returning the patched copy. Applying the
// same set of overrides to the same base model twice yields the same
// result (§4.1's idempotence requirement): each patch leaf replaces the
// corresponding base leaf deterministically, regardless of what was there
// before.
func ApplyOverrides(model schemas.ModelInfo, overrides []schemas.ModelOverride) (schemas.ModelInfo, error) {
	if len(overrides) == 0 {
		return model, nil
	}

	encoded, err := schemas.Marshal(model)
	if err != nil {
		return model, err
	}
	var asMap map[string]interface{}
	if err := schemas.Unmarshal(encoded, &asMap); err != nil {
		return model, err
	}

	for _, o := range overrides {
		if !o.Matcher.Matches(model.Provider, model.ID) {
			continue
		}
		asMap = deepMergeJSON(asMap, o.Overrides)
	}

	merged, err := schemas.Marshal(asMap)
	if err != nil {
		return model, err
	}
	var out schemas.ModelInfo
	if err := schemas.Unmarshal(merged, &out); err != nil {
		return model, err
	}
	return out, nil
}

// deepMergeJSON recursively merges patch into base: nested objects merge
// key by key, anything else in patch (including arrays and scalars)
// replaces the corresponding base value outright.
func deepMergeJSON(base, patch map[string]interface{}) map[string]interface{} {
	if base == nil {
		base = map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, pv := range patch {
		if bv, ok := out[k]; ok {
			bMap, bOK := bv.(map[string]interface{})
			pMap, pOK := pv.(map[string]interface{})
			if bOK && pOK {
				out[k] = deepMergeJSON(bMap, pMap)
				continue
			}
		}
		out[k] = pv
	}
	return out
}
