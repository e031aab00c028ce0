package optimization

import (
	"bytes"
	"encoding/json"
)

// TypeKey is the discriminator of every tagged configuration object.
const TypeKey = "type"

// VariantDefaults returns the default object of the variant tagged typ, or
// false when typ names no known variant.
type VariantDefaults func(typ string) (map[string]interface{}, bool)

// DeepMerge returns a new map holding base with override merged on top.
//
// Nested maps are merged recursively. Any other value, lists included,
// replaces the base value. When override carries a different TypeKey than
// base at some level, the base object at that level is discarded, since its
// fields belong to another variant. Neither input is modified.
func DeepMerge(base, override map[string]interface{}) map[string]interface{} {
	return MergeVariants(base, override, nil)
}

// MergeVariants is DeepMerge, except that an override switching to another
// variant is merged onto defaults(type) instead of replacing the base
// outright. Unknown variants fall back to the plain replacement.
func MergeVariants(base, override map[string]interface{}, defaults VariantDefaults) map[string]interface{} {
	if ot, ok := override[TypeKey].(string); ok {
		if bt, ok := base[TypeKey].(string); ok && ot != bt {
			d, known := map[string]interface{}(nil), false
			if defaults != nil {
				d, known = defaults(ot)
			}
			if !known {
				return clone(override)
			}
			base = d
		}
	}

	out := clone(base)
	for k, ov := range override {
		om, oIsMap := ov.(map[string]interface{})
		bm, bIsMap := out[k].(map[string]interface{})
		if oIsMap && bIsMap {
			out[k] = MergeVariants(bm, om, defaults)
			continue
		}
		out[k] = cloneValue(ov)
	}
	return out
}

func clone(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return clone(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// ToMap converts v to its generic JSON object form.
func ToMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeStrict decodes a generic JSON object into v, rejecting unknown keys.
func DecodeStrict(m map[string]interface{}, v interface{}) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
