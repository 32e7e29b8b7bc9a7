package repository

// Record is a single document: an id plus arbitrary JSON fields.
type Record map[string]any

// IDField is the key holding a record's identifier.
const IDField = "id"

// ID returns the record id, or "" when unset.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Clone returns a deep copy so callers never share nested maps or slices with the store.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge overwrites the keys present in patch, except the id.
func (r Record) Merge(patch Record) {
	for k, v := range patch {
		if k == IDField {
			continue
		}
		r[k] = cloneValue(v)
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case Record:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneAll(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
