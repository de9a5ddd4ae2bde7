// Package metric holds the static table of weather metrics that clients may request.
package metric

// Timestamp is the key of the time column, always valid and always projected
const Timestamp = "timestamp"

// Temperature is reported with two decimals, every other metric as an integer
const Temperature = "temperature"

// Field pairs a canonical metric key with its display label
type Field struct {
	Key   string
	Label string
}

var defaultFields = []Field{
	{Timestamp, "Date"},
	{Temperature, "Temperature"},
	{"humidity", "Humidity"},
	{"pressure", "Pressure"},
	{"co2", "Carbon-Dioxide"},
	{"vocs", "VOCs"},
	{"light", "Light"},
	{"noise", "Noise"},
	{"pm1", "PM1"},
	{"pm25", "PM2.5"},
	{"pm4", "PM4"},
	{"pm10", "PM10"},
	{"aiq", "AIQ"},
	{"gas1", "Gas-1"},
	{"gas2", "Gas-2"},
	{"gas3", "Gas-3"},
	{"gas4", "Gas-4"},
	{"gas5", "Gas-5"},
	{"gas6", "Gas-6"},
}

// Registry is an immutable lookup of known metric keys. Build it once and share the pointer.
type Registry struct {
	fields []Field
	labels map[string]string
}

// NewRegistry builds a registry from fields in canonical order.
// The timestamp field is added first if missing.
func NewRegistry(fields []Field) *Registry {
	r := &Registry{labels: make(map[string]string, len(fields)+1)}
	if !containsKey(fields, Timestamp) {
		r.fields = append(r.fields, Field{Timestamp, "Date"})
		r.labels[Timestamp] = "Date"
	}
	for _, f := range fields {
		if _, dup := r.labels[f.Key]; dup {
			continue
		}
		r.fields = append(r.fields, f)
		r.labels[f.Key] = f.Label
	}
	return r
}

// Default returns a registry with the 18 weather metrics plus timestamp
func Default() *Registry {
	return NewRegistry(defaultFields)
}

// Label returns the display label of key
func (r *Registry) Label(key string) (string, bool) {
	label, ok := r.labels[key]
	return label, ok
}

// LabelOr returns the display label of key, or key itself when unknown
func (r *Registry) LabelOr(key string) string {
	if label, ok := r.labels[key]; ok {
		return label
	}
	return key
}

// IsValid reports whether key may appear in a client-supplied metric list
func (r *Registry) IsValid(key string) bool {
	_, ok := r.labels[key]
	return ok
}

// Keys returns all keys in canonical order, timestamp first
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// MetricKeys returns all keys except timestamp, in canonical order
func (r *Registry) MetricKeys() []string {
	keys := make([]string, 0, len(r.fields)-1)
	for _, f := range r.fields {
		if f.Key != Timestamp {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Filter keeps the keys the registry knows, preserving order and dropping duplicates
func (r *Registry) Filter(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !r.IsValid(k) {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// FirstInvalid returns the first key the registry does not know
func (r *Registry) FirstInvalid(keys []string) (string, bool) {
	for _, k := range keys {
		if !r.IsValid(k) {
			return k, true
		}
	}
	return "", false
}

func containsKey(fields []Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
