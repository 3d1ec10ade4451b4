package robotconfig

// Plugin descriptor keys interpreted by the bridge. Everything else is passed
// through to the behavior being configured.
const (
	KeyType  = "type"
	KeyFrame = "frame"
)

// Descriptor is one plugin entry of a robot model: an open mapping from key
// to Value. Descriptors are read-only once loaded.
type Descriptor map[string]Value

// Get returns the value stored under key.
func (d Descriptor) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// String returns the string stored under key.
func (d Descriptor) String(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Number returns the number stored under key.
func (d Descriptor) Number(key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Bool returns the bool stored under key.
func (d Descriptor) Bool(key string) (bool, bool) {
	v, ok := d[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Mapping returns the nested mapping stored under key.
func (d Descriptor) Mapping(key string) (Descriptor, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	return v.AsMapping()
}

// Sequence returns the sequence stored under key.
func (d Descriptor) Sequence(key string) ([]Value, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	return v.AsSequence()
}

// NumberOr returns the number under key, or def when absent or not a number.
func (d Descriptor) NumberOr(key string, def float64) float64 {
	if f, ok := d.Number(key); ok {
		return f
	}
	return def
}

// StringOr returns the string under key, or def when absent or not a string.
func (d Descriptor) StringOr(key, def string) string {
	if s, ok := d.String(key); ok {
		return s
	}
	return def
}

// Type returns the plugin kind.
func (d Descriptor) Type() (string, bool) {
	return d.String(KeyType)
}

// Frame returns the attachment frame name.
func (d Descriptor) Frame() (string, bool) {
	return d.String(KeyFrame)
}

// Interface converts d into a map of plain Go values.
func (d Descriptor) Interface() map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v.Interface()
	}
	return out
}
