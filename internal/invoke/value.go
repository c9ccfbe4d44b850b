package invoke

// Value is an untyped invoke payload with typed accessors. Accessors
// are total: a missing or mistyped key yields the zero value.
type Value map[string]any

// String returns the string at key, or "".
func (v Value) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Map returns the nested object at key, or an empty Value.
func (v Value) Map(key string) Value {
	switch m := v[key].(type) {
	case map[string]any:
		return Value(m)
	case Value:
		return m
	default:
		return Value{}
	}
}

// Type returns the payload's declared "type" field, or "".
func (v Value) Type() string {
	return v.String("type")
}
