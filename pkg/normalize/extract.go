package normalize

import "threadscli/pkg/jsonv"

// extractor picks a candidate value out of a payload
type extractor func(jsonv.Value) jsonv.Value

func path(elems ...any) extractor {
	return func(v jsonv.Value) jsonv.Value { return v.Path(elems...) }
}

func self(v jsonv.Value) jsonv.Value { return v }

// firstObject returns the first candidate that is a JSON object
func firstObject(v jsonv.Value, extractors []extractor) (jsonv.Value, bool) {
	for _, ex := range extractors {
		if c := ex(v); c.IsObject() {
			return c, true
		}
	}
	return jsonv.Value{}, false
}

// firstArray returns the first candidate that is a JSON array
func firstArray(v jsonv.Value, extractors []extractor) ([]jsonv.Value, bool) {
	for _, ex := range extractors {
		if c := ex(v); c.IsArray() {
			return c.Array(), true
		}
	}
	return nil, false
}

// str returns the first non-empty string among keys
func str(v jsonv.Value, keys ...string) string {
	for _, k := range keys {
		if s, ok := v.Get(k).Str(); ok && s != "" {
			return s
		}
	}
	return ""
}

// text is like str but also accepts numbers, for identifiers
func text(v jsonv.Value, keys ...string) string {
	for _, k := range keys {
		if s, ok := v.Get(k).Text(); ok && s != "" {
			return s
		}
	}
	return ""
}

// count returns the first numeric member among candidates. String-typed
// counts are ignored.
func count(v jsonv.Value, candidates ...extractor) *int64 {
	for _, ex := range candidates {
		if n, ok := ex(v).Int(); ok {
			return &n
		}
	}
	return nil
}

func flag(v jsonv.Value, keys ...string) bool {
	for _, k := range keys {
		if b, ok := v.Get(k).Bool(); ok {
			return b
		}
	}
	return false
}

func rawRef(v jsonv.Value) *jsonv.Value {
	c := v
	return &c
}
