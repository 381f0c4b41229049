package models

import "strconv"

// Record is a free-form JSON object as stored in an institution collection.
// Only the fields the server acts on (id, username, name, assignees,
// mediaUris, streets) are interpreted; everything else round-trips untouched.
type Record map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// ID returns the record's "id" field. Clients that generate numeric ids
// get them back in their canonical decimal form.
func (r Record) ID() string { return IDString(r["id"]) }

// IDString renders a JSON id value (string or number) as a string; other
// types yield "".
func IDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	}
	return ""
}

// IDStrings maps IDString over a decoded JSON array.
func IDStrings(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s := IDString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Strings returns the string elements of an array field, skipping non-strings.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Worker is the view of a roster record used for authentication.
type Worker struct {
	Username string
	Password string
	Name     string
	Role     string
}

// WorkerFrom reads the roster fields from a record. Older rosters stored the
// role under "position".
func WorkerFrom(r Record) Worker {
	w := Worker{
		Username: r.String("username"),
		Password: r.String("password"),
		Name:     r.String("name"),
		Role:     r.String("role"),
	}
	if w.Role == "" {
		w.Role = r.String("position")
	}
	return w
}
