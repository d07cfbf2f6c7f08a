package assets

import (
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/atlas/engine/core"
)

// Doc is one decoded text asset document: a nested label/value object with
// arrays, one root object per file. Accessors consume labels; labels never
// consumed are unknown to this build and reported by WarnUnknown, so files
// written by newer versions still load. Missing labels fall back to the
// caller's default, so files written by older versions load too.
type Doc struct {
	path string
	log  core.Logger
	m    map[string]interface{}
	seen map[string]bool
}

// DecodeDoc parses a text asset. The path is only used in diagnostics.
func DecodeDoc(path string, data []byte, log core.Logger) (*Doc, error) {
	var m map[string]interface{}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &Doc{
		path: path,
		log:  log,
		m:    m,
		seen: make(map[string]bool),
	}, nil
}

// Has reports whether the label is present, without consuming it.
func (d *Doc) Has(label string) bool {
	_, ok := d.m[label]
	return ok
}

func (d *Doc) String(label, def string) string {
	v, ok := d.consume(label)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		d.warnType(label, "string")
		return def
	}
	return s
}

func (d *Doc) Float(label string, def float64) float64 {
	v, ok := d.consume(label)
	if !ok {
		return def
	}
	f, ok := asFloat(v)
	if !ok {
		d.warnType(label, "number")
		return def
	}
	return f
}

func (d *Doc) Int(label string, def int64) int64 {
	v, ok := d.consume(label)
	if !ok {
		return def
	}
	i, ok := v.(int64)
	if !ok {
		d.warnType(label, "integer")
		return def
	}
	return i
}

func (d *Doc) Bool(label string, def bool) bool {
	v, ok := d.consume(label)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		d.warnType(label, "boolean")
		return def
	}
	return b
}

// Floats returns a numeric array, or def when absent or malformed.
func (d *Doc) Floats(label string, def []float64) []float64 {
	v, ok := d.consume(label)
	if !ok {
		return def
	}
	items, ok := v.([]interface{})
	if !ok {
		d.warnType(label, "array")
		return def
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, ok := asFloat(item)
		if !ok {
			d.warnType(label, "numeric array")
			return def
		}
		out = append(out, f)
	}
	return out
}

// Strings returns a string array, or nil when absent.
func (d *Doc) Strings(label string) []string {
	v, ok := d.consume(label)
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		d.warnType(label, "array")
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			d.warnType(label, "string array")
			return nil
		}
		out = append(out, s)
	}
	return out
}

// Tables returns an array of nested objects, e.g. the entries of
// [[textures]]. Each entry is a Doc of its own with the same tolerance
// rules; call WarnUnknown on it after consuming its labels.
func (d *Doc) Tables(label string) []*Doc {
	v, ok := d.consume(label)
	if !ok {
		return nil
	}
	var out []*Doc
	switch items := v.(type) {
	case []map[string]interface{}:
		for _, m := range items {
			out = append(out, d.child(m))
		}
	case []interface{}:
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				d.warnType(label, "table array")
				return nil
			}
			out = append(out, d.child(m))
		}
	default:
		d.warnType(label, "table array")
		return nil
	}
	return out
}

// WarnUnknown logs every label that no accessor consumed. Unknown labels
// are skipped, never fatal.
func (d *Doc) WarnUnknown() {
	var unknown []string
	for label := range d.m {
		if !d.seen[label] {
			unknown = append(unknown, label)
		}
	}
	sort.Strings(unknown)
	for _, label := range unknown {
		d.log.Warnf("'%s': unknown label \"%s\", skipping", d.path, label)
	}
}

func (d *Doc) consume(label string) (interface{}, bool) {
	v, ok := d.m[label]
	if ok {
		d.seen[label] = true
	}
	return v, ok
}

func (d *Doc) child(m map[string]interface{}) *Doc {
	return &Doc{
		path: d.path,
		log:  d.log,
		m:    m,
		seen: make(map[string]bool),
	}
}

func (d *Doc) warnType(label, want string) {
	d.log.Warnf("'%s': label \"%s\" is not a %s, using default", d.path, label, want)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// DocBuilder assembles a text asset for encoding. Callers set only the
// labels whose values differ from their documented defaults, keeping the
// output minimal. Labels encode in stable (sorted) order.
type DocBuilder struct {
	m map[string]interface{}
}

func NewDocBuilder() *DocBuilder {
	return &DocBuilder{m: make(map[string]interface{})}
}

func (b *DocBuilder) Set(label string, value interface{}) *DocBuilder {
	b.m[label] = value
	return b
}

func (b *DocBuilder) Encode() ([]byte, error) {
	return toml.Marshal(b.m)
}
