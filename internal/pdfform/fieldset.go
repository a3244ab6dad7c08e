package pdfform

import "github.com/teemow/formintake/internal/sentinel"

// FieldSet is a name -> value mapping that remembers insertion order.
// Overwriting an existing name keeps its original position.
type FieldSet struct {
	names  []string
	values map[string]string
}

// NewFieldSet returns an empty set.
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[string]string)}
}

// Set stores value under name.
func (fs *FieldSet) Set(name, value string) {
	if _, ok := fs.values[name]; !ok {
		fs.names = append(fs.names, name)
	}
	fs.values[name] = value
}

// Get returns the value stored under name.
func (fs *FieldSet) Get(name string) (string, bool) {
	v, ok := fs.values[name]
	return v, ok
}

// Has reports whether name is present.
func (fs *FieldSet) Has(name string) bool {
	_, ok := fs.values[name]
	return ok
}

// Delete removes name. It is a no-op when name is absent.
func (fs *FieldSet) Delete(name string) {
	if _, ok := fs.values[name]; !ok {
		return
	}
	delete(fs.values, name)
	for i, n := range fs.names {
		if n == name {
			fs.names = append(fs.names[:i], fs.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of fields.
func (fs *FieldSet) Len() int {
	return len(fs.names)
}

// Names returns the field names in order.
func (fs *FieldSet) Names() []string {
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

// Pairs returns the fields in order.
func (fs *FieldSet) Pairs() []sentinel.Pair {
	out := make([]sentinel.Pair, 0, len(fs.names))
	for _, n := range fs.names {
		out = append(out, sentinel.Pair{Key: n, Value: fs.values[n]})
	}
	return out
}

// Clone returns an independent copy.
func (fs *FieldSet) Clone() *FieldSet {
	c := NewFieldSet()
	for _, n := range fs.names {
		c.Set(n, fs.values[n])
	}
	return c
}
