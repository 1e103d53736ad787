package roster

import (
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

// Field tags one member of User.
type Field string

const (
	FieldIsHost      Field = "is-host"
	FieldDisplayName Field = "display-name"
	FieldID          Field = "id"
	FieldEntry       Field = "address-book-entry"
)

// FieldSet is a set of changed fields, as produced by User.Diff.
type FieldSet map[Field]struct{}

func (fs FieldSet) add(f Field) {
	fs[f] = struct{}{}
}

func (fs FieldSet) Has(f Field) bool {
	_, ok := fs[f]
	return ok
}

func (fs FieldSet) Len() int {
	return len(fs)
}

// Fields returns the sorted members of the set.
func (fs FieldSet) Fields() []Field {
	fields := maps.Keys(fs)
	slices.Sort(fields)
	return fields
}

// IdentityRelevant reports whether the set touches anything a transport cares about.
func (fs FieldSet) IdentityRelevant() bool {
	return fs.Has(FieldIsHost) || fs.Has(FieldEntry)
}

func (fs FieldSet) String() string {
	return "[" + strings.Join(stringFields(fs.Fields()), ",") + "]"
}

func stringFields(fields []Field) []string {
	s := make([]string, len(fields))
	for i, f := range fields {
		s[i] = string(f)
	}
	return s
}
