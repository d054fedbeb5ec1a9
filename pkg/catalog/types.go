package catalog

import "strconv"

// Well-known record fields the sync and ranking paths rely on. Everything
// else is carried through opaquely.
const (
	FieldUID           = "uid"
	FieldLocationPoint = "location_point"
	FieldHasEnd        = "has_end"
	FieldCoords        = "coords"
)

// DefaultDetailFields is the detail-field set fetched per opportunity when
// the caller doesn't ask for anything specific.
var DefaultDetailFields = []string{
	FieldLocationPoint,
	"start_datetimes",
	FieldHasEnd,
	"end_datetimes",
}

// Opportunity is one catalog record as a sparse field mapping. The remote
// schema is not fixed: fields appear and disappear between sync cycles, so
// records stay maps rather than structs. Scalar values hold their text form,
// nested values hold their raw JSON.
type Opportunity map[string]string

func (o Opportunity) UID() string {
	return o[FieldUID]
}

// HasEnd reports whether the opportunity has ended. Missing or unparsable
// values count as still active.
func (o Opportunity) HasEnd() bool {
	v, err := strconv.ParseBool(o[FieldHasEnd])
	return err == nil && v
}

// Clone returns a shallow copy so callers can merge fields without mutating
// the source record.
func (o Opportunity) Clone() Opportunity {
	out := make(Opportunity, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
