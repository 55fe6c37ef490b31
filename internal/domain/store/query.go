package store

// Direction orders query results.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Filter is a single equality constraint. Only equality is supported; it is
// all the application's access patterns need and it keeps fakes honest.
type Filter struct {
	Field string
	Value any
}

// Order is a single sort clause.
type Order struct {
	Field     string
	Direction Direction
}

// Query describes a collection read. Build one with NewQuery and the
// chainable With methods; the zero Limit means unlimited.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Limit      int
}

// NewQuery starts a query over the named collection.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where appends an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(q.Filters[:len(q.Filters):len(q.Filters)], Filter{Field: field, Value: value})

	return q
}

// OrderBy appends a sort clause.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(q.Orders[:len(q.Orders):len(q.Orders)], Order{Field: field, Direction: dir})

	return q
}

// WithLimit caps the result size.
func (q Query) WithLimit(n int) Query {
	q.Limit = n

	return q
}

// Equal reports whether two queries describe the same read. Used by watch
// bindings to decide whether a subscription must be torn down and recreated.
func (q Query) Equal(other Query) bool {
	if q.Collection != other.Collection || q.Limit != other.Limit {
		return false
	}
	if len(q.Filters) != len(other.Filters) || len(q.Orders) != len(other.Orders) {
		return false
	}
	for i, f := range q.Filters {
		if f != other.Filters[i] {
			return false
		}
	}
	for i, o := range q.Orders {
		if o != other.Orders[i] {
			return false
		}
	}

	return true
}
