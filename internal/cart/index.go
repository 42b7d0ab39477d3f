package cart

// Index is an in-memory Catalog built from a list of services.
type Index map[int64]Service

// NewIndex builds an Index. Later entries win on duplicate ids.
func NewIndex(services []Service) Index {
	idx := make(Index, len(services))
	for _, svc := range services {
		idx[svc.ID] = svc
	}
	return idx
}

func (i Index) Lookup(id int64) (Service, bool) {
	svc, ok := i[id]
	return svc, ok
}
