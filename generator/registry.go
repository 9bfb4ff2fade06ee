package generator

// Registry tracks the records and enums emitted during one run and the
// typedefs waiting to become aliases. A Registry must not be shared between
// runs.
type Registry struct {
	records map[string]struct{}
	enums   map[string]struct{}
	aliases []*TypedefDecl
}

func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]struct{}),
		enums:   make(map[string]struct{}),
	}
}

// RegisterRecord records name and reports whether it was seen for the first
// time.
func (r *Registry) RegisterRecord(name string) bool {
	if _, ok := r.records[name]; ok {
		return false
	}
	r.records[name] = struct{}{}
	return true
}

// RegisterEnum records name and reports whether it was seen for the first
// time.
func (r *Registry) RegisterEnum(name string) bool {
	if _, ok := r.enums[name]; ok {
		return false
	}
	r.enums[name] = struct{}{}
	return true
}

// IsRecord reports whether a record declaration named name was emitted.
func (r *Registry) IsRecord(name string) bool {
	_, ok := r.records[name]
	return ok
}

// BufferAlias queues a typedef until every record has been registered.
func (r *Registry) BufferAlias(d *TypedefDecl) {
	r.aliases = append(r.aliases, d)
}

// ResolveAliases returns, in declaration order, the buffered typedefs that
// name an emitted record under a different name. Typedefs to anything else,
// enums included, are dropped: enums are plain integers already.
func (r *Registry) ResolveAliases() []*TypedefDecl {
	var out []*TypedefDecl
	seen := make(map[string]bool)
	for _, a := range r.aliases {
		u := a.Underlying
		if u.Kind != NamedRecord || u.Name == a.Name || !r.IsRecord(u.Name) {
			continue
		}
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a)
	}
	return out
}
