package registers

import "fmt"

// Catalog is the immutable, process-wide field-name -> Descriptor map.
// Once built with NewCatalog it is never mutated.
type Catalog struct {
	byName map[string]Descriptor
}

// ErrNotFound is returned by Lookup for an unknown field name.
type ErrNotFound string

func (e ErrNotFound) Error() string { return fmt.Sprintf("registers: unknown field %q", string(e)) }

// NewCatalog builds and validates a Catalog from a list of descriptors.
// It enforces that no two writeable entries overlap in word range (reads
// may alias; writes may not).
func NewCatalog(descs []Descriptor) (*Catalog, error) {
	byName := make(map[string]Descriptor, len(descs))
	var writeable []Descriptor

	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("registers: duplicate name %q", d.Name)
		}
		byName[d.Name] = d
		if d.Writeable {
			writeable = append(writeable, d)
		}
	}

	for i := 0; i < len(writeable); i++ {
		for j := i + 1; j < len(writeable); j++ {
			a, b := writeable[i], writeable[j]
			if overlaps(a, b) {
				return nil, fmt.Errorf("registers: writeable %q and %q overlap word ranges", a.Name, b.Name)
			}
		}
	}

	return &Catalog{byName: byName}, nil
}

func overlaps(a, b Descriptor) bool {
	return int(a.Address) < b.end() && int(b.Address) < a.end()
}

// Lookup returns the descriptor for name, or ErrNotFound.
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	d, ok := c.byName[name]
	if !ok {
		return Descriptor{}, ErrNotFound(name)
	}
	return d, nil
}

// MustLookup panics on an unknown name; it suits names whose existence is
// guaranteed by construction.
func (c *Catalog) MustLookup(name string) Descriptor {
	d, err := c.Lookup(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Has reports whether name exists in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}
