package geometry

import (
	"github.com/pkg/errors"
)

// ErrAttributeStride is returned when an attribute's value count is not a multiple of its item size.
var ErrAttributeStride = errors.New("attribute values are not a multiple of the item size")

// Attribute is a fixed-stride float32 buffer describing one per-vertex property
// (positions, normals, skin weights, ...). It is immutable after construction.
type Attribute struct {
	name     string
	values   []float32
	count    int
	itemSize int
}

// NewAttribute creates an Attribute from a flat value slice.
// The slice is copied so later mutation by the caller does not leak into the attribute.
//
// Parameters:
//   - name: identifier used in error messages and by MeshGeometry.Attributes
//   - values: flat component values, itemSize components per element
//   - itemSize: number of components per element (must be > 0)
//
// Returns:
//   - *Attribute: the new attribute
//   - error: ErrAttributeStride if the value count does not divide evenly into elements
func NewAttribute(name string, values []float32, itemSize int) (*Attribute, error) {
	if itemSize <= 0 {
		return nil, errors.Wrapf(ErrAttributeStride, "attribute %q: item size %d", name, itemSize)
	}
	if len(values)%itemSize != 0 {
		return nil, errors.Wrapf(ErrAttributeStride, "attribute %q: %d values, item size %d", name, len(values), itemSize)
	}

	v := make([]float32, len(values))
	copy(v, values)

	return &Attribute{
		name:     name,
		values:   v,
		count:    len(values) / itemSize,
		itemSize: itemSize,
	}, nil
}

// Name returns the attribute identifier.
func (a *Attribute) Name() string {
	return a.name
}

// Count returns the number of elements (vertices) held by the attribute.
func (a *Attribute) Count() int {
	return a.count
}

// ItemSize returns the number of components per element.
func (a *Attribute) ItemSize() int {
	return a.itemSize
}

// Len returns the total number of float32 components (Count * ItemSize).
func (a *Attribute) Len() int {
	return len(a.values)
}

// Values returns a copy of the flat component buffer.
func (a *Attribute) Values() []float32 {
	out := make([]float32, len(a.values))
	copy(out, a.values)
	return out
}

// At returns a copy of the components of element i.
// Returns nil when i is out of range.
//
// Parameters:
//   - i: element index
//
// Returns:
//   - []float32: ItemSize components, or nil
func (a *Attribute) At(i int) []float32 {
	if i < 0 || i >= a.count {
		return nil
	}
	out := make([]float32, a.itemSize)
	copy(out, a.values[i*a.itemSize:(i+1)*a.itemSize])
	return out
}
