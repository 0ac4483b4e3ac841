package render

import "github.com/cockroachdb/errors"

// MemoryTypes is a physical device's memory-type table, captured once when the
// device is picked.
type MemoryTypes []MemoryType

// Resolve returns the index of a memory type allowed by requirementBits whose
// property flags include required. When several types qualify the highest
// index wins.
func (m MemoryTypes) Resolve(requirementBits uint32, required MemoryPropertyFlags) (uint32, error) {
	found := false
	var index uint32
	for i, t := range m {
		if i >= 32 {
			break
		}
		if requirementBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.PropertyFlags.Has(required) {
			index = uint32(i)
			found = true
		}
	}
	if !found {
		return 0, errors.Mark(
			errors.Wrapf(ErrNoMemoryType, "bits=%#b flags=%#x", requirementBits, uint32(required)),
			ErrResourceCreation)
	}
	return index, nil
}
