package scene

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// cHandles allocates zeroed C memory for n output handles of type T. Handles
// written by the driver live outside the Go heap until they are copied out.
func cHandles[T any](n int) ([]T, func(), error) {
	var zero T
	p := C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(zero)))
	if p == nil {
		return nil, nil, errors.Newf("allocate %d %T handles", n, zero)
	}
	return unsafe.Slice((*T)(p), n), func() { C.free(p) }, nil
}

func cHandle[T any]() (*T, func(), error) {
	s, free, err := cHandles[T](1)
	if err != nil {
		return nil, nil, err
	}
	return &s[0], free, nil
}
