package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// OutOfBoundsError is the error returned when an offset does not lie within the valid index range of its memory block
var OutOfBoundsError error = errors.New("offset is not within the bounds of the memory block")

// InvalidLengthError is the error returned when a memory length is zero, negative, or otherwise unusable for its block
var InvalidLengthError error = errors.New("length is not valid for the memory block")

// NilPointerError is the error returned when an operation requires a live pointer but the handle is null
var NilPointerError error = errors.New("pointer is null")

// MisalignedPointerError is the error returned when a pointer's address is not a multiple of its element type's alignment
var MisalignedPointerError error = errors.New("pointer is not aligned to its element type")
