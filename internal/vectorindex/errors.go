package vectorindex

import "fmt"

// DimensionError reports a vector whose width does not match the index.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want=%d got=%d", e.Want, e.Got)
}

// LengthError reports an Add batch whose vector and metadata slices differ
// in length.
type LengthError struct {
	Vectors  int
	Metadata int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("vectors/metadata length mismatch: vectors=%d metadata=%d", e.Vectors, e.Metadata)
}

// GenerationError reports a handle minted by a different index build.
type GenerationError struct {
	Want uint32
	Got  uint32
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("handle generation mismatch: want=%d got=%d", e.Want, e.Got)
}
