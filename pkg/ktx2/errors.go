package ktx2

import "errors"

var (
	ErrInvalidIdentifier           = errors.New("invalid KTX2 identifier")
	ErrUnsupportedDimensionality   = errors.New("unsupported KTX2 dimensionality")
	ErrUnsupportedSupercompression = errors.New("unsupported KTX2 supercompression")
	ErrStructuralOverrun           = errors.New("KTX2 structural overrun")
)
