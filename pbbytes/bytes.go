// Package pbbytes holds byte-slice helpers shared by the attack engine and
// its tests.
package pbbytes

import "errors"

// ToChunks splits the input data into consecutive chunks of the specified
// size. It expects the length of the input data to be a positive multiple of
// the chunk size; ciphertexts that don't satisfy that are rejected before
// any oracle traffic happens.
// The returned slices alias the input data; ToChunks does not copy.
func ToChunks(data []byte, chunkSize int) ([][]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("data is empty")
	}
	if chunkSize <= 0 {
		return nil, errors.New("chunk size must be greater than 0")
	}
	if len(data)%chunkSize != 0 {
		return nil, errors.New("data length is not a multiple of chunk size")
	}

	var (
		nChunks = len(data) / chunkSize
		chunks  = make([][]byte, 0, nChunks)
	)
	for i := 0; i < len(data); i += chunkSize {
		chunks = append(chunks, data[i:i+chunkSize])
	}

	return chunks, nil
}
