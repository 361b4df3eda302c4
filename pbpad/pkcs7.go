// Package pbpad implements PKCS#7 padding. The attack never pads or unpads
// the target ciphertext itself, but the reference CBC fixtures and the
// oracle side of the tests both need a correct implementation to judge
// forged payloads with.
package pbpad

import "errors"

// ErrInvalidPadding reports that a buffer does not end with valid PKCS#7
// padding. This is exactly the signal a padding oracle leaks.
var ErrInvalidPadding = errors.New("invalid PKCS#7 padding")

// PKCS7 pads the given data to a multiple of size by appending the number of
// bytes of padding to the end of it.
// For example, "YELLOW SUBMARINE" (16 bytes) padded to 20 bytes is:
// "YELLOW SUBMARINE\x04\x04\x04\x04"
// If size >= 256, it will pad to size 255.
// PKCS7 does not modify the input slice; rather, it returns a new slice with
// the padded data.
func PKCS7(data []byte, size int) []byte {
	if size >= 256 {
		// can't fit numbers >= 256 in one byte of padding.
		size = 255
	}

	var (
		dLen   = len(data)
		pad    = size - dLen%size
		padded = make([]byte, dLen+pad)
	)
	copy(padded, data)

	for i := dLen; i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	return padded
}

// RemovePKCS7 strips the PKCS#7 padding from the given data and returns the
// unpadded prefix. It returns ErrInvalidPadding if the data does not end
// with pad bytes of value pad, for some pad in 1..size.
// RemovePKCS7 does not modify the input slice.
func RemovePKCS7(data []byte, size int) ([]byte, error) {
	dLen := len(data)
	if dLen == 0 || dLen%size != 0 {
		return nil, ErrInvalidPadding
	}

	pad := int(data[dLen-1])
	if pad < 1 || pad > size {
		return nil, ErrInvalidPadding
	}

	for i := dLen - pad; i < dLen; i++ {
		if data[i] != byte(pad) {
			return nil, ErrInvalidPadding
		}
	}

	return data[:dLen-pad], nil
}
