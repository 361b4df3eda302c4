package pbaes

import (
	"crypto/aes"
	"fmt"
)

// aesWorker is a type that encrypts/decrypts a single block of data using
// AES with a fixed key. The function does not modify the input slice.
type aesWorker func([]byte) []byte

// encrypter initializes an AES encryption operation using the provided key.
// It returns an aesWorker which performs the encryption of a single block
// with the given key using AES.
// encrypter does not modify the input slice.
func encrypter(key []byte) (aesWorker, error) {
	aesCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("instantiating AES cipher: %w", err)
	}

	encrypt := func(plainText []byte) []byte {
		cipherText := make([]byte, len(plainText))
		aesCipher.Encrypt(cipherText, plainText)
		return cipherText
	}

	return encrypt, nil
}

// decrypter initializes an AES decryption operation using the provided key.
// It returns an aesWorker which performs the decryption of a single block
// with the given key using AES.
// decrypter does not modify the input slice.
func decrypter(key []byte) (aesWorker, error) {
	aesCipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("instantiating AES cipher: %w", err)
	}

	decrypt := func(cipherText []byte) []byte {
		plainText := make([]byte, len(cipherText))
		aesCipher.Decrypt(plainText, cipherText)
		return plainText
	}

	return decrypt, nil
}
