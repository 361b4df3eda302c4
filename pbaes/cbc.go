// Package pbaes is a reference AES-CBC implementation. The attack itself
// never touches key material; this package exists so that tests can encrypt
// known plaintexts, play the padding oracle truthfully, and check recovered
// intermediates against the real AES inverse.
package pbaes

import (
	"crypto/aes"
	"fmt"

	"github.com/alesforz/padbreak/pbpad"
	"github.com/alesforz/padbreak/pbxor"
)

// EncryptCBC encrypts a plain text using AES in CBC mode with the given key
// and initialization vector. The plain text is padded with PKCS#7 to the AES
// block size before encryption. The returned cipher text does not include
// the IV.
// EncryptCBC does not modify the input slices.
func EncryptCBC(iv, plainText, key []byte) ([]byte, error) {
	if ivLen := len(iv); ivLen != aes.BlockSize {
		const errStr = "iv length (%d) is not the AES block size (%d)"
		return nil, fmt.Errorf(errStr, ivLen, aes.BlockSize)
	}

	plainText = pbpad.PKCS7(plainText, aes.BlockSize)

	encrypt, err := encrypter(key)
	if err != nil {
		return nil, fmt.Errorf("initializing encrypter: %s", err)
	}

	var (
		pLen       = len(plainText)
		blkSize    = aes.BlockSize
		nBlocks    = pLen / blkSize
		cipherText = make([]byte, 0, pLen)
		prevBlk    = iv
	)
	for i := 0; i < nBlocks; i++ {
		var (
			blkStart = i * blkSize
			blkEnd   = blkStart + blkSize
			blk      = plainText[blkStart:blkEnd]
		)
		// Each plaintext block is xored with the previous ciphertext block
		// (the IV for the first one) before encryption.
		xored, err := pbxor.Blocks(blk, prevBlk)
		if err != nil {
			return nil, fmt.Errorf("xor plain text block %d: %s", i, err)
		}

		cipherText = append(cipherText, encrypt(xored)...)
		prevBlk = cipherText[blkStart:blkEnd]
	}

	return cipherText, nil
}

// DecryptCBC decrypts a cipher text using AES in CBC mode with the given key
// and initialization vector. The cipher text must not include the IV.
// The plain text that it returns retains the padding; it's up to the caller
// to validate and remove it.
// DecryptCBC does not modify the input slices.
func DecryptCBC(iv, cipherText, key []byte) ([]byte, error) {
	cLen := len(cipherText)
	if cLen == 0 || cLen%aes.BlockSize != 0 {
		const errStr = "cipher text's length (%d) is not a positive multiple of the AES block size (%d)"
		return nil, fmt.Errorf(errStr, cLen, aes.BlockSize)
	}

	if ivLen := len(iv); ivLen != aes.BlockSize {
		const errStr = "iv length (%d) is not the AES block size (%d)"
		return nil, fmt.Errorf(errStr, ivLen, aes.BlockSize)
	}

	decrypt, err := decrypter(key)
	if err != nil {
		return nil, fmt.Errorf("initializing decrypter: %s", err)
	}

	var (
		blkSize   = aes.BlockSize
		nBlocks   = cLen / blkSize
		plainText = make([]byte, 0, cLen)
		prevBlk   = iv
	)
	for i := 0; i < nBlocks; i++ {
		var (
			blkStart = i * blkSize
			blkEnd   = blkStart + blkSize
			blk      = cipherText[blkStart:blkEnd]
		)
		xored, err := pbxor.Blocks(decrypt(blk), prevBlk)
		if err != nil {
			return nil, fmt.Errorf("xor cipher text block %d: %s", i, err)
		}

		plainText = append(plainText, xored...)
		prevBlk = blk
	}

	return plainText, nil
}

// DecryptBlock returns the raw AES decryption of a single cipher text block,
// before CBC's XOR with the previous block. This is the "intermediate" value
// the padding-oracle attack recovers, so tests can compare against it
// directly.
func DecryptBlock(blk, key []byte) ([]byte, error) {
	if len(blk) != aes.BlockSize {
		const errStr = "block length (%d) is not the AES block size (%d)"
		return nil, fmt.Errorf(errStr, len(blk), aes.BlockSize)
	}

	decrypt, err := decrypter(key)
	if err != nil {
		return nil, fmt.Errorf("initializing decrypter: %s", err)
	}

	return decrypt(blk), nil
}
