package pbaes

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/alesforz/padbreak/pbpad"
	"github.com/alesforz/padbreak/pbxor"
)

var (
	_testKey = []byte("\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\x0a\x0b\x0c\x0d\x0e\x0f")
	_testIV  = []byte("\x10\x11\x12\x13\x14\x15\x16\x17\x18\x19\x1a\x1b\x1c\x1d\x1e\x1f")
)

func TestCBCRoundTrip(t *testing.T) {
	const plainText = "Hello, padding! This message spans multiple AES blocks."

	cipherText, err := EncryptCBC(_testIV, []byte(plainText), _testKey)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	padded, err := DecryptCBC(_testIV, cipherText, _testKey)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	got, err := pbpad.RemovePKCS7(padded, aes.BlockSize)
	if err != nil {
		t.Fatalf("unpadding decrypted text: %s", err)
	}
	if string(got) != plainText {
		t.Errorf("got: %q\nwant: %q\n", got, plainText)
	}
}

func TestEncryptCBCMatchesStdlib(t *testing.T) {
	padded := pbpad.PKCS7([]byte("Hello, padding!"), aes.BlockSize)

	got, err := EncryptCBC(_testIV, []byte("Hello, padding!"), _testKey)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	aesCipher, err := aes.NewCipher(_testKey)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	want := make([]byte, len(padded))
	cipher.NewCBCEncrypter(aesCipher, _testIV).CryptBlocks(want, padded)

	if !bytes.Equal(got, want) {
		t.Errorf("got: %x\nwant: %x\n", got, want)
	}
}

func TestDecryptBlockIsTheCBCIntermediate(t *testing.T) {
	cipherText, err := EncryptCBC(_testIV, []byte("Hello, padding!"), _testKey)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	intermediate, err := DecryptBlock(cipherText[:aes.BlockSize], _testKey)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// intermediate XOR IV must be the (padded) plaintext block
	got, err := pbxor.Blocks(intermediate, _testIV)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	want := pbpad.PKCS7([]byte("Hello, padding!"), aes.BlockSize)
	if !bytes.Equal(got, want) {
		t.Errorf("got: %x\nwant: %x\n", got, want)
	}
}

func TestEncryptCBCRejectsBadIV(t *testing.T) {
	if _, err := EncryptCBC([]byte("short"), []byte("data"), _testKey); err == nil {
		t.Error("want error for short IV, got nil")
	}
}
