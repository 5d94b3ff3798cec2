package download

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"os"

	"bookfetch/internal/audiobook"
)

// decryptFile decrypts an AES-CBC encrypted file in place. Whole-file
// decrypt, then best-effort PKCS#7 unpad: some streams are produced without
// standard padding, so an invalid pad leaves the data as-is.
func decryptFile(path string, encryption *audiobook.AESEncryption) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	block, err := aes.NewCipher(encryption.Key)
	if err != nil {
		return fmt.Errorf("aes key: %w", err)
	}
	if len(encryption.IV) != block.BlockSize() {
		return fmt.Errorf("iv length %d", len(encryption.IV))
	}
	if len(data)%block.BlockSize() != 0 {
		return fmt.Errorf("ciphertext length %d not a block multiple", len(data))
	}

	decrypted := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, encryption.IV).CryptBlocks(decrypted, data)
	decrypted = stripPKCS7(decrypted, block.BlockSize())

	return os.WriteFile(path, decrypted, 0o644)
}

func stripPKCS7(data []byte, blockSize int) []byte {
	if len(data) == 0 {
		return data
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return data
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return data
		}
	}
	return data[:len(data)-pad]
}
