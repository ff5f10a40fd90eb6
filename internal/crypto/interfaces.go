package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/sealer_mock.go -package=mock

// Sealer protects backend credentials at rest.
//
// Схема работы:
//
//	salt      = random 16 bytes
//	KEK       = Argon2id(vaultKey, salt)
//	blob      = salt || nonce || AES-GCM(KEK, credential)
//	sealed    = "sealed:" + base64(blob)
//
// The vault key itself is never stored. A wrong key is detected by the GCM
// authentication tag.
type Sealer interface {
	// Seal encrypts plaintext and returns a "sealed:" string that can be
	// pasted into the profiles file.
	Seal(plaintext string) (string, error)

	// Open reverses Seal. It implements config.Unsealer.
	Open(sealed string) (string, error)
}
