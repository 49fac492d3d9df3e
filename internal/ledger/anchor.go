package ledger

import (
	"crypto/sha256"
)

// Anchor prefixes discriminators with a namespace: accounts use "account",
// instructions use "global". The discriminator is the first 8 bytes of
// sha256("<namespace>:<name>").
func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

func accountDiscriminator(name string) [8]byte {
	return anchorDiscriminator("account", name)
}

func instructionDiscriminator(name string) [8]byte {
	return anchorDiscriminator("global", name)
}
