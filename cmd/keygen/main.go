// Command vdb-keygen prints a fresh signing key and field encryption key in
// the format the server reads from the environment.
package main

import (
	"encoding/base64"
	"fmt"
	"os"

	pkgcrypto "github.com/openhrm/victimdb/internal/crypto"
	"github.com/openhrm/victimdb/internal/crypto/fieldcipher"
)

func main() {
	signing, err := pkgcrypto.RandBytes(48)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	enc, err := pkgcrypto.RandBytes(fieldcipher.KeyLen)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	fmt.Printf("SECRET_KEY=%s\n", base64.RawURLEncoding.EncodeToString(signing))
	fmt.Printf("ENCRYPTION_KEY=%s\n", base64.StdEncoding.EncodeToString(enc))
}
