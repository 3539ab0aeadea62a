// Package filestore keeps uploaded document bytes outside the database. The
// document row only holds the returned reference.
package filestore

import (
	"path"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	keySize     = 32
	keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// newKey builds an unguessable object key, keeping the upload's extension
// so downloads get a sensible content type.
func newKey(prefix, name string) string {
	key := gonanoid.MustGenerate(keyAlphabet, keySize)
	if ext := strings.ToLower(path.Ext(name)); ext != "" && len(ext) <= 8 {
		key += ext
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
