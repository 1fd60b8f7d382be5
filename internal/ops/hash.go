package ops

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/operation"
)

var sha2Sizes = map[string]func() hash.Hash{
	"512":     sha512.New,
	"384":     sha512.New384,
	"256":     sha256.New,
	"224":     sha256.New224,
	"512/256": sha512.New512_256,
	"512/224": sha512.New512_224,
}

func digest(newHash func() hash.Hash, in []byte) string {
	h := newHash()
	h.Write(in)
	return hex.EncodeToString(h.Sum(nil))
}

func hashOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "MD5",
			Module:      "Crypto",
			Description: "Compute the MD5 digest of the input as lowercase hex.",
			InfoURL:     "https://wikipedia.org/wiki/MD5",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Run: operation.Transform(func(_ context.Context, in []byte, _ operation.Args) (string, error) {
				return digest(md5.New, in), nil
			}),
		},
		{
			Name:        "SHA1",
			Module:      "Crypto",
			Description: "Compute the SHA-1 digest of the input as lowercase hex.",
			InfoURL:     "https://wikipedia.org/wiki/SHA-1",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Run: operation.Transform(func(_ context.Context, in []byte, _ operation.Args) (string, error) {
				return digest(sha1.New, in), nil
			}),
		},
		{
			Name:        "SHA2",
			Module:      "Crypto",
			Description: "Compute a SHA-2 family digest of the input as lowercase hex.",
			InfoURL:     "https://wikipedia.org/wiki/SHA-2",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.String,
			Args: []operation.ArgSpec{
				{Name: "Size", Type: operation.ArgOption, Options: []string{"512", "384", "256", "224", "512/256", "512/224"}},
			},
			Run: operation.Transform(func(_ context.Context, in []byte, args operation.Args) (string, error) {
				size, err := args.String(0)
				if err != nil {
					return "", err
				}
				newHash, ok := sha2Sizes[size]
				if !ok {
					return "", operation.Errorf("unsupported SHA2 size %q", size)
				}
				return digest(newHash, in), nil
			}),
		},
	}
}
