package ops

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"

	"github.com/roach88/bake/internal/dish"
	"github.com/roach88/bake/internal/ir"
	"github.com/roach88/bake/internal/operation"
)

var gzipLevels = map[string]int{
	"Dynamic Huffman Coding": gzip.DefaultCompression,
	"Fixed Huffman Coding":   gzip.HuffmanOnly,
	"None (Store)":           gzip.NoCompression,
}

func compressionOps() []operation.Descriptor {
	return []operation.Descriptor{
		{
			Name:        "Gzip",
			Module:      "Compression",
			Description: "Compress the input with gzip.",
			InfoURL:     "https://wikipedia.org/wiki/Gzip",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.ArrayBuffer,
			Args: []operation.ArgSpec{
				{Name: "Compression type", Type: operation.ArgOption, Options: []string{"Dynamic Huffman Coding", "Fixed Huffman Coding", "None (Store)"}},
				{Name: "Filename (optional)", Type: operation.ArgString, Default: ir.IRString("")},
				{Name: "Comment (optional)", Type: operation.ArgString, Default: ir.IRString("")},
			},
			Run: operation.Transform(gzipOp),
		},
		{
			Name:        "Gunzip",
			Module:      "Compression",
			Description: "Decompress gzip data.",
			InfoURL:     "https://wikipedia.org/wiki/Gzip",
			InputType:   dish.ArrayBuffer,
			OutputType:  dish.ArrayBuffer,
			Run:         operation.Transform(gunzipOp),
		},
	}
}

func gzipOp(_ context.Context, in []byte, args operation.Args) ([]byte, error) {
	mode, err := args.String(0)
	if err != nil {
		return nil, err
	}
	level, ok := gzipLevels[mode]
	if !ok {
		return nil, operation.Errorf("unknown compression type %q", mode)
	}
	name, err := args.String(1)
	if err != nil {
		return nil, err
	}
	comment, err := args.String(2)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, operation.Wrap(err, "gzip")
	}
	zw.Name = name
	zw.Comment = comment
	if _, err := zw.Write(in); err != nil {
		return nil, operation.Wrap(err, "gzip")
	}
	if err := zw.Close(); err != nil {
		return nil, operation.Wrap(err, "gzip")
	}
	return buf.Bytes(), nil
}

func gunzipOp(_ context.Context, in []byte, _ operation.Args) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, operation.Wrap(err, "not gzip data")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, operation.Wrap(err, "gunzip")
	}
	return out, nil
}
