// Package jsoncodec converts between JSON text and Lite³ documents. It
// mirrors the conversion table in the original json_enc.c: objects and
// arrays recurse, byte values round-trip through base64 text (the original
// used its own nibble-table base64; this codec uses the standard library's
// encoder instead, noted in the module's design ledger), and nesting is
// capped at the same depth the original enforces before it bails out with
// a nesting-too-deep error.
package jsoncodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/fastserial/lite3/pkg/buffer"
	"github.com/fastserial/lite3/pkg/context"
	"github.com/fastserial/lite3/pkg/lite3"
)

// MaxNestingDepth bounds how deeply Decode will recurse into nested
// objects/arrays, matching LITE3_JSON_NESTING_DEPTH_MAX from the original
// encoder.
const MaxNestingDepth = 32

// bytesTag marks a string produced by Encode as having come from a Bytes
// value rather than a String value, so a decoder that round-trips through
// this codec can tell them apart. It is not part of the wire format; a
// plain JSON consumer just sees a data-URI string carrying the base64
// payload.
const bytesTag = "data:application/octet-stream;base64,"

// Encode renders the container (object or array) rooted at containerOfs as
// JSON. Pass the document's root offset to render a whole document.
func Encode(raw []byte, used uint32, cfg lite3.Config, containerOfs uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeContainer(&buf, raw, used, cfg, containerOfs, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeContainer(buf *bytes.Buffer, raw []byte, used uint32, cfg lite3.Config, ofs uint32, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("jsoncodec: nesting exceeds %d levels: %w", MaxNestingDepth, lite3.ErrOverflow)
	}
	tag := lite3.Tag(raw[ofs])
	it := lite3.NewIterator(raw, used, cfg, ofs)
	switch tag {
	case lite3.TagObject:
		buf.WriteByte('{')
		first := true
		for {
			key, valOfs, ok, err := it.NextObjectEntry(raw)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyJSON, err := json.Marshal(key)
			if err != nil {
				return fmt.Errorf("jsoncodec: encode key: %w", err)
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			if err := encodeValue(buf, raw, used, cfg, valOfs, depth); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case lite3.TagArray:
		buf.WriteByte('[')
		first := true
		for {
			valOfs, ok, err := it.NextArrayElement(raw)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := encodeValue(buf, raw, used, cfg, valOfs, depth); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("jsoncodec: offset %d is not a container: %w", ofs, lite3.ErrInvalidArgument)
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, raw []byte, used uint32, cfg lite3.Config, ofs uint32, depth int) error {
	switch lite3.Tag(raw[ofs]) {
	case lite3.TagNull:
		buf.WriteString("null")
	case lite3.TagBool:
		if raw[ofs+1] != 0 {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case lite3.TagI64:
		v, err := lite3.DecodeI64At(raw, ofs)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%d", v)
	case lite3.TagF64:
		v, err := lite3.DecodeF64At(raw, ofs)
		if err != nil {
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("jsoncodec: encode float: %w", err)
		}
		buf.Write(out)
	case lite3.TagBytes:
		v, err := lite3.DecodeBytesAt(raw, ofs)
		if err != nil {
			return err
		}
		encoded := bytesTag + base64.StdEncoding.EncodeToString(v)
		out, err := json.Marshal(encoded)
		if err != nil {
			return fmt.Errorf("jsoncodec: encode bytes: %w", err)
		}
		buf.Write(out)
	case lite3.TagString:
		v, err := lite3.DecodeStringAt(raw, ofs)
		if err != nil {
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("jsoncodec: encode string: %w", err)
		}
		buf.Write(out)
	case lite3.TagObject, lite3.TagArray:
		return encodeContainer(buf, raw, used, cfg, ofs, depth+1)
	default:
		return fmt.Errorf("jsoncodec: offset %d: %w", ofs, lite3.ErrCorruptBuffer)
	}
	return nil
}

// Decode parses data as JSON and writes it into a fresh document owned by a
// new Context, growing it as needed. Object keys are normalized to NFC
// before insertion so that visually identical keys using different Unicode
// decompositions collide into the same slot, the way text-sensitive key
// stores in the wider ecosystem (and the multimap example this module draws
// its normalization habit from) behave.
func Decode(data []byte, cfg lite3.Config) (*context.Context, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("jsoncodec: parse: %w", err)
	}

	root := lite3.TagObject
	if _, ok := v.([]any); ok {
		root = lite3.TagArray
	}
	ctx, err := context.New(cfg, root, 0, 0)
	if err != nil {
		return nil, err
	}
	switch root {
	case lite3.TagObject:
		if err := decodeObjectInto(ctx, ctx.Root(), v.(map[string]any), 0); err != nil {
			return nil, err
		}
	case lite3.TagArray:
		if err := decodeArrayInto(ctx, ctx.Root(), v.([]any), 0); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

func decodeObjectInto(ctx *context.Context, containerOfs uint32, m map[string]any, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("jsoncodec: nesting exceeds %d levels: %w", MaxNestingDepth, lite3.ErrOverflow)
	}
	for key, val := range m {
		normKey := norm.NFC.String(key)
		if err := decodeSetValue(ctx, containerOfs, normKey, val, depth); err != nil {
			return err
		}
	}
	return nil
}

func decodeArrayInto(ctx *context.Context, arrOfs uint32, arr []any, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("jsoncodec: nesting exceeds %d levels: %w", MaxNestingDepth, lite3.ErrOverflow)
	}
	for _, val := range arr {
		if err := decodeAppendValue(ctx, arrOfs, val, depth); err != nil {
			return err
		}
	}
	return nil
}

func decodeSetValue(ctx *context.Context, containerOfs uint32, key string, val any, depth int) error {
	switch t := val.(type) {
	case nil:
		return ctx.SetNull(containerOfs, key)
	case bool:
		return ctx.SetBool(containerOfs, key, t)
	case json.Number:
		return setNumber(ctx, containerOfs, key, t)
	case string:
		return decodeStringValue(ctx, containerOfs, key, t)
	case map[string]any:
		childOfs, err := ctx.SetObject(containerOfs, key)
		if err != nil {
			return err
		}
		return decodeObjectInto(ctx, childOfs, t, depth+1)
	case []any:
		childOfs, err := ctx.SetArray(containerOfs, key)
		if err != nil {
			return err
		}
		return decodeArrayInto(ctx, childOfs, t, depth+1)
	default:
		return fmt.Errorf("jsoncodec: unsupported JSON value type %T: %w", val, lite3.ErrInvalidArgument)
	}
}

func decodeAppendValue(ctx *context.Context, arrOfs uint32, val any, depth int) error {
	switch t := val.(type) {
	case nil:
		_, err := ctx.ArrAppendNull(arrOfs)
		return err
	case bool:
		_, err := ctx.ArrAppendBool(arrOfs, t)
		return err
	case json.Number:
		return appendNumber(ctx, arrOfs, t)
	case string:
		return appendStringValue(ctx, arrOfs, t)
	case map[string]any:
		childOfs, err := ctx.ArrAppendObject(arrOfs)
		if err != nil {
			return err
		}
		return decodeObjectInto(ctx, childOfs, t, depth+1)
	case []any:
		childOfs, err := ctx.ArrAppendArray(arrOfs)
		if err != nil {
			return err
		}
		return decodeArrayInto(ctx, childOfs, t, depth+1)
	default:
		return fmt.Errorf("jsoncodec: unsupported JSON value type %T: %w", val, lite3.ErrInvalidArgument)
	}
}

func setNumber(ctx *context.Context, containerOfs uint32, key string, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		return ctx.SetI64(containerOfs, key, i)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("jsoncodec: decode number %q: %w", n, lite3.ErrInvalidArgument)
	}
	return ctx.SetF64(containerOfs, key, f)
}

func appendNumber(ctx *context.Context, arrOfs uint32, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		_, err := ctx.ArrAppendI64(arrOfs, i)
		return err
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("jsoncodec: decode number %q: %w", n, lite3.ErrInvalidArgument)
	}
	_, err = ctx.ArrAppendF64(arrOfs, f)
	return err
}

func decodeStringValue(ctx *context.Context, containerOfs uint32, key, s string) error {
	if raw, ok := decodeBytesTag(s); ok {
		return ctx.SetBytes(containerOfs, key, raw)
	}
	return ctx.SetString(containerOfs, key, s)
}

func appendStringValue(ctx *context.Context, arrOfs uint32, s string) error {
	if raw, ok := decodeBytesTag(s); ok {
		_, err := ctx.ArrAppendBytes(arrOfs, raw)
		return err
	}
	_, err := ctx.ArrAppendString(arrOfs, s)
	return err
}

func decodeBytesTag(s string) ([]byte, bool) {
	if !bytes.HasPrefix([]byte(s), []byte(bytesTag)) {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(s[len(bytesTag):])
	if err != nil {
		return nil, false
	}
	return raw, true
}

// EncodeBuffer is a convenience wrapper for encoding a whole buffer.Doc's
// root container.
func EncodeBuffer(d *buffer.Doc) ([]byte, error) {
	return Encode(d.Bytes(), d.Used(), d.Config(), d.Root())
}
