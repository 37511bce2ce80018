package jsoncodec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fastserial/lite3/pkg/lite3"
)

// TestDecodeThenEncodeRoundTrips verifies a JSON object survives a
// decode-into-document-then-encode-back-to-JSON round trip with the same
// logical content.
func TestDecodeThenEncodeRoundTrips(t *testing.T) {
	input := `{"name":"ada","age":36,"active":true,"tags":["x","y"],"meta":{"k":1.5},"nil":null}`

	ctx, err := Decode([]byte(input), lite3.DefaultConfig)
	require.NoError(t, err)

	out, err := Encode(ctx.Bytes(), uint32(len(ctx.Bytes())), lite3.DefaultConfig, ctx.Root())
	require.NoError(t, err)

	var want, got map[string]any
	require.NoError(t, json.Unmarshal([]byte(input), &want))
	require.NoError(t, json.Unmarshal(out, &got))
	require.Equal(t, want, got)
}

// TestDecodeTopLevelArray verifies a JSON array decodes into an
// array-rooted document.
func TestDecodeTopLevelArray(t *testing.T) {
	ctx, err := Decode([]byte(`[1,2,3]`), lite3.DefaultConfig)
	require.NoError(t, err)
	require.Equal(t, lite3.TagArray, ctx.RootType())
	require.Equal(t, uint32(3), ctx.Count(ctx.Root()))
}

// TestBytesValueRoundTripsThroughBase64 verifies a value stored as Lite³
// bytes encodes as a base64-tagged JSON string and decodes back to the
// same bytes.
func TestBytesValueRoundTripsThroughBase64(t *testing.T) {
	ctx, err := Decode([]byte(`{}`), lite3.DefaultConfig)
	require.NoError(t, err)
	require.NoError(t, ctx.SetBytes(ctx.Root(), "blob", []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	out, err := Encode(ctx.Bytes(), uint32(len(ctx.Bytes())), lite3.DefaultConfig, ctx.Root())
	require.NoError(t, err)

	back, err := Decode(out, lite3.DefaultConfig)
	require.NoError(t, err)
	v, err := back.GetBytes(back.Root(), "blob")
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, v)
}

// TestDecodeRejectsExcessiveNesting verifies the depth-32 guard rejects a
// JSON document nested deeper than the format allows.
func TestDecodeRejectsExcessiveNesting(t *testing.T) {
	doc := "0"
	for i := 0; i < MaxNestingDepth+5; i++ {
		doc = "[" + doc + "]"
	}
	_, err := Decode([]byte(doc), lite3.DefaultConfig)
	require.ErrorIs(t, err, lite3.ErrOverflow)
}

// TestDecodeNormalizesKeysToNFC verifies two Unicode-equivalent but
// byte-distinct spellings of a key fold into the same entry: the source
// document spells the key with a trailing combining acute accent
// (U+0301, NFD form), and the lookup uses the precomposed U+00E9 (NFC
// form) spelling instead. Both forms are written as literal UTF-8 text;
// the NotEqual check below confirms their bytes differ.
func TestDecodeNormalizesKeysToNFC(t *testing.T) {
	nfdKey := "caf" + "e" + "́"
	nfcKey := "caf" + "é"
	require.NotEqual(t, nfdKey, nfcKey, "fixture must exercise two distinct byte spellings")
	input := `{"` + nfdKey + `":1}`

	ctx, err := Decode([]byte(input), lite3.DefaultConfig)
	require.NoError(t, err)

	v, err := ctx.GetI64(ctx.Root(), nfcKey)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}

// TestDecodeIntegerVsFloat verifies whole numbers decode as i64 while
// fractional numbers decode as f64.
func TestDecodeIntegerVsFloat(t *testing.T) {
	ctx, err := Decode([]byte(`{"i":7,"f":7.5}`), lite3.DefaultConfig)
	require.NoError(t, err)

	tag, err := ctx.Type(ctx.Root(), "i")
	require.NoError(t, err)
	require.Equal(t, lite3.TagI64, tag)

	tag, err = ctx.Type(ctx.Root(), "f")
	require.NoError(t, err)
	require.Equal(t, lite3.TagF64, tag)
}
