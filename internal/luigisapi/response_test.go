package luigisapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"ok_count":1}`},
		{name: "padded object", body: "  {\"ok_count\":1}\n"},
		{name: "empty body", body: ``, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "array", body: `[1,2]`, wantErr: true},
		{name: "malformed", body: `{"ok_count":`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.body))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, `{"ok_count":1}`, string(doc.Raw))
			assert.Equal(t, map[string]any{"ok_count": float64(1)}, doc.Decoded)
		})
	}
}

func TestDocumentAccessors(t *testing.T) {
	doc, err := Parse([]byte(`{"n":5,"f":1.5,"s":"x","nil":null,"obj":{}}`))
	require.NoError(t, err)

	n, ok, err := doc.Int("n")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok, err = doc.Int("f")
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = doc.Int("s")
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = doc.Int("missing")
	assert.False(t, ok)
	assert.NoError(t, err)

	_, ok, err = doc.Int("nil")
	assert.False(t, ok)
	assert.NoError(t, err)

	s, ok, err := doc.String("s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, _, err = doc.String("n")
	assert.Error(t, err)

	entries, ok, err := doc.Entries("obj")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, ok, err = doc.Entries("s")
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestOrderedObjectKeepsDocumentOrder(t *testing.T) {
	entries, err := OrderedObject([]byte(`{"z.url":{"a":1},"a.url":[1,2],"m.url":"x"}`))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "z.url", entries[0].Key)
	assert.JSONEq(t, `{"a":1}`, string(entries[0].Value))
	assert.Equal(t, "a.url", entries[1].Key)
	assert.Equal(t, "m.url", entries[2].Key)
	assert.JSONEq(t, `"x"`, string(entries[2].Value))
}

func TestOrderedObjectArrays(t *testing.T) {
	entries, err := OrderedObject([]byte(` [ ] `))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, err = OrderedObject([]byte(`[{"type":"x"}]`))
	assert.ErrorIs(t, err, ErrNotObject)

	doc, err := Parse([]byte(`{"ok_count":2,"errors_count":0,"errors":[]}`))
	require.NoError(t, err)
	entries, ok, err := doc.Entries("errors")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
