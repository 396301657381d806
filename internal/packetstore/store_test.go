package packetstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/xmpkit/internal/encoding"
	"github.com/aleksaelezovic/xmpkit/internal/storage"
	"github.com/aleksaelezovic/xmpkit/pkg/store"
	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

const packetA = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/">
   <xmp:CreatorTool>Tool A</xmp:CreatorTool>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`

const packetB = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/">
   <xmp:CreatorTool>Tool B</xmp:CreatorTool>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`

func newTestStore(t *testing.T) *PacketStore {
	t.Helper()
	st, err := storage.OpenBadgerStorage("", storage.Options{InMemory: true})
	require.NoError(t, err)
	ps := New(st, nil)
	ps.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { ps.Close() })
	return ps
}

func TestPutGet(t *testing.T) {
	ps := newTestStore(t)

	rec, changed, err := ps.Put("photos/a.jpg", []byte(packetA))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(len(packetA)), rec.Size)
	assert.Equal(t, [16]byte(encoding.HashString(packetA)), rec.Fingerprint)

	packet, got, err := ps.Get("photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, packetA, string(packet))
	assert.Equal(t, rec.Fingerprint, got.Fingerprint)
	assert.True(t, rec.Modified.Equal(got.Modified))

	meta, err := ps.GetMeta("photos/a.jpg", nil)
	require.NoError(t, err)
	tool, ok, err := meta.GetPropertyString(xmp.NsXMP, "CreatorTool")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tool A", tool)
}

func TestPutUnchangedAndReplace(t *testing.T) {
	ps := newTestStore(t)

	_, _, err := ps.Put("a", []byte(packetA))
	require.NoError(t, err)

	_, changed, err := ps.Put("a", []byte(packetA))
	require.NoError(t, err)
	assert.False(t, changed, "identical content should not be rewritten")

	_, changed, err = ps.Put("a", []byte(packetB))
	require.NoError(t, err)
	assert.True(t, changed)

	// The old fingerprint must no longer point at the resource
	found, err := ps.FindByFingerprint(encoding.HashString(packetA))
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = ps.FindByFingerprint(encoding.HashString(packetB))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, found)
}

func TestPutRejectsInvalidPacket(t *testing.T) {
	ps := newTestStore(t)

	_, _, err := ps.Put("bad", []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF`))
	require.Error(t, err)
	assert.Equal(t, xmp.KindBadXML, xmp.KindOf(err))

	_, _, err = ps.Put("", []byte(packetA))
	assert.ErrorIs(t, err, ErrEmptyResource)

	count, err := ps.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListAndDelete(t *testing.T) {
	ps := newTestStore(t)

	for _, r := range []string{"docs/b.pdf", "photos/a.jpg", "photos/b.jpg"} {
		_, _, err := ps.Put(r, []byte(packetA))
		require.NoError(t, err)
	}

	entries, err := ps.List("photos/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "photos/a.jpg", entries[0].Resource)
	assert.Equal(t, "photos/b.jpg", entries[1].Resource)

	all, err := ps.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := ps.FindByFingerprint(encoding.HashString(packetA))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/b.pdf", "photos/a.jpg", "photos/b.jpg"}, found)

	require.NoError(t, ps.Delete("photos/a.jpg"))
	assert.ErrorIs(t, ps.Delete("photos/a.jpg"), store.ErrNotFound)

	_, _, err = ps.Get("photos/a.jpg")
	assert.ErrorIs(t, err, store.ErrNotFound)

	count, err := ps.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPutMeta(t *testing.T) {
	ps := newTestStore(t)

	meta := xmp.New()
	require.NoError(t, meta.SetProperty(xmp.NsDC, "format", "image/jpeg", xmp.NoOptions))

	rec, _, err := ps.PutMeta("m", meta, &xmp.SerializeOptions{OmitPacketWrapper: true})
	require.NoError(t, err)
	require.NoError(t, ps.Sync())

	back, err := ps.GetMeta("m", nil)
	require.NoError(t, err)
	format, ok, err := back.GetPropertyString(xmp.NsDC, "format")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", format)

	packet, _, err := ps.Get("m")
	require.NoError(t, err)
	assert.Equal(t, rec.Size, int64(len(packet)))
}
