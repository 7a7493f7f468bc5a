package fat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T, name string) (*FatFileSystem, *FatFile) {
	t.Helper()

	fs, _ := newTestFileSystem(t)
	entry, err := fs.RootDir().AddFile(name)
	require.NoError(t, err)
	return fs, fs.GetFile(entry)
}

func TestFatFile_WriteRead(t *testing.T) {
	fs, file := newTestFile(t, "HELLO.TXT")

	// three clusters worth of data, not cluster aligned
	content := bytes.Repeat([]byte("0123456789"), 130)
	require.NoError(t, file.WriteAt(content, 0))

	assert.Equal(t, uint32(len(content)), file.Length())
	length, err := fs.Fat().ChainLength(file.StartCluster())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), length)

	buf := make([]byte, len(content))
	require.NoError(t, file.ReadAt(buf, 0))
	assert.Equal(t, content, buf)

	// partial read crossing a cluster boundary
	part := make([]byte, 100)
	require.NoError(t, file.ReadAt(part, 480))
	assert.Equal(t, content[480:580], part)
}

func TestFatFile_WriteAtOffset(t *testing.T) {
	_, file := newTestFile(t, "HELLO.TXT")

	require.NoError(t, file.WriteAt([]byte("0123456789"), 0))
	require.NoError(t, file.WriteAt([]byte("xx"), 4))

	buf := make([]byte, 10)
	require.NoError(t, file.ReadAt(buf, 0))
	assert.Equal(t, []byte("0123xx6789"), buf)
	assert.Equal(t, uint32(10), file.Length(), "overwrite must not change the length")
}

func TestFatFile_ReadOutOfBounds(t *testing.T) {
	_, file := newTestFile(t, "HELLO.TXT")
	require.NoError(t, file.WriteAt([]byte("hello"), 0))

	buf := make([]byte, 10)
	assert.ErrorIs(t, file.ReadAt(buf, 0), ErrFileRange)
	assert.ErrorIs(t, file.ReadAt(buf[:1], 5), ErrFileRange)
	assert.ErrorIs(t, file.ReadAt(buf[:1], -1), ErrFileRange)
}

// Growing a file allocates exactly the clusters the new length needs, and
// existing data stays where it is.
func TestFatFile_SetLengthGrow(t *testing.T) {
	fs, file := newTestFile(t, "HELLO.TXT")

	freeBefore := fs.Fat().FreeCount()

	require.NoError(t, file.WriteAt([]byte("hello"), 0))
	assert.Equal(t, freeBefore-1, fs.Fat().FreeCount())

	require.NoError(t, file.SetLength(512*2+1))
	assert.Equal(t, freeBefore-3, fs.Fat().FreeCount())
	assert.Equal(t, uint32(512*2+1), file.Length())

	buf := make([]byte, 5)
	require.NoError(t, file.ReadAt(buf, 0))
	assert.Equal(t, []byte("hello"), buf)
}

func TestFatFile_SetLengthShrink(t *testing.T) {
	fs, file := newTestFile(t, "HELLO.TXT")

	freeBefore := fs.Fat().FreeCount()
	require.NoError(t, file.SetLength(4*512))
	assert.Equal(t, freeBefore-4, fs.Fat().FreeCount())

	require.NoError(t, file.SetLength(512))
	assert.Equal(t, freeBefore-1, fs.Fat().FreeCount())

	require.NoError(t, file.SetLength(0))
	assert.Equal(t, freeBefore, fs.Fat().FreeCount())
	assert.Equal(t, uint32(0), file.StartCluster())
	assert.Equal(t, uint32(0), file.Length())
}

// Growing past the last data cluster must report a full disk and leave the
// FAT as it was, with no partially linked chain.
func TestFatFile_GrowBeyondCapacity(t *testing.T) {
	fs, file := newTestFile(t, "HELLO.TXT")

	free := fs.Fat().FreeCount()
	clusterSize := uint32(fs.ClusterSize())

	// empty file: nothing may stay allocated
	assert.ErrorIs(t, file.SetLength((free+1)*clusterSize), ErrDiskFull)
	assert.Equal(t, free, fs.Fat().FreeCount())
	assert.Equal(t, uint32(0), file.StartCluster())

	// short file: the chain must keep its old length
	require.NoError(t, file.WriteAt([]byte("hello"), 0))
	assert.ErrorIs(t, file.SetLength((free+1)*clusterSize), ErrDiskFull)
	length, err := fs.Fat().ChainLength(file.StartCluster())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), length)
	assert.Equal(t, uint32(5), file.Length())
	assert.Equal(t, free-1, fs.Fat().FreeCount())

	// the full capacity itself is still reachable
	require.NoError(t, file.SetLength(free*clusterSize))
	assert.Equal(t, uint32(0), fs.Fat().FreeCount())
}

// Shrinking to zero and growing again picks up a fresh chain.
func TestFatFile_ReuseAfterEmpty(t *testing.T) {
	_, file := newTestFile(t, "HELLO.TXT")

	require.NoError(t, file.WriteAt([]byte("first"), 0))
	require.NoError(t, file.SetLength(0))
	require.NoError(t, file.WriteAt([]byte("second"), 0))

	buf := make([]byte, 6)
	require.NoError(t, file.ReadAt(buf, 0))
	assert.Equal(t, []byte("second"), buf)
}

func TestFatFile_Flush(t *testing.T) {
	fs, file := newTestFile(t, "HELLO.TXT")

	require.NoError(t, file.WriteAt([]byte("hello"), 0))
	assert.True(t, file.IsDirty())

	require.NoError(t, file.Flush())
	assert.False(t, file.IsDirty())

	// the parent entry now carries the new length and start cluster
	entry := mustGetEntry(t, fs.RootDir(), "HELLO.TXT")
	assert.Equal(t, uint32(5), entry.Length)
	assert.Equal(t, file.StartCluster(), entry.StartCluster())
}

func TestFatFile_LengthOnDisk(t *testing.T) {
	_, file := newTestFile(t, "HELLO.TXT")

	size, err := file.LengthOnDisk()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), size)

	require.NoError(t, file.SetLength(513))
	size, err = file.LengthOnDisk()
	require.NoError(t, err)
	assert.Equal(t, uint32(2*512), size)
}
