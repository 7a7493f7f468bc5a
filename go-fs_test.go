package fat

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

// testingGoFsDevice builds a small volume containing a file in the root and
// one inside a subdirectory.
func testingGoFsDevice(t *testing.T) *RamDisk {
	t.Helper()

	fatFs, device := newTestFs(t)

	file, err := fatFs.Create("hello.txt")
	require.NoError(t, err)
	_, err = file.WriteString("Hello World!")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, fatFs.Mkdir("docs", 0))

	file, err = fatFs.Create("docs/readme.md")
	require.NoError(t, err)
	_, err = file.WriteString("# Read me first")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, fatFs.Core().Flush())
	return device
}

func TestGoFS(t *testing.T) {
	gofs, err := NewGoFS(testingGoFsDevice(t))
	require.NoError(t, err)

	if err := fstest.TestFS(gofs, "hello.txt", "docs/readme.md"); err != nil {
		t.Fatal(err)
	}
}

func TestGoFs_OpenInvalidPath(t *testing.T) {
	gofs, err := NewGoFS(testingGoFsDevice(t))
	require.NoError(t, err)

	for _, name := range []string{"/hello.txt", "hello.txt/.", `docs\readme.md`, "docs/../docs/readme.md"} {
		if _, err := gofs.Open(name); !errors.Is(err, fs.ErrInvalid) {
			t.Errorf("GoFs.Open(%q) error = %v, want fs.ErrInvalid", name, err)
		}
	}
}

func TestNewGoFS(t *testing.T) {
	tests := []struct {
		name   string
		device BlockDevice
		// Do not expect something special. Should be enough to check for non-nil.
		// Would not be that easy to provide a valid Fs to check with DeepEqual.
		wantNotNil bool
		wantErr    bool
	}{
		{
			name:       "FAT16 test image",
			device:     testingGoFsDevice(t),
			wantNotNil: true,
			wantErr:    false,
		},
		{
			name:       "blank device",
			device:     NewRamDisk(1024 * 512),
			wantNotNil: false,
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGoFS(tt.device)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGoFS() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if (got != nil) != tt.wantNotNil {
				t.Errorf("NewGoFS() = %v, wantNotNil %v", got, tt.wantNotNil)
			}
		})
	}
}

func TestNewGoFSSkipChecks(t *testing.T) {
	device := testingGoFsDevice(t)

	// Damage the second FAT copy so a strict mount refuses the volume.
	bs := NewBootSector(512)
	require.NoError(t, bs.Read(device))
	device.Bytes()[bs.FatOffset(1)+4] ^= 0xFF

	if _, err := NewGoFS(device); !errors.Is(err, ErrFatMismatch) {
		t.Fatalf("NewGoFS() error = %v, want ErrFatMismatch", err)
	}

	gofs, err := NewGoFSSkipChecks(device)
	require.NoError(t, err)

	content, err := fs.ReadFile(gofs, "hello.txt")
	require.NoError(t, err)
	require.Equal(t, "Hello World!", string(content))
}
