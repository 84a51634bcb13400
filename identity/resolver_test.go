package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyDeterministic(t *testing.T) {
	paths := []string{"", "src/app.py", "src/utils/helpers.py", "a", "München/straße.go"}
	for _, p := range paths {
		for i := 0; i < 3; i++ {
			assert.Equal(t, Identify(p, File), Identify(p, File), "path %q", p)
			assert.Equal(t, Identify(p, Directory), Identify(p, Directory), "path %q", p)
		}
	}
}

func TestIdentifyKindsShareHash(t *testing.T) {
	paths := []string{"src/app.py", "go.mod", "deep/nested/dir"}
	for _, p := range paths {
		f := Identify(p, File)
		d := Identify(p, Directory)
		assert.NotEqual(t, f, d, "path %q", p)
		assert.Equal(t, f.Hash(), d.Hash(), "path %q", p)
		assert.Equal(t, File, f.Kind())
		assert.Equal(t, Directory, d.Kind())
	}
}

func TestIdentifyShape(t *testing.T) {
	id := Identify("src/app.py", File)
	assert.Len(t, string(id), 14)
	require.NoError(t, id.Validate())
}

func TestIdentifyRoot(t *testing.T) {
	assert.Equal(t, RootID, Identify("", Directory))
	assert.Equal(t, RootID, Identify(".", Directory))
	assert.Equal(t, RootID, Identify("./", Directory))
	require.NoError(t, RootID.Validate())
}

func TestIdentifyNormalization(t *testing.T) {
	want := Identify("src/app.py", File)
	assert.Equal(t, want, Identify("./src/app.py", File))
	assert.Equal(t, want, Identify("/src/app.py", File))
	assert.Equal(t, want, Identify("src\\app.py", File))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{".", ""},
		{"./", ""},
		{"src/app.py", "src/app.py"},
		{"./src/app.py", "src/app.py"},
		{"/src/app.py", "src/app.py"},
		{"src/utils/", "src/utils"},
		{"src\\utils\\helpers.py", "src/utils/helpers.py"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	for _, bad := range []ID{"", "f-short", "x-abcdefabcdef", "fxabcdefabcdef", "f-ABCDEFABCDEF", "f-abcdefabcdeg"} {
		assert.Error(t, bad.Validate(), "id %q", bad)
	}
}

func TestIdentifyConcurrent(t *testing.T) {
	want := Identify("src/app.py", File)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if got := Identify("src/app.py", File); got != want {
					t.Errorf("got %s, want %s", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
