package kernfat

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_splitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{path: "", want: nil},
		{path: "/", want: nil},
		{path: ".", want: nil},
		{path: "a", want: []string{"a"}},
		{path: "/a/b.txt", want: []string{"a", "b.txt"}},
		{path: "a//b/", want: []string{"a", "b"}},
		{path: "a/../b", want: []string{"b"}},
		{path: "../a", want: []string{"a"}},
	}
	for _, tt := range tests {
		if got := splitPath(tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDriver_Resolve(t *testing.T) {
	v := newTestVolume(t)
	docs := v.mkdir(t, "docs", RootCluster)
	old := v.mkdir(t, "old", docs)
	require.NoError(t, v.driver.Write(testRequest(t, "a.txt", old, []byte("abc"))))

	tests := []struct {
		name       string
		path       string
		wantName   string
		wantParent uint32
		wantDir    bool
		wantErr    error
	}{
		{name: "root", path: "/", wantName: "root", wantParent: RootCluster, wantDir: true},
		{name: "directory", path: "/docs", wantName: "docs", wantParent: RootCluster, wantDir: true},
		{name: "nested", path: "docs/old", wantName: "old", wantParent: docs, wantDir: true},
		{name: "file", path: "/docs/old/a.txt", wantName: "a.txt", wantParent: old},
		{name: "missing", path: "/docs/nope", wantErr: ErrNotFound},
		{name: "file inside of a file", path: "/docs/old/a.txt/b", wantErr: ErrNotADirectory},
		{name: "invalid name", path: "/docs/toolongname", wantErr: ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, parent, err := v.driver.Resolve(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, entry.FullName())
			assert.Equal(t, tt.wantParent, parent)
			assert.Equal(t, tt.wantDir, entry.IsDir())
		})
	}
}

func TestDriver_Navigation(t *testing.T) {
	v := newTestVolume(t)
	docs := v.mkdir(t, "docs", RootCluster)
	old := v.mkdir(t, "old.v1", docs)
	require.NoError(t, v.driver.Write(testRequest(t, "readme", docs, []byte("read me"))))
	require.NoError(t, v.driver.Write(testRequest(t, "a.txt", docs, []byte("a"))))

	p, err := v.driver.GetDirPath(RootCluster)
	require.NoError(t, err)
	assert.Equal(t, "/", p)

	p, err = v.driver.GetDirPath(old)
	require.NoError(t, err)
	assert.Equal(t, "/docs/old.v1", p)

	_, err = v.driver.GetDirPath(100)
	assert.ErrorIs(t, err, ErrInvalidParent)

	list, err := v.driver.GetChildren(docs)
	require.NoError(t, err)
	assert.Equal(t, "old.v1\nreadme.file\na.txt\n", list)

	up, err := v.driver.MoveToParentDirectory(Request{ParentCluster: old})
	require.NoError(t, err)
	assert.Equal(t, docs, up)

	up, err = v.driver.MoveToParentDirectory(Request{ParentCluster: RootCluster})
	require.NoError(t, err)
	assert.Equal(t, uint32(RootCluster), up, "the parent of the root is the root")

	_, err = v.driver.MoveToChildDirectory(testRequest(t, "a.txt", docs, nil))
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = v.driver.MoveToChildDirectory(testRequest(t, "nope", docs, nil))
	assert.ErrorIs(t, err, ErrNotFound)

	children, err := v.driver.Children(docs)
	require.NoError(t, err)
	assert.Len(t, children, 3)
}
