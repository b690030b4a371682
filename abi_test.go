package kernfat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_Dispatch(t *testing.T) {
	v := newTestVolume(t)

	// write
	res := v.driver.Dispatch(OpWrite, testRequest(t, "ikanaide", RootCluster, nil))
	assert.Equal(t, Response{Code: CodeSuccess}, res)
	res = v.driver.Dispatch(OpWrite, testRequest(t, "ikanaide", RootCluster, nil))
	assert.Equal(t, WriteAlreadyExists, res.Code)
	res = v.driver.Dispatch(OpWrite, testRequest(t, "a.txt", 100, []byte("a")))
	assert.Equal(t, WriteInvalidParent, res.Code)

	// move_to_child
	res = v.driver.Dispatch(OpMoveToChild, testRequest(t, "ikanaide", RootCluster, nil))
	require.Equal(t, CodeSuccess, res.Code)
	dir := res.Value
	assert.Equal(t, uint32(firstDataCluster), dir)
	res = v.driver.Dispatch(OpMoveToChild, testRequest(t, "nope", RootCluster, nil))
	assert.Equal(t, ReadDirectoryNotFound, res.Code)

	content := []byte("uwu")
	res = v.driver.Dispatch(OpWrite, testRequest(t, "uwu.txt", dir, content))
	require.Equal(t, CodeSuccess, res.Code)

	// read
	buf := make([]byte, 16)
	res = v.driver.Dispatch(OpRead, testRequest(t, "uwu.txt", dir, buf))
	assert.Equal(t, Response{Code: CodeSuccess, Value: 3}, res)
	assert.Equal(t, content, buf[:3])
	res = v.driver.Dispatch(OpRead, testRequest(t, "uwu.txt", dir, make([]byte, 2)))
	assert.Equal(t, ReadNotEnoughBuffer, res.Code)
	res = v.driver.Dispatch(OpRead, testRequest(t, "ikanaide", RootCluster, buf))
	assert.Equal(t, ReadNotAFile, res.Code)
	res = v.driver.Dispatch(OpRead, testRequest(t, "nope.txt", dir, buf))
	assert.Equal(t, ReadNotFound, res.Code)

	// read_directory
	res = v.driver.Dispatch(OpReadDirectory, testRequest(t, "ikanaide", RootCluster, make([]byte, ClusterSize)))
	assert.Equal(t, Response{Code: CodeSuccess, Value: ClusterSize}, res)
	res = v.driver.Dispatch(OpReadDirectory, testRequest(t, "uwu.txt", dir, make([]byte, ClusterSize)))
	assert.Equal(t, ReadDirectoryNotAFolder, res.Code)
	res = v.driver.Dispatch(OpReadDirectory, testRequest(t, "nope", RootCluster, make([]byte, ClusterSize)))
	assert.Equal(t, ReadDirectoryNotFound, res.Code)
	res = v.driver.Dispatch(OpReadDirectory, testRequest(t, "ikanaide", RootCluster, make([]byte, 10)))
	assert.Equal(t, CodeUnknown, res.Code)

	// get_dir_path
	text := make([]byte, 32)
	for i := range text {
		text[i] = 0xFF
	}
	res = v.driver.Dispatch(OpGetDirPath, Request{ParentCluster: dir, Buf: text})
	assert.Equal(t, Response{Code: CodeSuccess, Value: 9}, res)
	assert.Equal(t, "/ikanaide\x00", string(text[:10]))
	res = v.driver.Dispatch(OpGetDirPath, Request{ParentCluster: dir, Buf: make([]byte, 4)})
	assert.Equal(t, CodeUnknown, res.Code)

	// get_children
	res = v.driver.Dispatch(OpGetChildren, Request{ParentCluster: dir, Buf: text})
	assert.Equal(t, Response{Code: CodeSuccess, Value: 8}, res)
	assert.Equal(t, "uwu.txt\n\x00", string(text[:9]))

	// move_to_parent
	res = v.driver.Dispatch(OpMoveToParent, Request{ParentCluster: dir})
	assert.Equal(t, Response{Code: CodeSuccess, Value: RootCluster}, res)

	// search_index
	second := v.mkdir(t, "second", RootCluster)
	require.Equal(t, CodeSuccess, v.driver.Dispatch(OpWrite, testRequest(t, "uwu.txt", second, content)).Code)

	search := testRequest(t, "uwu.txt", 0, make([]byte, 8))
	res = v.driver.Dispatch(OpSearchIndex, search)
	assert.Equal(t, Response{Code: CodeSuccess, Value: 2}, res)
	assert.Equal(t, dir, binary.LittleEndian.Uint32(search.Buf[0:]))
	assert.Equal(t, second, binary.LittleEndian.Uint32(search.Buf[4:]))

	search = testRequest(t, "uwu.txt", 0, make([]byte, 4))
	res = v.driver.Dispatch(OpSearchIndex, search)
	assert.Equal(t, Response{Code: SearchIndexNotEnoughBuffer, Value: 2}, res)
	assert.Equal(t, dir, binary.LittleEndian.Uint32(search.Buf[0:]))

	// delete
	res = v.driver.Dispatch(OpDelete, testRequest(t, "ikanaide", RootCluster, nil))
	assert.Equal(t, DeleteFolderNotEmpty, res.Code)
	res = v.driver.Dispatch(OpDelete, testRequest(t, "nope.txt", dir, nil))
	assert.Equal(t, DeleteNotFound, res.Code)
	res = v.driver.Dispatch(OpDelete, testRequest(t, "uwu.txt", dir, nil))
	assert.Equal(t, CodeSuccess, res.Code)
	res = v.driver.Dispatch(OpDelete, testRequest(t, "ikanaide", RootCluster, nil))
	assert.Equal(t, CodeSuccess, res.Code)

	// unknown selector
	res = v.driver.Dispatch(Operation(42), Request{})
	assert.Equal(t, CodeUnknown, res.Code)

	v.requireClean(t)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		op   Operation
		code int8
		want string
	}{
		{op: OpRead, code: CodeSuccess, want: "success"},
		{op: OpRead, code: ReadNotAFile, want: "not a file"},
		{op: OpRead, code: ReadNotEnoughBuffer, want: "not enough buffer"},
		{op: OpRead, code: ReadNotFound, want: "not found"},
		{op: OpReadDirectory, code: ReadDirectoryNotAFolder, want: "not a folder"},
		{op: OpMoveToChild, code: ReadDirectoryNotFound, want: "not found"},
		{op: OpWrite, code: WriteAlreadyExists, want: "file already exists"},
		{op: OpWrite, code: WriteInvalidParent, want: "invalid parent folder"},
		{op: OpDelete, code: DeleteNotFound, want: "not found"},
		{op: OpDelete, code: DeleteFolderNotEmpty, want: "folder is not empty"},
		{op: OpSearchIndex, code: SearchIndexNotEnoughBuffer, want: "not enough buffer"},
		{op: OpDelete, code: CodeUnknown, want: "unknown error"},
		{op: OpGetDirPath, code: 5, want: "unknown error"},
	}
	for _, tt := range tests {
		if got := Message(tt.op, tt.code); got != tt.want {
			t.Errorf("Message(%v, %v) = %v, want %v", tt.op, tt.code, got, tt.want)
		}
	}
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "read", OpRead.String())
	assert.Equal(t, "search_index", OpSearchIndex.String())
	assert.Equal(t, "unknown", Operation(200).String())
}
