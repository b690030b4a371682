package kernfat

import (
	"encoding/binary"
	"errors"

	"github.com/aligator/kernfat/checkpoint"
)

// Operation selects the driver operation of a Dispatch call.
type Operation uint8

const (
	OpRead          Operation = 0
	OpReadDirectory Operation = 1
	OpWrite         Operation = 2
	OpDelete        Operation = 3
	OpGetDirPath    Operation = 6
	OpGetChildren   Operation = 8
	OpMoveToChild   Operation = 9
	OpMoveToParent  Operation = 10
	OpSearchIndex   Operation = 12
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpReadDirectory:
		return "read_directory"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	case OpGetDirPath:
		return "get_dir_path"
	case OpGetChildren:
		return "get_children"
	case OpMoveToChild:
		return "move_to_child"
	case OpMoveToParent:
		return "move_to_parent"
	case OpSearchIndex:
		return "search_index"
	}
	return "unknown"
}

// Result codes. Their meaning depends on the operation.
const (
	CodeSuccess int8 = 0
	CodeUnknown int8 = -1

	ReadNotAFile        int8 = 1
	ReadNotEnoughBuffer int8 = 2
	ReadNotFound        int8 = 3

	ReadDirectoryNotAFolder int8 = 1
	ReadDirectoryNotFound   int8 = 2

	WriteAlreadyExists int8 = 1
	WriteInvalidParent int8 = 2

	DeleteNotFound       int8 = 1
	DeleteFolderNotEmpty int8 = 2

	// SearchIndexNotEnoughBuffer reports that Buf could not hold all matches.
	SearchIndexNotEnoughBuffer int8 = 2
)

// Response is the result of a Dispatch call.
type Response struct {
	Code int8

	// Value is the amount of bytes placed into the buffer, a cluster number
	// or the amount of index matches, depending on the operation.
	Value uint32
}

// codeFor maps err to the result code of op.
func codeFor(op Operation, err error) int8 {
	if err == nil {
		return CodeSuccess
	}

	switch op {
	case OpRead:
		switch {
		case errors.Is(err, ErrNotAFile):
			return ReadNotAFile
		case errors.Is(err, ErrInsufficientBuffer):
			return ReadNotEnoughBuffer
		case errors.Is(err, ErrNotFound):
			return ReadNotFound
		}
	case OpReadDirectory, OpMoveToChild:
		switch {
		case errors.Is(err, ErrNotADirectory):
			return ReadDirectoryNotAFolder
		case errors.Is(err, ErrNotFound):
			return ReadDirectoryNotFound
		}
	case OpWrite:
		switch {
		case errors.Is(err, ErrAlreadyExists):
			return WriteAlreadyExists
		case errors.Is(err, ErrInvalidParent):
			return WriteInvalidParent
		}
	case OpDelete:
		switch {
		case errors.Is(err, ErrNotFound):
			return DeleteNotFound
		case errors.Is(err, ErrNotEmpty):
			return DeleteFolderNotEmpty
		}
	case OpSearchIndex:
		if errors.Is(err, ErrInsufficientBuffer) {
			return SearchIndexNotEnoughBuffer
		}
	}
	return CodeUnknown
}

// Message returns the text a shell prints for code as result of op.
func Message(op Operation, code int8) string {
	if code == CodeSuccess {
		return "success"
	}

	switch op {
	case OpRead:
		switch code {
		case ReadNotAFile:
			return "not a file"
		case ReadNotEnoughBuffer:
			return "not enough buffer"
		case ReadNotFound:
			return "not found"
		}
	case OpReadDirectory, OpMoveToChild:
		switch code {
		case ReadDirectoryNotAFolder:
			return "not a folder"
		case ReadDirectoryNotFound:
			return "not found"
		}
	case OpWrite:
		switch code {
		case WriteAlreadyExists:
			return "file already exists"
		case WriteInvalidParent:
			return "invalid parent folder"
		}
	case OpDelete:
		switch code {
		case DeleteNotFound:
			return "not found"
		case DeleteFolderNotEmpty:
			return "folder is not empty"
		}
	case OpSearchIndex:
		if code == SearchIndexNotEnoughBuffer {
			return "not enough buffer"
		}
	}
	return "unknown error"
}

// Dispatch runs op with req and reports the result in the fixed code form
// a system call boundary can pass on. Text results are written to req.Buf.
func (d *Driver) Dispatch(op Operation, req Request) Response {
	var (
		value uint32
		err   error
	)

	switch op {
	case OpRead:
		var n int
		n, err = d.Read(req)
		value = uint32(n)
	case OpReadDirectory:
		var n int
		n, err = d.ReadDirectory(req)
		value = uint32(n)
	case OpWrite:
		err = d.Write(req)
	case OpDelete:
		err = d.Delete(req)
	case OpGetDirPath:
		var p string
		if p, err = d.GetDirPath(req.ParentCluster); err == nil {
			value, err = putText(req, p)
		}
	case OpGetChildren:
		var list string
		if list, err = d.GetChildren(req.ParentCluster); err == nil {
			value, err = putText(req, list)
		}
	case OpMoveToChild:
		value, err = d.MoveToChildDirectory(req)
	case OpMoveToParent:
		value, err = d.MoveToParentDirectory(req)
	case OpSearchIndex:
		var parents []uint32
		if parents, err = d.SearchIndex(req.Name, req.Ext); err == nil {
			value, err = putClusters(req, parents)
		}
	default:
		return Response{Code: CodeUnknown}
	}

	return Response{
		Code:  codeFor(op, err),
		Value: value,
	}
}

// putText copies text into the request buffer, terminated by a zero byte if there is room.
func putText(req Request, text string) (uint32, error) {
	capacity := req.capacity()
	if len(text) > capacity {
		return 0, checkpoint.New(ErrInsufficientBuffer)
	}

	n := copy(req.Buf[:capacity], text)
	if n < capacity {
		req.Buf[n] = 0
	}
	return uint32(n), nil
}

// putClusters writes the clusters as little endian uint32 values into the request buffer.
// As many as fit are written, the returned value is always the amount of all clusters.
func putClusters(req Request, clusters []uint32) (uint32, error) {
	capacity := req.capacity()
	for i, c := range clusters {
		if (i+1)*4 > capacity {
			return uint32(len(clusters)), checkpoint.New(ErrInsufficientBuffer)
		}
		binary.LittleEndian.PutUint32(req.Buf[i*4:], c)
	}
	return uint32(len(clusters)), nil
}
