// Package shell implements the commands of the kernel shell on top of the driver.
// A Session keeps the current working directory, every command is translated
// into driver requests and their result codes into text.
package shell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aligator/kernfat"
	"github.com/aligator/kernfat/checkpoint"
	"github.com/sirupsen/logrus"
)

// BufferSize is the size of the request buffer. Files larger than it can not be read by the shell.
const BufferSize = 32 * kernfat.ClusterSize

// dirExt is the extension the shell uses for directories.
var dirExt = [3]byte{'d', 'i', 'r'}

// Session is one shell session on a volume.
type Session struct {
	driver *kernfat.Driver
	out    io.Writer
	log    logrus.FieldLogger

	cwd uint32
	buf []byte
}

// New creates a session which starts in the root directory and prints to out.
func New(driver *kernfat.Driver, out io.Writer, log logrus.FieldLogger) *Session {
	return &Session{
		driver: driver,
		out:    out,
		log:    log,
		cwd:    kernfat.RootCluster,
		buf:    make([]byte, BufferSize),
	}
}

// Cwd returns the cluster of the current working directory.
func (s *Session) Cwd() uint32 {
	return s.cwd
}

// SetOutput changes where the session prints to.
func (s *Session) SetOutput(out io.Writer) {
	s.out = out
}

func (s *Session) println(a ...interface{}) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Session) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// request builds a request in the current directory backed by the session buffer.
func (s *Session) request(name [8]byte, ext [3]byte) kernfat.Request {
	for i := range s.buf {
		s.buf[i] = 0
	}
	return kernfat.Request{
		Name:          name,
		Ext:           ext,
		ParentCluster: s.cwd,
		Buf:           s.buf,
		BufferSize:    BufferSize,
	}
}

// parseFile parses "name.ext". Names without extension get the directory extension.
func parseFile(arg string) ([8]byte, [3]byte, error) {
	name, ext, err := kernfat.ParseName(arg)
	if err != nil {
		return name, ext, err
	}
	if !strings.Contains(arg, ".") {
		ext = dirExt
	}
	return name, ext, nil
}

// parseDir parses a directory name, which never has an extension on the command line.
func parseDir(arg string) ([8]byte, error) {
	if strings.Contains(arg, ".") {
		return [8]byte{}, checkpoint.Wrap(fmt.Errorf("directory %q must not have an extension", arg), kernfat.ErrInvalidName)
	}
	name, _, err := kernfat.ParseName(arg)
	return name, err
}

// Pwd returns the path of the current working directory.
func (s *Session) Pwd() (string, error) {
	return s.driver.GetDirPath(s.cwd)
}

// Prompt returns the prompt for the current working directory.
func (s *Session) Prompt(prefix string) string {
	p, err := s.Pwd()
	if err != nil {
		p = "?"
	}
	return fmt.Sprintf("%s:%s$ ", prefix, p)
}

// Exec runs one command line.
// It returns an error only if the line is no valid command, failures of the
// command itself are printed.
func (s *Session) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "cd":
		return s.Cd(args)
	case "ls":
		return s.Ls(args)
	case "mkdir":
		return s.Mkdir(args)
	case "cat":
		return s.Cat(args)
	case "cp":
		return s.Cp(args)
	case "rm":
		return s.Rm(args)
	case "mv":
		return s.Mv(args)
	case "whereis":
		return s.Whereis(args)
	case "pwd":
		p, err := s.Pwd()
		if err != nil {
			return err
		}
		s.println(p)
		return nil
	case "clear":
		s.printf("\033[H\033[2J")
		return nil
	}

	return fmt.Errorf("command invalid: %v", cmd)
}

func expectArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %v argument(s), got %v", n, len(args))
	}
	return nil
}

// Cd changes the working directory to a subdirectory, ".." or "/".
func (s *Session) Cd(args []string) error {
	if len(args) == 0 || args[0] == "/" {
		s.cwd = kernfat.RootCluster
		return nil
	}
	if err := expectArgs(args, 1); err != nil {
		return err
	}

	if args[0] == ".." {
		if s.cwd == kernfat.RootCluster {
			return nil
		}
		res := s.driver.Dispatch(kernfat.OpMoveToParent, s.request([8]byte{}, [3]byte{}))
		if res.Code != kernfat.CodeSuccess {
			s.println("Unknown error occurs..")
			return nil
		}
		s.cwd = res.Value
		return nil
	}

	name, err := parseDir(args[0])
	if err != nil {
		return err
	}

	res := s.driver.Dispatch(kernfat.OpMoveToChild, s.request(name, dirExt))
	switch res.Code {
	case kernfat.CodeSuccess:
		s.cwd = res.Value
	case kernfat.ReadDirectoryNotFound, kernfat.ReadDirectoryNotAFolder:
		s.println("DIRECTORY NOT FOUND")
	default:
		s.println("Unknown error occurs..")
	}
	return nil
}

// Ls lists the working directory.
func (s *Session) Ls(args []string) error {
	if err := expectArgs(args, 0); err != nil {
		return err
	}

	res := s.driver.Dispatch(kernfat.OpGetChildren, s.request([8]byte{}, [3]byte{}))
	if res.Code != kernfat.CodeSuccess {
		s.println("Unknown error occurs..")
		return nil
	}

	if res.Value == 0 {
		s.println("DIRECTORY EMPTY")
		return nil
	}
	s.printf("%s", s.buf[:res.Value])
	return nil
}

// Mkdir creates a subdirectory in the working directory.
func (s *Session) Mkdir(args []string) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}

	name, err := parseDir(args[0])
	if err != nil {
		return err
	}

	req := s.request(name, dirExt)
	req.BufferSize = 0

	res := s.driver.Dispatch(kernfat.OpWrite, req)
	switch res.Code {
	case kernfat.CodeSuccess:
	case kernfat.WriteAlreadyExists:
		s.println("FOLDER ALREADY EXISTS")
	default:
		s.println("Unknown fault. try again.")
	}
	return nil
}

// read reads a file of the working directory into the session buffer.
// It prints the failure with the given verb and returns false if reading failed.
func (s *Session) read(verb string, name [8]byte, ext [3]byte) (uint32, bool) {
	res := s.driver.Dispatch(kernfat.OpRead, s.request(name, ext))
	switch res.Code {
	case kernfat.CodeSuccess:
		return res.Value, true
	case kernfat.ReadNotEnoughBuffer:
		s.println("Request file size is too large..")
	case kernfat.ReadNotAFile:
		s.println("Request is not a file..")
	case kernfat.ReadNotFound:
		s.printf("%s: cannot stat: No such file or directory\n", verb)
	default:
		s.println("Unknown error occurs..")
	}
	return 0, false
}

// Cat prints the content of a file.
func (s *Session) Cat(args []string) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}

	name, ext, err := kernfat.ParseName(args[0])
	if err != nil {
		return err
	}

	n, ok := s.read("cat", name, ext)
	if !ok {
		return nil
	}
	s.printf("%s\n", s.buf[:n])
	return nil
}

// Cp copies a file of the working directory to a new name.
func (s *Session) Cp(args []string) error {
	if len(args) == 1 {
		s.println("cp: missing destination file operand")
		return nil
	}
	if err := expectArgs(args, 2); err != nil {
		return err
	}

	srcName, srcExt, err := kernfat.ParseName(args[0])
	if err != nil {
		return err
	}
	dstName, dstExt, err := kernfat.ParseName(args[1])
	if err != nil {
		return err
	}

	n, ok := s.read("cp", srcName, srcExt)
	if !ok {
		return nil
	}

	req := kernfat.Request{
		Name:          dstName,
		Ext:           dstExt,
		ParentCluster: s.cwd,
		Buf:           s.buf,
		BufferSize:    n,
	}
	res := s.driver.Dispatch(kernfat.OpWrite, req)
	if res.Code != kernfat.CodeSuccess {
		s.println("FAILED TO WRITE..")
		return nil
	}
	s.println("File has been copied successfully!")
	return nil
}

// Rm removes a file or an empty directory of the working directory.
// Names without extension address directories.
func (s *Session) Rm(args []string) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}

	name, ext, err := parseFile(args[0])
	if err != nil {
		return err
	}

	res := s.driver.Dispatch(kernfat.OpDelete, s.request(name, ext))
	switch res.Code {
	case kernfat.CodeSuccess:
		s.println("File has been removed successfully!")
	case kernfat.DeleteNotFound:
		s.println("rm: cannot remove: No such file or directory")
	case kernfat.DeleteFolderNotEmpty:
		s.println("rm: cannot remove: Directory not empty")
	default:
		s.println("FAILED TO REMOVE..")
	}
	return nil
}

// Mv moves a file of the working directory into a subdirectory or "..".
func (s *Session) Mv(args []string) error {
	if err := expectArgs(args, 2); err != nil {
		return err
	}

	name, ext, err := kernfat.ParseName(args[0])
	if err != nil {
		return err
	}

	var target uint32
	if args[1] == ".." {
		target, err = s.driver.MoveToParentDirectory(s.request([8]byte{}, [3]byte{}))
	} else {
		var dir [8]byte
		if dir, err = parseDir(args[1]); err != nil {
			return err
		}
		target, err = s.driver.MoveToChildDirectory(s.request(dir, dirExt))
	}
	if err != nil {
		s.log.WithError(err).Debug("mv target")
		s.println("Directory not found..")
		return nil
	}

	src := s.request(name, ext)
	dst := src
	dst.ParentCluster = target

	err = s.driver.Rename(src, dst)
	switch {
	case err == nil:
		s.println("File has been moved successfully!")
	case errors.Is(err, kernfat.ErrNotFound):
		s.println("mv: cannot stat: No such file or directory")
	case errors.Is(err, kernfat.ErrAlreadyExists):
		s.println("Failed to write because file already exist..")
	default:
		s.log.WithError(err).Debug("mv")
		s.println("Unknown error occured..")
	}
	return nil
}

// Whereis prints all paths of entries with the given name.
func (s *Session) Whereis(args []string) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}

	name, ext, err := parseFile(args[0])
	if err != nil {
		return err
	}

	res := s.driver.Dispatch(kernfat.OpSearchIndex, s.request(name, ext))
	if res.Code != kernfat.CodeSuccess {
		s.println("Unknown error occurs..")
		return nil
	}

	parents := make([]uint32, res.Value)
	for i := range parents {
		parents[i] = binary.LittleEndian.Uint32(s.buf[i*4:])
	}

	display := kernfat.FormatName(name, ext)
	s.printf("%s:", args[0])
	for _, parent := range parents {
		dirPath, err := s.driver.GetDirPath(parent)
		if err != nil {
			s.log.WithError(err).Debug("whereis")
			continue
		}
		s.printf(" %s", path.Join(dirPath, display))
	}
	s.println()
	return nil
}
