package shell

import (
	"bytes"

	"github.com/abiosoft/ishell"
)

// DefaultPrompt is the prefix of the prompt, followed by the working directory.
const DefaultPrompt = "kernfat"

// command wraps a session command for ishell.
// Invalid usage is reported through the context, the prompt follows the working directory.
func (s *Session) command(shell *ishell.Shell, prefix string, run func(args []string) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		var out bytes.Buffer
		s.SetOutput(&out)
		err := run(c.Args)
		c.Print(out.String())
		if err != nil {
			c.Err(err)
		}
		shell.SetPrompt(s.Prompt(prefix))
	}
}

// Attach registers all commands of the session on shell.
func (s *Session) Attach(shell *ishell.Shell, prefix string) {
	if prefix == "" {
		prefix = DefaultPrompt
	}
	shell.SetPrompt(s.Prompt(prefix))

	commands := []struct {
		name string
		help string
		run  func(args []string) error
	}{
		{"cd", "change the working directory: cd <dir> | cd .. | cd /", s.Cd},
		{"ls", "list the working directory", s.Ls},
		{"mkdir", "create a directory: mkdir <dir>", s.Mkdir},
		{"cat", "print a file: cat <name.ext>", s.Cat},
		{"cp", "copy a file: cp <name.ext> <name.ext>", s.Cp},
		{"rm", "remove a file or an empty directory: rm <name.ext> | rm <dir>", s.Rm},
		{"mv", "move a file into a directory: mv <name.ext> <dir> | mv <name.ext> ..", s.Mv},
		{"whereis", "find all locations of a name: whereis <name.ext> | whereis <dir>", s.Whereis},
		{"pwd", "print the working directory", func(args []string) error {
			return s.Exec("pwd")
		}},
	}

	for _, cmd := range commands {
		shell.AddCmd(&ishell.Cmd{
			Name: cmd.name,
			Help: cmd.help,
			Func: s.command(shell, prefix, cmd.run),
		})
	}
	// clear is one of the default commands of ishell.
}
