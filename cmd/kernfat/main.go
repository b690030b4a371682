package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/aligator/kernfat"
	"github.com/aligator/kernfat/shell"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var version = "dev"

// infoFormatter prints info messages without decoration and everything else like the TextFormatter.
type infoFormatter struct {
	log.TextFormatter
}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return f.TextFormatter.Format(entry)
}

// volume is an opened and initialized image.
type volume struct {
	dev  *kernfat.ImageDevice
	lock *FileLock
	fs   *kernfat.Fs
}

func (v *volume) Close() error {
	var lockErr error
	if v.lock != nil {
		lockErr = v.lock.Unlock()
	}
	if err := v.dev.Close(); err != nil {
		return err
	}
	return lockErr
}

// loadConfig reads the config file and applies the global flags.
func loadConfig(c *cli.Context) (Config, error) {
	config, err := readConfig(afero.NewOsFs(), c.String("config"))
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if c.IsSet("image") {
		config.Image = c.String("image")
	}
	if c.IsSet("log-level") {
		config.LogLevel = c.String("log-level")
	}
	if c.IsSet("no-lock") {
		config.Lock = !c.Bool("no-lock")
	}
	return config, nil
}

// open loads the config, sets up logging and opens the image.
// A blank image gets formatted by the initialization.
func open(c *cli.Context) (*volume, Config, error) {
	config, err := loadConfig(c)
	if err != nil {
		return nil, config, err
	}

	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, config, fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
	}
	log.SetLevel(level)

	dev, err := kernfat.OpenImage(afero.NewOsFs(), config.Image, config.Create)
	if err != nil {
		return nil, config, fmt.Errorf("failed to open image %v: %w", config.Image, err)
	}
	v := &volume{dev: dev}

	if config.Lock {
		v.lock, err = lockImage(dev.File())
		if err != nil {
			_ = dev.Close()
			return nil, config, err
		}
	}

	driver := kernfat.New(dev, kernfat.WithLogger(log.WithField("image", config.Image)))
	if err := driver.Initialize(); err != nil {
		_ = v.Close()
		return nil, config, fmt.Errorf("failed to initialize volume: %w", err)
	}
	v.fs = kernfat.NewFs(driver)

	return v, config, nil
}

// withVolume runs action on the opened volume and closes it afterwards.
func withVolume(action func(c *cli.Context, v *volume, config Config) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		v, config, err := open(c)
		if err != nil {
			return err
		}
		defer func() {
			if err := v.Close(); err != nil {
				log.WithError(err).Warn("failed to close image")
			}
		}()
		return action(c, v, config)
	}
}

func argument(c *cli.Context, n int, usage string) ([]string, error) {
	if c.NArg() != n {
		return nil, fmt.Errorf("usage: %v %v", c.Command.Name, usage)
	}
	return c.Args().Slice(), nil
}

func formatAction(c *cli.Context, v *volume, config Config) error {
	if err := v.fs.Driver().Format(); err != nil {
		return err
	}
	log.Infof("formatted %v", config.Image)
	return nil
}

func lsAction(c *cli.Context, v *volume, config Config) error {
	dir := "/"
	if c.NArg() > 0 {
		dir = c.Args().First()
	}

	infos, err := afero.ReadDir(v.fs, dir)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.IsDir() {
			fmt.Fprintf(c.App.Writer, "%v/\n", info.Name())
			continue
		}
		fmt.Fprintf(c.App.Writer, "%v\t%v\n", info.Name(), info.Size())
	}
	return nil
}

func mkdirAction(c *cli.Context, v *volume, config Config) error {
	args, err := argument(c, 1, "<path>")
	if err != nil {
		return err
	}
	if c.Bool("parents") {
		return v.fs.MkdirAll(args[0], 0755)
	}
	return v.fs.Mkdir(args[0], 0755)
}

func putAction(c *cli.Context, v *volume, config Config) error {
	args, err := argument(c, 2, "<local file> <path>")
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := afero.WriteFile(v.fs, args[1], data, 0644); err != nil {
		return err
	}
	log.Infof("stored %v bytes in %v", len(data), args[1])
	return nil
}

func getAction(c *cli.Context, v *volume, config Config) error {
	args, err := argument(c, 1, "<path>")
	if err != nil {
		return err
	}

	file, err := v.fs.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(c.App.Writer, file)
	return err
}

func rmAction(c *cli.Context, v *volume, config Config) error {
	args, err := argument(c, 1, "<path>")
	if err != nil {
		return err
	}
	if c.Bool("recursive") {
		return v.fs.RemoveAll(args[0])
	}
	return v.fs.Remove(args[0])
}

func mvAction(c *cli.Context, v *volume, config Config) error {
	args, err := argument(c, 2, "<path> <path>")
	if err != nil {
		return err
	}
	return v.fs.Rename(args[0], args[1])
}

func whereisAction(c *cli.Context, v *volume, config Config) error {
	args, err := argument(c, 1, "<name.ext>")
	if err != nil {
		return err
	}

	name, ext, err := kernfat.ParseName(args[0])
	if err != nil {
		return err
	}

	driver := v.fs.Driver()
	parents, err := driver.SearchIndex(name, ext)
	if err != nil {
		return err
	}
	if len(parents) == 0 {
		return fmt.Errorf("%v: %w", args[0], kernfat.ErrNotFound)
	}

	for _, parent := range parents {
		dir, err := driver.GetDirPath(parent)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, strings.TrimSuffix(dir, "/")+"/"+args[0])
	}
	return nil
}

func checkAction(c *cli.Context, v *volume, config Config) error {
	report, err := v.fs.Driver().Check()
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, report.String())
	if !report.Clean() {
		return cli.Exit("volume is inconsistent", 2)
	}
	return nil
}

func shellAction(c *cli.Context, v *volume, config Config) error {
	sh := ishell.New()
	session := shell.New(v.fs.Driver(), c.App.Writer, log.StandardLogger())
	session.Attach(sh, config.Prompt)
	sh.Println("kernfat shell on " + config.Image)
	sh.Run()
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kernfat",
		Usage:   "manage a kernfat volume inside a disk image",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path of the disk image",
				EnvVars: []string{"KERNFAT_IMAGE"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of the yaml config file",
				Value:   "kernfat.yml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (panic, fatal, error, warn, info, debug, trace)",
			},
			&cli.BoolFlag{
				Name:  "no-lock",
				Usage: "do not lock the image",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "format",
				Usage:  "create a fresh volume, deleting everything",
				Action: withVolume(formatAction),
			},
			{
				Name:      "ls",
				Usage:     "list a directory",
				ArgsUsage: "[path]",
				Action:    withVolume(lsAction),
			},
			{
				Name:      "mkdir",
				Usage:     "create a directory",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "parents", Aliases: []string{"p"}, Usage: "create missing parents"},
				},
				Action: withVolume(mkdirAction),
			},
			{
				Name:      "put",
				Usage:     "copy a local file into the volume",
				ArgsUsage: "<local file> <path>",
				Action:    withVolume(putAction),
			},
			{
				Name:      "get",
				Aliases:   []string{"cat"},
				Usage:     "print a file of the volume",
				ArgsUsage: "<path>",
				Action:    withVolume(getAction),
			},
			{
				Name:      "rm",
				Usage:     "remove a file or an empty directory",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "remove directories with their content"},
				},
				Action: withVolume(rmAction),
			},
			{
				Name:      "mv",
				Usage:     "move or rename an entry",
				ArgsUsage: "<path> <path>",
				Action:    withVolume(mvAction),
			},
			{
				Name:      "whereis",
				Usage:     "list every location of a name",
				ArgsUsage: "<name.ext>",
				Action:    withVolume(whereisAction),
			},
			{
				Name:   "check",
				Usage:  "verify the consistency of the volume",
				Action: withVolume(checkAction),
			},
			{
				Name:   "shell",
				Usage:  "start the interactive shell",
				Action: withVolume(shellAction),
			},
		},
	}
}

func main() {
	log.SetFormatter(new(infoFormatter))

	if err := newApp().Run(os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			log.Error(err)
			os.Exit(exit.ExitCode())
		}
		log.Fatal(err)
	}
}
