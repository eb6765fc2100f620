package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/flictool"
	"github.com/urfave/cli/v2"
)

const defaultDB = "flictool.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func prompt() bool {
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(scanner.Text())), "Y")
}

func containsFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return true, nil
		}
	}
	return false, nil
}

func newTool(c *cli.Context) (*flictool.Tool, error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return flictool.New(c.String("db"), logger)
}

func main() {
	app := cli.NewApp()

	app.Name = "flictool"
	app.Usage = "Rock Raiders FLH animation utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"FLICTOOL_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "compile",
			Usage:       "Compile a directory of bitmap frames into an FLH animation",
			Description: "Frames are picked up as frameNNNN.bmp and ordered by name.",
			ArgsUsage:   "DIRECTORY [FILE]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				input := c.Args().First()
				output := c.Args().Get(1)
				if output == "" {
					output = "output.flh"
				}

				if info, err := os.Stat(output); err == nil && info.Mode().IsRegular() {
					fmt.Printf("Warning: output file \"%s\" already exists. Overwrite it? (Y to overwrite, default: no) ", output)
					if !prompt() {
						return nil
					}
				}

				t, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				if err := t.Compile(input, output); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "decompile",
			Usage:       "Decompile an FLH animation into bitmap frames",
			Description: "One frameNNNN.bmp per frame is written to the output directory.",
			ArgsUsage:   "FILE [DIRECTORY]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				input := c.Args().First()
				output := c.Args().Get(1)
				if output == "" {
					output = "output"
				}

				if info, err := os.Stat(output); err == nil && info.IsDir() {
					populated, err := containsFiles(output)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					if populated {
						fmt.Printf("Warning: output directory \"%s\" isn't empty. Overwrite any existing frames? (Y to overwrite, default: no) ", output)
						if !prompt() {
							return nil
						}
					}
				} else if err := os.MkdirAll(output, 0755); err != nil {
					return cli.NewExitError(err, 1)
				}

				t, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				if err := t.Decompile(input, output); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Scan a directory tree and catalog every FLH animation",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				if err := t.Scan(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "info",
			Usage:       "Print the header of an FLH animation",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t, err := newTool(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer t.Close()

				config, hash, err := t.Info(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Printf("%s: %d frames of %dx%d, %d bpp, xxh64 %s\n",
					c.Args().First(), config.Frames, config.Width, config.Height, config.Depth, hash)

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
