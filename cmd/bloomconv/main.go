package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bloompyramid/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/slices"
)

type commonArgs struct {
	out     string
	quiet   bool
	verbose bool
	supress bool
	ext     string
	suffix  string
}

var cargs *commonArgs

type command struct {
	Run   func(self *command)
	Name  string
	Help  string
	Flags *flag.FlagSet
}

var commands = []*command{}

func printGeneralUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [arguments]\n\n", exe)
	fmt.Fprintf(os.Stderr, "The commands are:\n\n")
	longest := slices.MaxFunc(commands, func(a, b *command) int {
		return len(a.Name) - len(b.Name)
	})
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "    %*s%s\n", -len(longest.Name)-4, c.Name, c.Help)
	}
	fmt.Fprintln(os.Stderr, "")
	os.Exit(1)
}

func printCommandUsage(cmd *command, suffix string) {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s %s [arguments]%s\n\n", exe, cmd.Name, suffix)
	fmt.Fprintf(os.Stderr, "The arguments are:\n\n")
	cmd.Flags.SetOutput(os.Stderr)
	cmd.Flags.PrintDefaults()
	os.Exit(1)
}

func main() {
	commands = append(commands, createApplyCommand())
	commands = append(commands, createPlanCommand())
	commands = append(commands, createPreviewCommand())

	slices.SortFunc(commands, func(a, b *command) int {
		return strings.Compare(a.Name, b.Name)
	})

	if len(os.Args) < 2 {
		printGeneralUsage()
	}

	var cmd *command
	for _, c := range commands {
		if strings.EqualFold(c.Name, os.Args[1]) {
			cmd = c
			break
		}
	}
	if cmd == nil {
		printGeneralUsage()
	}

	err := cmd.Flags.Parse(os.Args[2:])
	harderr(err)

	cmd.Run(cmd)
	logger.Sync()
}

func registerCommonFlags(flags *flag.FlagSet, args *commonArgs) {
	flags.StringVar(&args.out, "out", args.out, "the output directory")
	flags.StringVar(&args.out, "o", args.out, "shorthand for out")
	flags.BoolVar(&args.quiet, "quiet", args.quiet, "disables informational logging")
	flags.BoolVar(&args.quiet, "q", args.quiet, "shorthand for quiet")
	flags.BoolVar(&args.verbose, "verbose", args.verbose, "enables debug logging")
	flags.BoolVar(&args.verbose, "v", args.verbose, "shorthand for verbose")
	flags.BoolVar(&args.supress, "supress", args.supress, "disables soft error logging")
	flags.StringVar(&args.ext, "ext", args.ext, "the result file extension")
	flags.StringVar(&args.suffix, "suffix", args.suffix, "the result file suffix")
}

func setCommonArgs(args *commonArgs) {
	cargs = args

	level := zapcore.InfoLevel
	if args.quiet {
		level = zapcore.WarnLevel
	}
	if args.verbose {
		level = zapcore.DebugLevel
	}
	harderr(logger.Init(level))

	if args.out == "" {
		var err error
		args.out, err = os.Getwd()
		harderr(err)
	}

	_, err := os.Stat(args.out)
	if err != nil {
		harderr(fmt.Errorf("cannot stat output directory: %w", err))
	}
}

func gatherInputFiles(globs []string) []string {
	matched := []string{}

	for _, g := range globs {
		m, err := filepath.Glob(g)
		softerr(err)
		matched = append(matched, m...)
	}

	return matched
}

func outputPath(p, suffix string) string {
	return filepath.Join(cargs.out, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))+suffix)
}

func close(closer io.Closer) {
	closer.Close()
}

func softerr(err error) bool {
	if err != nil && (cargs == nil || !cargs.supress) {
		logger.Log.Error("soft error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return true
	}
	return err != nil
}

func harderr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
