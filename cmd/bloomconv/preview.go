package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bloompyramid/libio"
)

type previewArgs struct {
	commonArgs
	gamma    float64
	scale    float64
	reinhard bool
}

func createPreviewCommand() *command {

	args := previewArgs{
		commonArgs: commonArgs{
			ext: ".png",
		},
		gamma:    2.2,
		scale:    1.0,
		reinhard: false,
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.gamma, "gamma", args.gamma, "gamma correction value")
	flags.Float64Var(&args.scale, "scale", args.scale, "brightness scale factor")
	flags.BoolVar(&args.reinhard, "reinhard", args.reinhard, "apply reinhard tonemapping")

	return &command{
		Name: "preview",
		Help: "render .bloom target dumps to png",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPreview(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runPreview(args previewArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := previewFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Converted %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func previewFile(args previewArgs, p string, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	pyramid, err := libio.DecodePyramid(inFile)
	if err != nil {
		return err
	}

	for i, img := range pyramid.Levels {
		name := pyramid.Name(i)
		if name == "" {
			name = fmt.Sprint(i)
		}
		err := previewLevel(args, img, outputPath(p, "_"+name+ext))
		if err != nil {
			return err
		}
	}

	return nil
}

func previewLevel(args previewArgs, img *libio.FloatImage, outFilename string) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if args.reinhard {
		img = img.Clone()
		img.Reinhard()
	}

	if !cargs.quiet {
		fmt.Printf("Writing %dx%d %q ...\n", img.Width, img.Height, filepath.ToSlash(filepath.Clean(outFilename)))
	}
	return libio.EncodePng(outFile, img, float32(args.gamma), float32(args.scale))
}
