package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bloompyramid/effects"
	"bloompyramid/libio"
	"bloompyramid/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type tint mgl32.Vec3

func (t *tint) String() string {
	return fmt.Sprintf("%g,%g,%g", t[0], t[1], t[2])
}

func (t *tint) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("tint must be r,g,b")
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return err
		}
		t[i] = float32(v)
	}
	return nil
}

type colorSpace effects.ColorSpace

func (cs *colorSpace) String() string {
	return effects.ColorSpace(*cs).String()
}

func (cs *colorSpace) Set(s string) error {
	switch s {
	case "linear":
		*cs = colorSpace(effects.ColorSpaceLinear)
	case "gamma":
		*cs = colorSpace(effects.ColorSpaceGamma)
	default:
		return fmt.Errorf("%s is not a valid color space", s)
	}
	return nil
}

type settingsArgs struct {
	threshold  float64
	intensity  float64
	scatter    float64
	clamp      float64
	iterations int
	tint       tint
	cutoff     float64
	density    float64
}

func registerSettingsFlags(flags *flag.FlagSet, args *settingsArgs) {
	flags.Float64Var(&args.threshold, "threshold", args.threshold, "brightness where bloom starts, in gamma space")
	flags.Float64Var(&args.intensity, "intensity", args.intensity, "strength of the bloom")
	flags.Float64Var(&args.scatter, "scatter", args.scatter, "spread of the bloom from 0 to 1")
	flags.Float64Var(&args.clamp, "clamp", args.clamp, "maximum brightness of bloom sources")
	flags.IntVar(&args.iterations, "iterations", args.iterations, "the maximum number of mip levels from 0 to 10")
	flags.IntVar(&args.iterations, "i", args.iterations, "shorthand for iterations")
	flags.Var(&args.tint, "tint", "bloom color as r,g,b")
	flags.Float64Var(&args.cutoff, "cutoff", args.cutoff, "passed to the composite")
	flags.Float64Var(&args.density, "density", args.density, "passed to the composite")
}

func defaultSettingsArgs() settingsArgs {
	s := effects.DefaultBloomSettings()
	return settingsArgs{
		threshold:  float64(s.Threshold),
		intensity:  float64(s.Intensity),
		scatter:    float64(s.Scatter),
		clamp:      float64(s.Clamp),
		iterations: s.MaxIterations,
		tint:       tint(s.Tint),
		cutoff:     float64(s.Cutoff),
		density:    float64(s.Density),
	}
}

func (args *settingsArgs) Settings() effects.BloomSettings {
	return effects.BloomSettings{
		Threshold:     float32(args.threshold),
		Intensity:     float32(args.intensity),
		Scatter:       float32(args.scatter),
		Clamp:         float32(args.clamp),
		MaxIterations: args.iterations,
		Tint:          mgl32.Vec3(args.tint),
		Cutoff:        float32(args.cutoff),
		Density:       float32(args.density),
	}
}

type applyArgs struct {
	commonArgs
	settingsArgs
	impl      impl
	device    device
	space     colorSpace
	gamma     float64
	scale     float64
	bloomOnly bool
	dump      bool
	compress  bool
}

func createApplyCommand() *command {

	args := applyArgs{
		commonArgs: commonArgs{
			ext:    ".png",
			suffix: "_bloom",
		},
		settingsArgs: defaultSettingsArgs(),
		impl:         implSw,
		device:       deviceGpu,
		space:        colorSpace(effects.ColorSpaceLinear),
		gamma:        2.2,
		scale:        1.0,
		compress:     true,
	}

	flags := flag.NewFlagSet("apply", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSettingsFlags(flags, &args.settingsArgs)

	flags.Var(&args.impl, "impl", "the bloom implementation; opencl, opengl or software")
	flags.Var(&args.device, "device", "the preferred opencl device; gpu or cpu")
	flags.Var(&args.space, "color-space", "the project color space; linear or gamma")
	flags.Float64Var(&args.gamma, "gamma", args.gamma, "gamma correction value of the output")
	flags.Float64Var(&args.scale, "scale", args.scale, "brightness scale factor of the output")
	flags.BoolVar(&args.bloomOnly, "bloom-only", args.bloomOnly, "write only the bloom image instead of the composite")
	flags.BoolVar(&args.dump, "dump", args.dump, "also write every mip target to a .bloom file")
	flags.BoolVar(&args.compress, "compress", args.compress, "compress the .bloom dump")

	return &command{
		Name: "apply",
		Help: "apply bloom to images",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runApply(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func createExecutor(args applyArgs) (effects.Executor, func()) {
	switch args.impl {
	case implGl:
		ctx, err := createGlContext()
		if err != nil {
			logger.Log.Warn("opengl unavailable, falling back to software", zap.Error(err))
			break
		}
		exec, err := effects.NewGlExecutor()
		if err != nil {
			ctx.Destroy()
			logger.Log.Warn("opengl executor failed, falling back to software", zap.Error(err))
			break
		}
		return exec, func() {
			exec.Release()
			ctx.Destroy()
		}
	case implCl:
		preferred := effects.DeviceTypeGPU
		if args.device == deviceCpu {
			preferred = effects.DeviceTypeCPU
		}
		exec, err := effects.NewClExecutor(preferred)
		if err != nil {
			logger.Log.Warn("opencl unavailable, falling back to software", zap.Error(err))
			break
		}
		return exec, exec.Release
	}
	exec := effects.NewSwExecutor()
	return exec, exec.Release
}

func runApply(args applyArgs, inputFiles []string) {
	exec, release := createExecutor(args)
	defer release()

	// one effect for all files, the pool only reallocates when the size changes
	effect := effects.NewBloomEffect(exec, effects.ColorSpace(args.space), exec)

	ext := cargs.suffix + cargs.ext
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := applyFile(args, effect, exec, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	logger.Log.Debug("bloom targets", zap.Int("reallocations", effect.Pool().Reallocations()))
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Processed %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func applyFile(args applyArgs, effect *effects.BloomEffect, exec effects.Executor, p string, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	scene, format, err := libio.DecodeImage(inFile)
	if err != nil {
		return err
	}
	logger.Log.Debug("decoded image", zap.String("format", format), zap.Int("width", scene.Width), zap.Int("height", scene.Height))

	settings := args.Settings()
	if !settings.Sanitize().IsActive() {
		logger.Log.Info("bloom intensity is zero, output equals input", zap.String("file", p))
	}

	bloom, input, err := effect.Render(exec, settings, scene)
	if err != nil {
		return err
	}

	result := bloom
	if !args.bloomOnly {
		result = effects.Composite(scene, bloom, input)
	}

	outFilename := outputPath(p, ext)
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}
	err = libio.EncodePng(outFile, result, float32(args.gamma), float32(args.scale))
	if err != nil {
		return err
	}

	if args.dump {
		bw, bh := effects.BaseSize(scene.Width, scene.Height)
		mipCount := effects.MipCount(bw, bh, settings.Sanitize().MaxIterations)
		return dumpTargets(args, effect, exec, p, mipCount)
	}
	return nil
}

// dumpTargets writes the mip targets used by the last frame, down before up per level.
func dumpTargets(args applyArgs, effect *effects.BloomEffect, exec effects.Executor, p string, mipCount int) error {
	pyramid := libio.NewPyramid(3)
	for i := 0; i < mipCount; i++ {
		level := effect.Pool().Level(i)
		for _, rt := range []*effects.RenderTarget{&level.Down, &level.Up} {
			if !rt.Allocated() {
				continue
			}
			img, err := exec.Read(rt.Id)
			if err != nil {
				logger.Log.Debug("skipping target", zap.String("name", rt.Name), zap.Error(err))
				continue
			}
			pyramid.Append(rt.Name, img)
		}
	}

	compression := libio.PyramidCompressionNone
	if args.compress {
		compression = libio.PyramidCompressionFixedPoint16Lz4
	}

	outFilename := outputPath(p, cargs.suffix+".bloom")
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if !cargs.quiet {
		fmt.Printf("Writing %d targets to %q ...\n", len(pyramid.Levels), filepath.ToSlash(filepath.Clean(outFilename)))
	}
	return libio.EncodePyramid(outFile, pyramid, compression)
}
