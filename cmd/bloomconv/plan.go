package main

import (
	"flag"
	"fmt"
	"os"

	"bloompyramid/effects"
)

type planArgs struct {
	settingsArgs
	width, height int
	space         colorSpace
	packed        bool
	verbose       bool
}

type planCaps struct {
	packed bool
}

func (caps planCaps) IsFormatSupported(format effects.Format) bool {
	return format != effects.FormatB10G11R11UFloatPack32 || caps.packed
}

func createPlanCommand() *command {

	args := planArgs{
		settingsArgs: defaultSettingsArgs(),
		width:        1920,
		height:       1080,
		space:        colorSpace(effects.ColorSpaceLinear),
		packed:       true,
	}

	flags := flag.NewFlagSet("plan", flag.ExitOnError)

	registerSettingsFlags(flags, &args.settingsArgs)

	flags.IntVar(&args.width, "width", args.width, "the camera target width")
	flags.IntVar(&args.width, "w", args.width, "shorthand for width")
	flags.IntVar(&args.height, "height", args.height, "the camera target height")
	flags.IntVar(&args.height, "h", args.height, "shorthand for height")
	flags.Var(&args.space, "color-space", "the project color space; linear or gamma")
	flags.BoolVar(&args.packed, "packed", args.packed, "whether the packed float format is supported")
	flags.BoolVar(&args.verbose, "v", args.verbose, "also list the mip target sizes")

	return &command{
		Name: "plan",
		Help: "print the bloom commands for a frame size",
		Run: func(self *command) {
			if self.Flags.NArg() > 0 || args.width <= 0 || args.height <= 0 {
				printCommandUsage(self, "")
			}

			runPlan(args)
		},
		Flags: flags,
	}
}

func runPlan(args planArgs) {
	effect := effects.NewBloomEffect(planCaps{packed: args.packed}, effects.ColorSpace(args.space), nil)
	list, input := effect.Record(args.Settings(), effects.FrameDesc{
		Width:  args.width,
		Height: args.height,
	})

	list.Dump(os.Stdout)
	fmt.Printf("output %s\n", input.Bloom)

	if !args.verbose {
		return
	}
	for i := 0; i < list.MipCount; i++ {
		level := effect.Pool().Level(i)
		fmt.Printf("%-16s %4dx%-4d  %-16s %4dx%-4d\n",
			level.Down.Name, level.Down.Desc.Width, level.Down.Desc.Height,
			level.Up.Name, level.Up.Desc.Width, level.Up.Desc.Height)
	}
}
