package effects

import (
	_ "embed"
	"fmt"
	"unsafe"

	"bloompyramid/libio"
	"bloompyramid/logger"

	"github.com/Qendolin/go-opencl/cl"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

//go:embed kernels/bloom.cl
var openclBloomSrc string

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

var clKernelNames = [4]string{
	PassPrefilter:       "prefilter",
	PassDownsampleBlurA: "blur_a",
	PassDownsampleBlurB: "blur_b",
	PassUpsampleCombine: "upsample",
}

type clImage struct {
	mem           *cl.MemObject
	width, height int
}

func (img *clImage) Release() {
	if img.mem != nil {
		img.mem.Release()
		img.mem = nil
	}
}

type clExecutor struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernels [4]*cl.Kernel
	source  clImage
	targets [MaxPyramidSize * 2]clImage
}

// NewClExecutor runs bloom with OpenCL. Every target is stored as RGBA float,
// so all formats report as supported.
func NewClExecutor(preferredDevice DeviceType) (exec Executor, err error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferredDevice && b.Type() != preferredDevice {
			return -1
		}
		if a.Type() != preferredDevice && b.Type() == preferredDevice {
			return 1
		}
		return b.MaxComputeUnits()*b.MaxClockFrequency() - a.MaxComputeUnits()*a.MaxClockFrequency()
	})

	device := devices[0]
	logger.Log.Debug("using opencl device", zap.String("name", device.Name()))

	result := &clExecutor{}
	defer func() {
		if err != nil {
			result.Release()
		}
	}()

	result.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}

	result.queue, err = result.context.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}

	result.program, err = result.context.CreateProgramWithSource([]string{openclBloomSrc})
	if err != nil {
		return nil, err
	}
	err = result.program.BuildProgram(nil, "")
	if err != nil {
		logger.Log.Error("failed to build bloom kernels", zap.Error(err))
		return nil, err
	}

	for pass, name := range clKernelNames {
		result.kernels[pass], err = result.program.CreateKernel(name)
		if err != nil {
			return nil, fmt.Errorf("could not create kernel %q: %w", name, err)
		}
	}

	return result, nil
}

func (exec *clExecutor) IsFormatSupported(format Format) bool {
	return format != FormatUnknown
}

func (exec *clExecutor) createImage(width, height int, data []float32) (clImage, error) {
	flags := cl.MemReadWrite
	var ptr unsafe.Pointer
	if data != nil {
		flags |= cl.MemCopyHostPtr
		ptr = unsafe.Pointer(&data[0])
	}
	mem, err := exec.context.CreateImage(flags, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  width,
		Height: height,
	}, width*height*4*4, ptr)
	if err != nil {
		return clImage{}, err
	}
	return clImage{mem: mem, width: width, height: height}, nil
}

func (exec *clExecutor) Allocate(target Target, desc TargetDesc) error {
	if !target.IsMip() {
		return nil
	}
	exec.targets[target].Release()
	img, err := exec.createImage(desc.Width, desc.Height, nil)
	if err != nil {
		return fmt.Errorf("could not allocate %s: %w", target, err)
	}
	exec.targets[target] = img
	return nil
}

func (exec *clExecutor) image(target Target) (*clImage, error) {
	var img *clImage
	if target == SourceTarget {
		img = &exec.source
	} else if target.IsMip() {
		img = &exec.targets[target]
	} else {
		return nil, fmt.Errorf("%s is not a valid target", target)
	}
	if img.mem == nil {
		return nil, fmt.Errorf("%s has not been allocated", target)
	}
	return img, nil
}

func (exec *clExecutor) Execute(list *CommandList, source *libio.FloatImage) (err error) {
	if list.Empty() {
		return nil
	}

	exec.source.Release()
	rgba := source.ToChannels(4, 0, 0, 0, 1)
	exec.source, err = exec.createImage(rgba.Width, rgba.Height, rgba.Pix)
	if err != nil {
		return fmt.Errorf("could not upload source: %w", err)
	}

	params := list.Params
	for i, b := range list.Blits {
		src, err := exec.image(b.Src)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}
		dst, err := exec.image(b.Dst)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}
		if int(b.Pass) < 0 || int(b.Pass) >= len(exec.kernels) {
			return fmt.Errorf("blit %d: unknown pass %s", i, b.Pass)
		}

		kernel := exec.kernels[b.Pass]
		switch b.Pass {
		case PassPrefilter:
			err = setKernelArgs(kernel, src.mem, dst.mem, params.Clamp, params.Threshold, params.ThresholdKnee)
		case PassDownsampleBlurA, PassDownsampleBlurB:
			err = setKernelArgs(kernel, src.mem, dst.mem)
		case PassUpsampleCombine:
			var low *clImage
			low, err = exec.image(b.LowMip)
			if err == nil {
				err = setKernelArgs(kernel, src.mem, low.mem, dst.mem, params.Scatter)
			}
		}
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}

		localWorkSize := []int{8, 8}
		globalWorkSize := []int{roundUpKernelSize(localWorkSize[0], dst.width), roundUpKernelSize(localWorkSize[1], dst.height)}
		_, err = exec.queue.EnqueueNDRangeKernel(kernel, []int{0, 0}, globalWorkSize, localWorkSize, nil)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}
	}

	return exec.queue.Finish()
}

func setKernelArgs(kernel *cl.Kernel, args ...any) error {
	for i, arg := range args {
		var err error
		switch v := arg.(type) {
		case *cl.MemObject:
			err = kernel.SetArgBuffer(i, v)
		case float32:
			err = kernel.SetArgFloat32(i, v)
		case int32:
			err = kernel.SetArgInt32(i, v)
		default:
			err = fmt.Errorf("unsupported kernel argument type %T", arg)
		}
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}

func (exec *clExecutor) Read(target Target) (*libio.FloatImage, error) {
	img, err := exec.image(target)
	if err != nil {
		return nil, err
	}

	result := make([]float32, img.width*img.height*4)
	_, err = exec.queue.EnqueueReadImage(img.mem, true, [3]int{}, [3]int{img.width, img.height, 1}, 0, 0, unsafe.Pointer(&result[0]), nil)
	if err != nil {
		return nil, err
	}

	// compact RGBA to RGB
	for i := 0; i < len(result)/4; i++ {
		result[i*3+0] = result[i*4+0]
		result[i*3+1] = result[i*4+1]
		result[i*3+2] = result[i*4+2]
	}
	n := img.width * img.height * 3
	return libio.NewFloatImage(result[:n:n], 3, img.width, img.height), nil
}

func (exec *clExecutor) Release() {
	exec.source.Release()
	for i := range exec.targets {
		exec.targets[i].Release()
	}
	for i, k := range exec.kernels {
		if k != nil {
			k.Release()
			exec.kernels[i] = nil
		}
	}
	if exec.program != nil {
		exec.program.Release()
		exec.program = nil
	}
	if exec.queue != nil {
		exec.queue.Release()
		exec.queue = nil
	}
	if exec.context != nil {
		exec.context.Release()
		exec.context = nil
	}
}
