package main

import (
	"fmt"
	"runtime"
	"unsafe"

	"bloompyramid/libutil"
	"bloompyramid/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

type impl string

const (
	implCl impl = "opencl"
	implGl impl = "opengl"
	implSw impl = "software"
)

func (i *impl) String() string {
	return string(*i)
}

func (i *impl) Set(s string) error {
	switch impl(s) {
	case implCl:
		*i = implCl
	case implGl:
		*i = implGl
	case implSw:
		*i = implSw
	default:
		return fmt.Errorf("%s is not a valid implementation", s)
	}
	return nil
}

type device string

const (
	deviceCpu device = "cpu"
	deviceGpu device = "gpu"
)

func (d *device) String() string {
	return string(*d)
}

func (d *device) Set(s string) error {
	switch device(s) {
	case deviceCpu:
		*d = deviceCpu
	case deviceGpu:
		*d = deviceGpu
	default:
		return fmt.Errorf("%s is not a valid device", s)
	}
	return nil
}

// glContext is a hidden window whose context stays current on the main thread.
type glContext struct {
	window *glfw.Window
}

func init() {
	// glfw and gl calls must come from the main thread
	runtime.LockOSThread()
}

func createGlContext() (*glContext, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)

	window, err := glfw.CreateWindow(64, 64, "bloomconv", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	window.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(libutil.InvalidAddress)
		}
		return addr
	})
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}

	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		if severity == gl.DEBUG_SEVERITY_NOTIFICATION {
			return
		}
		logger.Log.Debug("gl debug message", zap.Uint32("id", id), zap.String("message", message))
	}, nil)

	logger.Log.Debug("created opengl context",
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	return &glContext{window: window}, nil
}

func (ctx *glContext) Destroy() {
	if ctx == nil || ctx.window == nil {
		return
	}
	ctx.window.Destroy()
	ctx.window = nil
	glfw.Terminate()
}
