package effects_test

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"bloompyramid/libio"
	"bloompyramid/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var onMain chan func()
var onMainDone chan struct{}

// nil when no OpenGL 4.5 context could be created
var context *glfw.Window

func TestMain(m *testing.M) {
	runtime.LockOSThread()

	var err error
	context, err = createTestContext()
	if err != nil {
		fmt.Printf("opengl tests disabled: %v\n", err)
		context = nil
	}

	onMain = make(chan func())
	onMainDone = make(chan struct{})

	go func() {
		code := m.Run()
		if context != nil {
			runOnMain(func() {
				context.Destroy()
				glfw.Terminate()
			})
		}
		os.Exit(code)
	}()

	for fn := range onMain {
		fn()
		onMainDone <- struct{}{}
	}
}

func createTestContext() (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	ctx, err := glfw.CreateWindow(64, 64, "Testing Window", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	ctx.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(libutil.InvalidAddress)
		}
		return addr
	})
	if err != nil {
		ctx.Destroy()
		glfw.Terminate()
		return nil, err
	}

	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		if severity != gl.DEBUG_SEVERITY_NOTIFICATION {
			fmt.Printf("GL: %v\n", message)
		}
	}, nil)

	return ctx, nil
}

func runOnMain(fn func()) {
	onMain <- fn
	<-onMainDone
}

func solidImage(width, height int, value float32) *libio.FloatImage {
	img := libio.NewBlankFloatImage(3, width, height)
	img.Fill(value, value, value)
	return img
}

func pointImage(width, height int, value float32) *libio.FloatImage {
	img := libio.NewBlankFloatImage(3, width, height)
	copy(img.At(width/2, height/2), []float32{value, value, value})
	return img
}

func randomImage(width, height int, min, max float32) *libio.FloatImage {
	rng := rand.New(rand.NewSource(0))
	img := libio.NewBlankFloatImage(3, width, height)
	for i := range img.Pix {
		img.Pix[i] = rng.Float32()*(max-min) + min
	}
	return img
}

func countAbove(img *libio.FloatImage, limit float32) int {
	n := 0
	for i := 0; i < img.Count(); i++ {
		if img.Pix[i*img.Channels] > limit {
			n++
		}
	}
	return n
}

func approx(a, b, epsilon float32) bool {
	d := a - b
	return d <= epsilon && d >= -epsilon
}
