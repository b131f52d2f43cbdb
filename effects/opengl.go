package effects

import (
	_ "embed"
	"fmt"
	"strings"

	"bloompyramid/libio"
	"bloompyramid/libutil"
	"bloompyramid/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

//go:embed shaders/bloom.vert
var bloomVertSrc string

//go:embed shaders/prefilter.frag
var prefilterFragSrc string

//go:embed shaders/blur_a.frag
var blurAFragSrc string

//go:embed shaders/blur_b.frag
var blurBFragSrc string

//go:embed shaders/upsample.frag
var upsampleFragSrc string

type glProgram struct {
	id           uint32
	paramsLoc    int32
	texelSizeLoc int32
}

type glTexture struct {
	id            uint32
	internal      uint32
	width, height int
}

func (tex *glTexture) Delete() {
	if tex.id != 0 {
		gl.DeleteTextures(1, &tex.id)
		tex.id = 0
	}
}

type glExecutor struct {
	programs [4]glProgram
	vao      uint32
	fbo      uint32
	source   glTexture
	targets  [MaxPyramidSize * 2]glTexture
}

// NewGlExecutor needs a current OpenGL 4.5 context, which must stay current for
// every later call.
func NewGlExecutor() (exec Executor, err error) {
	result := &glExecutor{}
	defer func() {
		if err != nil {
			result.Release()
		}
	}()

	sources := [4]string{
		PassPrefilter:       prefilterFragSrc,
		PassDownsampleBlurA: blurAFragSrc,
		PassDownsampleBlurB: blurBFragSrc,
		PassUpsampleCombine: upsampleFragSrc,
	}
	for pass, src := range sources {
		result.programs[pass], err = newGlProgram(bloomVertSrc, src)
		if err != nil {
			return nil, fmt.Errorf("could not build %s program: %w", Pass(pass), err)
		}
	}

	gl.CreateVertexArrays(1, &result.vao)
	gl.CreateFramebuffers(1, &result.fbo)
	gl.NamedFramebufferDrawBuffer(result.fbo, gl.COLOR_ATTACHMENT0)
	setObjectLabel(gl.FRAMEBUFFER, result.fbo, "Bloom Framebuffer")

	return result, nil
}

func newGlProgram(vertSrc, fragSrc string) (glProgram, error) {
	vsh, err := compileGlShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return glProgram{}, err
	}
	defer gl.DeleteShader(vsh)
	fsh, err := compileGlShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return glProgram{}, err
	}
	defer gl.DeleteShader(fsh)

	id := gl.CreateProgram()
	gl.AttachShader(id, vsh)
	gl.AttachShader(id, fsh)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetProgramInfoLog(id, length, nil, gl.Str(log))
		gl.DeleteProgram(id)
		logger.Log.Error("failed to link bloom program", zap.String("log", log))
		return glProgram{}, fmt.Errorf("link failed: %s", strings.TrimRight(log, "\x00"))
	}

	return glProgram{
		id:           id,
		paramsLoc:    gl.GetUniformLocation(id, gl.Str("u_params\x00")),
		texelSizeLoc: gl.GetUniformLocation(id, gl.Str("u_texel_size\x00")),
	}, nil
}

func compileGlShader(src string, stage uint32) (uint32, error) {
	id := gl.CreateShader(stage)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(id, 1, csrc, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var length int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &length)
		log := strings.Repeat("\x00", int(length+1))
		gl.GetShaderInfoLog(id, length, nil, gl.Str(log))
		gl.DeleteShader(id)
		logger.Log.Error("failed to compile bloom shader", zap.Uint32("stage", stage), zap.String("log", log))
		return 0, fmt.Errorf("compile failed: %s", strings.TrimRight(log, "\x00"))
	}
	return id, nil
}

func setObjectLabel(namespace, id uint32, label string) {
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), &bytes[0])
}

func glInternalFormat(format Format) uint32 {
	switch format {
	case FormatB10G11R11UFloatPack32:
		return gl.R11F_G11F_B10F
	case FormatR8G8B8A8SRGB:
		return gl.SRGB8_ALPHA8
	case FormatR8G8B8A8UNorm:
		return gl.RGBA8
	case FormatR16G16B16A16SFloat:
		return gl.RGBA16F
	case FormatR32G32B32A32SFloat:
		return gl.RGBA32F
	}
	return 0
}

func (exec *glExecutor) IsFormatSupported(format Format) bool {
	internal := glInternalFormat(format)
	if internal == 0 {
		return false
	}
	var renderable, filterable int32
	gl.GetInternalformativ(gl.TEXTURE_2D, internal, gl.FRAMEBUFFER_RENDERABLE, 1, &renderable)
	gl.GetInternalformativ(gl.TEXTURE_2D, internal, gl.FILTER, 1, &filterable)
	return renderable == gl.FULL_SUPPORT && filterable == gl.FULL_SUPPORT
}

func newGlTexture(internal uint32, width, height int, label string) glTexture {
	tex := glTexture{internal: internal, width: width, height: height}
	gl.CreateTextures(gl.TEXTURE_2D, 1, &tex.id)
	gl.TextureStorage2D(tex.id, 1, internal, int32(width), int32(height))
	gl.TextureParameteri(tex.id, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TextureParameteri(tex.id, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TextureParameteri(tex.id, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TextureParameteri(tex.id, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	setObjectLabel(gl.TEXTURE, tex.id, label)
	return tex
}

func (exec *glExecutor) Allocate(target Target, desc TargetDesc) error {
	if !target.IsMip() {
		return nil
	}
	exec.targets[target].Delete()
	exec.targets[target] = newGlTexture(glInternalFormat(desc.Format), desc.Width, desc.Height, target.String())
	if exec.targets[target].id == 0 {
		return fmt.Errorf("could not create texture for %s", target)
	}
	return nil
}

func (exec *glExecutor) upload(source *libio.FloatImage) {
	if exec.source.id == 0 || exec.source.width != source.Width || exec.source.height != source.Height {
		exec.source.Delete()
		exec.source = newGlTexture(gl.RGBA32F, source.Width, source.Height, "Bloom Source")
	}
	rgba := source.ToChannels(4, 0, 0, 0, 1)
	gl.TextureSubImage2D(exec.source.id, 0, 0, 0, int32(rgba.Width), int32(rgba.Height), gl.RGBA, gl.FLOAT, gl.Ptr(rgba.Pix))
}

func (exec *glExecutor) texture(target Target) (*glTexture, error) {
	var tex *glTexture
	if target == SourceTarget {
		tex = &exec.source
	} else if target.IsMip() {
		tex = &exec.targets[target]
	} else {
		return nil, fmt.Errorf("%s is not a valid target", target)
	}
	if tex.id == 0 {
		return nil, fmt.Errorf("%s has not been allocated", target)
	}
	return tex, nil
}

func (exec *glExecutor) Execute(list *CommandList, source *libio.FloatImage) error {
	if list.Empty() {
		return nil
	}

	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 999, -1, gl.Str("Draw Bloom\x00"))
	defer gl.PopDebugGroup()

	exec.upload(source)

	gl.Disable(gl.BLEND)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.SCISSOR_TEST)
	// srgb targets encode on write
	gl.Enable(gl.FRAMEBUFFER_SRGB)
	defer gl.Disable(gl.FRAMEBUFFER_SRGB)

	gl.BindVertexArray(exec.vao)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, exec.fbo)
	defer gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)

	params := list.Params.Vec4()
	for i, b := range list.Blits {
		src, err := exec.texture(b.Src)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}
		dst, err := exec.texture(b.Dst)
		if err != nil {
			return fmt.Errorf("blit %d: %w", i, err)
		}
		if int(b.Pass) < 0 || int(b.Pass) >= len(exec.programs) {
			return fmt.Errorf("blit %d: unknown pass %s", i, b.Pass)
		}

		prog := exec.programs[b.Pass]
		gl.UseProgram(prog.id)
		setUniformVec4(prog.id, prog.paramsLoc, params)
		setUniformVec2(prog.id, prog.texelSizeLoc, mgl32.Vec2{1 / float32(src.width), 1 / float32(src.height)})

		gl.BindTextureUnit(0, src.id)
		if b.LowMip != NoTarget {
			low, err := exec.texture(b.LowMip)
			if err != nil {
				return fmt.Errorf("blit %d low mip: %w", i, err)
			}
			gl.BindTextureUnit(1, low.id)
		}

		gl.NamedFramebufferTexture(exec.fbo, gl.COLOR_ATTACHMENT0, dst.id, 0)
		if b.Load == LoadClear {
			var clear [4]float32
			gl.ClearNamedFramebufferfv(exec.fbo, gl.COLOR, 0, &clear[0])
		}
		gl.Viewport(0, 0, int32(dst.width), int32(dst.height))
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
	}

	gl.BindTextureUnit(0, 0)
	gl.BindTextureUnit(1, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl error 0x%04x", code)
	}
	return nil
}

func setUniformVec4(prog uint32, loc int32, v mgl32.Vec4) {
	if loc >= 0 {
		gl.ProgramUniform4f(prog, loc, v[0], v[1], v[2], v[3])
	}
}

func setUniformVec2(prog uint32, loc int32, v mgl32.Vec2) {
	if loc >= 0 {
		gl.ProgramUniform2f(prog, loc, v[0], v[1])
	}
}

func (exec *glExecutor) Read(target Target) (*libio.FloatImage, error) {
	tex, err := exec.texture(target)
	if err != nil {
		return nil, err
	}

	img := libio.NewBlankFloatImage(3, tex.width, tex.height)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.GetTextureImage(tex.id, 0, gl.RGB, gl.FLOAT, int32(img.Bytes()), gl.Ptr(img.Pix))

	// srgb textures are read back encoded
	if tex.internal == gl.SRGB8_ALPHA8 {
		for i, v := range img.Pix {
			img.Pix[i] = libio.SrgbToLinear(v)
		}
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("opengl error 0x%04x reading %s", code, target)
	}
	return img, nil
}

func (exec *glExecutor) Release() {
	cleanup := []libutil.Deleter{&exec.source}
	for i := range exec.targets {
		cleanup = append(cleanup, &exec.targets[i])
	}
	for _, v := range cleanup {
		v.Delete()
	}
	for i := range exec.programs {
		if exec.programs[i].id != 0 {
			gl.DeleteProgram(exec.programs[i].id)
			exec.programs[i] = glProgram{}
		}
	}
	if exec.fbo != 0 {
		gl.DeleteFramebuffers(1, &exec.fbo)
		exec.fbo = 0
	}
	if exec.vao != 0 {
		gl.DeleteVertexArrays(1, &exec.vao)
		exec.vao = 0
	}
}
