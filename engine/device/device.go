// Package device declares the graphics device surface the asset graph uploads to and draws through.
// The surface mirrors a GL-style immediate API: opaque handles, bind points, and uniform slots resolved by name.
package device

// Buffer is an opaque device buffer handle. Zero means no buffer.
type Buffer uint32

// Shader is an opaque shader object handle. Zero means no shader.
type Shader uint32

// Program is an opaque linked program handle. Zero means no program.
type Program uint32

// Texture is an opaque texture handle. Zero means no texture.
type Texture uint32

// UniformLocation identifies a uniform slot inside a program.
type UniformLocation int32

// NoUniform is returned when a program has no uniform with the requested name.
// Setting a value at NoUniform is silently ignored.
const NoUniform UniformLocation = -1

// BufferTarget selects the bind point a buffer is attached to.
type BufferTarget uint32

const (
	// ArrayBuffer holds vertex attribute data.
	ArrayBuffer BufferTarget = 34962
	// ElementArrayBuffer holds index data.
	ElementArrayBuffer BufferTarget = 34963
)

// ShaderStage selects the pipeline stage a shader object compiles for.
type ShaderStage uint32

const (
	// FragmentShader is the per-fragment stage.
	FragmentShader ShaderStage = 35632
	// VertexShader is the per-vertex stage.
	VertexShader ShaderStage = 35633
)

// ComponentType is the scalar type of vertex or index data. Values match the glTF componentType codes.
type ComponentType uint32

const (
	Byte          ComponentType = 5120
	UnsignedByte  ComponentType = 5121
	Short         ComponentType = 5122
	UnsignedShort ComponentType = 5123
	UnsignedInt   ComponentType = 5125
	Float         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 for an unknown type.
func (c ComponentType) Size() int {
	switch c {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case UnsignedInt, Float:
		return 4
	default:
		return 0
	}
}

// PrimitiveMode is the topology used to assemble vertices. Values match the glTF primitive mode codes.
type PrimitiveMode uint32

const (
	Points PrimitiveMode = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

// TextureWrap is the addressing mode for coordinates outside [0, 1].
type TextureWrap int32

const (
	Repeat         TextureWrap = 10497
	ClampToEdge    TextureWrap = 33071
	MirroredRepeat TextureWrap = 33648
)

// TextureFilter is a texture magnification or minification filter.
type TextureFilter int32

const (
	Nearest              TextureFilter = 9728
	Linear               TextureFilter = 9729
	NearestMipmapNearest TextureFilter = 9984
	LinearMipmapNearest  TextureFilter = 9985
	NearestMipmapLinear  TextureFilter = 9986
	LinearMipmapLinear   TextureFilter = 9987
)

// SamplerParams describes how the bound texture is sampled.
type SamplerParams struct {
	// WrapS and WrapT are the addressing modes for the two texture axes.
	WrapS, WrapT TextureWrap
	// MinFilter and MagFilter are the minification and magnification filters.
	MinFilter, MagFilter TextureFilter
}

// DefaultSamplerParams returns repeat addressing with linear minification and nearest magnification.
func DefaultSamplerParams() SamplerParams {
	return SamplerParams{
		WrapS:     Repeat,
		WrapT:     Repeat,
		MinFilter: Linear,
		MagFilter: Nearest,
	}
}

// Device is the graphics device the asset graph depends on.
// Implementations are driven from a single rendering goroutine.
type Device interface {
	// CreateBuffer allocates a buffer object.
	//
	// Returns:
	//   - Buffer: the new handle
	//   - error: error if the device could not allocate the buffer
	CreateBuffer() (Buffer, error)

	// BindBuffer attaches b to target. Zero unbinds.
	BindBuffer(target BufferTarget, b Buffer)

	// BufferData uploads data into the buffer bound at target, replacing its contents.
	BufferData(target BufferTarget, data []byte)

	// DeleteBuffer releases b.
	DeleteBuffer(b Buffer)

	// CreateShader allocates a shader object for stage.
	//
	// Returns:
	//   - Shader: the new handle
	//   - error: error if the device could not allocate the shader
	CreateShader(stage ShaderStage) (Shader, error)

	// ShaderSource sets the source text of s.
	ShaderSource(s Shader, source string)

	// CompileShader compiles s. Check ShaderCompileStatus for the result.
	CompileShader(s Shader)

	// ShaderCompileStatus reports whether the last compile of s succeeded.
	ShaderCompileStatus(s Shader) bool

	// ShaderInfoLog returns the compiler output for s.
	ShaderInfoLog(s Shader) string

	// DeleteShader releases s.
	DeleteShader(s Shader)

	// CreateProgram allocates a program object.
	//
	// Returns:
	//   - Program: the new handle
	//   - error: error if the device could not allocate the program
	CreateProgram() (Program, error)

	// AttachShader attaches a compiled shader to p.
	AttachShader(p Program, s Shader)

	// LinkProgram links the shaders attached to p. Check ProgramLinkStatus for the result.
	LinkProgram(p Program)

	// ProgramLinkStatus reports whether the last link of p succeeded.
	ProgramLinkStatus(p Program) bool

	// ProgramInfoLog returns the linker output for p.
	ProgramInfoLog(p Program) string

	// DeleteProgram releases p.
	DeleteProgram(p Program)

	// UseProgram makes p current for uniform updates and draws.
	UseProgram(p Program)

	// AttribLocation returns the attribute slot for name in p, or -1 if p has no such attribute.
	AttribLocation(p Program, name string) int32

	// UniformLocation returns the uniform slot for name in p, or NoUniform.
	UniformLocation(p Program, name string) UniformLocation

	// CreateTexture allocates a texture object.
	//
	// Returns:
	//   - Texture: the new handle
	//   - error: error if the device could not allocate the texture
	CreateTexture() (Texture, error)

	// ActiveTexture selects the texture unit subsequent BindTexture calls affect.
	ActiveTexture(unit int)

	// BindTexture attaches t to the active unit. Zero unbinds.
	BindTexture(t Texture)

	// TexImage2D uploads RGBA pixels to the texture bound at the active unit.
	TexImage2D(width, height int, rgba []byte)

	// TexParameters applies sampling parameters to the texture bound at the active unit.
	TexParameters(params SamplerParams)

	// GenerateMipmap builds the mip chain of the texture bound at the active unit.
	GenerateMipmap()

	// DeleteTexture releases t.
	DeleteTexture(t Texture)

	// UniformMatrix4fv sets one or more column-major 4x4 matrices. len(values) must be a multiple of 16.
	UniformMatrix4fv(loc UniformLocation, values []float32)

	// Uniform3fv sets a vec3 uniform.
	Uniform3fv(loc UniformLocation, values []float32)

	// Uniform4fv sets a vec4 uniform.
	Uniform4fv(loc UniformLocation, values []float32)

	// Uniform1f sets a float uniform.
	Uniform1f(loc UniformLocation, v float32)

	// Uniform1i sets an int, bool or sampler uniform.
	Uniform1i(loc UniformLocation, v int32)

	// EnableVertexAttribArray enables the attribute slot loc for drawing.
	EnableVertexAttribArray(loc uint32)

	// VertexAttribPointer describes how slot loc reads from the buffer bound at ArrayBuffer.
	VertexAttribPointer(loc uint32, size int, typ ComponentType, normalized bool, stride, offset int)

	// DrawElements draws count indices read from the buffer bound at ElementArrayBuffer.
	DrawElements(mode PrimitiveMode, count int, typ ComponentType, offset int)

	// DrawArrays draws count vertices starting at first.
	DrawArrays(mode PrimitiveMode, first, count int)
}
