package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used in pair with a vertex shader.
	ShaderTypeFragment
)

var (
	// ErrCompile is returned when a shader stage fails to compile. The wrapped message carries the compiler log.
	ErrCompile = errors.New("shader compilation failed")
	// ErrLink is returned when a program fails to link. The wrapped message carries the linker log.
	ErrLink = errors.New("program link failed")
)

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
}

// Shader is a named piece of GLSL source for one pipeline stage.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for logging and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the GLSL source code.
	//
	// Returns:
	//   - string: the source code of the shader
	Source() string

	// ShaderType retrieves the stage this shader targets.
	//
	// Returns:
	//   - ShaderType: the shader stage
	ShaderType() ShaderType

	// Stage maps the shader type onto the device stage enum.
	//
	// Returns:
	//   - device.ShaderStage: the device stage
	Stage() device.ShaderStage
}

var _ Shader = &shader{}

// NewShader creates a Shader from in-memory source.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the source targets
//   - source: the GLSL source
//
// Returns:
//   - Shader: the new shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	return &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
}

// NewShaderFromFile creates a Shader from a source file on disk.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the source targets
//   - path: the file to read
//
// Returns:
//   - Shader: the new shader
//   - error: error if the file cannot be read
func NewShaderFromFile(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader: failed to read source file %q: %w", path, err)
	}
	return NewShader(key, shaderType, string(data)), nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Stage() device.ShaderStage {
	if s.shaderType == ShaderTypeFragment {
		return device.FragmentShader
	}
	return device.VertexShader
}

// Build compiles vertex and fragment on dev and links them into a program.
// Shader objects are released once the program is linked. On failure every object created
// here is deleted and the returned error carries the device log.
//
// Parameters:
//   - dev: the device to build on
//   - vertex: the vertex stage
//   - fragment: the fragment stage
//
// Returns:
//   - device.Program: the linked program
//   - error: ErrCompile or ErrLink wrapping the device log, or an allocation error
func Build(dev device.Device, vertex, fragment Shader) (device.Program, error) {
	prog, err := dev.CreateProgram()
	if err != nil {
		return 0, fmt.Errorf("failed to create program: %w", err)
	}

	var compiled []device.Shader
	cleanup := func() {
		for _, s := range compiled {
			dev.DeleteShader(s)
		}
	}

	for _, src := range []Shader{vertex, fragment} {
		s, err := compile(dev, src)
		if err != nil {
			cleanup()
			dev.DeleteProgram(prog)
			return 0, err
		}
		compiled = append(compiled, s)
		dev.AttachShader(prog, s)
	}

	dev.LinkProgram(prog)
	if !dev.ProgramLinkStatus(prog) {
		msg := dev.ProgramInfoLog(prog)
		cleanup()
		dev.DeleteProgram(prog)
		return 0, fmt.Errorf("%w: %s", ErrLink, msg)
	}

	cleanup()
	return prog, nil
}

// compile creates and compiles one shader object.
func compile(dev device.Device, src Shader) (device.Shader, error) {
	s, err := dev.CreateShader(src.Stage())
	if err != nil {
		return 0, fmt.Errorf("failed to create shader %s: %w", src.Key(), err)
	}
	dev.ShaderSource(s, src.Source())
	dev.CompileShader(s)
	if !dev.ShaderCompileStatus(s) {
		msg := dev.ShaderInfoLog(s)
		dev.DeleteShader(s)
		return 0, fmt.Errorf("%w: %s: %s", ErrCompile, src.Key(), msg)
	}
	return s, nil
}
