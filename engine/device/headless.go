package device

import (
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"
	"sync"
)

var (
	attributePattern = regexp.MustCompile(`(?m)^\s*(?:attribute|in)\s+(?:(?:highp|mediump|lowp)\s+)?\w+\s+(\w+)\s*;`)
	uniformPattern   = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:highp|mediump|lowp)\s+)?\w+\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
)

// AttribBinding records how an attribute slot reads vertex data.
type AttribBinding struct {
	Buffer     Buffer
	Size       int
	Type       ComponentType
	Normalized bool
	Stride     int
	Offset     int
}

// UniformValue is the last value written to a uniform slot.
type UniformValue struct {
	Floats []float32
	Ints   []int32
}

// DrawCall is a snapshot of device state taken when a draw was issued.
type DrawCall struct {
	Mode          PrimitiveMode
	Indexed       bool
	Count         int
	First         int
	IndexType     ComponentType
	Offset        int
	Program       Program
	ElementBuffer Buffer
	Attributes    map[uint32]AttribBinding
	Uniforms      map[string]UniformValue
	Textures      map[int]Texture
}

// TextureInfo describes an uploaded texture.
type TextureInfo struct {
	Width     int
	Height    int
	Pixels    []byte
	Params    SamplerParams
	Mipmapped bool
	Unit      int
}

type headlessShader struct {
	stage    ShaderStage
	source   string
	compiled bool
	log      string
}

type headlessProgram struct {
	shaders    []Shader
	linked     bool
	log        string
	attributes map[string]int32
	uniforms   map[string]UniformLocation
	names      map[UniformLocation]string
	values     map[UniformLocation]UniformValue
}

// headlessDevice is the implementation of the Headless interface.
type headlessDevice struct {
	mu     sync.Mutex
	logger *slog.Logger

	maxTextureUnits int

	next uint32

	buffers  map[Buffer][]byte
	shaders  map[Shader]*headlessShader
	programs map[Program]*headlessProgram
	textures map[Texture]*TextureInfo

	boundBuffers  map[BufferTarget]Buffer
	activeUnit    int
	boundTextures map[int]Texture
	current       Program
	attributes    map[uint32]AttribBinding
	enabled       map[uint32]bool

	draws  []DrawCall
	errors []error
}

// Headless is a Device that keeps everything in memory and records what it is asked to do.
// It is used for tests and for running the pipeline without a display.
type Headless interface {
	Device

	// DrawCalls returns the draws recorded since creation or the last ResetDrawCalls.
	//
	// Returns:
	//   - []DrawCall: recorded draws in submission order
	DrawCalls() []DrawCall

	// ResetDrawCalls discards recorded draws.
	ResetDrawCalls()

	// BufferContents returns the bytes last uploaded to b.
	//
	// Parameters:
	//   - b: the buffer handle
	//
	// Returns:
	//   - []byte: the uploaded bytes
	//   - bool: false if b is not a live buffer
	BufferContents(b Buffer) ([]byte, bool)

	// TextureInfo returns the state of texture t.
	//
	// Parameters:
	//   - t: the texture handle
	//
	// Returns:
	//   - TextureInfo: the texture state
	//   - bool: false if t is not a live texture
	TextureInfo(t Texture) (TextureInfo, bool)

	// Uniform returns the value last written to the named uniform of p.
	//
	// Parameters:
	//   - p: the program handle
	//   - name: the uniform name
	//
	// Returns:
	//   - UniformValue: the stored value
	//   - bool: false if nothing was written
	Uniform(p Program, name string) (UniformValue, bool)

	// LiveBuffers returns the number of buffers not yet deleted.
	LiveBuffers() int

	// LiveTextures returns the number of textures not yet deleted.
	LiveTextures() int

	// LivePrograms returns the number of programs not yet deleted.
	LivePrograms() int

	// Errors returns misuse detected by the device, such as uniform writes with no program in use.
	Errors() []error
}

var _ Headless = &headlessDevice{}

// NewHeadless creates a recording device with the provided options applied.
//
// Parameters:
//   - options: functional options for device configuration
//
// Returns:
//   - Headless: the new device
func NewHeadless(options ...HeadlessBuilderOption) Headless {
	d := &headlessDevice{
		logger:          slog.Default(),
		maxTextureUnits: 32,
		buffers:         make(map[Buffer][]byte),
		shaders:         make(map[Shader]*headlessShader),
		programs:        make(map[Program]*headlessProgram),
		textures:        make(map[Texture]*TextureInfo),
		boundBuffers:    make(map[BufferTarget]Buffer),
		boundTextures:   make(map[int]Texture),
		attributes:      make(map[uint32]AttribBinding),
		enabled:         make(map[uint32]bool),
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

func (d *headlessDevice) handle() uint32 {
	d.next++
	return d.next
}

func (d *headlessDevice) fail(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	d.errors = append(d.errors, err)
	d.logger.Warn("headless device misuse", "error", err)
}

func (d *headlessDevice) CreateBuffer() (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := Buffer(d.handle())
	d.buffers[b] = nil
	return b, nil
}

func (d *headlessDevice) BindBuffer(target BufferTarget, b Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; b != 0 && !ok {
		d.fail("bind of unknown buffer %d", b)
		return
	}
	d.boundBuffers[target] = b
}

func (d *headlessDevice) BufferData(target BufferTarget, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.boundBuffers[target]
	if b == 0 {
		d.fail("buffer data with nothing bound at target %d", target)
		return
	}
	d.buffers[b] = append([]byte(nil), data...)
}

func (d *headlessDevice) DeleteBuffer(b Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, b)
	for target, bound := range d.boundBuffers {
		if bound == b {
			d.boundBuffers[target] = 0
		}
	}
}

func (d *headlessDevice) CreateShader(stage ShaderStage) (Shader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stage != VertexShader && stage != FragmentShader {
		return 0, fmt.Errorf("unknown shader stage %d", stage)
	}
	s := Shader(d.handle())
	d.shaders[s] = &headlessShader{stage: stage}
	return s, nil
}

func (d *headlessDevice) ShaderSource(s Shader, source string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sh, ok := d.shaders[s]; ok {
		sh.source = source
	}
}

// CompileShader accepts any non-empty source without an #error directive.
func (d *headlessDevice) CompileShader(s Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sh, ok := d.shaders[s]
	if !ok {
		d.fail("compile of unknown shader %d", s)
		return
	}
	sh.compiled, sh.log = false, ""
	if strings.TrimSpace(sh.source) == "" {
		sh.log = "ERROR: 0:0: empty shader source"
		return
	}
	for i, line := range strings.Split(sh.source, "\n") {
		if msg, found := strings.CutPrefix(strings.TrimSpace(line), "#error"); found {
			sh.log = fmt.Sprintf("ERROR: 0:%d: '#error' :%s", i+1, msg)
			return
		}
	}
	sh.compiled = true
}

func (d *headlessDevice) ShaderCompileStatus(s Shader) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	sh, ok := d.shaders[s]
	return ok && sh.compiled
}

func (d *headlessDevice) ShaderInfoLog(s Shader) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sh, ok := d.shaders[s]; ok {
		return sh.log
	}
	return ""
}

func (d *headlessDevice) DeleteShader(s Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, s)
}

func (d *headlessDevice) CreateProgram() (Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := Program(d.handle())
	d.programs[p] = &headlessProgram{}
	return p, nil
}

func (d *headlessDevice) AttachShader(p Program, s Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		d.fail("attach to unknown program %d", p)
		return
	}
	prog.shaders = append(prog.shaders, s)
}

// LinkProgram requires one compiled vertex and one compiled fragment shader. Attribute and
// uniform slots are numbered in declaration order.
func (d *headlessDevice) LinkProgram(p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok {
		d.fail("link of unknown program %d", p)
		return
	}

	prog.linked, prog.log = false, ""
	var vertex, fragment *headlessShader
	for _, s := range prog.shaders {
		sh, ok := d.shaders[s]
		if !ok || !sh.compiled {
			prog.log = fmt.Sprintf("ERROR: shader %d is not compiled", s)
			return
		}
		switch sh.stage {
		case VertexShader:
			vertex = sh
		case FragmentShader:
			fragment = sh
		}
	}
	if vertex == nil || fragment == nil {
		prog.log = "ERROR: program needs a vertex and a fragment shader"
		return
	}

	prog.attributes = make(map[string]int32)
	for _, m := range attributePattern.FindAllStringSubmatch(vertex.source, -1) {
		if _, dup := prog.attributes[m[1]]; !dup {
			prog.attributes[m[1]] = int32(len(prog.attributes))
		}
	}

	prog.uniforms = make(map[string]UniformLocation)
	prog.names = make(map[UniformLocation]string)
	prog.values = make(map[UniformLocation]UniformValue)
	for _, src := range []string{vertex.source, fragment.source} {
		for _, m := range uniformPattern.FindAllStringSubmatch(src, -1) {
			if _, dup := prog.uniforms[m[1]]; dup {
				continue
			}
			loc := UniformLocation(len(prog.uniforms))
			prog.uniforms[m[1]] = loc
			prog.names[loc] = m[1]
		}
	}
	prog.linked = true
}

func (d *headlessDevice) ProgramLinkStatus(p Program) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	return ok && prog.linked
}

func (d *headlessDevice) ProgramInfoLog(p Program) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prog, ok := d.programs[p]; ok {
		return prog.log
	}
	return ""
}

func (d *headlessDevice) DeleteProgram(p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, p)
	if d.current == p {
		d.current = 0
	}
}

func (d *headlessDevice) UseProgram(p Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prog, ok := d.programs[p]; p != 0 && (!ok || !prog.linked) {
		d.fail("use of unlinked program %d", p)
		return
	}
	d.current = p
}

func (d *headlessDevice) AttribLocation(p Program, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok || !prog.linked {
		return -1
	}
	if loc, ok := prog.attributes[name]; ok {
		return loc
	}
	return -1
}

func (d *headlessDevice) UniformLocation(p Program, name string) UniformLocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok || !prog.linked {
		return NoUniform
	}
	if loc, ok := prog.uniforms[name]; ok {
		return loc
	}
	return NoUniform
}

func (d *headlessDevice) CreateTexture() (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := Texture(d.handle())
	d.textures[t] = &TextureInfo{Params: DefaultSamplerParams()}
	return t, nil
}

func (d *headlessDevice) ActiveTexture(unit int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if unit < 0 || unit >= d.maxTextureUnits {
		d.fail("texture unit %d outside [0, %d)", unit, d.maxTextureUnits)
		return
	}
	d.activeUnit = unit
}

func (d *headlessDevice) BindTexture(t Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.textures[t]
	if t != 0 && !ok {
		d.fail("bind of unknown texture %d", t)
		return
	}
	d.boundTextures[d.activeUnit] = t
	if ok {
		info.Unit = d.activeUnit
	}
}

func (d *headlessDevice) boundTexture() *TextureInfo {
	info, ok := d.textures[d.boundTextures[d.activeUnit]]
	if !ok {
		d.fail("no texture bound at unit %d", d.activeUnit)
		return nil
	}
	return info
}

func (d *headlessDevice) TexImage2D(width, height int, rgba []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info := d.boundTexture()
	if info == nil {
		return
	}
	if len(rgba) != width*height*4 {
		d.fail("texture upload of %d bytes for %dx%d RGBA", len(rgba), width, height)
		return
	}
	info.Width, info.Height = width, height
	info.Pixels = append([]byte(nil), rgba...)
	info.Mipmapped = false
}

func (d *headlessDevice) TexParameters(params SamplerParams) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if info := d.boundTexture(); info != nil {
		info.Params = params
	}
}

func (d *headlessDevice) GenerateMipmap() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if info := d.boundTexture(); info != nil {
		info.Mipmapped = true
	}
}

func (d *headlessDevice) DeleteTexture(t Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, t)
	for unit, bound := range d.boundTextures {
		if bound == t {
			d.boundTextures[unit] = 0
		}
	}
}

func (d *headlessDevice) setUniform(loc UniformLocation, v UniformValue) {
	if loc == NoUniform {
		return
	}
	prog, ok := d.programs[d.current]
	if !ok {
		d.fail("uniform write with no program in use")
		return
	}
	if _, ok := prog.names[loc]; !ok {
		d.fail("uniform location %d not in program %d", loc, d.current)
		return
	}
	prog.values[loc] = v
}

func (d *headlessDevice) UniformMatrix4fv(loc UniformLocation, values []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(values)%16 != 0 {
		d.fail("matrix uniform of %d floats", len(values))
		return
	}
	d.setUniform(loc, UniformValue{Floats: append([]float32(nil), values...)})
}

func (d *headlessDevice) Uniform3fv(loc UniformLocation, values []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(values) != 3 {
		d.fail("vec3 uniform of %d floats", len(values))
		return
	}
	d.setUniform(loc, UniformValue{Floats: append([]float32(nil), values...)})
}

func (d *headlessDevice) Uniform4fv(loc UniformLocation, values []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(values) != 4 {
		d.fail("vec4 uniform of %d floats", len(values))
		return
	}
	d.setUniform(loc, UniformValue{Floats: append([]float32(nil), values...)})
}

func (d *headlessDevice) Uniform1f(loc UniformLocation, v float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setUniform(loc, UniformValue{Floats: []float32{v}})
}

func (d *headlessDevice) Uniform1i(loc UniformLocation, v int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setUniform(loc, UniformValue{Ints: []int32{v}})
}

func (d *headlessDevice) EnableVertexAttribArray(loc uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled[loc] = true
}

func (d *headlessDevice) VertexAttribPointer(loc uint32, size int, typ ComponentType, normalized bool, stride, offset int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.boundBuffers[ArrayBuffer]
	if b == 0 {
		d.fail("attribute pointer %d with no array buffer bound", loc)
		return
	}
	d.attributes[loc] = AttribBinding{
		Buffer:     b,
		Size:       size,
		Type:       typ,
		Normalized: normalized,
		Stride:     stride,
		Offset:     offset,
	}
}

// snapshot captures the state a draw would read. Caller holds mu.
func (d *headlessDevice) snapshot(call DrawCall) {
	prog, ok := d.programs[d.current]
	if !ok {
		d.fail("draw with no program in use")
		return
	}

	call.Program = d.current
	call.Attributes = make(map[uint32]AttribBinding)
	for loc, binding := range d.attributes {
		if d.enabled[loc] {
			call.Attributes[loc] = binding
		}
	}
	call.Uniforms = make(map[string]UniformValue, len(prog.values))
	for loc, v := range prog.values {
		call.Uniforms[prog.names[loc]] = v
	}
	call.Textures = maps.Clone(d.boundTextures)

	d.draws = append(d.draws, call)
}

func (d *headlessDevice) DrawElements(mode PrimitiveMode, count int, typ ComponentType, offset int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	eb := d.boundBuffers[ElementArrayBuffer]
	if eb == 0 {
		d.fail("indexed draw with no element buffer bound")
		return
	}
	d.snapshot(DrawCall{
		Mode:          mode,
		Indexed:       true,
		Count:         count,
		IndexType:     typ,
		Offset:        offset,
		ElementBuffer: eb,
	})
}

func (d *headlessDevice) DrawArrays(mode PrimitiveMode, first, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot(DrawCall{
		Mode:  mode,
		First: first,
		Count: count,
	})
}

func (d *headlessDevice) DrawCalls() []DrawCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DrawCall(nil), d.draws...)
}

func (d *headlessDevice) ResetDrawCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draws = nil
}

func (d *headlessDevice) BufferContents(b Buffer) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.buffers[b]
	return data, ok
}

func (d *headlessDevice) TextureInfo(t Texture) (TextureInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.textures[t]
	if !ok {
		return TextureInfo{}, false
	}
	return *info, true
}

func (d *headlessDevice) Uniform(p Program, name string) (UniformValue, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prog, ok := d.programs[p]
	if !ok || !prog.linked {
		return UniformValue{}, false
	}
	loc, ok := prog.uniforms[name]
	if !ok {
		return UniformValue{}, false
	}
	v, ok := prog.values[loc]
	return v, ok
}

func (d *headlessDevice) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

func (d *headlessDevice) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

func (d *headlessDevice) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

func (d *headlessDevice) Errors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]error(nil), d.errors...)
}
