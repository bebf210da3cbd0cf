package vkres

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

// ShaderStage is a programmable pipeline stage.
type ShaderStage uint8

// Shader stages.
const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
	shaderStageCount
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	default:
		return fmt.Sprintf("ShaderStage(%d)", s)
	}
}

// computeEntryPoint is the entry point compute pipelines are created with.
const computeEntryPoint = "main"

// SharedShader is a shader module shared by several programs. The module
// lives until the last program drops it and it is released.
type SharedShader struct {
	serial.Use

	module native.ShaderModule
	refs   int
}

// NewSharedShader wraps module.
func NewSharedShader(module native.ShaderModule) *SharedShader {
	return &SharedShader{module: module}
}

// Module returns the native shader module.
func (s *SharedShader) Module() native.ShaderModule { return s.module }

// Refs returns the number of programs using the shader.
func (s *SharedShader) Refs() int { return s.refs }

// Release hands the module to the renderer at its last use. It panics if a
// program still uses it.
func (s *SharedShader) Release(r native.Renderer) {
	if s.refs != 0 {
		panic("vkres: releasing a shader still used by a program")
	}
	r.ReleaseObject(s.Serial(), native.ShaderModuleObject(s.module))
	s.module = native.Null
}

// Destroy destroys the module immediately. It panics if a program still
// uses it.
func (s *SharedShader) Destroy(d native.Device) {
	if s.refs != 0 {
		panic("vkres: destroying a shader still used by a program")
	}
	d.DestroyShaderModule(s.module)
	s.module = native.Null
}

// CompileWGSL compiles WGSL source to SPIR-V and creates a shader module.
func CompileWGSL(d native.Device, source string) (*SharedShader, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("vkres: compile shader: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V of %d bytes", ErrInvalidArgument, len(spirv))
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	module, err := d.CreateShaderModule(words)
	if err != nil {
		return nil, fmt.Errorf("vkres: create shader module: %w", err)
	}
	return NewSharedShader(module), nil
}

// ComputePipeline is a pipeline and the serial of its last use.
type ComputePipeline struct {
	serial.Use

	pipeline native.Pipeline
}

// Pipeline returns the native pipeline.
func (p *ComputePipeline) Pipeline() native.Pipeline { return p.pipeline }

// Valid reports whether the pipeline has been created.
func (p *ComputePipeline) Valid() bool { return p.pipeline != native.Null }

// ShaderProgramHelper binds shader modules to stages and creates the
// pipelines using them.
type ShaderProgramHelper struct {
	shaders [shaderStageCount]*SharedShader
	compute ComputePipeline
	cache   native.PipelineCache
}

// SetPipelineCache sets the cache pipelines are created with.
func (p *ShaderProgramHelper) SetPipelineCache(cache native.PipelineCache) { p.cache = cache }

// Valid reports whether the program has a vertex shader.
func (p *ShaderProgramHelper) Valid() bool { return p.shaders[ShaderStageVertex] != nil }

// Shader returns the shader bound to stage, or nil.
func (p *ShaderProgramHelper) Shader(stage ShaderStage) *SharedShader { return p.shaders[stage] }

// SetShader binds shader to stage, dropping the previous binding. A nil
// shader clears the stage.
func (p *ShaderProgramHelper) SetShader(stage ShaderStage, shader *SharedShader) {
	if old := p.shaders[stage]; old != nil {
		old.refs--
	}
	if shader != nil {
		shader.refs++
	}
	p.shaders[stage] = shader
}

// CompileWGSL compiles source and binds the result to stage.
func (p *ShaderProgramHelper) CompileWGSL(d native.Device, stage ShaderStage, source string) (*SharedShader, error) {
	shader, err := CompileWGSL(d, source)
	if err != nil {
		return nil, fmt.Errorf("%v stage: %w", stage, err)
	}
	p.SetShader(stage, shader)
	return shader, nil
}

// GetComputePipeline returns the compute pipeline of the program, creating
// it with layout on first use. The pipeline and the compute shader are
// stamped with the current serial.
func (p *ShaderProgramHelper) GetComputePipeline(r native.Renderer, layout native.PipelineLayout) (*ComputePipeline, error) {
	shader := p.shaders[ShaderStageCompute]
	if shader == nil {
		return nil, fmt.Errorf("%w: program without a compute shader", ErrInvalidArgument)
	}
	if !p.compute.Valid() {
		pipeline, err := r.Device().CreateComputePipeline(native.ComputePipelineCreateInfo{
			Module:     shader.module,
			EntryPoint: computeEntryPoint,
			Layout:     layout,
			Cache:      p.cache,
		})
		if err != nil {
			return nil, fmt.Errorf("vkres: create compute pipeline: %w", err)
		}
		p.compute.pipeline = pipeline
		Logger().Debug("vkres: compute pipeline created", "layout", layout)
	}
	p.compute.Update(r)
	shader.Update(r)
	return &p.compute, nil
}

// Release hands the pipelines to the renderer at their last use and drops
// every shader binding.
func (p *ShaderProgramHelper) Release(r native.Renderer) {
	r.ReleaseObject(p.compute.Serial(), native.PipelineObject(p.compute.pipeline))
	p.compute = ComputePipeline{}
	p.resetShaders()
}

// Destroy destroys the pipelines immediately and drops every shader
// binding. Shared shaders are not destroyed.
func (p *ShaderProgramHelper) Destroy(d native.Device) {
	d.DestroyPipeline(p.compute.pipeline)
	p.compute = ComputePipeline{}
	p.resetShaders()
}

func (p *ShaderProgramHelper) resetShaders() {
	for stage := range p.shaders {
		p.SetShader(ShaderStage(stage), nil)
	}
}
