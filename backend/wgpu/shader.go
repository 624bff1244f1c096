package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/cube.wgsl
var cubeShaderWGSL string

// compileCubeShader compiles the cube WGSL source to SPIR-V and creates the
// shader module. Going through SPIR-V exercises the full naga pipeline and
// catches shader errors at device init instead of first draw.
func compileCubeShader(device hal.Device) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(cubeShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile cube shader: %w", err)
	}

	// SPIR-V modules are streams of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: "cube_shader",
		Source: hal.ShaderSource{
			SPIRV: words,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create cube shader module: %w", err)
	}
	return module, nil
}
