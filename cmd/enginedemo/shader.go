package main

// triangleShaderWGSL is the single WGSL source every demo pipeline variant
// compiles from; pipeline.Defines' macro names are meant for a real
// preprocessing step ahead of this string, which is out of scope here —
// the demo only ever compiles the one undecorated variant.
const triangleShaderWGSL = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) normal: vec3<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = vec4<f32>(in.position, 1.0);
    out.normal = in.normal;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let lit = max(dot(normalize(in.normal), vec3<f32>(0.0, 0.0, 1.0)), 0.2);
    return vec4<f32>(vec3<f32>(1.0, 0.4, 0.1) * lit, 1.0);
}
`
