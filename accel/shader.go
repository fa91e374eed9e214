package accel

// splineShaderSource is the WGSL tricubic evaluation kernel. One
// invocation computes one ROI pixel of one emitter; the emitter index
// arrives via the uniform block so a batch is encoded as one compute
// pass per emitter, mirroring how the output buffer is laid out.
const splineShaderSource = `
struct Params {
    roi_w: u32,
    roi_h: u32,
    emitter: u32,
    nx: u32,
    ny: u32,
    nz: u32,
    _pad0: u32,
    _pad1: u32,
    ref0: vec4<f32>,
    voxel: vec4<f32>,
}

struct Emitter {
    xc: f32,
    yc: f32,
    z: f32,
    phot: f32,
    bg: f32,
    _pad0: f32,
    _pad1: f32,
    _pad2: f32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> coeff: array<f32>;
@group(0) @binding(2) var<storage, read> emitters: array<Emitter>;
@group(0) @binding(3) var<storage, read_write> rois: array<f32>;

fn clamp_idx(i: i32, hi: i32) -> i32 {
    return clamp(i, 0, hi);
}

fn cell_base(ix: i32, iy: i32, iz: i32) -> u32 {
    let cx = u32(clamp_idx(ix, i32(params.nx) - 1));
    let cy = u32(clamp_idx(iy, i32(params.ny) - 1));
    let cz = u32(clamp_idx(iz, i32(params.nz) - 1));
    return ((cx * params.ny + cy) * params.nz + cz) * 64u;
}

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let px = gid.x;
    let py = gid.y;
    if (px >= params.roi_w || py >= params.roi_h) {
        return;
    }
    let em = emitters[params.emitter];

    let gx = params.ref0.x - em.xc / params.voxel.x;
    let gy = params.ref0.y - em.yc / params.voxel.y;
    let gz = params.ref0.z + em.z / params.voxel.z;
    let i0 = i32(floor(gx));
    let j0 = i32(floor(gy));
    let k0 = i32(floor(gz));
    let fx = gx - floor(gx);
    let fy = gy - floor(gy);
    let fz = gz - floor(gz);

    var xp = vec4<f32>(1.0, fx, fx * fx, fx * fx * fx);
    var yp = vec4<f32>(1.0, fy, fy * fy, fy * fy * fy);
    var zp = vec4<f32>(1.0, fz, fz * fz, fz * fz * fz);

    let base = cell_base(i0 + i32(px), j0 + i32(py), k0);
    var acc = 0.0;
    for (var a = 0u; a < 4u; a = a + 1u) {
        for (var b = 0u; b < 4u; b = b + 1u) {
            for (var c = 0u; c < 4u; c = c + 1u) {
                let term = coeff[base + a * 16u + b * 4u + c];
                acc = acc + term * zp[a] * yp[b] * xp[c];
            }
        }
    }

    let out = (params.emitter * params.roi_h + py) * params.roi_w + px;
    rois[out] = em.phot * acc + em.bg;
}
`
