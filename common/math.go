package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads (proxy vertex and index
// buffers). Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// PerspectiveZO creates a right-handed perspective projection matrix that maps view-space depth
// [-near, -far] to the WebGPU clip-space depth range [0, 1]. mgl32.Perspective targets the
// OpenGL range [-1, 1] and cannot be used with a WebGPU depth buffer.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / math32.Tan(fovY/2)
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1
	m[14] = (near * far) / (near - far)
	return m
}

// ViewProjection builds the view, projection and combined matrices for a camera looking from
// eye at center, along with the inverse of the combined matrix.
//
// Parameters:
//   - eye, center, up: LookAt inputs
//   - fovY, aspect, near, far: PerspectiveZO inputs
//
// Returns:
//   - view, proj, viewProj, inverse: the column-major matrices; inverse is the zero matrix when
//     viewProj is singular
func ViewProjection(eye, center, up mgl32.Vec3, fovY, aspect, near, far float32) (view, proj, viewProj, inverse mgl32.Mat4) {
	view = mgl32.LookAtV(eye, center, up)
	proj = PerspectiveZO(fovY, aspect, near, far)
	viewProj = proj.Mul4(view)
	inverse = viewProj.Inv()
	return view, proj, viewProj, inverse
}
