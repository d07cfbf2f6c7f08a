package math

/** @brief A 3-component vector, also used for colors. */
type Vec3 struct {
	X, Y, Z float32
}

/** @brief A 4x4 matrix in column-major order. */
type Mat4 struct {
	Data [16]float32
}

// NewMat4Identity returns the identity matrix.
func NewMat4Identity() Mat4 {
	var m Mat4
	m.Data[0] = 1.0
	m.Data[5] = 1.0
	m.Data[10] = 1.0
	m.Data[15] = 1.0
	return m
}

// IsIdentity reports whether the matrix equals the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == NewMat4Identity()
}
