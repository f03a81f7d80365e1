package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 0, FloorDiv(0, 16))
	assert.Equal(t, 0, FloorDiv(15.99, 16))
	assert.Equal(t, 1, FloorDiv(16, 16))
	assert.Equal(t, -1, FloorDiv(-0.5, 16), "Отрицательные значения должны округляться вниз")
	assert.Equal(t, -2, FloorDiv(-16.5, 16))
}

func TestVec3_Ordering(t *testing.T) {
	a := Vec3{X: 0, Y: 1, Z: 2}
	b := Vec3{X: 0, Y: 1, Z: 3}
	c := Vec3{X: 1, Y: -5, Z: -5}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.False(t, a.Less(a), "Вектор не может быть меньше самого себя")
}

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -1, Y: 0, Z: 1}

	assert.Equal(t, Vec3{X: 0, Y: 2, Z: 4}, a.Add(b))
	assert.Equal(t, 4+4+4, a.DistanceSq(b))
	assert.True(t, a.Equals(Vec3{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, "(1, 2, 3)", a.String())
}
