package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes_PreservesInsertionOrder(t *testing.T) {
	a := NewAttributes()
	a.Set("name", "river")
	a.Set("code", 12)
	a.Set("width", 3.5)

	assert.Equal(t, []string{"name", "code", "width"}, a.Keys())
	assert.Equal(t, 3, a.Len())
}

func TestAttributes_CaseInsensitiveLookup(t *testing.T) {
	a := NewAttributes()
	a.Set("CODE", "A1")

	v, ok := a.Get("code")
	require.True(t, ok)
	assert.Equal(t, "A1", v)

	a.Set("Code", "B2")
	assert.Equal(t, []string{"CODE"}, a.Keys(), "existing key keeps its spelling")
	v, _ = a.Get("CODE")
	assert.Equal(t, "B2", v)
}

func TestAttributes_CloneIsIndependent(t *testing.T) {
	a := NewAttributes()
	a.Set("name", "river")

	c := a.Clone()
	c.Set("height", 1.25)
	c.Set("name", "canal")

	v, _ := a.Get("name")
	assert.Equal(t, "river", v)
	_, ok := a.Get("height")
	assert.False(t, ok)
	assert.Equal(t, []string{"name", "height"}, c.Keys())
}

func TestAttributes_NilReceiver(t *testing.T) {
	var a *Attributes

	_, ok := a.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, a.Len())
	assert.Nil(t, a.Keys())
	assert.Equal(t, 0, a.Clone().Len())
	assert.Empty(t, a.Map())
}

func TestAttributes_Map(t *testing.T) {
	a := NewAttributes()
	a.Set("Name", "x")
	a.Set("n", int64(2))

	assert.Equal(t, map[string]any{"Name": "x", "n": int64(2)}, a.Map())
}

func TestHasField(t *testing.T) {
	fields := []Field{{Name: "NAME", Type: FieldString}, RealField("Width")}

	assert.True(t, HasField(fields, "name"))
	assert.True(t, HasField(fields, "WIDTH"))
	assert.False(t, HasField(fields, "height"))
}

func TestExtendFields(t *testing.T) {
	template := []Field{{Name: "id", Type: FieldInteger}, {Name: "name", Type: FieldString}}

	got, err := ExtendFields(template, "height")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, RealField("height"), got[2])
	assert.Len(t, template, 2, "template must not grow")
}

func TestExtendFields_Collision(t *testing.T) {
	template := []Field{{Name: "Height", Type: FieldReal}}

	_, err := ExtendFields(template, "HEIGHT")
	require.Error(t, err)

	var collision *FieldCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "HEIGHT", collision.Field)
	assert.ErrorIs(t, err, ErrFieldCollision)

	_, err = ExtendFields(nil, "min", "Min")
	assert.ErrorIs(t, err, ErrFieldCollision)
}

func TestFieldType_IsValid(t *testing.T) {
	assert.True(t, FieldString.IsValid())
	assert.True(t, FieldInteger.IsValid())
	assert.True(t, FieldReal.IsValid())
	assert.False(t, FieldType("date").IsValid())
}

func TestFieldType_Coerce(t *testing.T) {
	tests := []struct {
		name  string
		typ   FieldType
		in    any
		want  any
		valid bool
	}{
		{"nil", FieldReal, nil, nil, true},
		{"int to real", FieldReal, 3, 3.0, true},
		{"float32 to real", FieldReal, float32(1.5), 1.5, true},
		{"json number", FieldReal, json.Number("2.25"), 2.25, true},
		{"text to real", FieldReal, " 4.5 ", 4.5, true},
		{"bad text", FieldReal, "north", nil, false},
		{"real to integer", FieldInteger, 2.6, int64(3), true},
		{"int64 kept", FieldInteger, int64(1) << 60, int64(1) << 60, true},
		{"nan integer", FieldInteger, math.NaN(), nil, false},
		{"number to string", FieldString, 12, "12", true},
		{"string", FieldString, "brook", "brook", true},
		{"unknown type", FieldType("blob"), 1, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.typ.Coerce(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
