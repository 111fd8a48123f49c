package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttribute_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  AttributeKind
		wantOther string
	}{
		{"rigid body", `{"RigidBody": {"sleeping": false, "location": {"x": 1, "y": 2, "z": 3}}}`, AttrRigidBody, ""},
		{"active actor", `{"ActiveActor": {"active": true, "actor": 10}}`, AttrActiveActor, ""},
		{"string", `{"String": "Alice"}`, AttrString, ""},
		{"other object", `{"Boolean": true}`, AttrOther, "Boolean"},
		{"unit variant", `"Welded"`, AttrOther, "Welded"},
		{"null", `null`, AttrOther, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Attribute
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))
			assert.Equal(t, tt.wantKind, a.Kind)
			assert.Equal(t, tt.wantOther, a.OtherKind)
		})
	}
}

func TestAttribute_RigidBodyPayload(t *testing.T) {
	var a Attribute
	input := `{"RigidBody": {
		"sleeping": false,
		"location": {"x": -1.5, "y": 2.25, "z": 17.0},
		"rotation": {"x": 0.1, "y": 0.2, "z": 0.3, "w": 0.9},
		"linear_velocity": {"x": 100, "y": 0, "z": -5},
		"angular_velocity": {"x": 0, "y": 1, "z": 0}
	}}`
	require.NoError(t, json.Unmarshal([]byte(input), &a))

	rb := a.RigidBody
	require.NotNil(t, rb)
	require.NotNil(t, rb.Sleeping)
	assert.False(t, *rb.Sleeping)
	require.NotNil(t, rb.Location)
	assert.Equal(t, -1.5, *rb.Location.X)
	assert.Equal(t, 2.25, *rb.Location.Y)
	assert.Equal(t, 17.0, *rb.Location.Z)
	require.NotNil(t, rb.Rotation)
	assert.Equal(t, 0.9, *rb.Rotation.W)
	assert.Nil(t, rb.Rotation.Yaw)
	require.NotNil(t, rb.LinearVelocity)
	assert.Equal(t, 100.0, rb.LinearVelocity.X)
	require.NotNil(t, rb.AngularVelocity)
	assert.Equal(t, 1.0, rb.AngularVelocity.Y)
}

func TestAttribute_RigidBodyWithoutOptionalFields(t *testing.T) {
	var a Attribute
	require.NoError(t, json.Unmarshal([]byte(`{"RigidBody": {"location": null}}`), &a))

	require.NotNil(t, a.RigidBody)
	assert.Nil(t, a.RigidBody.Location)
	assert.Nil(t, a.RigidBody.Sleeping)
	assert.Nil(t, a.RigidBody.Rotation)
}

func TestAttribute_ActiveActorWithoutReference(t *testing.T) {
	var a Attribute
	require.NoError(t, json.Unmarshal([]byte(`{"ActiveActor": {"active": false}}`), &a))

	require.Equal(t, AttrActiveActor, a.Kind)
	require.NotNil(t, a.ActiveActor)
	assert.Nil(t, a.ActiveActor.Actor)
}

func TestAttribute_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"rigid body not an object", `{"RigidBody": 5}`},
		{"active actor wrong type", `{"ActiveActor": {"actor": "ten"}}`},
		{"string not a string", `{"String": {"value": "Alice"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Attribute
			err := json.Unmarshal([]byte(tt.input), &a)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedAttribute)
		})
	}
}

func TestAttributeKind_String(t *testing.T) {
	assert.Equal(t, "RigidBody", AttrRigidBody.String())
	assert.Equal(t, "ActiveActor", AttrActiveActor.String())
	assert.Equal(t, "String", AttrString.String())
	assert.Equal(t, "Other", AttrOther.String())
}
