// internal/protocol/intents_test.go
package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIntent(t *testing.T) {
	in, err := DecodeIntent([]byte(`{"type":"register","name":"anna"}`))
	require.NoError(t, err)
	assert.Equal(t, IntentRegister, in.Type)
	assert.Equal(t, "anna", in.Name)

	roomID := uuid.New()
	in, err = DecodeIntent([]byte(`{"type":"join_room","room_id":"` + roomID.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, IntentJoinRoom, in.Type)
	assert.Equal(t, roomID, in.RoomID)

	in, err = DecodeIntent([]byte(`{"type":"authorize","key":"secret"}`))
	require.NoError(t, err)
	assert.Equal(t, "secret", in.Key)
}

func TestDecodeIntentRejectsUnknownType(t *testing.T) {
	_, err := DecodeIntent([]byte(`{"type":"fire_missiles"}`))
	assert.Error(t, err)

	_, err = DecodeIntent([]byte(`{}`))
	assert.Error(t, err)
}

func TestDecodeIntentRejectsTransportInternalType(t *testing.T) {
	// Clients must not be able to forge the transport's disconnect event.
	_, err := DecodeIntent([]byte(`{"type":"disconnect"}`))
	assert.Error(t, err)
}

func TestDecodeIntentRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeIntent([]byte(`{"type":`))
	assert.Error(t, err)
}
