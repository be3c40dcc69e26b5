package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-RentalService/internal/protocol/appmsg"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input       []string
		wantType    appmsg.MessageType
		wantPayload string
		wantOK      bool
	}{
		{[]string{"register", "127.0.0.1:7001"}, appmsg.TypeRegister, "127.0.0.1:7001", true},
		{[]string{"register"}, appmsg.TypeRegister, "", false},
		{[]string{"request_cars"}, appmsg.TypeRequestCars, "", true},
		{[]string{"start_rental", "127.0.0.1:7001"}, appmsg.TypeStartRental, "127.0.0.1:7001", true},
		{[]string{"end_rental", "127.0.0.1:7001"}, appmsg.TypeEndRental, "127.0.0.1:7001", true},
		{[]string{"bad_message_type"}, invalidType, "", true},
		{[]string{"fly"}, 0, "", false},
	}

	for _, tt := range tests {
		msgType, payload, ok := parseCommand(tt.input)
		assert.Equal(t, tt.wantOK, ok, tt.input)
		if tt.wantOK {
			assert.Equal(t, tt.wantType, msgType, tt.input)
			assert.Equal(t, tt.wantPayload, payload, tt.input)
		}
	}
	assert.False(t, invalidType.Known())
}
