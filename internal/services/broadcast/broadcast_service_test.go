package broadcast

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseChannel(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		input    string
		wantOK   bool
		wantType string
	}{
		{name: "личный канал", input: "user." + id.String(), wantOK: true, wantType: ChannelUser},
		{name: "канал диалога", input: "conversation." + id.String(), wantOK: true, wantType: ChannelConversation},
		{name: "неизвестный тип", input: "garage." + id.String(), wantOK: false},
		{name: "без разделителя", input: "user", wantOK: false},
		{name: "не UUID", input: "user.12345", wantOK: false},
		{name: "пустая строка", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel, ok := ParseChannel(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantType, channel.Type)
				assert.Equal(t, id, channel.ID)
			}
		})
	}
}
