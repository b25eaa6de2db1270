package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToUserDeliversToAllClients(t *testing.T) {
	m := NewManager()

	// Два соединения одного пользователя
	c1 := NewClient("user-1", nil, m)
	c2 := NewClient("user-1", nil, m)
	m.AddClient(c1)
	m.AddClient(c2)
	defer m.RemoveClient(c1.ID)
	defer m.RemoveClient(c2.ID)

	m.SendNewMessage("user-1", "conv-1", map[string]string{"content": "привет"})

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			assert.Contains(t, string(data), "new_message")
			assert.Contains(t, string(data), "conv-1")
		case <-time.After(time.Second):
			t.Fatal("событие не доставлено клиенту")
		}
	}
}

func TestSendToUserSkipsOfflineUser(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	// Отправка оффлайн-пользователю не должна паниковать
	m.SendToUser("offline-user", Event{Type: EventNewMessage})
	m.SendMessageRead("offline-user", "conv-1")
	m.SendNotification("offline-user", map[string]string{"title": "тест"})
}

func TestSendOnNilManager(t *testing.T) {
	var m *Manager

	// Вызовы на нулевом менеджере безопасны: realtime-доставка опциональна
	m.SendToUser("user-1", Event{Type: EventNewMessage})
	m.SendNewMessage("user-1", "conv-1", nil)
	m.SendMessageRead("user-1", "conv-1")
	m.SendNotification("user-1", nil)
}

func TestRemoveClientCleansUserIndex(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	c := NewClient("user-1", nil, m)
	m.AddClient(c)

	m.userMutex.RLock()
	_, exists := m.userClients["user-1"]
	m.userMutex.RUnlock()
	require.True(t, exists)

	m.RemoveClient(c.ID)

	m.userMutex.RLock()
	_, exists = m.userClients["user-1"]
	m.userMutex.RUnlock()
	assert.False(t, exists)

	m.clientsMutex.RLock()
	_, exists = m.clients[c.ID]
	m.clientsMutex.RUnlock()
	assert.False(t, exists)
}
