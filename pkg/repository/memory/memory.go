package memory

import (
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	conversation *conversationRepository
	message      *messageRepository
	memoryStore  *memoryRepository
	event        *eventRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	messageRepo := newMessageRepository()
	memoryRepo := newMemoryRepository()
	conversationRepo := newConversationRepository(messageRepo, memoryRepo)

	return &Memory{
		conversation: conversationRepo,
		message:      messageRepo,
		memoryStore:  memoryRepo,
		event:        newEventRepository(),
	}
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.message
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memoryStore
}

func (m *Memory) Event() interfaces.EventRepository {
	return m.event
}

func (m *Memory) Close() error {
	return nil
}
