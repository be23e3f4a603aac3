package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Conversation() ConversationRepository
	Message() MessageRepository
	Memory() MemoryRepository
	Event() EventRepository

	// Close releases the underlying storage client
	Close() error
}
