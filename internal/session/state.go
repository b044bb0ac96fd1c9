// Package session holds the mutable conversation state owned by the UI
// layer: the chat history and the names of documents processed in this
// session. Pipeline components receive the state as a parameter and never
// keep a reference; nothing here is persisted.
package session

// Message is one turn of the conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
	Sources []string
}

// State is the per-session conversation state. The pipeline is
// request-per-interaction, so no locking is needed.
type State struct {
	history   []Message
	processed []string
}

// New creates an empty session.
func New() *State {
	return &State{}
}

// AppendMessage adds a turn to the chat history.
func (s *State) AppendMessage(m Message) {
	s.history = append(s.history, m)
}

// History returns a copy of the chat history, oldest first.
func (s *State) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// MarkProcessed records that a document finished indexing in this session.
// Re-marking the same filename is a no-op.
func (s *State) MarkProcessed(filename string) {
	if s.IsProcessed(filename) {
		return
	}
	s.processed = append(s.processed, filename)
}

// IsProcessed reports whether a document was indexed in this session.
func (s *State) IsProcessed(filename string) bool {
	for _, f := range s.processed {
		if f == filename {
			return true
		}
	}
	return false
}

// ProcessedDocuments returns a copy of the processed-document names in
// processing order.
func (s *State) ProcessedDocuments() []string {
	out := make([]string, len(s.processed))
	copy(out, s.processed)
	return out
}
