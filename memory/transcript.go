package memory

import (
	"time"

	"github.com/deepxiv/deepxiv-go/llm"
)

// Transcript is the persisted record of one research session: the full
// message history plus the identifiers of papers loaded along the way.
type Transcript struct {
	ID        string        `bson:"_id"`
	Messages  []llm.Message `bson:"messages"`
	PaperIDs  []string      `bson:"paperIds"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (t Transcript) Id() string {
	return t.ID
}

func (t Transcript) CollectionName() string {
	return "transcripts"
}

func (t *Transcript) AddUserMessage(content string) {
	t.Messages = append(t.Messages, llm.Message{Role: "user", Content: content})
}

func (t *Transcript) AddAssistantMessage(content string) {
	t.Messages = append(t.Messages, llm.Message{Role: "assistant", Content: content})
}

func (t *Transcript) AddPaper(arxivID string) {
	for _, id := range t.PaperIDs {
		if id == arxivID {
			return
		}
	}
	t.PaperIDs = append(t.PaperIDs, arxivID)
}
