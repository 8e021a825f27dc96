package memory

import (
	"context"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"

	"github.com/deepxiv/deepxiv-go/llm"
)

// TranscriptManager persists session transcripts. With a nil collection it
// degrades to a no-op so callers never have to branch on persistence being
// configured.
type TranscriptManager struct {
	collection odm.OdmCollectionInterface[Transcript]
	maxTurns   int
}

// NewTranscriptManager creates a transcript manager. maxTurns bounds the
// number of user turns retained per transcript.
func NewTranscriptManager(collection odm.OdmCollectionInterface[Transcript], maxTurns int) *TranscriptManager {
	return &TranscriptManager{
		collection: collection,
		maxTurns:   maxTurns,
	}
}

// LoadSession loads a previously saved transcript. Missing sessions and
// lookup failures both yield an empty transcript so the query can proceed.
func (tm *TranscriptManager) LoadSession(ctx context.Context, sessionID string) *Transcript {
	if tm.collection == nil {
		return &Transcript{ID: sessionID}
	}

	transcript, err := async.Await(tm.collection.FindOneByID(ctx, sessionID))
	if err != nil {
		logger.Error("Failed to load transcript", zap.String("sessionId", sessionID), zap.Error(err))
		return &Transcript{ID: sessionID}
	}

	return transcript
}

// SaveSession trims and persists a transcript.
func (tm *TranscriptManager) SaveSession(ctx context.Context, transcript *Transcript) error {
	if tm.collection == nil {
		return nil
	}

	transcript.Messages = tm.trimForSession(transcript.Messages)
	transcript.UpdatedAt = time.Now()

	_, err := async.Await(tm.collection.Save(ctx, *transcript))
	if err != nil {
		logger.Error("Failed to save transcript", zap.String("sessionId", transcript.ID), zap.Error(err))
		return err
	}

	return nil
}

// trimForSession keeps the last maxTurns user turns together with the
// assistant and tool messages that follow them. Trimming always cuts at a
// user message, so tool-call/result pairs are never split.
func (tm *TranscriptManager) trimForSession(msgs []llm.Message) []llm.Message {
	if tm.maxTurns <= 0 || len(msgs) == 0 {
		return []llm.Message{}
	}

	usersSeen := 0
	start := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			usersSeen++
			if usersSeen == tm.maxTurns {
				start = i
				break
			}
		}
	}

	return msgs[start:]
}

// MaxTurns returns the number of user turns retained per transcript.
func (tm *TranscriptManager) MaxTurns() int {
	return tm.maxTurns
}
