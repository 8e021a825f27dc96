package agent

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"github.com/deepxiv/deepxiv-go/reader"
)

// Query answers a single question with default request options and no
// progress reporting.
func (a *Agent) Query(ctx context.Context, question string) (*QueryResult, error) {
	return a.Execute(ctx, nil, &QueryRequest{Question: question})
}

// AddPaper fetches a paper's metadata and places it in the persistent cache
// so subsequent queries start with it already loaded. Loading is idempotent.
func (a *Agent) AddPaper(ctx context.Context, arxivID string) (*reader.PaperHead, error) {
	if head, ok := a.papers[arxivID]; ok {
		return head, nil
	}

	head, err := a.config.Reader.Head(ctx, arxivID)
	if err != nil {
		return nil, fmt.Errorf("loading paper %s: %w", arxivID, err)
	}

	a.papers[arxivID] = head
	a.paperOrder = append(a.paperOrder, arxivID)
	return head, nil
}

// GetLoadedPapers returns a snapshot of the persistent paper cache in load
// order. Mutating the returned slice does not affect the agent.
func (a *Agent) GetLoadedPapers() []*reader.PaperHead {
	papers := make([]*reader.PaperHead, 0, len(a.paperOrder))
	for _, id := range a.paperOrder {
		papers = append(papers, a.papers[id])
	}
	return papers
}

// ResetPapers clears the persistent paper cache.
func (a *Agent) ResetPapers() {
	a.papers = make(map[string]*reader.PaperHead)
	a.paperOrder = nil
}

// saveTranscript appends this query's turn to the session transcript.
// Persistence failures are logged, never surfaced: the answer has already
// been produced.
func (a *Agent) saveTranscript(ctx context.Context, req *QueryRequest, result *QueryResult) {
	transcript := a.config.TranscriptManager.LoadSession(ctx, req.SessionID)

	transcript.AddUserMessage(req.Question)
	transcript.AddAssistantMessage(result.Answer)
	for _, id := range a.paperOrder {
		transcript.AddPaper(id)
	}

	if err := a.config.TranscriptManager.SaveSession(ctx, transcript); err != nil {
		logger.Error("Failed to persist transcript",
			zap.String("sessionId", req.SessionID),
			zap.Error(err))
	}
}
