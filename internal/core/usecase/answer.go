package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toolkitrag/grounded/internal/core/domain"
	"github.com/toolkitrag/grounded/internal/core/ports"
)

// AnswerUseCase turns a retrieved candidate set into a grounded, cited
// answer or a refusal. The language model is only invoked when grounding
// exists; every returned citation maps to a candidate from this request's
// retrieval set.
type AnswerUseCase struct {
	retriever       ports.Retriever
	model           ports.AnswerModel
	logs            ports.ChatLogStore
	maxContextChars int
}

func NewAnswerUseCase(retriever ports.Retriever, model ports.AnswerModel, logs ports.ChatLogStore, maxContextChars int) *AnswerUseCase {
	if maxContextChars <= 0 {
		maxContextChars = 4000
	}
	return &AnswerUseCase{
		retriever:       retriever,
		model:           model,
		logs:            logs,
		maxContextChars: maxContextChars,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, userID, question string, topK int) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrValidation, "answer", errors.New("question is required"))
	}

	candidates, err := uc.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		answer := &domain.Answer{
			Text:      domain.RefusalMessage,
			Citations: []domain.Citation{},
			Refused:   true,
			Reason:    "no sufficiently similar toolkit content",
		}
		if err := uc.appendLog(ctx, userID, question, answer); err != nil {
			return nil, err
		}
		return answer, nil
	}

	systemPrompt, userPrompt := buildGroundedPrompt(question, candidates, uc.maxContextChars)
	raw, err := uc.model.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw) == domain.RefusalMessage {
		answer := &domain.Answer{
			Text:      domain.RefusalMessage,
			Citations: []domain.Citation{},
			Refused:   true,
			Reason:    "model found no answer in context",
		}
		if err := uc.appendLog(ctx, userID, question, answer); err != nil {
			return nil, err
		}
		return answer, nil
	}

	citations, markers := mapCitations(raw, candidates)
	answer := &domain.Answer{
		Text:       raw,
		Citations:  citations,
		Confidence: candidates[0].Similarity,
	}

	// The model cited sources but none mapped to the supplied candidates:
	// degrade to a refusal rather than shipping unverifiable claims.
	if markers > 0 && len(citations) == 0 {
		answer = &domain.Answer{
			Text:      domain.RefusalMessage,
			Citations: []domain.Citation{},
			Refused:   true,
			Reason:    "citations could not be verified",
		}
	}

	if err := uc.appendLog(ctx, userID, question, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (uc *AnswerUseCase) appendLog(ctx context.Context, userID, question string, answer *domain.Answer) error {
	entry := &domain.ChatLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Question:   question,
		Answer:     answer.Text,
		Citations:  answer.Citations,
		Confidence: answer.Confidence,
		Refused:    answer.Refused,
		CreatedAt:  time.Now().UTC(),
	}
	return uc.logs.Append(ctx, entry)
}
