package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"editais-platform/internal/logger"
	"editais-platform/internal/vectorstore"
	"editais-platform/models"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrForbidden signals that the conversation belongs to another user.
var ErrForbidden = errors.New("conversation belongs to another user")

// fallbackAnswer is returned to the user when response generation
// fails; the request itself still succeeds.
const fallbackAnswer = "Desculpe, ocorreu um erro ao processar sua pergunta. Por favor, tente novamente."

const systemPromptTemplate = `Você é um assistente especializado em editais de fomento à pesquisa e inovação no Brasil.
Sua função é ajudar pesquisadores e empresas a entenderem editais de agências como CNPq, FAPESQ, FINEP, CONFAP, CAPES, etc.

INSTRUÇÕES CRÍTICAS - LEIA ANTES DE RESPONDER:

1. LEIA TODOS OS DOCUMENTOS ABAIXO, do primeiro ao último, completamente
2. ATENÇÃO AOS SCORES: documentos com score MENOR ou NEGATIVO são os MAIS RELEVANTES
   - Score negativo ou próximo de zero = altíssima relevância
   - Score > 1.0 = menor relevância
3. PRIORIZE os documentos marcados como ALTÍSSIMA RELEVÂNCIA
4. Se encontrar a informação, cite EXATAMENTE como aparece no documento
5. CRONOGRAMAS/DATAS: procure por seções com "CRONOGRAMA", "Etapas", "Data", tabelas
6. VALORES: procure por "R$", "reais", "valor", tabelas de financiamento
7. PRAZOS: procure por "submissão", "inscrição", "até", períodos (XX/XX/XXXX a XX/XX/XXXX)

IMPORTANTE:
- NÃO ignore documentos com score negativo, esses são os melhores
- SEMPRE cite o documento que contém a informação
- Se realmente não encontrar, diga claramente

DOCUMENTOS FORNECIDOS (ORDENADOS POR RELEVÂNCIA):
%s

LEMBRE-SE: o primeiro documento geralmente contém a resposta. Responda apenas com base nos documentos fornecidos.`

type retriever interface {
	Search(ctx context.Context, query string, k int, where map[string]interface{}) ([]vectorstore.SearchResult, error)
}

type chatCompleter interface {
	ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error)
}

type conversationRepo interface {
	Create(ctx context.Context, userID string, editalUUID *string) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessages(ctx context.Context, id string, messages []models.ChatMessage, title string) error
	Delete(ctx context.Context, id string) error
}

// Service answers questions about editais via retrieval-augmented
// generation: vector search over indexed chunks plus an OpenAI chat
// completion grounded on the retrieved context.
type Service struct {
	llm           chatCompleter
	index         retriever
	conversations conversationRepo

	temperature       float32
	topK              int
	maxContextLength  int
	distanceThreshold float64
}

func NewService(llm chatCompleter, index retriever, conversations conversationRepo, temperature float64, topK, maxContextLength int, distanceThreshold float64) *Service {
	if topK < 1 {
		topK = 5
	}
	if maxContextLength < 1 {
		maxContextLength = 4000
	}
	return &Service{
		llm:               llm,
		index:             index,
		conversations:     conversations,
		temperature:       float32(temperature),
		topK:              topK,
		maxContextLength:  maxContextLength,
		distanceThreshold: distanceThreshold,
	}
}

func (s *Service) CreateConversation(ctx context.Context, userID string, editalUUID *string) (*models.Conversation, error) {
	return s.conversations.Create(ctx, userID, editalUUID)
}

// GetConversation returns the conversation if it belongs to the user.
func (s *Service) GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID)
}

func (s *Service) DeleteConversation(ctx context.Context, id, userID string) error {
	if _, err := s.GetConversation(ctx, id, userID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, id)
}

// SendMessage runs one RAG turn: expand the query, retrieve chunks,
// generate an answer grounded on them and persist both messages.
// A non-empty editalUUID narrows retrieval for this message only,
// taking precedence over the conversation-level pin.
func (s *Service) SendMessage(ctx context.Context, conversationID, userID, message, editalUUID string) (*models.ChatResponse, error) {
	ctx, span := otel.Tracer("chat").Start(ctx, "chat.send_message")
	defer span.End()

	conv, err := s.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	expanded := ExpandQuery(message)
	logger.Debug("Query expanded", "original", message, "expanded", expanded)

	if editalUUID == "" && conv.EditalUUID != nil {
		editalUUID = *conv.EditalUUID
	}
	var where map[string]interface{}
	if editalUUID != "" {
		where = map[string]interface{}{"edital_uuid": editalUUID}
	}

	// Over-fetch for recall, then keep only chunks under the distance
	// threshold, capped at topK. Negative distances are near-perfect
	// matches and always pass.
	results, err := s.index.Search(ctx, expanded, s.topK*4, where)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var kept []vectorstore.SearchResult
	for _, r := range results {
		if r.Distance < s.distanceThreshold {
			kept = append(kept, r)
		}
	}
	if len(kept) > s.topK {
		kept = kept[:s.topK]
	}
	span.SetAttributes(
		attribute.Int("chat.chunks_retrieved", len(results)),
		attribute.Int("chat.chunks_used", len(kept)),
	)

	sources := make([]string, 0, len(kept))
	for _, r := range kept {
		sources = append(sources, r.ID)
	}

	answer := s.generate(ctx, message, s.buildContext(kept), conv.Messages)

	now := time.Now().UTC()
	userMsg := models.ChatMessage{Role: "user", Content: message, Timestamp: now}
	assistantMsg := models.ChatMessage{Role: "assistant", Content: answer, Sources: sources, Timestamp: now}

	// The title is derived from the first question, once.
	title := ""
	if len(conv.Messages) == 0 {
		conv.Messages = []models.ChatMessage{userMsg}
		title = conv.TitleFromFirstMessage()
	}

	if err := s.conversations.AppendMessages(ctx, conversationID, []models.ChatMessage{userMsg, assistantMsg}, title); err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Message:    answer,
		Sources:    sources,
		ChunksUsed: len(kept),
	}, nil
}

// buildContext renders the retrieved chunks as numbered documents with
// their similarity scores, capped at the configured length.
func (s *Service) buildContext(chunks []vectorstore.SearchResult) string {
	if len(chunks) == 0 {
		return "Nenhum documento relevante encontrado na base de conhecimento."
	}

	separator := strings.Repeat("=", 70)
	var b strings.Builder
	b.WriteString("DOCUMENTOS RELEVANTES (ordenados por relevância):\n")

	for i, chunk := range chunks {
		name := "Edital"
		if v, ok := chunk.Metadata["edital_name"].(string); ok && v != "" {
			name = v
		}

		fmt.Fprintf(&b, "\n%s\n", separator)
		fmt.Fprintf(&b, "DOCUMENTO %d - %s\n", i+1, relevanceLabel(chunk.Distance))
		fmt.Fprintf(&b, "%s\n", separator)
		fmt.Fprintf(&b, "Edital: %s\n", name)
		fmt.Fprintf(&b, "Trecho: Parte %s de %s\n",
			metadataNumber(chunk.Metadata, "chunk_index"),
			metadataNumber(chunk.Metadata, "total_chunks"))
		fmt.Fprintf(&b, "Score de Similaridade: %.4f (quanto MENOR, mais relevante)\n", chunk.Distance)
		fmt.Fprintf(&b, "\nCONTEÚDO COMPLETO DO TRECHO:\n%s\n", strings.Join(strings.Fields(chunk.Document), " "))
		fmt.Fprintf(&b, "--- FIM DO DOCUMENTO %d ---\n", i+1)
	}

	context := b.String()
	if len([]rune(context)) > s.maxContextLength {
		context = string([]rune(context)[:s.maxContextLength]) + "\n\n[...contexto truncado por limite de tokens...]"
	}
	return context
}

func (s *Service) generate(ctx context.Context, question, context string, history []models.ChatMessage) string {
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, context),
	}}

	// Last 10 turns of history keep follow-up questions coherent
	// without blowing the token budget.
	start := 0
	if len(history) > 10 {
		start = len(history) - 10
	}
	for _, m := range history[start:] {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	answer, err := s.llm.ChatCompletion(ctx, messages, s.temperature, 2000)
	if err != nil {
		logger.Error("Chat completion failed", "error", err)
		return fallbackAnswer
	}
	return strings.TrimSpace(answer)
}

func relevanceLabel(distance float64) string {
	switch {
	case distance < 0.3:
		return "ALTÍSSIMA RELEVÂNCIA"
	case distance < 0.7:
		return "MUITO RELEVANTE"
	case distance < 1.2:
		return "RELEVANTE"
	default:
		return "POSSIVELMENTE RELEVANTE"
	}
}

func metadataNumber(metadata map[string]interface{}, key string) string {
	switch v := metadata[key].(type) {
	case float64:
		return fmt.Sprintf("%d", int(v))
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return "?"
	}
}
