package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/pkg/serverutils"
	internalWS "chat-relay-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	reply   string
	err     error
	history []*dto.ChatMessageResponse
	calls   []*dto.ProviderCallResponse

	gotChatId uuid.UUID
	gotPrompt string
	gotStatus string
}

func (f *fakeChatService) SendPrompt(ctx context.Context, chatId uuid.UUID, prompt string) (string, error) {
	f.gotChatId = chatId
	f.gotPrompt = prompt
	return f.reply, f.err
}

func (f *fakeChatService) GetHistory(ctx context.Context, chatId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	f.gotChatId = chatId
	return f.history, f.err
}

func (f *fakeChatService) ListProviderCalls(ctx context.Context, chatId uuid.UUID, status string) ([]*dto.ProviderCallResponse, error) {
	f.gotChatId = chatId
	f.gotStatus = status
	return f.calls, f.err
}

func newTestApp(svc *fakeChatService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(nil)})
	NewChatController(svc, internalWS.NewHub(nil, nil)).RegisterRoutes(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string, http.Header) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func postChat(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSendPrompt_ReturnsReplyText(t *testing.T) {
	svc := &fakeChatService{reply: "hello"}
	chatId := uuid.New()

	code, body, header := do(t, newTestApp(svc), postChat(`{"prompt":"hi","chatId":"`+chatId.String()+`"}`))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hello", body)
	assert.Contains(t, header.Get("Content-Type"), "text/plain")
	assert.Equal(t, chatId, svc.gotChatId)
	assert.Equal(t, "hi", svc.gotPrompt)
}

func TestSendPrompt_DiagnosticIsStillOK(t *testing.T) {
	svc := &fakeChatService{reply: "Provider returned no response."}

	code, body, _ := do(t, newTestApp(svc), postChat(`{"prompt":"hi","chatId":"`+uuid.NewString()+`"}`))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Provider returned no response.", body)
}

func TestSendPrompt_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"prompt":`, want: "Error: invalid request body"},
		{name: "missing chatId", body: `{"prompt":"hi"}`, want: "Error: chatId is required"},
		{name: "invalid chatId", body: `{"prompt":"hi","chatId":"abc"}`, want: "Error: chatId must be a valid UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChatService{}
			code, body, _ := do(t, newTestApp(svc), postChat(tt.body))

			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, body)
			assert.Empty(t, svc.gotPrompt)
		})
	}
}

func TestSendPrompt_EmptyPromptIsForwarded(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty prompt", body: `{"prompt":"","chatId":"%s"}`},
		{name: "absent prompt", body: `{"chatId":"%s"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeChatService{reply: "ok"}
			chatId := uuid.New()

			code, body, _ := do(t, newTestApp(svc), postChat(fmt.Sprintf(tt.body, chatId)))

			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "ok", body)
			assert.Equal(t, chatId, svc.gotChatId)
			assert.Equal(t, "", svc.gotPrompt)
		})
	}
}

func TestSendPrompt_ServiceError(t *testing.T) {
	svc := &fakeChatService{err: errors.New("failed to store user message: disk full")}

	code, body, _ := do(t, newTestApp(svc), postChat(`{"prompt":"hi","chatId":"`+uuid.NewString()+`"}`))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Error: failed to store user message: disk full", body)
}

func TestGetHistory(t *testing.T) {
	chatId := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &fakeChatService{history: []*dto.ChatMessageResponse{
		{Id: 1, ChatId: chatId, Role: "user", Content: "hi", Timestamp: at},
		{Id: 2, ChatId: chatId, Role: "assistant", Content: "hello", Timestamp: at.Add(time.Second)},
	}}

	code, body, header := do(t, newTestApp(svc), httptest.NewRequest(http.MethodGet, "/api/chat/"+chatId.String(), nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, header.Get("Content-Type"), "application/json")
	assert.Equal(t, chatId, svc.gotChatId)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(1), got[0]["id"])
	assert.Equal(t, chatId.String(), got[0]["chatId"])
	assert.Equal(t, "user", got[0]["role"])
	assert.Equal(t, "2024-01-02T03:04:05Z", got[0]["timestamp"])
	assert.Equal(t, "assistant", got[1]["role"])
}

func TestGetHistory_UnknownChatIsEmptyArray(t *testing.T) {
	code, body, _ := do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", body)
}

func TestGetHistory_Errors(t *testing.T) {
	code, body, _ := do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Error: invalid chatId", body)

	svc := &fakeChatService{err: errors.New("failed to load chat history: timeout")}
	code, body, _ = do(t, newTestApp(svc), httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Error: failed to load chat history: timeout", body)
}

func TestListProviderCalls(t *testing.T) {
	chatId := uuid.New()
	svc := &fakeChatService{calls: []*dto.ProviderCallResponse{
		{Id: uuid.New(), ChatId: chatId, Model: "gpt-4o", Status: "error", Error: "timeout", LatencyMs: 60000},
	}}

	code, body, header := do(t, newTestApp(svc), httptest.NewRequest(http.MethodGet, "/api/chat/"+chatId.String()+"/calls?status=error", nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, header.Get("Content-Type"), "application/json")
	assert.Equal(t, chatId, svc.gotChatId)
	assert.Equal(t, "error", svc.gotStatus)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "timeout", got[0]["error"])
	assert.Equal(t, float64(60000), got[0]["latencyMs"])
}

func TestListProviderCalls_EmptyAndBadInput(t *testing.T) {
	code, body, _ := do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString()+"/calls", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]", body)

	code, body, _ = do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString()+"/calls?status=weird", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Error: invalid status", body)

	code, _, _ = do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/nope/calls", nil))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWatch_RequiresUpgrade(t *testing.T) {
	code, body, _ := do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString()+"/ws", nil))
	assert.Equal(t, http.StatusUpgradeRequired, code)
	assert.Equal(t, "Error: Upgrade Required", body)

	code, body, _ = do(t, newTestApp(&fakeChatService{}), httptest.NewRequest(http.MethodGet, "/api/chat/nope/ws", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Error: invalid chatId", body)
}

func TestWatch_DisabledWithoutHub(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(nil)})
	NewChatController(&fakeChatService{}, nil).RegisterRoutes(app.Group("/api"))

	code, _, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/chat/"+uuid.NewString()+"/ws", nil))
	assert.Equal(t, http.StatusNotFound, code)
}
