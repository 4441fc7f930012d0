package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"privacyreport/backend/internal/api/handler"
	"privacyreport/backend/internal/config"
	"privacyreport/backend/internal/discord"
	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/reviewhub"
	"privacyreport/backend/internal/storage"
	"privacyreport/backend/internal/token"
	"privacyreport/backend/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateReport(reportedUserID, reportingUserID string, ts int64, anchorMessageID, channelID string) (string, error) {
	args := m.Called(reportedUserID, reportingUserID, ts, anchorMessageID, channelID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) FindReport(tok string) (*models.Report, error) {
	args := m.Called(tok)
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

func (m *MockStorage) FindReportByID(reportID string) (*models.Report, error) {
	args := m.Called(reportID)
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

func (m *MockStorage) FindSimilarReports(reportedUserID, reportingUserID string) ([]models.Report, error) {
	args := m.Called(reportedUserID, reportingUserID)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockStorage) MergeInto(sourceToken, targetReportID string) (string, error) {
	args := m.Called(sourceToken, targetReportID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) UpdateReportField(tok string, field storage.Field, value interface{}) error {
	args := m.Called(tok, field, value)
	return args.Error(0)
}

func (m *MockStorage) SubmitReport(reportID string) error {
	args := m.Called(reportID)
	return args.Error(0)
}

func (m *MockStorage) SetReportStatus(reportID, status string) error {
	args := m.Called(reportID, status)
	return args.Error(0)
}

func (m *MockStorage) ReportsByReportingUser(userID string, limit int) ([]models.Report, error) {
	args := m.Called(userID, limit)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockStorage) ReportsByStatus(status string) ([]models.Report, error) {
	args := m.Called(status)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockStorage) FindWindow(tok string) (*models.MessageWindow, error) {
	args := m.Called(tok)
	window, _ := args.Get(0).(*models.MessageWindow)
	return window, args.Error(1)
}

func (m *MockStorage) MessagesForWindow(windowID uint) ([]models.Message, error) {
	args := m.Called(windowID)
	messages, _ := args.Get(0).([]models.Message)
	return messages, args.Error(1)
}

func (m *MockStorage) InsertWindowMessages(windowID uint, messages []models.Message) error {
	args := m.Called(windowID, messages)
	return args.Error(0)
}

func (m *MockStorage) ApplyRedactions(windowID uint, edits []storage.RedactedMessage) error {
	args := m.Called(windowID, edits)
	return args.Error(0)
}

func (m *MockStorage) ClaimInteraction(interactionID string) (bool, error) {
	args := m.Called(interactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ReleaseInteraction(interactionID string) error {
	args := m.Called(interactionID)
	return args.Error(0)
}

func (m *MockStorage) CachedDMChannel(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) SaveDMChannel(userID, channelID string) error {
	args := m.Called(userID, channelID)
	return args.Error(0)
}

type MockDiscord struct {
	mock.Mock
}

func (m *MockDiscord) FetchMessages(channelID, anchorMessageID string, limit int, direction discord.Direction) ([]models.Message, error) {
	args := m.Called(channelID, anchorMessageID, limit, direction)
	messages, _ := args.Get(0).([]models.Message)
	return messages, args.Error(1)
}

func (m *MockDiscord) CreateDMChannel(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockDiscord) SendChannelMessage(channelID, content string, components []discord.Component) (string, error) {
	args := m.Called(channelID, content, components)
	return args.String(0), args.Error(1)
}

func (m *MockDiscord) DeleteInteractionMessage(interactionToken, messageID string) {
	m.Called(interactionToken, messageID)
}

type fixture struct {
	handler *handler.Handler
	storage *MockStorage
	discord *MockDiscord
	codec   *token.Codec
	router  *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ms := new(MockStorage)
	md := new(MockDiscord)
	codec := token.NewCodec("test-magic-key")
	hub := reviewhub.NewHub()
	go hub.Run()

	cfg := &config.Config{
		PortalBaseURL: "https://portal.example",
		JWTSecret:     "test-jwt-secret",
	}

	h := handler.NewHandler(ms, md, workflow.NewEngine(ms, workflow.FullSteps), hub, codec, cfg)

	r := gin.New()
	r.POST("/interactions", h.HandleInteractions)
	r.GET("/redact-reports", h.GetRedactReports)
	r.POST("/report-discord", h.PostReportDiscord)
	r.GET("/review-reports", h.ModeratorAuth(), h.GetReviewReports)

	return &fixture{handler: h, storage: ms, discord: md, codec: codec, router: r}
}

func (f *fixture) issueToken(messageID, reportID string) string {
	return f.codec.Issue(token.Context{MessageID: messageID, ReportID: reportID})
}

func freshReport(id string) *models.Report {
	return &models.Report{
		ID:                 id,
		ReportedUserID:     "U1",
		ReportingUserID:    "U2",
		ReportingTimestamp: time.Now().Unix(),
		Status:             models.StatusOpen,
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestGetRedactReports_InvalidToken(t *testing.T) {
	f := newFixture(t)
	f.storage.On("FindReport", "garbage").Return(nil, token.ErrInvalidToken)

	w := doJSON(t, f.router, http.MethodGet, "/redact-reports?token=garbage", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid magic token", errorBody(t, w))
}

func TestGetRedactReports_AlreadyRedacted(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	f.storage.On("FindReport", tok).Return(freshReport("report-1"), nil)
	f.storage.On("FindWindow", tok).Return(&models.MessageWindow{ReportID: "report-1", MessageID: "M100", IsRedacted: true}, nil)

	w := doJSON(t, f.router, http.MethodGet, "/redact-reports?token="+tok, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The message window has already been redacted", errorBody(t, w))
}

func TestGetRedactReports_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	stale := freshReport("report-1")
	stale.ReportingTimestamp = time.Now().Add(-16 * time.Minute).Unix()
	f.storage.On("FindReport", tok).Return(stale, nil)
	f.storage.On("FindWindow", tok).Return(&models.MessageWindow{ReportID: "report-1", MessageID: "M100"}, nil)

	w := doJSON(t, f.router, http.MethodGet, "/redact-reports?token="+tok, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The magic token has expired after 15 minutes", errorBody(t, w))
}

func TestGetRedactReports_FetchesWindowOnce(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	window := &models.MessageWindow{ReportID: "report-1", MessageID: "M100", ChannelID: "C1"}
	window.ID = 7

	fetched := []models.Message{{MessageID: "M99"}, {MessageID: "M100"}}

	f.storage.On("FindReport", tok).Return(freshReport("report-1"), nil)
	f.storage.On("FindWindow", tok).Return(window, nil)
	f.storage.On("MessagesForWindow", uint(7)).Return(nil, nil).Once()
	f.discord.On("FetchMessages", "C1", "M100", config.WindowFetchLimit, discord.DirectionAround).Return(fetched, nil).Once()
	f.storage.On("InsertWindowMessages", uint(7), fetched).Return(nil).Once()
	f.storage.On("MessagesForWindow", uint(7)).Return(fetched, nil)

	w := doJSON(t, f.router, http.MethodGet, "/redact-reports?token="+tok, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Messages []models.Message `json:"messages"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Messages, 2)

	// A second open reads the snapshot without touching Discord again.
	w = doJSON(t, f.router, http.MethodGet, "/redact-reports?token="+tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	f.discord.AssertNumberOfCalls(t, "FetchMessages", 1)
}

func TestPostReportDiscord_NoSimilarReportsSendsStartDM(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	window := &models.MessageWindow{ReportID: "report-1", MessageID: "M100", ChannelID: "C1"}
	window.ID = 7

	f.storage.On("FindReport", tok).Return(freshReport("report-1"), nil)
	f.storage.On("FindWindow", tok).Return(window, nil)
	f.storage.On("ApplyRedactions", uint(7), mock.Anything).Return(nil)
	f.storage.On("FindSimilarReports", "U1", "U2").Return(nil, nil)
	f.storage.On("CachedDMChannel", "U2").Return("", nil)
	f.discord.On("CreateDMChannel", "U2").Return("dm-1", nil)
	f.storage.On("SaveDMChannel", "U2", "dm-1").Return(nil)

	var sentComponents []discord.Component
	f.discord.On("SendChannelMessage", "dm-1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentComponents, _ = args.Get(2).([]discord.Component)
		}).
		Return("msg-1", nil)

	payload := `{"redactedMessages": [{"message_id": "M100", "content": "[redacted]", "attachments": []}]}`
	w := doJSON(t, f.router, http.MethodPost, "/report-discord?token="+tok, payload)
	assert.Equal(t, http.StatusOK, w.Code)

	customID := sentComponents[0].Components[0].CustomID
	step, gotTok, err := workflow.ParseCustomID(customID)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StepStartReport, step)
	assert.Equal(t, tok, gotTok)
}

func TestPostReportDiscord_SimilarReportsSendMergePrompt(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	window := &models.MessageWindow{ReportID: "report-1", MessageID: "M100", ChannelID: "C1"}
	window.ID = 7

	similars := []models.Report{{ID: "report-0", ReportingTimestamp: 1700000000, Status: models.StatusSubmitted}}

	f.storage.On("FindReport", tok).Return(freshReport("report-1"), nil)
	f.storage.On("FindWindow", tok).Return(window, nil)
	f.storage.On("ApplyRedactions", uint(7), mock.Anything).Return(nil)
	f.storage.On("FindSimilarReports", "U1", "U2").Return(similars, nil)
	f.storage.On("CachedDMChannel", "U2").Return("dm-1", nil)

	var sentComponents []discord.Component
	f.discord.On("SendChannelMessage", "dm-1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentComponents, _ = args.Get(2).([]discord.Component)
		}).
		Return("msg-1", nil)

	payload := `{"redactedMessages": []}`
	w := doJSON(t, f.router, http.MethodPost, "/report-discord?token="+tok, payload)
	assert.Equal(t, http.StatusOK, w.Code)

	selectComponent := sentComponents[0].Components[0]
	step, _, err := workflow.ParseCustomID(selectComponent.CustomID)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StepMergeReports, step)
	assert.Equal(t, "no", selectComponent.Options[0].Value)
	assert.Equal(t, "report-0", selectComponent.Options[1].Value)
}

func TestHandleInteractions_Ping(t *testing.T) {
	f := newFixture(t)
	f.storage.On("ClaimInteraction", mock.Anything).Return(true, nil)

	w := doJSON(t, f.router, http.MethodPost, "/interactions", `{"id": "i-1", "type": 1}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp discord.InteractionResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, discord.ResponsePong, resp.Type)
}

func TestHandleInteractions_ReplayDropped(t *testing.T) {
	f := newFixture(t)
	f.storage.On("ClaimInteraction", "i-1").Return(false, nil)

	payload := `{"id": "i-1", "type": 2, "data": {"name": "PrivacyReporting"}}`
	w := doJSON(t, f.router, http.MethodPost, "/interactions", payload)
	assert.Equal(t, http.StatusOK, w.Code)
	f.storage.AssertNotCalled(t, "CreateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleInteractions_ReportCommandCreatesReportAndLink(t *testing.T) {
	f := newFixture(t)
	f.storage.On("ClaimInteraction", "i-1").Return(true, nil)
	f.storage.On("CreateReport", "U1", "U2", mock.Anything, "M100", "C1").Return("report-1", nil)

	payload := `{
		"id": "i-1",
		"type": 2,
		"member": {"user": {"id": "U2", "username": "reporter"}},
		"data": {
			"name": "PrivacyReporting",
			"resolved": {"messages": {"M100": {"id": "M100", "channel_id": "C1", "author": {"id": "U1", "username": "reported"}}}}
		}
	}`
	w := doJSON(t, f.router, http.MethodPost, "/interactions", payload)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp discord.InteractionResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, discord.ResponseChannelMessage, resp.Type)

	link := resp.Data.Components[0].Components[0].URL
	assert.True(t, strings.HasPrefix(link, "https://portal.example?token="), link)

	ctx, err := f.codec.Resolve(strings.TrimPrefix(link, "https://portal.example?token="))
	assert.NoError(t, err)
	assert.Equal(t, "M100", ctx.MessageID)
	assert.Equal(t, "report-1", ctx.ReportID)
}

func TestHandleInteractions_ComponentStepBeforeRedaction(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	f.storage.On("ClaimInteraction", "i-2").Return(true, nil)
	f.storage.On("FindWindow", tok).Return(&models.MessageWindow{ReportID: "report-1", IsRedacted: false}, nil)

	payload := `{"id": "i-2", "type": 3, "data": {"custom_id": "start-report.` + tok + `"}}`
	w := doJSON(t, f.router, http.MethodPost, "/interactions", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The message window has not been redacted yet", errorBody(t, w))

	// Guard violations are deterministic; a retried delivery stays dropped.
	f.storage.AssertNotCalled(t, "ReleaseInteraction", mock.Anything)
}

func TestHandleInteractions_MergeTargetGoneRejected(t *testing.T) {
	f := newFixture(t)
	tok := f.issueToken("M100", "report-1")
	f.storage.On("ClaimInteraction", "i-4").Return(true, nil)
	f.storage.On("FindWindow", tok).Return(&models.MessageWindow{ReportID: "report-1", IsRedacted: true}, nil)
	f.storage.On("MergeInto", tok, "report-9").Return("", storage.ErrMergeTargetUnavailable)

	payload := `{"id": "i-4", "type": 3, "data": {"custom_id": "merge-reports.` + tok + `", "values": ["report-9"]}}`
	w := doJSON(t, f.router, http.MethodPost, "/interactions", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The selected report can no longer be merged", errorBody(t, w))
}

func TestHandleInteractions_TransientFailureReleasesClaim(t *testing.T) {
	f := newFixture(t)
	f.storage.On("ClaimInteraction", "i-5").Return(true, nil)
	f.storage.On("CreateReport", "U1", "U2", mock.Anything, "M100", "C1").Return("", assert.AnError)
	f.storage.On("ReleaseInteraction", "i-5").Return(nil)

	payload := `{
		"id": "i-5",
		"type": 2,
		"member": {"user": {"id": "U2"}},
		"data": {
			"name": "PrivacyReporting",
			"resolved": {"messages": {"M100": {"id": "M100", "channel_id": "C1", "author": {"id": "U1"}}}}
		}
	}`
	w := doJSON(t, f.router, http.MethodPost, "/interactions", payload)
	assert.Equal(t, http.StatusOK, w.Code)

	// The claim is released so the platform's retry gets processed.
	f.storage.AssertCalled(t, "ReleaseInteraction", "i-5")
}

func TestHandleInteractions_MyReportsCapsLimit(t *testing.T) {
	f := newFixture(t)
	f.storage.On("ClaimInteraction", "i-3").Return(true, nil)
	f.storage.On("ReportsByReportingUser", "U2", config.MyReportsMax).Return([]models.Report{
		{ID: "report-1", ReportedUserID: "U1", Status: models.StatusSubmitted, ForWhom: pq.StringArray{"Myself"}},
	}, nil)

	payload := `{
		"id": "i-3",
		"type": 2,
		"member": {"user": {"id": "U2"}},
		"data": {"name": "myreports", "options": [{"name": "number", "value": 50}]}
	}`
	w := doJSON(t, f.router, http.MethodPost, "/interactions", payload)
	assert.Equal(t, http.StatusOK, w.Code)
	f.storage.AssertCalled(t, "ReportsByReportingUser", "U2", config.MyReportsMax)
}

func TestReviewReports_RequiresModeratorJWT(t *testing.T) {
	f := newFixture(t)

	w := doJSON(t, f.router, http.MethodGet, "/review-reports", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewReports_ListsSubmitted(t *testing.T) {
	f := newFixture(t)
	f.storage.On("ReportsByStatus", models.StatusSubmitted).Return([]models.Report{{ID: "report-1", Status: models.StatusSubmitted}}, nil)

	jwt, err := handler.GenerateModeratorJWT("test-jwt-secret", "mod-1")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/review-reports", nil)
	req.Header.Set("Authorization", "Bearer "+jwt)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Reports []models.Report `json:"reports"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Reports, 1)
}
