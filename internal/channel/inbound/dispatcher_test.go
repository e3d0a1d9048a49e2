package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	openai "github.com/sashabaranov/go-openai"

	"github.com/santiyeai/sitechief/internal/audit"
	"github.com/santiyeai/sitechief/internal/channel"
	"github.com/santiyeai/sitechief/internal/chat"
	"github.com/santiyeai/sitechief/internal/conversation/flow"
	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/db/sqlc"
	"github.com/santiyeai/sitechief/internal/media"
	"github.com/santiyeai/sitechief/internal/tenants"
)

const testTenantID = "3b241101-e2bb-4255-8caf-4136c566a962"

type sentMessage struct {
	channel channel.ChannelType
	target  string
	body    string
}

type fakeOutbound struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeOutbound) Send(_ context.Context, channelType channel.ChannelType, target, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channel: channelType, target: target, body: body})
	return f.err
}

type fakeAudit struct {
	entries []audit.Entry
}

func (f *fakeAudit) Record(_ context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeChat struct {
	calls  int
	inputs []flow.Input
	result chat.Result
}

func (f *fakeChat) Run(_ context.Context, in flow.Input) chat.Result {
	f.calls++
	f.inputs = append(f.inputs, in)
	return f.result
}

type fakeMedia struct {
	text  string
	err   error
	calls []media.Kind
}

func (f *fakeMedia) Convert(_ context.Context, _ media.Reference, kind media.Kind, _ string) (string, error) {
	f.calls = append(f.calls, kind)
	return f.text, f.err
}

// fakeTenantQueries backs a real tenants.Service.
type fakeTenantQueries struct {
	companies map[string]sqlc.Company
	profiles  map[string]sqlc.Profile
	created   []sqlc.CreateProfileParams
}

func newFakeTenantQueries() *fakeTenantQueries {
	id, _ := db.ParseUUID(testTenantID)
	return &fakeTenantQueries{
		companies: map[string]sqlc.Company{"#ABC": {ID: id, Name: "ABC İnşaat", Code: "#ABC"}},
		profiles:  map[string]sqlc.Profile{},
	}
}

func (f *fakeTenantQueries) GetCompanyByCode(_ context.Context, code string) (sqlc.Company, error) {
	if c, ok := f.companies[code]; ok {
		return c, nil
	}
	return sqlc.Company{}, pgx.ErrNoRows
}

func (f *fakeTenantQueries) GetCompanyByID(_ context.Context, id pgtype.UUID) (sqlc.Company, error) {
	for _, c := range f.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return sqlc.Company{}, pgx.ErrNoRows
}

func (f *fakeTenantQueries) ListCompanies(context.Context) ([]sqlc.Company, error) {
	out := make([]sqlc.Company, 0, len(f.companies))
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeTenantQueries) GetProfileByPhone(_ context.Context, phone pgtype.Text) (sqlc.Profile, error) {
	if p, ok := f.profiles[phone.String]; ok {
		return p, nil
	}
	return sqlc.Profile{}, pgx.ErrNoRows
}

func (f *fakeTenantQueries) GetProfileByUserID(context.Context, pgtype.UUID) (sqlc.Profile, error) {
	return sqlc.Profile{}, pgx.ErrNoRows
}

func (f *fakeTenantQueries) CreateProfile(_ context.Context, arg sqlc.CreateProfileParams) (sqlc.Profile, error) {
	f.created = append(f.created, arg)
	row := sqlc.Profile{Phone: arg.Phone, CompanyID: arg.CompanyID, Role: arg.Role, IsApproved: arg.IsApproved}
	f.profiles[arg.Phone.String] = row
	return row, nil
}

func (f *fakeTenantQueries) addProfile(phone string, approved bool) {
	id, _ := db.ParseUUID(testTenantID)
	f.profiles[phone] = sqlc.Profile{Phone: db.TextValue(phone), CompanyID: id, Role: tenants.RoleWorker, IsApproved: approved}
}

type harness struct {
	dispatcher *Dispatcher
	outbound   *fakeOutbound
	audit      *fakeAudit
	chat       *fakeChat
	media      *fakeMedia
	queries    *fakeTenantQueries
}

func newHarness(cfg Config) *harness {
	h := &harness{
		outbound: &fakeOutbound{},
		audit:    &fakeAudit{},
		chat:     &fakeChat{result: chat.Result{Insight: "Tamam usta"}},
		media:    &fakeMedia{text: "iskele sağlam"},
		queries:  newFakeTenantQueries(),
	}
	if cfg.TriggerKeywords == nil {
		cfg.TriggerKeywords = []string{"dayı", "şef"}
	}
	h.dispatcher = NewDispatcher(nil, cfg, Deps{
		Tenants:  tenants.NewService(nil, h.queries),
		Media:    h.media,
		Chat:     h.chat,
		Audit:    h.audit,
		Outbound: h.outbound,
	})
	return h
}

func textEvent(from, body string) channel.Event {
	return channel.Event{
		Channel: "whatsapp",
		Message: &channel.InboundMessage{
			Channel:      "whatsapp",
			Message:      channel.Message{ID: "m1", Type: "text", Text: body},
			Sender:       channel.Identity{SubjectID: from},
			Conversation: channel.Conversation{ID: from, Type: channel.ConversationDirect},
		},
		Raw: json.RawMessage(`{"entry":[]}`),
	}
}

func groupEvent(from, body string) channel.Event {
	event := textEvent(from, body)
	event.Message.Conversation = channel.Conversation{ID: "group-1", Type: channel.ConversationGroup}
	return event
}

func mediaEvent(from, messageType string, ref media.Reference) channel.Event {
	event := textEvent(from, "")
	event.Message.Message.Type = messageType
	event.Message.Message.Media = &ref
	return event
}

func TestVerify(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil, Config{VerifyToken: "santiye_secret"}, Deps{})
	cases := []struct {
		name    string
		mode    string
		token   string
		wantErr bool
	}{
		{name: "match", mode: "subscribe", token: "santiye_secret"},
		{name: "wrong token", mode: "subscribe", token: "nope", wantErr: true},
		{name: "wrong mode", mode: "unsubscribe", token: "santiye_secret", wantErr: true},
		{name: "empty", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := d.Verify(tc.mode, tc.token, "12345")
			if tc.wantErr {
				if !errors.Is(err, ErrVerificationFailed) {
					t.Fatalf("expected ErrVerificationFailed, got %v", err)
				}
				return
			}
			if err != nil || got != "12345" {
				t.Fatalf("unexpected result %q, %v", got, err)
			}
		})
	}
}

func TestVerifyRejectsWhenSecretUnset(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil, Config{}, Deps{})
	if _, err := d.Verify("subscribe", "", "1"); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestDispatchIgnoresStatusUpdates(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	if got := h.dispatcher.Dispatch(context.Background(), channel.Event{Channel: "whatsapp"}); got != StatusIgnored {
		t.Fatalf("status = %q", got)
	}
	if len(h.outbound.sent) != 0 {
		t.Fatalf("unexpected sends: %+v", h.outbound.sent)
	}
}

func TestGroupWithoutTriggerIsLoggedOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.queries.addProfile("111", true)

	got := h.dispatcher.Dispatch(context.Background(), groupEvent("111", "yarın beton dökülecek"))
	if got != StatusLoggedGroup {
		t.Fatalf("status = %q", got)
	}
	if len(h.audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(h.audit.entries))
	}
	if h.audit.entries[0].TenantID != testTenantID || h.audit.entries[0].GroupID != "group-1" {
		t.Fatalf("unexpected audit entry: %+v", h.audit.entries[0])
	}
	if len(h.outbound.sent) != 0 || h.chat.calls != 0 {
		t.Fatalf("group chatter must stay silent")
	}
}

func TestGroupCommandRepliesOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	got := h.dispatcher.Dispatch(context.Background(), groupEvent("222", "!ping"))
	if got != StatusProcessed {
		t.Fatalf("status = %q", got)
	}
	if len(h.audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(h.audit.entries))
	}
	if h.audit.entries[0].TenantID != "" {
		t.Fatalf("unknown sender must not be tagged: %+v", h.audit.entries[0])
	}
	if len(h.outbound.sent) != 1 {
		t.Fatalf("expected exactly one send, got %+v", h.outbound.sent)
	}
	if h.outbound.sent[0].target != "group-1" || h.outbound.sent[0].body != "Tamam usta" {
		t.Fatalf("unexpected send: %+v", h.outbound.sent[0])
	}
}

func TestImageSendsAckAndResultWithoutChat(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	got := h.dispatcher.Dispatch(context.Background(), mediaEvent("111", "image", media.Reference{ID: "img-1", Mime: "image/jpeg"}))
	if got != StatusProcessed {
		t.Fatalf("status = %q", got)
	}
	if len(h.outbound.sent) != 2 {
		t.Fatalf("expected two sends, got %+v", h.outbound.sent)
	}
	if h.outbound.sent[0].body != ImageAckText {
		t.Fatalf("first send should be the ack: %q", h.outbound.sent[0].body)
	}
	if h.outbound.sent[1].body != ImageResultPrefix+"iskele sağlam" {
		t.Fatalf("unexpected result: %q", h.outbound.sent[1].body)
	}
	if h.chat.calls != 0 {
		t.Fatalf("image must bypass the chat path")
	}
}

func TestSpreadsheetDeliveredVerbatim(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.media.text = "✅ Başarılı! 2 kalem eklendi. Toplam Bütçe: 100.00 TL."
	ref := media.Reference{ID: "doc-1", Mime: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Filename: "butce.xlsx"}

	got := h.dispatcher.Dispatch(context.Background(), mediaEvent("111", "document", ref))
	if got != StatusProcessed || len(h.outbound.sent) != 2 {
		t.Fatalf("status = %q sends = %+v", got, h.outbound.sent)
	}
	if h.outbound.sent[0].body != SheetAckText || h.outbound.sent[1].body != h.media.text {
		t.Fatalf("unexpected sends: %+v", h.outbound.sent)
	}
}

func TestMediaDownloadFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.media.err = media.ErrDownloadFailed

	got := h.dispatcher.Dispatch(context.Background(), mediaEvent("111", "image", media.Reference{ID: "img-1"}))
	if got != StatusFailedDownload {
		t.Fatalf("status = %q", got)
	}
	if len(h.outbound.sent) != 2 || h.outbound.sent[1].body != DownloadFailedText {
		t.Fatalf("unexpected sends: %+v", h.outbound.sent)
	}
}

func TestAudioReentersChatWithTranscript(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.queries.addProfile("111", true)
	h.media.text = "çimento bitti"

	got := h.dispatcher.Dispatch(context.Background(), mediaEvent("111", "audio", media.Reference{ID: "a-1", Mime: "audio/ogg"}))
	if got != StatusProcessed {
		t.Fatalf("status = %q", got)
	}
	if h.chat.calls != 1 {
		t.Fatalf("expected one chat call, got %d", h.chat.calls)
	}
	in := h.chat.inputs[0]
	if in.TenantID != testTenantID || in.Turns[0].Content != AudioTranscriptTag+"çimento bitti" {
		t.Fatalf("unexpected chat input: %+v", in)
	}
	if len(h.outbound.sent) != 2 || h.outbound.sent[0].body != AudioAckText {
		t.Fatalf("unexpected sends: %+v", h.outbound.sent)
	}
}

func groupMediaEvent(from, messageType string, ref media.Reference) channel.Event {
	event := mediaEvent(from, messageType, ref)
	event.Message.Conversation = channel.Conversation{ID: "group-1", Type: channel.ConversationGroup}
	return event
}

func TestGroupAudio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		transcript string
		err        error
		wantStatus Status
		wantSends  []string
		wantChat   int
	}{
		{
			name:       "untriggered stays silent",
			transcript: "çimento bitti",
			wantStatus: StatusLoggedGroup,
		},
		{
			name:       "keyword in transcript replies once",
			transcript: "Dayı çimento bitti",
			wantStatus: StatusProcessed,
			wantSends:  []string{"Tamam usta"},
			wantChat:   1,
		},
		{
			name:       "command in transcript replies once",
			transcript: "!durum",
			wantStatus: StatusProcessed,
			wantSends:  []string{"Tamam usta"},
			wantChat:   1,
		},
		{
			name:       "download failure stays silent",
			err:        media.ErrDownloadFailed,
			wantStatus: StatusFailedDownload,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(Config{})
			h.queries.addProfile("111", true)
			h.media.text = tc.transcript
			h.media.err = tc.err

			got := h.dispatcher.Dispatch(context.Background(), groupMediaEvent("111", "audio", media.Reference{ID: "a-1", Mime: "audio/ogg"}))
			if got != tc.wantStatus {
				t.Fatalf("status = %q, want %q", got, tc.wantStatus)
			}
			bodies := make([]string, 0, len(h.outbound.sent))
			for _, m := range h.outbound.sent {
				bodies = append(bodies, m.body)
			}
			if strings.Join(bodies, "|") != strings.Join(tc.wantSends, "|") {
				t.Fatalf("sends = %q, want %q", bodies, tc.wantSends)
			}
			if h.chat.calls != tc.wantChat {
				t.Fatalf("chat calls = %d, want %d", h.chat.calls, tc.wantChat)
			}
			if tc.wantChat > 0 && h.chat.inputs[0].Turns[0].Content != AudioTranscriptTag+tc.transcript {
				t.Fatalf("unexpected chat input: %+v", h.chat.inputs[0])
			}
			if len(h.audit.entries) != 1 {
				t.Fatalf("group audio must be audited once, got %d", len(h.audit.entries))
			}
		})
	}
}

func TestUnsupportedDocument(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	ref := media.Reference{ID: "d", Mime: "application/pdf", Filename: "plan.pdf"}
	if got := h.dispatcher.Dispatch(context.Background(), mediaEvent("111", "document", ref)); got != StatusIgnored {
		t.Fatalf("status = %q", got)
	}
	if len(h.outbound.sent) != 1 || h.outbound.sent[0].body != UnsupportedText {
		t.Fatalf("direct chat should get a hint: %+v", h.outbound.sent)
	}

	g := newHarness(Config{})
	event := mediaEvent("111", "document", ref)
	event.Message.Conversation = channel.Conversation{ID: "group-1", Type: channel.ConversationGroup}
	if got := g.dispatcher.Dispatch(context.Background(), event); got != StatusIgnored {
		t.Fatalf("status = %q", got)
	}
	if len(g.outbound.sent) != 0 {
		t.Fatalf("group should stay silent: %+v", g.outbound.sent)
	}
	if len(g.media.calls) != 0 {
		t.Fatalf("unsupported media must not be downloaded")
	}
}

func TestOnboardingWithValidCode(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	got := h.dispatcher.Dispatch(context.Background(), textEvent("111", "#ABC"))
	if got != StatusProcessed {
		t.Fatalf("status = %q", got)
	}
	if len(h.queries.created) != 1 {
		t.Fatalf("expected exactly one profile, got %d", len(h.queries.created))
	}
	created := h.queries.created[0]
	if created.IsApproved || created.Role != tenants.RoleWorker || created.Phone.String != "111" {
		t.Fatalf("unexpected profile: %+v", created)
	}
	if len(h.outbound.sent) != 1 || !strings.Contains(h.outbound.sent[0].body, "ABC İnşaat") {
		t.Fatalf("reply must name the tenant: %+v", h.outbound.sent)
	}
}

func TestOnboardingWithInvalidCode(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.dispatcher.Dispatch(context.Background(), textEvent("111", "#NOPE"))
	if len(h.queries.created) != 0 {
		t.Fatalf("invalid code must not create a profile")
	}
	if len(h.outbound.sent) != 1 || h.outbound.sent[0].body != InvalidCodeText {
		t.Fatalf("unexpected reply: %+v", h.outbound.sent)
	}
}

func TestUnknownSenderGetsCodePrompt(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.dispatcher.Dispatch(context.Background(), textEvent("111", "merhaba"))
	if len(h.outbound.sent) != 1 || h.outbound.sent[0].body != CodePromptText {
		t.Fatalf("unexpected reply: %+v", h.outbound.sent)
	}
	if h.chat.calls != 0 {
		t.Fatalf("unknown sender must not reach chat")
	}
}

func TestApprovalGate(t *testing.T) {
	t.Parallel()

	gated := newHarness(Config{RequireApproval: true})
	gated.queries.addProfile("111", false)
	gated.dispatcher.Dispatch(context.Background(), textEvent("111", "durum ne"))
	if gated.chat.calls != 0 || len(gated.outbound.sent) != 1 || gated.outbound.sent[0].body != NotApprovedText {
		t.Fatalf("unapproved profile must be gated: %+v", gated.outbound.sent)
	}

	open := newHarness(Config{})
	open.queries.addProfile("111", false)
	open.dispatcher.Dispatch(context.Background(), textEvent("111", "durum ne"))
	if open.chat.calls != 1 {
		t.Fatalf("gate disabled should allow chat")
	}
}

type failingCompleter struct{}

func (failingCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, errors.New("connection refused")
}

func TestCompletionFailureRepliesFallback(t *testing.T) {
	t.Parallel()

	queries := newFakeTenantQueries()
	queries.addProfile("111", true)
	out := &fakeOutbound{}
	pipeline := flow.NewPipeline(nil, nil, chat.NewInvoker(nil, failingCompleter{}, chat.InvokerConfig{}), nil)
	d := NewDispatcher(nil, Config{}, Deps{
		Tenants:  tenants.NewService(nil, queries),
		Chat:     pipeline,
		Outbound: out,
	})

	if got := d.Dispatch(context.Background(), textEvent("111", "beton ne zaman")); got != StatusProcessed {
		t.Fatalf("status = %q", got)
	}
	if len(out.sent) != 1 || out.sent[0].body != chat.FallbackInsight {
		t.Fatalf("expected fallback reply, got %+v", out.sent)
	}
}

func TestSendFailureDoesNotChangeStatus(t *testing.T) {
	t.Parallel()

	h := newHarness(Config{})
	h.outbound.err = errors.New("graph down")
	h.queries.addProfile("111", true)
	if got := h.dispatcher.Dispatch(context.Background(), textEvent("111", "selam")); got != StatusProcessed {
		t.Fatalf("status = %q", got)
	}
}

type panickingChat struct{}

func (panickingChat) Run(context.Context, flow.Input) chat.Result {
	panic("boom")
}

func TestDispatchRecoversPanics(t *testing.T) {
	t.Parallel()

	queries := newFakeTenantQueries()
	queries.addProfile("111", true)
	d := NewDispatcher(nil, Config{}, Deps{Tenants: tenants.NewService(nil, queries), Chat: panickingChat{}})
	if got := d.Dispatch(context.Background(), textEvent("111", "selam")); got != StatusError {
		t.Fatalf("status = %q", got)
	}
}
