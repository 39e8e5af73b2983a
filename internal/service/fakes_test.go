package service

import (
	"context"
	"net/http"
	"sync"

	"dance-storefront/internal/backend"
	"dance-storefront/internal/event"
	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

// fakeBackend stands in for *backend.Client across the service tests.
type fakeBackend struct {
	mu sync.Mutex

	classes []model.Class
	user    *model.User
	token   string

	authErr error
	meErr   error
	listErr error
	prefErr error

	meCalls    int
	prefTokens []string
	prefDocIDs []string
}

func (f *fakeBackend) Login(ctx context.Context, identifier string, password string) (backend.AuthResult, error) {
	if f.authErr != nil {
		return backend.AuthResult{}, f.authErr
	}
	return backend.AuthResult{Token: f.token, User: f.user}, nil
}

func (f *fakeBackend) Register(ctx context.Context, username string, email string, password string) (backend.AuthResult, error) {
	return f.Login(ctx, email, password)
}

func (f *fakeBackend) Me(ctx context.Context, token string) (*model.User, error) {
	f.mu.Lock()
	f.meCalls++
	f.mu.Unlock()

	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func (f *fakeBackend) FeaturedClasses(ctx context.Context, limit int) ([]model.Class, error) {
	classes, err := f.ListClasses(ctx, backend.ListParams{})
	if err != nil {
		return nil, err
	}
	if len(classes) > limit {
		classes = classes[:limit]
	}
	return classes, nil
}

func (f *fakeBackend) ListClasses(ctx context.Context, params backend.ListParams) ([]model.Class, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Class(nil), f.classes...), nil
}

func (f *fakeBackend) FindClassBySlug(ctx context.Context, slug string) (*model.Class, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	for _, class := range f.classes {
		if class.Slug == slug {
			found := class
			return &found, nil
		}
	}
	return nil, model.ErrClassNotFound
}

func (f *fakeBackend) CreatePreference(ctx context.Context, token string, documentID string) (model.PaymentPreference, error) {
	f.mu.Lock()
	f.prefTokens = append(f.prefTokens, token)
	f.prefDocIDs = append(f.prefDocIDs, documentID)
	f.mu.Unlock()

	if f.prefErr != nil {
		return model.PaymentPreference{}, f.prefErr
	}
	return model.PaymentPreference{SessionID: "pref-" + documentID}, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe() (<-chan event.Event, func()) {
	return make(chan event.Event), func() {}
}

func (b *recordingBus) types() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]event.Type, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func authError(message string) error {
	return apierror.Wrap(apierror.KindAuth, "AUTH_FAILED", message, http.StatusUnauthorized, model.ErrInvalidCredentials)
}

func salsaClass() model.Class {
	return model.Class{
		ID:               7,
		DocumentID:       "abc123",
		Title:            "Salsa On1",
		Slug:             "salsa-new",
		Price:            1500,
		Level:            model.LevelBeginner,
		ThumbnailURL:     "https://cms.example.com/uploads/salsa.jpg",
		PreviewVideoRef:  "https://youtu.be/prevwID0001",
		ExternalVideoRef: "https://www.youtube.com/watch?v=abcDEFghi12",
		Description: []model.Block{
			{Type: "paragraph", Children: []model.InlineBlock{{Text: "Pasos básicos"}}},
		},
	}
}

func bachataClass() model.Class {
	return model.Class{
		ID:               8,
		DocumentID:       "def456",
		Title:            "Bachata Sensual",
		Slug:             "bachata",
		Level:            model.LevelAdvanced,
		ExternalVideoRef: "zyxWVUtsr98",
	}
}

func sessionWith(purchases ...model.ClassRef) *model.Session {
	session := model.NewSession()
	_ = session.Authenticate("tok-1", &model.User{ID: 3, Username: "ana", Email: "ana@example.com", PurchasedClasses: purchases})
	return session
}

func anonymousSession() *model.Session {
	session := model.NewSession()
	_ = session.Anonymize()
	return session
}
