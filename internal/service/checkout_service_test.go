package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dance-storefront/internal/event"
	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

func TestPrepare(t *testing.T) {
	t.Parallel()

	svc := NewCheckoutService(&fakeBackend{classes: []model.Class{salsaClass()}}, nil, "TEST-public-key")
	ctx := context.Background()

	view := svc.Prepare(ctx, anonymousSession(), "salsa-new")
	require.Equal(t, CheckoutRedirectLogin, view.State)
	require.Equal(t, "/login?redirect=%2Fcheckout%3Fproduct%3Dsalsa-new", view.RedirectURL)

	view = svc.Prepare(ctx, sessionWith(), "")
	require.Equal(t, CheckoutNotFound, view.State)

	view = svc.Prepare(ctx, sessionWith(), "salsa-new")
	require.Equal(t, CheckoutReady, view.State)
	require.Equal(t, "TEST-public-key", view.PublicKey)
	require.False(t, view.AlreadyPurchased)
	require.Empty(t, view.Class.ExternalVideoRef)
}

func TestCreatePreferenceSendsDocumentID(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{classes: []model.Class{salsaClass()}}
	bus := &recordingBus{}
	svc := NewCheckoutService(fake, bus, "TEST-public-key")

	view, err := svc.CreatePreference(context.Background(), sessionWith(), "salsa-new")
	require.NoError(t, err)
	require.Equal(t, CheckoutPreferenceReady, view.State)
	require.Equal(t, "pref-abc123", view.PreferenceID)
	require.Equal(t, []string{"abc123"}, fake.prefDocIDs)
	require.Equal(t, []string{"tok-1"}, fake.prefTokens)
	require.Equal(t, []event.Type{event.TypePreferenceCreated}, bus.types())
}

func TestCreatePreferenceFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	fake := &fakeBackend{classes: []model.Class{salsaClass()}, prefErr: model.ErrPreferenceMissing}
	bus := &recordingBus{}
	svc := NewCheckoutService(fake, bus, "")

	view, err := svc.CreatePreference(context.Background(), sessionWith(), "salsa-new")
	require.ErrorIs(t, err, model.ErrPreferenceMissing)
	require.Equal(t, CheckoutFailed, view.State)
	require.Equal(t, preferenceFailedMessage, view.Error)
	require.Equal(t, "salsa-new", view.Class.Slug)
	require.Equal(t, []event.Type{event.TypePreferenceFailed}, bus.types())
	require.Len(t, fake.prefDocIDs, 1)
}

func TestCreatePreferenceClassifiesErrors(t *testing.T) {
	t.Parallel()

	svc := NewCheckoutService(&fakeBackend{classes: []model.Class{salsaClass()}}, nil, "")

	_, err := svc.CreatePreference(context.Background(), anonymousSession(), "salsa-new")
	require.ErrorIs(t, err, model.ErrUnauthenticated)
	require.Equal(t, apierror.KindAuth, apierror.KindOf(err))

	_, err = svc.CreatePreference(context.Background(), sessionWith(), "missing")
	require.ErrorIs(t, err, model.ErrClassNotFound)

	noDoc := salsaClass()
	noDoc.DocumentID = ""
	svc = NewCheckoutService(&fakeBackend{classes: []model.Class{noDoc}}, nil, "")
	_, err = svc.CreatePreference(context.Background(), sessionWith(), "salsa-new")
	require.ErrorIs(t, err, model.ErrMalformedResponse)
}
