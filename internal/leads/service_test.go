package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/fabguard/storefront-backend/pkg/db/dbtest"
	"github.com/fabguard/storefront-backend/pkg/db/models"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPartner(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB(), nil, nil)
	require.NoError(t, err)

	dto, err := svc.RegisterPartner(context.Background(), PartnerInput{
		Name: "Suresh", Phone: "9000000000", City: "Patna", Skills: "Plumbing, Electrical", Experience: "5 years",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.LeadStatusPending, dto.Status)

	var row models.PartnerRegistration
	require.NoError(t, client.DB().First(&row).Error)
	assert.Equal(t, "Patna", row.City)
	assert.Nil(t, row.Email)
	require.NotNil(t, row.Experience)
	assert.Equal(t, enums.LeadStatusPending, row.Status)
}

func TestRegisterPartnerValidation(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB(), nil, nil)
	require.NoError(t, err)

	_, err = svc.RegisterPartner(context.Background(), PartnerInput{Name: "Suresh", Email: "not-an-email"})
	require.Error(t, err)
	fields := pkgerrors.As(err).Details().(map[string]any)["fields"].(map[string]string)
	assert.Equal(t, map[string]string{
		"phone":  "phone is required",
		"city":   "city is required",
		"skills": "skills is required",
		"email":  "email is invalid",
	}, fields)
}

func TestSubmitContact(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB(), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.SubmitContact(ctx, ContactInput{Name: "Neha", Email: "Neha@Example.com", Message: "Do you serve Danapur?"})
	require.NoError(t, err)

	var row models.ContactSubmission
	require.NoError(t, client.DB().First(&row).Error)
	assert.Equal(t, "neha@example.com", row.Email)
	assert.Nil(t, row.Phone)

	_, err = svc.SubmitContact(ctx, ContactInput{Name: "Neha", Email: "neha", Message: "hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.SubmitContact(ctx, ContactInput{Email: "neha@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type recordingContactNotifier struct {
	sent []ContactNotification
	err  error
}

func (r *recordingContactNotifier) NotifyContact(_ context.Context, n ContactNotification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestSubmitContactNotifies(t *testing.T) {
	client := dbtest.Open(t)
	notifier := &recordingContactNotifier{}
	svc, err := NewService(client.DB(), notifier, nil)
	require.NoError(t, err)

	dto, err := svc.SubmitContact(context.Background(), ContactInput{
		Name: " Neha ", Email: "Neha@Example.com", Phone: "9000000001", Message: "Do you serve Danapur?",
	})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	sent := notifier.sent[0]
	assert.Equal(t, dto.ID, sent.SubmissionID)
	assert.Equal(t, "Neha", sent.Name)
	assert.Equal(t, "neha@example.com", sent.Email)
	assert.Equal(t, "9000000001", sent.Phone)
	assert.Equal(t, "Do you serve Danapur?", sent.Message)
}

func TestSubmitContactSurvivesNotifierFailure(t *testing.T) {
	client := dbtest.Open(t)
	notifier := &recordingContactNotifier{err: errors.New("outbox unavailable")}
	svc, err := NewService(client.DB(), notifier, nil)
	require.NoError(t, err)

	dto, err := svc.SubmitContact(context.Background(), ContactInput{Name: "Neha", Email: "neha@example.com", Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, enums.LeadStatusPending, dto.Status)

	var count int64
	require.NoError(t, client.DB().Model(&models.ContactSubmission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitContactValidationSkipsNotifier(t *testing.T) {
	client := dbtest.Open(t)
	notifier := &recordingContactNotifier{}
	svc, err := NewService(client.DB(), notifier, nil)
	require.NoError(t, err)

	_, err = svc.SubmitContact(context.Background(), ContactInput{Name: "Neha"})
	require.Error(t, err)
	assert.Empty(t, notifier.sent)
}
