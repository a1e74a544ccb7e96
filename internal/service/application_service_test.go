package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pethaven/internal/domain"
	"pethaven/internal/service"
)

func TestApplicationLifecycle(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	ctx := context.Background()
	alice, err := f.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	bob, err := f.users.GetByID(ctx, "bob")
	require.NoError(t, err)

	app, err := f.appSvc.Create(ctx, alice, service.ApplicationCreateInput{PetID: "rex", Message: "We have a big garden"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, app.Status)
	assert.Equal(t, "bob", app.ShelterID)

	toShelter := f.pusher.to("bob")
	require.Len(t, toShelter, 1)
	n := toShelter[0].Payload.(*domain.Notification)
	assert.Equal(t, domain.NotificationNewApplication, n.Type)
	assert.Equal(t, "New adoption application for Rex from Alice", n.Message)
	assert.Equal(t, domain.RelatedToApplication(app.ID), n.Related)

	_, err = f.appSvc.Create(ctx, alice, service.ApplicationCreateInput{PetID: "rex", Message: "again"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := f.appSvc.UpdateStatus(ctx, bob, app.ID, service.StatusUpdateInput{Status: domain.ApplicationApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, updated.Status)

	toAdopter := f.pusher.to("alice")
	require.Len(t, toAdopter, 1)
	assert.Equal(t, "Your application for Rex has been Approved", toAdopter[0].Payload.(*domain.Notification).Message)

	mine, err := f.appSvc.ListMine(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.ApplicationApproved, mine[0].Status)

	assert.Equal(t, []string{
		service.TopicNotificationCreated, service.TopicApplicationCreated,
		service.TopicNotificationCreated, service.TopicApplicationStatusChanged,
	}, f.events.types())
}

func TestApplicationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.users.GetByID(ctx, "alice")
	carol, _ := f.users.GetByID(ctx, "carol")

	_, err := f.appSvc.Create(ctx, alice, service.ApplicationCreateInput{PetID: "unicorn", Message: "please"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.appSvc.Create(ctx, alice, service.ApplicationCreateInput{PetID: "rex"})
	assert.True(t, domain.IsValidation(err))

	app, err := f.appSvc.Create(ctx, alice, service.ApplicationCreateInput{PetID: "rex", Message: "please"})
	require.NoError(t, err)

	_, err = f.appSvc.UpdateStatus(ctx, carol, app.ID, service.StatusUpdateInput{Status: domain.ApplicationRejected})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.appSvc.UpdateStatus(ctx, carol, app.ID, service.StatusUpdateInput{Status: "Maybe"})
	assert.True(t, domain.IsValidation(err))

	empty, err := f.appSvc.ListForShelter(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
