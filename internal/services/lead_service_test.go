package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-generator-backend/internal/apperrors"
	"site-generator-backend/internal/models"
	"site-generator-backend/internal/services"
)

func TestCaptureLead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v1 := e.generate(t, "bakery site", "<p>v1</p>")

	lead, err := e.leads.CaptureLead(ctx, services.CaptureLeadInput{
		ConversationID: v1.ConversationID,
		Name:           " Ana Maria Souza ",
		Email:          "ana@padaria.com",
		Phone:          "+55 11 98765-4321",
		Company:        "Pão Quente",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "Ana Maria Souza", lead.Name)
	assert.Equal(t, models.LeadQualityHot, lead.LeadQuality)
	assert.Equal(t, models.LeadSourceAIChat, lead.LeadSource)
	assert.Equal(t, models.LeadStatusNew, lead.Status)

	stored, err := e.store.GetLeadByConversation(ctx, v1.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, stored.ID)

	conv, err := e.store.GetConversation(ctx, v1.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationCompleted, conv.Status)
	assert.Equal(t, "ana@padaria.com", conv.ClientEmail.String)

	require.Len(t, e.crm.contacts, 1)
	assert.Equal(t, "Ana", e.crm.contacts[0].FirstName)
	assert.Equal(t, "Maria Souza", e.crm.contacts[0].LastName)
	assert.Contains(t, e.crm.notes[0], "Quality: hot")
	assert.Contains(t, e.crm.notes[0], "Initial prompt: bakery site")

	_, err = e.leads.CaptureLead(ctx, services.CaptureLeadInput{
		ConversationID: v1.ConversationID,
		Name:           "Ana",
		Email:          "ana@padaria.com",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestCaptureLead_ColdWithoutSite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	conv := &models.Conversation{InitialPrompt: "p", ProjectType: "website"}
	require.NoError(t, e.store.CreateConversation(ctx, conv))

	lead, err := e.leads.CaptureLead(ctx, services.CaptureLeadInput{
		ConversationID: conv.ID,
		Name:           "Ana",
		Email:          "ana@padaria.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeadQualityCold, lead.LeadQuality)
}

func TestCaptureLead_CRMFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	v1 := e.generate(t, "bakery", "<p>v1</p>")
	e.crm.err = errors.New("hubspot down")

	lead, err := e.leads.CaptureLead(context.Background(), services.CaptureLeadInput{
		ConversationID: v1.ConversationID,
		Name:           "Ana",
		Email:          "ana@padaria.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Len(t, e.crm.contacts, 1)
}

func TestCaptureLead_WithoutCRM(t *testing.T) {
	e := newEnv(t)
	v1 := e.generate(t, "bakery", "<p>v1</p>")
	leads := services.NewLeadService(e.store, nil)

	_, err := leads.CaptureLead(context.Background(), services.CaptureLeadInput{
		ConversationID: v1.ConversationID,
		Name:           "Ana",
		Email:          "ana@padaria.com",
	})
	assert.NoError(t, err)
}

func TestCaptureLead_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   services.CaptureLeadInput
		code apperrors.Code
	}{
		{"missing conversation id", services.CaptureLeadInput{Name: "Ana", Email: "ana@x.com"}, apperrors.CodeInvalid},
		{"missing name", services.CaptureLeadInput{ConversationID: "c", Email: "ana@x.com"}, apperrors.CodeInvalid},
		{"bad email", services.CaptureLeadInput{ConversationID: "c", Name: "Ana", Email: "ana"}, apperrors.CodeInvalid},
		{"unknown conversation", services.CaptureLeadInput{ConversationID: "c", Name: "Ana", Email: "ana@x.com"}, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.leads.CaptureLead(ctx, tt.in)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}
	assert.Empty(t, e.crm.contacts)
}

func TestCheckEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v1 := e.generate(t, "bakery", "<p>v1</p>")
	_, err := e.leads.CaptureLead(ctx, services.CaptureLeadInput{
		ConversationID: v1.ConversationID,
		Name:           "Ana",
		Email:          "ana@padaria.com",
	})
	require.NoError(t, err)

	available, err := e.leads.CheckEmail(ctx, "ana@padaria.com")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = e.leads.CheckEmail(ctx, "new@padaria.com")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = e.leads.CheckEmail(ctx, "not-an-email")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalid))
}
