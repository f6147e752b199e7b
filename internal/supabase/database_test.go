package supabase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-generator-backend/internal/models"
	"site-generator-backend/internal/supabase"
)

func newStore(t *testing.T) *supabase.DatabaseClient {
	t.Helper()
	store, err := supabase.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newConversation(t *testing.T, store *supabase.DatabaseClient) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{InitialPrompt: "bakery", ProjectType: "website"}
	require.NoError(t, store.CreateConversation(context.Background(), conv))
	return conv
}

func TestConversations(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	conv := newConversation(t, store)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, models.ConversationActive, conv.Status)

	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "bakery", got.InitialPrompt)
	assert.False(t, got.ClientEmail.Valid)

	require.NoError(t, store.CompleteConversation(ctx, conv.ID, "Ana", "ana@x.com", ""))
	got, err = store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationCompleted, got.Status)
	assert.Equal(t, "ana@x.com", got.ClientEmail.String)
	assert.False(t, got.ClientPhone.Valid)

	_, err = store.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, supabase.ErrNotFound)
	assert.ErrorIs(t, store.CompleteConversation(ctx, "missing", "a", "b", "c"), supabase.ErrNotFound)

	dup := &models.Conversation{ID: conv.ID, InitialPrompt: "again"}
	assert.ErrorIs(t, store.CreateConversation(ctx, dup), supabase.ErrDuplicate)
}

func TestAppendSiteVersion_CompareAndSwap(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	conv := newConversation(t, store)

	_, err := store.GetLatestSiteVersion(ctx, conv.ID)
	assert.ErrorIs(t, err, supabase.ErrNotFound)

	v1, err := store.AppendSiteVersion(ctx, conv.ID, 0, "<p>one</p>")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)

	_, err = store.AppendSiteVersion(ctx, conv.ID, 0, "<p>stale</p>")
	assert.ErrorIs(t, err, supabase.ErrVersionConflict)

	_, err = store.AppendSiteVersion(ctx, conv.ID, 5, "<p>ahead</p>")
	assert.ErrorIs(t, err, supabase.ErrVersionConflict)

	v2, err := store.AppendSiteVersion(ctx, conv.ID, 1, "<p>two</p>")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	latest, err := store.GetLatestSiteVersion(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)

	first, err := store.GetSiteVersion(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>one</p>", first.SiteCode)

	versions, err := store.ListSiteVersions(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
	assert.Equal(t, 1, versions[1].VersionNumber)

	_, err = store.GetSiteVersion(ctx, "missing")
	assert.ErrorIs(t, err, supabase.ErrNotFound)
}

func TestAppendSiteVersion_ConversationsAreIndependent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	a := newConversation(t, store)
	b := newConversation(t, store)

	_, err := store.AppendSiteVersion(ctx, a.ID, 0, "a1")
	require.NoError(t, err)
	vb, err := store.AppendSiteVersion(ctx, b.ID, 0, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, vb.VersionNumber)
}

func TestProjectData(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	conv := newConversation(t, store)

	_, err := store.GetProjectData(ctx, conv.ID)
	assert.ErrorIs(t, err, supabase.ErrNotFound)

	pd := &models.ProjectData{
		ConversationID:  conv.ID,
		Profile:         models.BusinessProfile{CompanyName: "Pão Quente", Functionalities: []string{"cardápio"}},
		CurrentSiteCode: "<p>one</p>",
	}
	require.NoError(t, store.SaveProjectData(ctx, pd))

	pd.CurrentSiteCode = "<p>two</p>"
	pd.ModificationHistory = append(pd.ModificationHistory, models.ModificationEntry{Version: 2, Instruction: "make it blue"})
	require.NoError(t, store.SaveProjectData(ctx, pd))

	got, err := store.GetProjectData(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pão Quente", got.Profile.CompanyName)
	assert.Equal(t, []string{"cardápio"}, got.Profile.Functionalities)
	assert.Equal(t, "<p>two</p>", got.CurrentSiteCode)
	require.Len(t, got.ModificationHistory, 1)
	assert.Equal(t, "make it blue", got.ModificationHistory[0].Instruction)
}

func TestLeads(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	conv := newConversation(t, store)

	lead := &models.Lead{
		ConversationID: conv.ID,
		Name:           "Ana",
		Email:          "ana@x.com",
		LeadSource:     models.LeadSourceAIChat,
		LeadQuality:    models.LeadQualityWarm,
		Status:         models.LeadStatusNew,
	}
	require.NoError(t, store.CreateLead(ctx, lead))
	assert.NotEmpty(t, lead.ID)

	got, err := store.GetLeadByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, got.ID)
	assert.Equal(t, models.LeadQualityWarm, got.LeadQuality)

	again := *lead
	again.ID = ""
	assert.ErrorIs(t, store.CreateLead(ctx, &again), supabase.ErrDuplicate)

	_, err = store.GetLeadByConversation(ctx, "missing")
	assert.ErrorIs(t, err, supabase.ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newStore(t)
	assert.NoError(t, store.Migrate())
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, "conversations/abc/site-v3.html", supabase.ExportPath("abc", 3))
}

func TestNewDatabaseClient_UnsupportedDriver(t *testing.T) {
	_, err := supabase.NewDatabaseClient("mysql", "dsn")
	assert.Error(t, err)
}
