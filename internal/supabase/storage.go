package supabase

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient archives released site exports in a Supabase Storage bucket.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	if supabaseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// ExportPath is the object path of a released version:
// conversations/{conversation_id}/site-v{n}.html
func ExportPath(conversationID string, version int) string {
	return fmt.Sprintf("conversations/%s/site-v%d.html", conversationID, version)
}

// UploadExport stores the released HTML and returns its object path.
func (s *StorageClient) UploadExport(conversationID string, version int, html []byte) (string, error) {
	storagePath := ExportPath(conversationID, version)

	contentType := "text/html; charset=utf-8"
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(html), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	return storagePath, nil
}
