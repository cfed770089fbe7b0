package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ImageUpload is a presigned slot for one product image.
type ImageUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ImageURL  string    `json:"imageUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (c *Client) PresignImage(ctx context.Context, wishlistID, contentType string) (*ImageUpload, error) {
	var up ImageUpload
	err := c.do(ctx, http.MethodPost, wishlistPath(wishlistID)+"/products/image-upload",
		map[string]string{"contentType": contentType}, &up)
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// UploadImage PUTs data to a presigned URL. The content type must match the
// one the URL was signed for. No bearer token is sent to object storage.
func (c *Client) UploadImage(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
