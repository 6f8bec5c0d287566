// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
)

// UploadFile uploads the content of r as filename.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader, purpose FilePurpose) (*FileInfo, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidRequest)
	}
	if purpose == "" {
		purpose = FilePurposeAgents
	}
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", filename, err)
		}
		rs = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files", nil)
	if err != nil {
		return nil, err
	}
	err = runtime.SetMultipartFormData(req, map[string]any{
		"file": streaming.MultipartContent{
			Body:        streaming.NopCloser(rs),
			ContentType: "application/octet-stream",
			Filename:    filename,
		},
		"purpose": string(purpose),
	})
	if err != nil {
		return nil, fmt.Errorf("encode upload %s: %w", filename, err)
	}

	var info FileInfo
	if err := c.send(req, &info); err != nil {
		return nil, fmt.Errorf("upload file %s: %w", filename, err)
	}
	return &info, nil
}

// UploadFileFromPath uploads a local file under its base name.
func (c *Client) UploadFileFromPath(ctx context.Context, path string, purpose FilePurpose) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return c.UploadFile(ctx, filepath.Base(path), f, purpose)
}

// UploadFileAndPoll uploads a file and waits until the service has
// processed it. interval <= 0 uses [DefaultPollInterval].
func (c *Client) UploadFileAndPoll(ctx context.Context, filename string, r io.Reader, purpose FilePurpose, interval time.Duration) (*FileInfo, error) {
	info, err := c.UploadFile(ctx, filename, r, purpose)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for info.Status == FileStatusUploaded || info.Status == FileStatusPending || info.Status == FileStatusRunning {
		if err := sleep(ctx, interval); err != nil {
			return info, err
		}
		if info, err = c.GetFile(ctx, info.ID); err != nil {
			return nil, err
		}
	}
	if info.Status == FileStatusError {
		return info, fmt.Errorf("file %s: %w: %s", info.ID, ErrProcessingFailed, info.StatusDetails)
	}
	return info, nil
}

// GetFile retrieves the metadata of an uploaded file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	var info FileInfo
	if err := c.doJSON(ctx, http.MethodGet, "/files/"+url.PathEscape(fileID), nil, nil, &info); err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return &info, nil
}

// ListFiles lists uploaded files, optionally only those with purpose.
func (c *Client) ListFiles(ctx context.Context, purpose FilePurpose) ([]FileInfo, error) {
	q := url.Values{}
	if purpose != "" {
		q.Set("purpose", string(purpose))
	}
	var page ListPage[FileInfo]
	if err := c.doJSON(ctx, http.MethodGet, "/files", q, nil, &page); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return page.Data, nil
}

// GetFileContent downloads the bytes of a file, such as an image produced
// by the code interpreter.
func (c *Client) GetFileContent(ctx context.Context, fileID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "application/octet-stream")
	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get file content %s: http request: %w", fileID, err)
	}
	defer resp.Body.Close()
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, fmt.Errorf("get file content %s: %w", fileID, parseErrorResponse(resp))
	}
	data, err := runtime.Payload(resp)
	if err != nil {
		return nil, fmt.Errorf("get file content %s: %w", fileID, err)
	}
	return data, nil
}

// DeleteFile deletes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.deleteResource(ctx, "file", "/files/"+url.PathEscape(fileID))
}
