// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// MessageRole is the author of a thread message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ThreadMessage is a message stored on a thread.
type ThreadMessage struct {
	ID          string              `json:"id"`
	Object      string              `json:"object,omitempty"`
	CreatedAt   int64               `json:"created_at,omitempty"`
	ThreadID    string              `json:"thread_id"`
	Role        MessageRole         `json:"role"`
	Content     []MessageContent    `json:"content"`
	AgentID     string              `json:"assistant_id,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
	Status      string              `json:"status,omitempty"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// Text concatenates the text content blocks of m, one per line.
func (m *ThreadMessage) Text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// Annotations returns the annotations of every text block of m.
func (m *ThreadMessage) Annotations() []MessageAnnotation {
	var out []MessageAnnotation
	for _, c := range m.Content {
		if c.Text != nil {
			out = append(out, c.Text.Annotations...)
		}
	}
	return out
}

// LastTextByRole returns the newest message from role that has text
// content, or nil. Ties on created_at go to the later entry.
func LastTextByRole(messages []ThreadMessage, role MessageRole) *ThreadMessage {
	var last *ThreadMessage
	for i := range messages {
		m := &messages[i]
		if m.Role != role || m.Text() == "" {
			continue
		}
		if last == nil || m.CreatedAt >= last.CreatedAt {
			last = m
		}
	}
	return last
}

// MessageContent is one content block of a stored message.
type MessageContent struct {
	Type      string            `json:"type"`
	Text      *MessageText      `json:"text,omitempty"`
	ImageFile *MessageImageFile `json:"image_file,omitempty"`
	ImageURL  *MessageImageURL  `json:"image_url,omitempty"`
}

// MessageText is a text block with its citations.
type MessageText struct {
	Value       string              `json:"value"`
	Annotations []MessageAnnotation `json:"annotations,omitempty"`
}

// MessageAnnotation marks a span of text that cites a source.
type MessageAnnotation struct {
	Type         string                 `json:"type"`
	Text         string                 `json:"text,omitempty"`
	StartIndex   int                    `json:"start_index,omitempty"`
	EndIndex     int                    `json:"end_index,omitempty"`
	URLCitation  *URLCitation           `json:"url_citation,omitempty"`
	FileCitation *FileCitation          `json:"file_citation,omitempty"`
	FilePath     *FilePathAnnotationRef `json:"file_path,omitempty"`
}

// URLCitation cites a web page, as produced by Bing grounding.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// FileCitation cites an uploaded file, as produced by file search.
type FileCitation struct {
	FileID string `json:"file_id"`
	Quote  string `json:"quote,omitempty"`
}

// FilePathAnnotationRef references a file generated by the code interpreter.
type FilePathAnnotationRef struct {
	FileID string `json:"file_id"`
}

// MessageImageFile references an uploaded image.
type MessageImageFile struct {
	FileID string `json:"file_id"`
	Detail string `json:"detail,omitempty"`
}

// MessageImageURL references an image by URL.
type MessageImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// MessageAttachment attaches a file to a message for the listed tools.
type MessageAttachment struct {
	FileID string           `json:"file_id"`
	Tools  []ToolDefinition `json:"tools"`
}

// MessageInputBlock is one content block of a message being created.
type MessageInputBlock struct {
	Type      string            `json:"type"`
	Text      string            `json:"text,omitempty"`
	ImageURL  *MessageImageURL  `json:"image_url,omitempty"`
	ImageFile *MessageImageFile `json:"image_file,omitempty"`
}

// TextBlock returns a text input block.
func TextBlock(text string) MessageInputBlock {
	return MessageInputBlock{Type: "text", Text: text}
}

// ImageURLBlock returns an image_url input block.
func ImageURLBlock(u string) MessageInputBlock {
	return MessageInputBlock{Type: "image_url", ImageURL: &MessageImageURL{URL: u}}
}

// ImageFileBlock returns an image_file input block for an uploaded file.
func ImageFileBlock(fileID string) MessageInputBlock {
	return MessageInputBlock{Type: "image_file", ImageFile: &MessageImageFile{FileID: fileID}}
}

// CreateMessageParams is the request body of [Client.CreateMessage]. The
// content is sent as Blocks when set, otherwise as the plain Content string.
type CreateMessageParams struct {
	Role        MessageRole
	Content     string
	Blocks      []MessageInputBlock
	Attachments []MessageAttachment
	Metadata    map[string]string
}

type createMessageWire struct {
	Role        MessageRole         `json:"role"`
	Content     json.RawMessage     `json:"content"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

func (p CreateMessageParams) MarshalJSON() ([]byte, error) {
	var content any = p.Content
	if len(p.Blocks) > 0 {
		content = p.Blocks
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(createMessageWire{
		Role:        p.Role,
		Content:     raw,
		Attachments: p.Attachments,
		Metadata:    p.Metadata,
	})
}

func (p *CreateMessageParams) UnmarshalJSON(b []byte) error {
	var w createMessageWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = CreateMessageParams{Role: w.Role, Attachments: w.Attachments, Metadata: w.Metadata}
	if len(w.Content) == 0 {
		return nil
	}
	if w.Content[0] == '[' {
		return json.Unmarshal(w.Content, &p.Blocks)
	}
	return json.Unmarshal(w.Content, &p.Content)
}

// Text returns the plain content or the concatenated text blocks.
func (p *CreateMessageParams) Text() string {
	if len(p.Blocks) == 0 {
		return p.Content
	}
	var parts []string
	for _, b := range p.Blocks {
		if b.Type == "text" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ListMessagesOptions filters and paginates [Client.ListMessages].
type ListMessagesOptions struct {
	ListOptions

	// RunID restricts the list to messages created by one run.
	RunID string
}

// CreateMessage adds a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, params CreateMessageParams) (*ThreadMessage, error) {
	if params.Role == "" {
		params.Role = RoleUser
	}
	var msg ThreadMessage
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, params, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &msg, nil
}

// GetMessage retrieves one message of a thread.
func (c *Client) GetMessage(ctx context.Context, threadID, messageID string) (*ThreadMessage, error) {
	var msg ThreadMessage
	path := "/threads/" + url.PathEscape(threadID) + "/messages/" + url.PathEscape(messageID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &msg); err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	return &msg, nil
}

// ListMessages returns one page of a thread's messages.
func (c *Client) ListMessages(ctx context.Context, threadID string, opts *ListMessagesOptions) (*ListPage[ThreadMessage], error) {
	var q url.Values
	if opts != nil {
		q = listQuery(&opts.ListOptions)
		if opts.RunID != "" {
			q.Set("run_id", opts.RunID)
		}
	}
	var page ListPage[ThreadMessage]
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, q, nil, &page); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &page, nil
}

// ListAllMessages follows pagination until every message has been read.
func (c *Client) ListAllMessages(ctx context.Context, threadID string, opts *ListMessagesOptions) ([]ThreadMessage, error) {
	var cur ListMessagesOptions
	if opts != nil {
		cur = *opts
	}
	var all []ThreadMessage
	for {
		page, err := c.ListMessages(ctx, threadID, &cur)
		if err != nil {
			return all, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || page.LastID == "" || page.LastID == cur.After {
			return all, nil
		}
		cur.After = page.LastID
		cur.Before = ""
	}
}
