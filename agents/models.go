// Copyright (c) Microsoft. All rights reserved.

package agents

import "encoding/json"

// ListOrder is the sort order of list operations.
type ListOrder string

const (
	OrderAscending  ListOrder = "asc"
	OrderDescending ListOrder = "desc"
)

// ListOptions holds the pagination parameters shared by list operations.
type ListOptions struct {
	Limit  int
	Order  ListOrder
	After  string
	Before string
}

// ListPage is one page of a list response.
type ListPage[T any] struct {
	Object  string `json:"object,omitempty"`
	Data    []T    `json:"data"`
	FirstID string `json:"first_id,omitempty"`
	LastID  string `json:"last_id,omitempty"`
	HasMore bool   `json:"has_more"`
}

// DeletionStatus is returned by delete operations.
type DeletionStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Deleted bool   `json:"deleted"`
}

// Agent is a server-side configuration of model, instructions and tools.
type Agent struct {
	ID             string            `json:"id"`
	Object         string            `json:"object,omitempty"`
	CreatedAt      int64             `json:"created_at,omitempty"`
	Name           string            `json:"name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Model          string            `json:"model"`
	Instructions   string            `json:"instructions,omitempty"`
	Tools          []ToolDefinition  `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat any               `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// CreateAgentParams is the request body of [Client.CreateAgent].
type CreateAgentParams struct {
	Model          string            `json:"model"`
	Name           string            `json:"name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Instructions   string            `json:"instructions,omitempty"`
	Tools          []ToolDefinition  `json:"tools,omitempty"`
	ToolResources  *ToolResources    `json:"tool_resources,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"`
	TopP           *float64          `json:"top_p,omitempty"`
	ResponseFormat any               `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// UpdateAgentParams is the request body of [Client.UpdateAgent].
// Empty fields are left unchanged by the service.
type UpdateAgentParams struct {
	Model         string            `json:"model,omitempty"`
	Name          string            `json:"name,omitempty"`
	Description   string            `json:"description,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Tools         []ToolDefinition  `json:"tools,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	TopP          *float64          `json:"top_p,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Thread is a server-side conversation context.
type Thread struct {
	ID            string            `json:"id"`
	Object        string            `json:"object,omitempty"`
	CreatedAt     int64             `json:"created_at,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CreateThreadParams is the request body of [Client.CreateThread].
type CreateThreadParams struct {
	Messages      []CreateMessageParams `json:"messages,omitempty"`
	ToolResources *ToolResources        `json:"tool_resources,omitempty"`
	Metadata      map[string]string     `json:"metadata,omitempty"`
}

// RunStatus is a state of the service-side run state machine.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// Active reports whether the poll loop keeps waiting on this status.
func (s RunStatus) Active() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusRequiresAction:
		return true
	}
	return false
}

// Terminal reports whether the poll loop stops on this status.
func (s RunStatus) Terminal() bool { return !s.Active() }

// Run is one execution of an agent against a thread.
type Run struct {
	ID                string             `json:"id"`
	Object            string             `json:"object,omitempty"`
	ThreadID          string             `json:"thread_id"`
	AgentID           string             `json:"assistant_id"`
	Status            RunStatus          `json:"status"`
	RequiredAction    *RequiredAction    `json:"required_action,omitempty"`
	LastError         *RunLastError      `json:"last_error,omitempty"`
	Model             string             `json:"model,omitempty"`
	Instructions      string             `json:"instructions,omitempty"`
	Tools             []ToolDefinition   `json:"tools,omitempty"`
	CreatedAt         int64              `json:"created_at,omitempty"`
	StartedAt         int64              `json:"started_at,omitempty"`
	CompletedAt       int64              `json:"completed_at,omitempty"`
	CancelledAt       int64              `json:"cancelled_at,omitempty"`
	FailedAt          int64              `json:"failed_at,omitempty"`
	ExpiresAt         int64              `json:"expires_at,omitempty"`
	IncompleteDetails *IncompleteDetails `json:"incomplete_details,omitempty"`
	Usage             *RunUsage          `json:"usage,omitempty"`
	Metadata          map[string]string  `json:"metadata,omitempty"`
}

// RunLastError is the error payload of a failed run or step.
type RunLastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncompleteDetails explains why a run ended incomplete.
type IncompleteDetails struct {
	Reason string `json:"reason"`
}

// RunUsage holds token consumption of a run or step.
type RunUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RequiredActionType identifies what a run in requires_action waits for.
type RequiredActionType string

const (
	RequiredActionSubmitToolOutputs  RequiredActionType = "submit_tool_outputs"
	RequiredActionSubmitToolApproval RequiredActionType = "submit_tool_approval"
)

// RequiredAction describes the client-side work a run is waiting on.
type RequiredAction struct {
	Type               RequiredActionType `json:"type"`
	SubmitToolOutputs  *RequiredToolCalls `json:"submit_tool_outputs,omitempty"`
	SubmitToolApproval *RequiredToolCalls `json:"submit_tool_approval,omitempty"`
}

// RequiredToolCalls wraps the outstanding tool calls of a required action.
type RequiredToolCalls struct {
	ToolCalls []RequiredToolCall `json:"tool_calls"`
}

// ToolCalls returns the outstanding calls regardless of action type.
func (a *RequiredAction) ToolCalls() []RequiredToolCall {
	if a == nil {
		return nil
	}
	switch {
	case a.SubmitToolOutputs != nil:
		return a.SubmitToolOutputs.ToolCalls
	case a.SubmitToolApproval != nil:
		return a.SubmitToolApproval.ToolCalls
	}
	return nil
}

// RequiredToolCall is one call the service asks the client to resolve.
// Function calls carry Function; MCP approval requests carry Name,
// Arguments and ServerLabel.
type RequiredToolCall struct {
	ID          string                `json:"id"`
	Type        string                `json:"type"`
	Function    *RequiredFunctionCall `json:"function,omitempty"`
	Name        string                `json:"name,omitempty"`
	Arguments   string                `json:"arguments,omitempty"`
	ServerLabel string                `json:"server_label,omitempty"`
}

// RequiredFunctionCall is the function name and JSON arguments of a call.
type RequiredFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolOutput answers a function tool call.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// ToolApproval answers an MCP tool approval request.
type ToolApproval struct {
	ToolCallID string            `json:"tool_call_id"`
	Approve    bool              `json:"approve"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// CreateRunParams is the request body of [Client.CreateRun].
type CreateRunParams struct {
	AgentID                string                `json:"assistant_id"`
	Model                  string                `json:"model,omitempty"`
	Instructions           string                `json:"instructions,omitempty"`
	AdditionalInstructions string                `json:"additional_instructions,omitempty"`
	AdditionalMessages     []CreateMessageParams `json:"additional_messages,omitempty"`
	Tools                  []ToolDefinition      `json:"tools,omitempty"`
	Temperature            *float64              `json:"temperature,omitempty"`
	TopP                   *float64              `json:"top_p,omitempty"`
	MaxPromptTokens        int                   `json:"max_prompt_tokens,omitempty"`
	MaxCompletionTokens    int                   `json:"max_completion_tokens,omitempty"`
	ToolChoice             any                   `json:"tool_choice,omitempty"`
	ParallelToolCalls      *bool                 `json:"parallel_tool_calls,omitempty"`
	Metadata               map[string]string     `json:"metadata,omitempty"`

	// Stream is set by the streaming entry points.
	Stream bool `json:"stream,omitempty"`
}

// CreateThreadAndRunParams is the request body of [Client.CreateThreadAndRun].
type CreateThreadAndRunParams struct {
	AgentID       string              `json:"assistant_id"`
	Thread        *CreateThreadParams `json:"thread,omitempty"`
	Model         string              `json:"model,omitempty"`
	Instructions  string              `json:"instructions,omitempty"`
	Tools         []ToolDefinition    `json:"tools,omitempty"`
	ToolResources *ToolResources      `json:"tool_resources,omitempty"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
	Stream        bool                `json:"stream,omitempty"`
}

// RunStepType is the kind of work a run step records.
type RunStepType string

const (
	RunStepTypeMessageCreation RunStepType = "message_creation"
	RunStepTypeToolCalls       RunStepType = "tool_calls"
)

// RunStep is one recorded step of a run.
type RunStep struct {
	ID          string         `json:"id"`
	Object      string         `json:"object,omitempty"`
	Type        RunStepType    `json:"type"`
	Status      string         `json:"status"`
	ThreadID    string         `json:"thread_id,omitempty"`
	RunID       string         `json:"run_id,omitempty"`
	AgentID     string         `json:"assistant_id,omitempty"`
	StepDetails RunStepDetails `json:"step_details"`
	LastError   *RunLastError  `json:"last_error,omitempty"`
	CreatedAt   int64          `json:"created_at,omitempty"`
	CompletedAt int64          `json:"completed_at,omitempty"`
	Usage       *RunUsage      `json:"usage,omitempty"`
}

// RunStepDetails holds either the created message or the tool calls of a step.
type RunStepDetails struct {
	Type            RunStepType             `json:"type"`
	MessageCreation *RunStepMessageCreation `json:"message_creation,omitempty"`
	ToolCalls       []RunStepToolCall       `json:"tool_calls,omitempty"`
}

// RunStepMessageCreation references the message a step created.
type RunStepMessageCreation struct {
	MessageID string `json:"message_id"`
}

// RunStepToolCall is a tool call recorded in a step. Tool kinds without a
// typed field (bing_grounding, openapi, mcp, ...) are available through Raw.
type RunStepToolCall struct {
	ID              string                  `json:"id"`
	Type            string                  `json:"type"`
	Function        *RunStepFunctionCall    `json:"function,omitempty"`
	CodeInterpreter *RunStepCodeInterpreter `json:"code_interpreter,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// MarshalJSON writes Raw when set, otherwise the typed fields.
func (c RunStepToolCall) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	type plain RunStepToolCall
	return json.Marshal(plain(c))
}

// UnmarshalJSON decodes the typed fields and keeps the raw payload.
func (c *RunStepToolCall) UnmarshalJSON(b []byte) error {
	type plain RunStepToolCall
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = RunStepToolCall(p)
	c.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// RunStepFunctionCall is a function call with its submitted output.
type RunStepFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Output    string `json:"output,omitempty"`
}

// RunStepCodeInterpreter is the input and outputs of a code interpreter call.
type RunStepCodeInterpreter struct {
	Input   string                  `json:"input"`
	Outputs []CodeInterpreterOutput `json:"outputs,omitempty"`
}

// CodeInterpreterOutput is a log or image produced by the code interpreter.
type CodeInterpreterOutput struct {
	Type  string            `json:"type"`
	Logs  string            `json:"logs,omitempty"`
	Image *MessageImageFile `json:"image,omitempty"`
}

// FilePurpose is the intended use of an uploaded file.
type FilePurpose string

const (
	FilePurposeAgents       FilePurpose = "assistants"
	FilePurposeAgentsOutput FilePurpose = "assistants_output"
	FilePurposeVision       FilePurpose = "vision"
)

// FileStatus is the processing state of an uploaded file.
type FileStatus string

const (
	FileStatusUploaded  FileStatus = "uploaded"
	FileStatusPending   FileStatus = "pending"
	FileStatusRunning   FileStatus = "running"
	FileStatusProcessed FileStatus = "processed"
	FileStatusError     FileStatus = "error"
)

// FileInfo describes an uploaded file.
type FileInfo struct {
	ID            string      `json:"id"`
	Object        string      `json:"object,omitempty"`
	Bytes         int64       `json:"bytes"`
	Filename      string      `json:"filename"`
	CreatedAt     int64       `json:"created_at,omitempty"`
	Purpose       FilePurpose `json:"purpose"`
	Status        FileStatus  `json:"status,omitempty"`
	StatusDetails string      `json:"status_details,omitempty"`
}

// VectorStoreStatus is the indexing state of a vector store.
type VectorStoreStatus string

const (
	VectorStoreInProgress VectorStoreStatus = "in_progress"
	VectorStoreCompleted  VectorStoreStatus = "completed"
	VectorStoreExpired    VectorStoreStatus = "expired"
)

// VectorStore is an index over uploaded files used by file search.
type VectorStore struct {
	ID         string                `json:"id"`
	Object     string                `json:"object,omitempty"`
	CreatedAt  int64                 `json:"created_at,omitempty"`
	Name       string                `json:"name,omitempty"`
	UsageBytes int64                 `json:"usage_bytes,omitempty"`
	FileCounts VectorStoreFileCounts `json:"file_counts"`
	Status     VectorStoreStatus     `json:"status"`
	ExpiresAt  int64                 `json:"expires_at,omitempty"`
	Metadata   map[string]string     `json:"metadata,omitempty"`
}

// VectorStoreFileCounts counts the files of a vector store by state.
type VectorStoreFileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// CreateVectorStoreParams is the request body of [Client.CreateVectorStore].
type CreateVectorStoreParams struct {
	FileIDs          []string          `json:"file_ids,omitempty"`
	Name             string            `json:"name,omitempty"`
	ChunkingStrategy any               `json:"chunking_strategy,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
