package kittycad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kittycad/kittycad-go/internal/apijson"
	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/internal/requestconfig"
	"github.com/kittycad/kittycad-go/option"
	"github.com/kittycad/kittycad-go/packages/pagination"
	"github.com/kittycad/kittycad-go/packages/wsconn"
)

// MLService contains methods and other services that help with interacting with
// the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewMLService] method instead.
type MLService struct {
	Options []option.RequestOption
}

// NewMLService generates a new service that applies the given options to each
// request. These options are applied after the parent client's options (if there
// is one), and before any request-specific options.
func NewMLService(opts ...option.RequestOption) (r *MLService) {
	r = &MLService{}
	r.Options = opts
	return
}

// Generate a CAD model from text. Because our source of truth for the resulting
// model is a STEP file, you will always have STEP file contents when you list
// your generated models. Any other formats you request here will also be
// returned when you list your generated models. This operation is performed
// asynchronously, the `id` of the operation will be returned. You can use the
// `id` returned from the request to get status information about the async
// operation from the `/async/operations/{id}` endpoint.
func (r *MLService) NewTextToCAD(ctx context.Context, outputFormat FileExportFormat, params MLNewTextToCADParams, opts ...option.RequestOption) (res *TextToCAD, err error) {
	opts = slices.Concat(r.Options, opts)
	if outputFormat == "" {
		err = errors.New("missing required output_format parameter")
		return
	}
	path := fmt.Sprintf("ai/text-to-cad/%s", url.PathEscape(string(outputFormat)))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, &res, opts...)
	return
}

// List text-to-CAD models you've generated.
func (r *MLService) ListTextToCADForUser(ctx context.Context, query MLListTextToCADForUserParams, opts ...option.RequestOption) (res *pagination.ResultsPage[TextToCAD], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	path := "user/text-to-cad"
	cfg, err := requestconfig.NewRequestConfig(ctx, http.MethodGet, path, query, &res, opts...)
	if err != nil {
		return nil, err
	}
	err = cfg.Execute()
	if err != nil {
		return nil, err
	}
	res.SetPageConfig(cfg, raw)
	return res, nil
}

// List text-to-CAD models you've generated, fetching further pages as the
// iterator advances.
func (r *MLService) ListTextToCADForUserAutoPaging(ctx context.Context, query MLListTextToCADForUserParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[TextToCAD] {
	return pagination.NewResultsPageAutoPager(r.ListTextToCADForUser(ctx, query, opts...))
}

// Get a text-to-CAD response for your user.
func (r *MLService) GetTextToCADForUser(ctx context.Context, id string, opts ...option.RequestOption) (res *TextToCAD, err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("user/text-to-cad/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Give feedback to a specific text-to-CAD response.
func (r *MLService) NewTextToCADFeedback(ctx context.Context, id string, params MLNewTextToCADFeedbackParams, opts ...option.RequestOption) (err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("user/text-to-cad/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodPost, path, params, nil, opts...)
	return
}

// List all ML prompts. Only Zoo employees can list prompts.
func (r *MLService) ListPrompts(ctx context.Context, query MLListPromptsParams, opts ...option.RequestOption) (res *pagination.ResultsPage[MLPrompt], err error) {
	var raw *http.Response
	opts = slices.Concat(r.Options, opts, []option.RequestOption{option.WithResponseInto(&raw)})
	path := "ml-prompts"
	cfg, err := requestconfig.NewRequestConfig(ctx, http.MethodGet, path, query, &res, opts...)
	if err != nil {
		return nil, err
	}
	err = cfg.Execute()
	if err != nil {
		return nil, err
	}
	res.SetPageConfig(cfg, raw)
	return res, nil
}

// List all ML prompts, fetching further pages as the iterator advances.
func (r *MLService) ListPromptsAutoPaging(ctx context.Context, query MLListPromptsParams, opts ...option.RequestOption) *pagination.ResultsPageAutoPager[MLPrompt] {
	return pagination.NewResultsPageAutoPager(r.ListPrompts(ctx, query, opts...))
}

// Get an ML prompt. Only Zoo employees can read prompts.
func (r *MLService) GetPrompt(ctx context.Context, id string, opts ...option.RequestOption) (res *MLPrompt, err error) {
	opts = slices.Concat(r.Options, opts)
	if id == "" {
		err = errors.New("missing required id parameter")
		return
	}
	path := fmt.Sprintf("ml-prompts/%s", url.PathEscape(id))
	err = requestconfig.ExecuteNewRequest(ctx, http.MethodGet, path, nil, &res, opts...)
	return
}

// Open a conversation with the ML copilot. Every message the client sends and
// every message the server answers is one JSON text frame.
func (r *MLService) CopilotWs(ctx context.Context, opts ...option.RequestOption) (res *wsconn.Stream[MLCopilotClientMessage, MLCopilotServerMessage], err error) {
	opts = slices.Concat(r.Options, opts)
	path := "ws/ml/copilot"
	conn, err := wsconn.Dial(ctx, path, nil, opts...)
	if err != nil {
		return nil, err
	}
	return wsconn.NewStream[MLCopilotClientMessage](conn, DecodeMLCopilotServerMessage), nil
}

// Human feedback on an ML response.
type MLFeedback string

const (
	MLFeedbackThumbsUp   MLFeedback = "thumbs_up"
	MLFeedbackThumbsDown MLFeedback = "thumbs_down"
	MLFeedbackAccepted   MLFeedback = "accepted"
	MLFeedbackRejected   MLFeedback = "rejected"
)

func (r MLFeedback) IsKnown() bool {
	switch r {
	case MLFeedbackThumbsUp, MLFeedbackThumbsDown, MLFeedbackAccepted, MLFeedbackRejected:
		return true
	}
	return false
}

// A response from a text to CAD prompt.
type TextToCAD struct {
	AsyncOperationInfo
	// The code for the model. This is optional but will be required in the future
	// once we are at v1.
	Code string `json:"code"`
	// Feedback from the user, if any.
	Feedback MLFeedback `json:"feedback"`
	// The version of kcl requested.
	KclVersion string `json:"kcl_version"`
	// The version of the model.
	ModelVersion string `json:"model_version"`
	// The output format of the model.
	OutputFormat FileExportFormat `json:"output_format"`
	// The output of the model in the given file format the user requested, base64
	// encoded. The key of the map is the path of the output file.
	Outputs map[string]Base64Data `json:"outputs"`
	// The name of the project, if any. This will be used to name the project in
	// the Zoo Design Studio.
	ProjectName string `json:"project_name"`
	// The prompt.
	Prompt string `json:"prompt"`
}

// The kind of an ML prompt.
type MLPromptType string

const (
	MLPromptTypeTextToCAD          MLPromptType = "text_to_cad"
	MLPromptTypeTextToKcl          MLPromptType = "text_to_kcl"
	MLPromptTypeTextToKclIteration MLPromptType = "text_to_kcl_iteration"
)

func (r MLPromptType) IsKnown() bool {
	switch r {
	case MLPromptTypeTextToCAD, MLPromptTypeTextToKcl, MLPromptTypeTextToKclIteration:
		return true
	}
	return false
}

// A ML prompt.
type MLPrompt struct {
	// The unique identifier for the ML prompt.
	ID uuid.UUID `json:"id"`
	// The date and time the ML prompt was completed.
	CompletedAt *time.Time `json:"completed_at"`
	// The date and time the ML prompt was created.
	CreatedAt time.Time `json:"created_at"`
	// The error message if the prompt failed.
	Error string `json:"error"`
	// Feedback from the user, if any.
	Feedback MLFeedback `json:"feedback"`
	// The version of kcl requested.
	KclVersion string `json:"kcl_version"`
	// The metadata for the prompt.
	Metadata json.RawMessage `json:"metadata,omitempty"`
	// The version of the model.
	ModelVersion string `json:"model_version"`
	// The output file. In the case of TextToCad this is a link to a file in a
	// GCP bucket.
	OutputFile string `json:"output_file"`
	// The name of the project, if any.
	ProjectName string `json:"project_name"`
	// The prompt.
	Prompt string `json:"prompt"`
	// The date and time the ML prompt was started.
	StartedAt *time.Time `json:"started_at"`
	// The status of the prompt.
	Status ApiCallStatus `json:"status"`
	// The type of prompt.
	Type MLPromptType `json:"type"`
	// The date and time the ML prompt was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// The user ID of the user who created the ML prompt.
	UserID uuid.UUID `json:"user_id"`
}

type MLNewTextToCADParams struct {
	// The prompt for the model.
	Prompt param.Field[string] `json:"prompt,omitzero"`
	// The version of kcl to use. If empty, the latest version will be used.
	KclVersion param.Field[string] `json:"kcl_version,omitzero"`
	// The project name. This is used to tie the prompt to a project, which helps
	// our ML models improve.
	ProjectName param.Field[string] `json:"project_name,omitzero"`
	// If we should output the kcl for the model.
	Kcl param.Field[bool] `query:"kcl" json:"-"`
}

// URLQuery serializes [MLNewTextToCADParams]'s query parameters as `url.Values`.
func (r MLNewTextToCADParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

// MarshalJSON keeps the query-only fields out of the body; a type that
// implements URLQuery is otherwise not sent as JSON.
func (r MLNewTextToCADParams) MarshalJSON() (data []byte, err error) {
	type body MLNewTextToCADParams
	return json.Marshal(body(r))
}

type MLListTextToCADForUserParams struct {
	PageParams
	// If we should return the model and prompt as well as the CAD outputs.
	NoModels param.Field[bool] `query:"no_models"`
}

// URLQuery serializes [MLListTextToCADForUserParams]'s query parameters as
// `url.Values`.
func (r MLListTextToCADForUserParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type MLNewTextToCADFeedbackParams struct {
	// The feedback.
	Feedback param.Field[MLFeedback] `query:"feedback"`
}

// URLQuery serializes [MLNewTextToCADFeedbackParams]'s query parameters as
// `url.Values`.
func (r MLNewTextToCADFeedbackParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

type MLListPromptsParams struct {
	PageParams
}

// URLQuery serializes [MLListPromptsParams]'s query parameters as `url.Values`.
func (r MLListPromptsParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

// The kind of message a copilot client sends.
type MLCopilotClientMessageType string

const (
	MLCopilotClientMessageTypeHeaders MLCopilotClientMessageType = "headers"
	MLCopilotClientMessageTypeUser    MLCopilotClientMessageType = "user"
	MLCopilotClientMessageTypeSystem  MLCopilotClientMessageType = "system"
)

func (r MLCopilotClientMessageType) IsKnown() bool {
	switch r {
	case MLCopilotClientMessageTypeHeaders, MLCopilotClientMessageTypeUser, MLCopilotClientMessageTypeSystem:
		return true
	}
	return false
}

// A command a copilot client can send in a system message.
type MLCopilotSystemCommand string

const (
	// Start a new conversation, forgetting the previous turns.
	MLCopilotSystemCommandNew MLCopilotSystemCommand = "new"
	// End the conversation; the server closes the connection.
	MLCopilotSystemCommandBye MLCopilotSystemCommand = "bye"
)

func (r MLCopilotSystemCommand) IsKnown() bool {
	switch r {
	case MLCopilotSystemCommandNew, MLCopilotSystemCommandBye:
		return true
	}
	return false
}

// A message from the client to the copilot. Which fields are set depends on
// Type; use [NewMLCopilotUserMessage], [NewMLCopilotSystemMessage] or
// [NewMLCopilotHeadersMessage].
type MLCopilotClientMessage struct {
	Type MLCopilotClientMessageType `json:"type"`
	// The content of a user message.
	Content string `json:"content,omitempty"`
	// The project files the user is working on, keyed by path.
	CurrentFiles map[string]Base64Data `json:"current_files,omitempty"`
	// The name of the project the message is about.
	ProjectName string `json:"project_name,omitempty"`
	// The command of a system message.
	Command MLCopilotSystemCommand `json:"command,omitempty"`
	// Headers sent on a connection that could not set them on the handshake.
	Headers map[string]string `json:"headers,omitempty"`
}

func NewMLCopilotUserMessage(content string) MLCopilotClientMessage {
	return MLCopilotClientMessage{Type: MLCopilotClientMessageTypeUser, Content: content}
}

func NewMLCopilotSystemMessage(command MLCopilotSystemCommand) MLCopilotClientMessage {
	return MLCopilotClientMessage{Type: MLCopilotClientMessageTypeSystem, Command: command}
}

func NewMLCopilotHeadersMessage(headers map[string]string) MLCopilotClientMessage {
	return MLCopilotClientMessage{Type: MLCopilotClientMessageTypeHeaders, Headers: headers}
}

// A message from the copilot.
//
// Union satisfied by [MLCopilotConversationID], [MLCopilotDelta],
// [MLCopilotToolOutput], [MLCopilotError], [MLCopilotInfo],
// [MLCopilotEndOfStream] or [MLCopilotServerMessageUnknown].
type MLCopilotServerMessage interface {
	implementsMLCopilotServerMessage()
}

func init() {
	apijson.RegisterUnion(
		reflect.TypeOf((*MLCopilotServerMessage)(nil)).Elem(),
		"type",
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(MLCopilotConversationID{}),
			DiscriminatorValue: "conversation_id",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(MLCopilotDelta{}),
			DiscriminatorValue: "delta",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(MLCopilotToolOutput{}),
			DiscriminatorValue: "tool_output",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(MLCopilotError{}),
			DiscriminatorValue: "error",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(MLCopilotInfo{}),
			DiscriminatorValue: "info",
		},
		apijson.UnionVariant{
			TypeFilter:         gjson.JSON,
			Type:               reflect.TypeOf(MLCopilotEndOfStream{}),
			DiscriminatorValue: "end_of_stream",
		},
	)
	apijson.RegisterFallback(
		reflect.TypeOf((*MLCopilotServerMessage)(nil)).Elem(),
		reflect.TypeOf(MLCopilotServerMessageUnknown{}),
	)
}

// DecodeMLCopilotServerMessage decodes one frame sent by the copilot.
func DecodeMLCopilotServerMessage(data []byte) (MLCopilotServerMessage, error) {
	v, err := apijson.UnmarshalUnion(reflect.TypeOf((*MLCopilotServerMessage)(nil)).Elem(), data)
	if err != nil {
		return nil, err
	}
	return v.(MLCopilotServerMessage), nil
}

// The id of the conversation, sent once after the connection opens.
type MLCopilotConversationID struct {
	ConversationID string `json:"conversation_id"`
}

func (r MLCopilotConversationID) implementsMLCopilotServerMessage() {}

// A chunk of the streamed reply.
type MLCopilotDelta struct {
	Delta string `json:"delta"`
}

func (r MLCopilotDelta) implementsMLCopilotServerMessage() {}

// The result of a tool the copilot ran.
type MLCopilotToolOutput struct {
	Result json.RawMessage `json:"result"`
}

func (r MLCopilotToolOutput) implementsMLCopilotServerMessage() {}

// An error; the conversation may continue.
type MLCopilotError struct {
	Detail string `json:"detail"`
}

func (r MLCopilotError) implementsMLCopilotServerMessage() {}

// Informational text that is not part of the reply.
type MLCopilotInfo struct {
	Text string `json:"text"`
}

func (r MLCopilotInfo) implementsMLCopilotServerMessage() {}

// The reply is complete.
type MLCopilotEndOfStream struct {
	// The whole reply, when the server sends it.
	WholeResponse string `json:"whole_response"`
}

func (r MLCopilotEndOfStream) implementsMLCopilotServerMessage() {}

// A message of a type this client does not know.
type MLCopilotServerMessageUnknown struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func (r MLCopilotServerMessageUnknown) implementsMLCopilotServerMessage() {}

func (r *MLCopilotServerMessageUnknown) UnmarshalJSON(data []byte) error {
	r.Type = gjson.GetBytes(data, "type").String()
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}
