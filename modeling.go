package kittycad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/kittycad/kittycad-go/internal/apiquery"
	"github.com/kittycad/kittycad-go/internal/param"
	"github.com/kittycad/kittycad-go/option"
	"github.com/kittycad/kittycad-go/packages/wsconn"
)

// ModelingService contains methods and other services that help with interacting
// with the kittycad API.
//
// Note, unlike clients, this service does not read variables from the environment
// automatically. You should not instantiate this service directly, and instead use
// the [NewModelingService] method instead.
type ModelingService struct {
	Options []option.RequestOption
}

// NewModelingService generates a new service that applies the given options to
// each request. These options are applied after the parent client's options (if
// there is one), and before any request-specific options.
func NewModelingService(opts ...option.RequestOption) (r *ModelingService) {
	r = &ModelingService{}
	r.Options = opts
	return
}

// Open a modeling session. Requests are sent as [WebSocketRequest] values and
// every frame the engine answers is a [WebSocketResponse]. The session is
// relayed as is: matching responses to requests through their ids is left to
// the caller.
func (r *ModelingService) CommandsWs(ctx context.Context, query ModelingCommandsWsParams, opts ...option.RequestOption) (res *wsconn.Stream[WebSocketRequest, WebSocketResponse], err error) {
	opts = slices.Concat(r.Options, opts)
	path := "ws/modeling/commands"
	conn, err := wsconn.Dial(ctx, path, query, opts...)
	if err != nil {
		return nil, err
	}
	return wsconn.NewStream[WebSocketRequest, WebSocketResponse](conn, nil), nil
}

// Post effect type.
type PostEffectType string

const (
	PostEffectTypePhosphor PostEffectType = "phosphor"
	PostEffectTypeSsao     PostEffectType = "ssao"
	PostEffectTypeNoeffect PostEffectType = "noeffect"
)

func (r PostEffectType) IsKnown() bool {
	switch r {
	case PostEffectTypePhosphor, PostEffectTypeSsao, PostEffectTypeNoeffect:
		return true
	}
	return false
}

type ModelingCommandsWsParams struct {
	// Frames per second of the video feed.
	Fps param.Field[int64] `query:"fps"`
	// An optional identifier for a pool of engine instances.
	Pool param.Field[string] `query:"pool"`
	// Engine Post effects (such as SSAO).
	PostEffect param.Field[PostEffectType] `query:"post_effect"`
	// If true, will show the grid at the start of the session.
	ShowGrid param.Field[bool] `query:"show_grid"`
	// If true, engine will render video frames as fast as it can.
	UnlockedFramerate param.Field[bool] `query:"unlocked_framerate"`
	// Height of the video feed. Must be a multiple of 4.
	VideoResHeight param.Field[int64] `query:"video_res_height"`
	// Width of the video feed. Must be a multiple of 4.
	VideoResWidth param.Field[int64] `query:"video_res_width"`
	// If false or not specified, the engine will not stream video over WebRTC.
	Webrtc param.Field[bool] `query:"webrtc"`
	// If given, when the session ends, the modeling commands sent during the
	// session will be written out to this filename.
	Replay param.Field[string] `query:"replay"`
	// API Call ID for distributed tracing.
	APICallID param.Field[string] `query:"api_call_id"`
}

// URLQuery serializes [ModelingCommandsWsParams]'s query parameters as
// `url.Values`.
func (r ModelingCommandsWsParams) URLQuery() (url.Values, error) {
	return apiquery.MarshalQuery(r)
}

// A message sent to the modeling engine.
//
// Union satisfied by [ModelingCmdRequest], [ModelingCmdBatchRequest],
// [PingRequest], [TrickleIceRequest], [SdpOfferRequest],
// [MetricsResponseRequest] or [HeadersRequest].
type WebSocketRequest interface {
	implementsWebSocketRequest()
}

// tagged encodes v and adds the type discriminator to the object.
func tagged(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(data, "type", typ)
}

// A modeling command. Cmd is any value that encodes to a modeling command
// object, such as {"type": "start_path"}.
type ModelingCmdRequest struct {
	// The command to run.
	Cmd any `json:"cmd"`
	// The id of the command, echoed back as the request_id of the response.
	CmdID uuid.UUID `json:"cmd_id"`
}

// NewModelingCmdRequest wraps cmd with a fresh command id.
func NewModelingCmdRequest(cmd any) ModelingCmdRequest {
	return ModelingCmdRequest{Cmd: cmd, CmdID: uuid.New()}
}

func (r ModelingCmdRequest) implementsWebSocketRequest() {}

func (r ModelingCmdRequest) MarshalJSON() ([]byte, error) {
	type body ModelingCmdRequest
	return tagged("modeling_cmd_req", body(r))
}

// One command of a batch.
type ModelingCmdBatchEntry struct {
	Cmd   any       `json:"cmd"`
	CmdID uuid.UUID `json:"cmd_id"`
}

// A sequence of modeling commands run in order.
type ModelingCmdBatchRequest struct {
	// Which batch this is. The response carries it as its request_id.
	BatchID uuid.UUID `json:"batch_id"`
	// The commands of the batch.
	Requests []ModelingCmdBatchEntry `json:"requests"`
	// If false or omitted, responses to each batch command will just be Ok(()),
	// no other info. If true, responses will contain the response of each command.
	Responses bool `json:"responses"`
}

func (r ModelingCmdBatchRequest) implementsWebSocketRequest() {}

func (r ModelingCmdBatchRequest) MarshalJSON() ([]byte, error) {
	type body ModelingCmdBatchRequest
	return tagged("modeling_cmd_batch_req", body(r))
}

// The client-to-server Ping to ensure the WebSocket stays alive.
type PingRequest struct{}

func (r PingRequest) implementsWebSocketRequest() {}

func (r PingRequest) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"ping"}`), nil
}

// The trickle ICE candidate request.
type TrickleIceRequest struct {
	// Information about the ICE candidate.
	Candidate RtcIceCandidateInit `json:"candidate"`
}

func (r TrickleIceRequest) implementsWebSocketRequest() {}

func (r TrickleIceRequest) MarshalJSON() ([]byte, error) {
	type body TrickleIceRequest
	return tagged("trickle_ice", body(r))
}

// ICECandidateInit is used to serialize ice candidates.
type RtcIceCandidateInit struct {
	// The candidate string associated with the object.
	Candidate string `json:"candidate"`
	// The index (starting at zero) of the m-line in the SDP this candidate is
	// associated with.
	SdpMLineIndex *int64 `json:"sdpMLineIndex,omitempty"`
	// The identifier of the "media stream identification" as defined in RFC 8841.
	SdpMid string `json:"sdpMid,omitempty"`
	// The username fragment (as defined in RFC 8445) associated with the object.
	UsernameFragment string `json:"usernameFragment,omitempty"`
}

// The SDP offer request.
type SdpOfferRequest struct {
	// The session description.
	Offer RtcSessionDescription `json:"offer"`
}

func (r SdpOfferRequest) implementsWebSocketRequest() {}

func (r SdpOfferRequest) MarshalJSON() ([]byte, error) {
	type body SdpOfferRequest
	return tagged("sdp_offer", body(r))
}

// SessionDescription is used to expose local and remote session descriptions.
type RtcSessionDescription struct {
	// SDP string.
	Sdp string `json:"sdp"`
	// SDP type: offer, pranswer, answer or rollback.
	Type string `json:"type"`
}

// The response to a metrics collection request from the server.
type MetricsResponseRequest struct {
	// Collected metrics from the client's side.
	Metrics json.RawMessage `json:"metrics"`
}

func (r MetricsResponseRequest) implementsWebSocketRequest() {}

func (r MetricsResponseRequest) MarshalJSON() ([]byte, error) {
	type body MetricsResponseRequest
	return tagged("metrics_response", body(r))
}

// Authentication header request.
type HeadersRequest struct {
	// The authentication header.
	Headers map[string]string `json:"headers"`
}

func (r HeadersRequest) implementsWebSocketRequest() {}

func (r HeadersRequest) MarshalJSON() ([]byte, error) {
	type body HeadersRequest
	return tagged("headers", body(r))
}

// A frame sent by the modeling engine.
type WebSocketResponse struct {
	// Whether the request succeeded.
	Success bool `json:"success"`
	// Which request this is a response to. If the request was a modeling
	// command, this is the modeling command ID. If no request ID was sent, this
	// will be null.
	RequestID *uuid.UUID `json:"request_id"`
	// The data sent with a successful response.
	Resp *OkWebSocketResponseData `json:"resp,omitempty"`
	// The errors that occurred.
	Errors []APIErrorDetail `json:"errors,omitempty"`
}

// Err returns the errors of a failed response as a *WebSocketError, or nil.
func (r WebSocketResponse) Err() error {
	if r.Success {
		return nil
	}
	return &WebSocketError{RequestID: r.RequestID, Errors: r.Errors}
}

// An error reported by the API in a WebSocket frame.
type APIErrorDetail struct {
	// The error code.
	ErrorCode string `json:"error_code"`
	// The error message.
	Message string `json:"message"`
}

// WebSocketError is a failed [WebSocketResponse].
type WebSocketError struct {
	RequestID *uuid.UUID
	Errors    []APIErrorDetail
}

func (r *WebSocketError) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.ErrorCode, e.Message))
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "request failed")
	}
	if r.RequestID != nil {
		return fmt.Sprintf("modeling request %s: %s", r.RequestID, strings.Join(msgs, "; "))
	}
	return "modeling: " + strings.Join(msgs, "; ")
}

// The kind of data in a successful response.
type OkWebSocketResponseDataType string

const (
	OkWebSocketResponseDataTypeIceServerInfo       OkWebSocketResponseDataType = "ice_server_info"
	OkWebSocketResponseDataTypeTrickleIce          OkWebSocketResponseDataType = "trickle_ice"
	OkWebSocketResponseDataTypeSdpAnswer           OkWebSocketResponseDataType = "sdp_answer"
	OkWebSocketResponseDataTypeModeling            OkWebSocketResponseDataType = "modeling"
	OkWebSocketResponseDataTypeModelingBatch       OkWebSocketResponseDataType = "modeling_batch"
	OkWebSocketResponseDataTypeExport              OkWebSocketResponseDataType = "export"
	OkWebSocketResponseDataTypeMetricsRequest      OkWebSocketResponseDataType = "metrics_request"
	OkWebSocketResponseDataTypeModelingSessionData OkWebSocketResponseDataType = "modeling_session_data"
	OkWebSocketResponseDataTypePong                OkWebSocketResponseDataType = "pong"
	OkWebSocketResponseDataTypeDebug               OkWebSocketResponseDataType = "debug"
)

func (r OkWebSocketResponseDataType) IsKnown() bool {
	switch r {
	case OkWebSocketResponseDataTypeIceServerInfo, OkWebSocketResponseDataTypeTrickleIce, OkWebSocketResponseDataTypeSdpAnswer, OkWebSocketResponseDataTypeModeling, OkWebSocketResponseDataTypeModelingBatch, OkWebSocketResponseDataTypeExport, OkWebSocketResponseDataTypeMetricsRequest, OkWebSocketResponseDataTypeModelingSessionData, OkWebSocketResponseDataTypePong, OkWebSocketResponseDataTypeDebug:
		return true
	}
	return false
}

// The data of a successful response. Data is kept raw and can be decoded with
// [OkWebSocketResponseData.DecodeData] or the typed accessors.
type OkWebSocketResponseData struct {
	Type OkWebSocketResponseDataType `json:"type"`
	Data json.RawMessage             `json:"data"`
}

// DecodeData decodes Data into v.
func (r OkWebSocketResponseData) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// The response of one modeling command.
type ModelingCmdResponse struct {
	// The command the response is for, such as "export" or "start_path".
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ModelingResponse returns the command response carried by a "modeling" frame.
func (r OkWebSocketResponseData) ModelingResponse() (res ModelingCmdResponse, ok bool, err error) {
	if r.Type != OkWebSocketResponseDataTypeModeling {
		return res, false, nil
	}
	var payload struct {
		ModelingResponse ModelingCmdResponse `json:"modeling_response"`
	}
	if err = r.DecodeData(&payload); err != nil {
		return res, false, err
	}
	return payload.ModelingResponse, true, nil
}

// A file exported by the engine.
type RawFile struct {
	// The contents of the file.
	Contents Base64Data `json:"contents"`
	// The name of the file.
	Name string `json:"name"`
}

// ExportFiles returns the files carried by an "export" frame.
func (r OkWebSocketResponseData) ExportFiles() (files []RawFile, ok bool, err error) {
	if r.Type != OkWebSocketResponseDataTypeExport {
		return nil, false, nil
	}
	var payload struct {
		Files []RawFile `json:"files"`
	}
	if err = r.DecodeData(&payload); err != nil {
		return nil, false, err
	}
	return payload.Files, true, nil
}
