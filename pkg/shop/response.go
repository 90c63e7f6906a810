package shop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the envelope a Transport hands back to a Resource.
type Response struct {
	StatusCode int
	Headers    http.Header
	// Data is the decoded-later JSON body.
	Data json.RawMessage
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type collectionEnvelope struct {
	List  json.RawMessage `json:"list"`
	Page  flexInt         `json:"page"`
	Count flexInt         `json:"count"`
	Pages flexInt         `json:"pages"`
}

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// TransformResponse interprets resp. On a 2xx status it returns a *RecordList
// when isCollection is set and a *Record otherwise; any other status yields an
// ApiError carrying the status code and the payload's "error" message.
func TransformResponse(resp *Response, isCollection bool) (Result, error) {
	if !resp.IsSuccess() {
		return nil, APIErrorFromResponse(resp)
	}

	if isCollection {
		return transformCollection(resp.Data)
	}

	record := NewRecord()

	if !isNull(resp.Data) {
		err := record.UnmarshalJSON(resp.Data)
		if err != nil {
			return nil, NewClientError(fmt.Errorf("parsing entity response: %w", err))
		}
	}

	return record, nil
}

// APIErrorFromResponse builds the ApiError for a failed response.
func APIErrorFromResponse(resp *Response) *ResourceError {
	return NewAPIError(errorMessage(resp.Data), resp.StatusCode)
}

func transformCollection(data json.RawMessage) (*RecordList, error) {
	if isNull(data) {
		return &RecordList{}, nil
	}

	var envelope collectionEnvelope

	err := json.Unmarshal(data, &envelope)
	if err != nil {
		return nil, NewClientError(fmt.Errorf("parsing collection response: %w", err))
	}

	if isNull(envelope.List) {
		return &RecordList{}, nil
	}

	var rawItems []json.RawMessage

	err = json.Unmarshal(envelope.List, &rawItems)
	if err != nil {
		return nil, NewClientError(fmt.Errorf("parsing collection list: %w", err))
	}

	items := make([]*Record, 0, len(rawItems))

	for _, raw := range rawItems {
		item := NewRecord()

		err = item.UnmarshalJSON(raw)
		if err != nil {
			return nil, NewClientError(fmt.Errorf("parsing collection item: %w", err))
		}

		items = append(items, item)
	}

	return NewRecordList(items, int(envelope.Page), int(envelope.Count), int(envelope.Pages)), nil
}

func errorMessage(data json.RawMessage) string {
	if isNull(data) {
		return ""
	}

	var envelope errorEnvelope

	err := json.Unmarshal(data, &envelope)
	if err != nil || isNull(envelope.Error) {
		return ""
	}

	var message string

	err = json.Unmarshal(envelope.Error, &message)
	if err != nil {
		return string(envelope.Error)
	}

	return message
}

// decodePayload decodes a raw payload into ordered JSON values.
func decodePayload(data json.RawMessage) (any, error) {
	if isNull(data) {
		return nil, nil
	}

	return decodeJSON(data)
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)

	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
