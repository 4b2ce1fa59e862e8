package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeRequest parses REQ<TAB>id<TAB>command[<TAB>args]. A line with fewer
// than three fields or without the REQ marker yields ErrMalformedRequest.
// A non-numeric id decodes as -1.
func DecodeRequest(line string) (Request, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 || parts[0] != MarkerRequest {
		return Request{}, fmt.Errorf("%w: %s", ErrMalformedRequest, line)
	}
	id, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		id = -1
	}
	argsText := "{}"
	if len(parts) >= 4 {
		argsText = parts[3]
	}
	return Request{ID: id, Command: parts[2], Args: ParseArgs(argsText)}, nil
}

// EncodeResponse renders a RES line without the trailing newline.
func EncodeResponse(resp Response) string {
	id := strconv.Itoa(resp.ID)
	if !resp.OK {
		return strings.Join([]string{MarkerResponse, id, StatusErr, OneLine(resp.Error)}, "\t")
	}
	payload := "{}"
	if resp.Payload != nil {
		payload = Encode(resp.Payload)
	}
	return strings.Join([]string{MarkerResponse, id, StatusOK, payload}, "\t")
}

// EncodeEvent renders an EVT line without the trailing newline.
func EncodeEvent(evt Event) string {
	return strings.Join([]string{MarkerEvent, evt.Type, Encode(evt.Payload)}, "\t")
}

// OneLine replaces line breaks and tabs with spaces so text cannot break
// the framing.
func OneLine(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
}

func encodeScalarText(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
