package llm

import (
	"fmt"
	"net/http"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

var statusTable = map[int]domain.StatusDescriptor{
	400: {Status: 400, Kind: domain.StatusKindRequest, Message: "400 Bad Request (Check your request format)"},
	401: {Status: 401, Kind: domain.StatusKindAuth, Message: "401 Unauthorized (Check your API Key)"},
	403: {Status: 403, Kind: domain.StatusKindAuth, Message: "403 Forbidden (API Key invalid or location blocked)"},
	404: {Status: 404, Kind: domain.StatusKindRequest, Message: "404 Not Found (Model not supported by this provider)"},
	429: {Status: 429, Kind: domain.StatusKindQuota, Message: "429 Too Many Requests (Rate limit exceeded)"},
	500: {Status: 500, Kind: domain.StatusKindUpstream, Message: "500 Internal Server Error (Provider error)"},
	502: {Status: 502, Kind: domain.StatusKindUpstream, Message: "502 Bad Gateway (Provider invalid response)"},
	503: {Status: 503, Kind: domain.StatusKindUpstream, Message: "503 Service Unavailable (Provider overloaded)"},
	504: {Status: 504, Kind: domain.StatusKindUpstream, Message: "504 Gateway Timeout (Provider stopped waiting)"},
	524: {Status: 524, Kind: domain.StatusKindUpstream, Message: "524 Provider Timeout (Analysis took too long, try a faster provider)"},
}

// MapStatus classifies an HTTP status. Statuses outside the fixed table get
// a generic "{status} {statusText}" descriptor.
func MapStatus(status int, statusText string) domain.StatusDescriptor {
	if d, ok := statusTable[status]; ok {
		return d
	}
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	return domain.StatusDescriptor{
		Status:  status,
		Kind:    domain.StatusKindUnknown,
		Message: fmt.Sprintf("%d %s", status, statusText),
	}
}
