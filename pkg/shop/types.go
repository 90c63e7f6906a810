package shop

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fivetwenty-io/dcapi/internal/constants"
)

// Quota is the API call bucket state the shop reports in response headers.
type Quota struct {
	// Calls is the number of calls left in the bucket.
	Calls int `json:"calls"     yaml:"calls"`
	// Limit is the bucket size.
	Limit int `json:"limit"     yaml:"limit"`
	// Bandwidth is reported verbatim.
	Bandwidth string `json:"bandwidth" yaml:"bandwidth"`
	// UpdatedAt is when the headers were read; zero before the first response.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Known reports whether any quota header has been seen.
func (q Quota) Known() bool {
	return !q.UpdatedAt.IsZero()
}

// Exhausted reports whether the bucket is known to be empty.
func (q Quota) Exhausted() bool {
	return q.Known() && q.Limit > 0 && q.Calls <= 0
}

// QuotaFromHeaders reads the quota headers. ok is false if none is present.
func QuotaFromHeaders(headers http.Header) (Quota, bool) {
	if headers == nil {
		return Quota{}, false
	}

	rawCalls := headers.Get(constants.HeaderAPICalls)
	rawLimit := headers.Get(constants.HeaderAPILimit)
	rawBandwidth := headers.Get(constants.HeaderAPIBandwidth)

	if rawCalls == "" && rawLimit == "" && rawBandwidth == "" {
		return Quota{}, false
	}

	quota := Quota{Bandwidth: rawBandwidth, UpdatedAt: time.Now()}
	quota.Calls, _ = strconv.Atoi(rawCalls)
	quota.Limit, _ = strconv.Atoi(rawLimit)

	return quota, true
}
