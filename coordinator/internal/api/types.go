package api

import "encoding/json"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	RunCount int    `json:"run_count"`
	Pending  int    `json:"pending"`
	Running  int    `json:"running"`
	Done     int    `json:"done"`
	Failed   int    `json:"failed"`
}

// SubmitRunRequest is the payload for POST /api/v1/runs. NumSamples accepts
// both a bare number and a scientific-notation string ("1e6").
type SubmitRunRequest struct {
	NumSamples SampleCount `json:"num_samples"`
	Seed       int64       `json:"seed"`
	Workers    int         `json:"workers"`
}

// SampleCount holds a sample count in its textual form. It unmarshals from
// either a JSON number or a quoted string, so clients may send
// {"num_samples": 100000} or {"num_samples": "1e5"}.
type SampleCount string

func (s *SampleCount) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = SampleCount(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = SampleCount(num.String())
	return nil
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
