package model

// MintRequest is the JSON body of POST /mint. Field names are part of the
// wire contract and match the deployed clients.
type MintRequest struct {
	Naan       int64  `json:"naan"`
	Shoulder   string `json:"shoulder"`
	URL        string `json:"url"`
	Metadata   string `json:"metadata"`
	Commitment string `json:"commitment"`
}

// UpdateRequest is the JSON body of PUT /update.
type UpdateRequest struct {
	Ark        string `json:"ark"`
	URL        string `json:"url"`
	Metadata   string `json:"metadata"`
	Commitment string `json:"commitment"`
}

// MintResponse is the success body of POST /mint. Ark carries the
// conventional qualified form, e.g. "ark:/12345/x7qc2tpk3f".
type MintResponse struct {
	Ark string `json:"ark"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
