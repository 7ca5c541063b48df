package models

// RankedResult is a corpus record scored against a query. It is never persisted.
type RankedResult struct {
	ID    int     `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// AskResponse is the answer to an AskQuery.
// Answer is ordered by descending score.
type AskResponse struct {
	Key       string         `json:"key"`
	Question  string         `json:"question"`
	Answer    []RankedResult `json:"answer"`
	QueryTime int64          `json:"query_time_ms"`
}
