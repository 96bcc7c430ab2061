package retrieval

import "encoding/json"

// Summary is the display form of one message.
type Summary struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Preview string `json:"preview"`
}

// Failure is the single error a retrieval reports.
type Failure struct {
	Kind    Kind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Result holds either the retrieved summaries or a failure, never both.
type Result struct {
	messages []Summary
	failure  *Failure
}

// Success wraps summaries in a Result. A nil slice becomes empty.
func Success(messages []Summary) Result {
	if messages == nil {
		messages = []Summary{}
	}
	return Result{messages: messages}
}

// Failed wraps a failure in a Result.
func Failed(kind Kind, message string) Result {
	return Result{failure: &Failure{Kind: kind, Message: message}}
}

// Messages returns the summaries and true for a successful result.
func (r Result) Messages() ([]Summary, bool) {
	if r.failure != nil {
		return nil, false
	}
	return r.messages, true
}

// Failure returns the failure of an unsuccessful result, or nil.
func (r Result) Failure() *Failure {
	return r.failure
}

// MarshalJSON encodes {"messages": [...]} or {"error": "..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.failure != nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.failure.Message})
	}

	messages := r.messages
	if messages == nil {
		messages = []Summary{}
	}
	return json.Marshal(struct {
		Messages []Summary `json:"messages"`
	}{messages})
}
