package rag

// AskRequest represents a RAG query request.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K optionally specifies the desired chunk count. Defaults to 5, capped at 20.
	K int `json:"k,omitempty"`
}

// Citation points at a document location that contributed to the answer.
type Citation struct {
	// FileName is the base name of the source file.
	FileName string `json:"file_name"`
	// FilePath is the absolute path of the source file at ingestion time.
	FilePath string `json:"file_path"`
	// PageNumber is the page (or chunk position) the text came from.
	PageNumber int `json:"page_number"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer from the LLM.
	Answer string `json:"answer"`
	// Sources are the document locations used to generate the answer.
	Sources []Citation `json:"sources"`
}
