package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filter       *Filter
	Vector       []float32
	K            int
	EFRuntime    int // HNSW only; zero keeps the index default
	ReturnFields []string
	RawScores    bool // keep __vector_score as-is instead of 1-score
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
