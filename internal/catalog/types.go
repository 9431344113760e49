package catalog

// Item is a course as it comes out of a data source. Adapters are responsible
// for defaulting a missing title to "" and malformed tags to nil.
type Item struct {
	ID    string
	Title string
	Tags  []string
}

// Document is a kept item with the text used for vectorization.
type Document struct {
	ID       string
	Title    string
	Text     string
	Position int // index among kept documents, in catalog order
}
