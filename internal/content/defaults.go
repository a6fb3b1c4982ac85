package content

const (
	backupImageURL  = "https://images.unsplash.com/photo-1710976151734-72b48a6d66f4?q=80&w=2548&auto=format&fit=crop&ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D"
	backupBlurHash  = "LE9@L+~pM_M|?a%MR,M|IpRkWBNG"
	backupImageAlt  = "a group of people crossing a street in a city"
	PlaceholderBlur = "L9FFjRNJKQ_3~q4.xCRPK7^+M{V@"

	defaultPoem = "The minute slips past like a coat on a hook,\n" +
		"the street keeps its secrets in puddles and glass,\n" +
		"I read the hour the way you would read a book,\n" +
		"and let the small hands of the morning pass."
	defaultPoet = "Sylvia Plath"
)

// DefaultImage returns the photograph shown when no provider delivered one.
func DefaultImage() *Image {
	return &Image{URL: backupImageURL, BlurHash: backupBlurHash, Alt: backupImageAlt}
}

// Defaults returns the compiled-in record served when nothing else is available.
func Defaults() Record {
	return NewRecord(Poem{Text: defaultPoem, Poet: defaultPoet}, DefaultImage())
}
